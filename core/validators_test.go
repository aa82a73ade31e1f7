package core_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etarip26/EduConnect/core"
)

type contact struct {
	Phone    string   `json:"phone" validate:"omitempty,phone"`
	Subjects []string `json:"subjects" validate:"dive,notblank"`
	Name     string   `json:"name" validate:"required"`
}

func TestInitValidators(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	tests := []struct {
		name    string
		in      contact
		wantErr map[string]string
	}{
		{name: "valid", in: contact{Phone: "+880 1700-000000", Subjects: []string{"Math"}, Name: "Rahim"}},
		{name: "no phone", in: contact{Name: "Rahim"}},
		{
			name:    "letters in phone",
			in:      contact{Phone: "call me", Name: "Rahim"},
			wantErr: map[string]string{"phone": "phone must be a phone number such as +8801700000000"},
		},
		{
			name:    "short phone",
			in:      contact{Phone: "123", Name: "Rahim"},
			wantErr: map[string]string{"phone": "phone must be a phone number such as +8801700000000"},
		},
		{
			name:    "blank subject",
			in:      contact{Subjects: []string{"Math", "  "}, Name: "Rahim"},
			wantErr: map[string]string{"subjects[1]": "this field cannot be blank"},
		},
		{
			name:    "missing name",
			in:      contact{},
			wantErr: map[string]string{"name": "this field is required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.in)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			got := make(map[string]string)
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.wantErr, got)
		})
	}
}
