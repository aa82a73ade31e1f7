package chat

import (
	"testing"

	"github.com/etarip26/EduConnect/core"
)

func TestModerate(t *testing.T) {
	deny := []string{"shit", " Damn ", ""}
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "clean", content: "see you at 5pm"},
		{name: "denied", content: "this is shit", wantErr: true},
		{name: "case insensitive", content: "DAMN it", wantErr: true},
		{name: "substring", content: "damnation", wantErr: true},
		{name: "blank terms are ignored", content: "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Moderate(tt.content, deny)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Moderate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !core.IsValidation(err) {
				t.Errorf("Moderate() error = %T, want a validation error", err)
			}
		})
	}
}

func TestTopic(t *testing.T) {
	if got := Topic("abc"); got != "chat:room:abc" {
		t.Errorf("Topic() = %q", got)
	}
}
