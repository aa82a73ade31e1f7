package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/etarip26/EduConnect/core"
)

// Roles
const (
	RoleStudent = core.RoleStudent
	RoleTeacher = core.RoleTeacher
	RoleAdmin   = core.RoleAdmin
)

var (
	AllRoles = []string{RoleStudent, RoleTeacher, RoleAdmin}

	// SelfServiceRoles are the roles an account can pick at registration; admins are created by admins.
	SelfServiceRoles = []string{RoleStudent, RoleTeacher}
)

type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Role              string    `json:"role"`
	PasswordHash      []byte    `json:"-"`
	IsEmailVerified   bool      `json:"is_email_verified"`
	EmailOTPCode      string    `json:"-"`
	EmailOTPExpiresAt time.Time `json:"-"`
	IsSuspended       bool      `json:"is_suspended"`
	IsBanned          bool      `json:"is_banned"`
	BanReason         string    `json:"ban_reason,omitempty"`
	LastLogin         time.Time `json:"last_login"` // UTC
	CreatedAt         time.Time `json:"created_at"` // UTC
	UpdatedAt         time.Time `json:"updated_at"` // UTC
}

var _ core.LogUser = User{}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// Blocked returns the reason this account may not use the API, if any.
func (u User) Blocked() error {
	if u.IsBanned {
		return ErrAccountBanned
	}
	if u.IsSuspended {
		return ErrAccountSuspended
	}
	return nil
}

func (u User) LogIdentity() (string, string, string) {
	return u.ID, u.Name, u.Email
}

// Public is the shape of an account exposed to other parties.
type Public struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Public() Public {
	return Public{ID: u.ID, Name: u.Name, Email: u.Email}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"omitempty,phone,max=20"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
	Role            string `json:"role" validate:"required,role"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}

// UpdateBasic defines what an account owner may change on their own account.
type UpdateBasic struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"omitempty,phone,max=20"`
}

func (ub *UpdateBasic) Validate(validate *validator.Validate) error {
	ub.Name = core.CleanString(ub.Name)
	ub.Phone = core.CleanString(ub.Phone)
	return validate.Struct(ub)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`

	// account attributes the new password is compared against, set once the link is verified
	name, email string
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search    string `query:"search"`
	Role      string `query:"role"`
	Suspended *bool  `query:"suspended"`
	Banned    *bool  `query:"banned"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.Suspended == nil && qf.Banned == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

// Match reports whether `u` satisfies every set field of the filter.
// Search does a case-insensitive match on one of User.Name, User.Email or User.Phone.
func (qf QueryFilter) Match(u User) bool {
	if qf.Role != "" && u.Role != qf.Role {
		return false
	}
	if qf.Suspended != nil && u.IsSuspended != *qf.Suspended {
		return false
	}
	if qf.Banned != nil && u.IsBanned != *qf.Banned {
		return false
	}
	if qf.Search != "" {
		return core.ContainsFold(u.Name, qf.Search) || core.ContainsFold(u.Email, qf.Search) || core.ContainsFold(u.Phone, qf.Search)
	}
	return true
}
