package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = core.NewAuthenticationError("invalid credentials")
	ErrAccountSuspended   = core.NewAuthorizationError("account suspended")
	ErrAccountBanned      = core.NewAuthorizationError("account banned")
	ErrInvalidResetLink   = core.NewValidationError(errors.New("invalid password reset link"))
	ErrEmailVerified      = core.NewValidationError(errors.New("email already verified"))
	ErrOTPNotRequested    = core.NewValidationError(errors.New("no verification code requested"))
	ErrOTPExpired         = core.NewValidationError(errors.New("verification code expired"))
	ErrOTPInvalid         = core.NewValidationError(errors.New("invalid verification code"))
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields, newest first.
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUser(ctx context.Context, id string) error
		// CountUsersByRole returns {role: count}.
		CountUsersByRole(ctx context.Context) (map[string]int, error)
	}

	ServiceInterface interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		Create(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Query(ctx context.Context, filter QueryFilter) ([]User, error)
		CountByRole(ctx context.Context) (map[string]int, error)
		UpdateBasic(ctx context.Context, usr User, data UpdateBasic) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		RequestEmailOTP(ctx context.Context, usr User) error
		VerifyEmailOTP(ctx context.Context, usr User, code string) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) (User, error)
		SetSuspended(ctx context.Context, id string, suspended bool) (User, error)
		SetBanned(ctx context.Context, id string, banned bool, reason string) (User, error)
		PromoteToAdmin(ctx context.Context, id string) (User, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo       Repository
		mailSvc    core.EmailService
		validate   *validator.Validate
		tokenGen   tokenGenerator
		otpTimeout time.Duration
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate, conf *core.Config) ServiceInterface {
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		validate: validate,
		tokenGen: tokenGenerator{
			secretKey: []byte(conf.SecretKey),
			timeout:   conf.Server.PasswordResetTimeoutDelta,
		},
		otpTimeout: conf.Server.OTPTimeoutDelta,
	}
}

func (svc *service) checkUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

// Register creates a student or teacher account.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	return svc.Create(ctx, nu)
}

// Create creates an account of any role; only reachable from the admin CLI and seeders.
func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if !core.ContainsString(AllRoles, nu.Role) {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})
	}
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:        uuid.NewString(),
		Name:      nu.Name,
		Email:     nu.Email,
		Phone:     nu.Phone,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if err == ErrEmailExists { // lost a race against a concurrent registration
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

// Authenticate checks credentials, rejects blocked accounts and records the login.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err = usr.Blocked(); err != nil {
		return User{}, err
	}

	usr.LastLogin = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.QueryUsers(ctx, filter)
}

func (svc *service) CountByRole(ctx context.Context) (map[string]int, error) {
	return svc.repo.CountUsersByRole(ctx)
}

func (svc *service) UpdateBasic(ctx context.Context, usr User, data UpdateBasic) (User, error) {
	if err := data.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr.Name = data.Name
	usr.Phone = data.Phone
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestEmailOTP stores a fresh 6-digit code on the account and emails it.
func (svc *service) RequestEmailOTP(ctx context.Context, usr User) error {
	if usr.IsEmailVerified {
		return ErrEmailVerified
	}
	code, err := generateOTP()
	if err != nil {
		return errors.Wrap(err, "generating otp")
	}
	usr.EmailOTPCode = code
	usr.EmailOTPExpiresAt = time.Now().UTC().Add(svc.otpTimeout)
	usr.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "storing otp")
	}
	svc.mailSvc.SendMessages(svc.otpMessage(usr))
	return nil
}

func (svc *service) otpMessage(usr User) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your verification code",
		TemplateName: "otp",
		TemplateData: map[string]interface{}{
			"Name":    usr.Name,
			"Code":    usr.EmailOTPCode,
			"Minutes": int(svc.otpTimeout.Minutes()),
		},
	}
}

func (svc *service) VerifyEmailOTP(ctx context.Context, usr User, code string) (User, error) {
	if usr.IsEmailVerified {
		return User{}, ErrEmailVerified
	}
	if usr.EmailOTPCode == "" {
		return User{}, ErrOTPNotRequested
	}
	if time.Now().UTC().After(usr.EmailOTPExpiresAt) {
		return User{}, ErrOTPExpired
	}
	if core.CleanString(code) != usr.EmailOTPCode {
		return User{}, ErrOTPInvalid
	}
	usr.IsEmailVerified = true
	usr.EmailOTPCode = ""
	usr.EmailOTPExpiresAt = time.Time{}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	svc.mailSvc.SendMessages(svc.passwordResetMessage(usr))
	return nil
}

func (svc *service) passwordResetMessage(usr User) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": svc.tokenGen.makeToken(usr),
		},
	}
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) (User, error) {
	if err := data.Validate(svc.validate); err != nil {
		return User{}, err
	}
	uid, err := decodeUID(data.UID)
	if err != nil {
		return User{}, ErrInvalidResetLink
	}
	usr, err := svc.GetByID(ctx, uid)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidResetLink
		}
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokenGen.verifyToken(usr, data.Token); err != nil {
		return User{}, ErrInvalidResetLink
	}
	data.name, data.email = usr.Name, usr.Email
	if err = data.Validate(svc.validate); err != nil {
		return User{}, err
	}
	return svc.SetPassword(ctx, usr, data.Password)
}

func (svc *service) SetSuspended(ctx context.Context, id string, suspended bool) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.IsSuspended = suspended
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetBanned(ctx context.Context, id string, banned bool, reason string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.IsBanned = banned
	usr.BanReason = ""
	if banned {
		usr.BanReason = core.CleanString(reason)
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) PromoteToAdmin(ctx context.Context, id string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if usr.IsAdmin() {
		return User{}, core.NewConflictError("user is already an admin")
	}
	usr.Role = RoleAdmin
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteUser(ctx, id)
}
