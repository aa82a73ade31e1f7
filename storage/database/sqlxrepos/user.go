package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
)

type userRow struct {
	ID                string      `db:"id"`
	Name              string      `db:"name"`
	Email             string      `db:"email"`
	Phone             string      `db:"phone"`
	Role              string      `db:"role"`
	PasswordHash      []byte      `db:"password_hash"`
	IsEmailVerified   bool        `db:"is_email_verified"`
	EmailOTPCode      null.String `db:"email_otp_code"`
	EmailOTPExpiresAt null.Time   `db:"email_otp_expires_at"`
	IsSuspended       bool        `db:"is_suspended"`
	IsBanned          bool        `db:"is_banned"`
	BanReason         string      `db:"ban_reason"`
	LastLogin         null.Time   `db:"last_login"`
	CreatedAt         time.Time   `db:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
}

func newUserRow(u user.User) userRow {
	row := userRow{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		Role:            u.Role,
		PasswordHash:    u.PasswordHash,
		IsEmailVerified: u.IsEmailVerified,
		IsSuspended:     u.IsSuspended,
		IsBanned:        u.IsBanned,
		BanReason:       u.BanReason,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if u.EmailOTPCode != "" {
		row.EmailOTPCode = null.StringFrom(u.EmailOTPCode)
	}
	if !u.EmailOTPExpiresAt.IsZero() {
		row.EmailOTPExpiresAt = null.TimeFrom(u.EmailOTPExpiresAt)
	}
	if !u.LastLogin.IsZero() {
		row.LastLogin = null.TimeFrom(u.LastLogin)
	}
	return row
}

func (row userRow) user() user.User {
	return user.User{
		ID:                row.ID,
		Name:              row.Name,
		Email:             row.Email,
		Phone:             row.Phone,
		Role:              row.Role,
		PasswordHash:      row.PasswordHash,
		IsEmailVerified:   row.IsEmailVerified,
		EmailOTPCode:      row.EmailOTPCode.String,
		EmailOTPExpiresAt: row.EmailOTPExpiresAt.Time.UTC(),
		IsSuspended:       row.IsSuspended,
		IsBanned:          row.IsBanned,
		BanReason:         row.BanReason,
		LastLogin:         row.LastLogin.Time.UTC(),
		CreatedAt:         row.CreatedAt.UTC(),
		UpdatedAt:         row.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	db core.DB
}

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	var w where
	w.add("email = ?", email)
	for _, excl := range excludedUsers {
		w.add("id <> ?", excl.ID)
	}
	var count int
	q := repo.db.Rebind(`SELECT COUNT(*) FROM users` + w.String())
	if err := repo.db.GetContext(ctx, &count, q, w.args...); err != nil {
		return errors.Wrap(err, "counting users by email")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `
		INSERT INTO users (
			id, name, email, phone, role, password_hash, is_email_verified, email_otp_code,
			email_otp_expires_at, is_suspended, is_banned, ban_reason, last_login, created_at, updated_at
		) VALUES (
			:id, :name, :email, :phone, :role, :password_hash, :is_email_verified, :email_otp_code,
			:email_otp_expires_at, :is_suspended, :is_banned, :ban_reason, :last_login, :created_at, :updated_at
		)`
	if _, err := repo.db.NamedExecContext(ctx, q, newUserRow(usr)); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) get(ctx context.Context, q string, arg interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		return user.User{}, notFound(err, user.ErrNotFound)
	}
	return row.user(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.get(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.get(ctx, `SELECT * FROM users WHERE email = $1`, email)
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var w where
	if filter.Role != "" {
		w.add("role = ?", filter.Role)
	}
	if filter.Suspended != nil {
		w.add("is_suspended = ?", *filter.Suspended)
	}
	if filter.Banned != nil {
		w.add("is_banned = ?", *filter.Banned)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		w.add("(name ILIKE ? OR email ILIKE ? OR phone ILIKE ?)", pattern, pattern, pattern)
	}

	var rows []userRow
	if err := selectWhere(ctx, repo.db, &rows, `SELECT * FROM users`, w, `ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `
		UPDATE users SET
			name = :name, email = :email, phone = :phone, role = :role, password_hash = :password_hash,
			is_email_verified = :is_email_verified, email_otp_code = :email_otp_code,
			email_otp_expires_at = :email_otp_expires_at, is_suspended = :is_suspended, is_banned = :is_banned,
			ban_reason = :ban_reason, last_login = :last_login, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newUserRow(usr))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Role  string `db:"role"`
		Count int    `db:"count"`
	}
	if err := repo.db.SelectContext(ctx, &rows, `SELECT role, COUNT(*) AS count FROM users GROUP BY role`); err != nil {
		return nil, errors.Wrap(err, "counting users")
	}
	counts := make(map[string]int, len(user.AllRoles))
	for _, role := range user.AllRoles {
		counts[role] = 0
	}
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}
