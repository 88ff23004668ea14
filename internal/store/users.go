package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateEmail       = errors.New("a user with that email already exists")
	ErrDuplicatePhoneNumber = errors.New("a user with that phone number already exists")
)

const (
	RoleBusiness = "business"
	RoleCustomer = "customer"
)

type User struct {
	ID                   int64          `json:"id"`
	FirstName            string         `json:"first_name"`
	LastName             string         `json:"last_name"`
	Email                string         `json:"email"`
	Phone                string         `json:"phone"`
	Role                 string         `json:"role"`
	Password             password       `json:"-"`
	AvatarURL            sql.NullString `json:"avatar_url" swaggertype:"string"`
	RefreshToken         string         `json:"-"`
	IsActive             bool           `json:"is_active"`
	ResetPasswordToken   string         `json:"-"`
	ResetPasswordExpires time.Time      `json:"-"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// password keeps the plaintext (when freshly set) and the bcrypt hash together.
type password struct {
	text *string `json:"-"`
	hash []byte  `json:"-"`
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

type UsersStore struct {
	db *pgxpool.Pool
}

func (s *UsersStore) create(ctx context.Context, tx pgx.Tx, user *User) error {
	query := `
	  INSERT INTO users (first_name, last_name, password, email, phone, role)
	  VALUES ($1, $2, $3, $4, $5, $6)
	  RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := tx.QueryRow(
		ctx, query, user.FirstName, user.LastName, user.Password.hash, user.Email, user.Phone, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		switch {
		case strings.Contains(err.Error(), "users_email_key"):
			return ErrDuplicateEmail
		case strings.Contains(err.Error(), "users_phone_key"):
			return ErrDuplicatePhoneNumber
		default:
			return err
		}
	}

	return nil
}

// CreateAndInvite stores the user and its hashed invitation token in one tx,
// so a failed invitation never leaves a half-registered account behind.
func (s *UsersStore) CreateAndInvite(ctx context.Context, user *User, token string, exp time.Duration) error {
	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.create(ctx, tx, user); err != nil {
			return err
		}

		if err := s.createInvitation(ctx, tx, token, exp, user.ID); err != nil {
			return err
		}

		return nil
	})
}

func (s *UsersStore) createInvitation(ctx context.Context, tx pgx.Tx, token string, exp time.Duration, userID int64) error {
	query := `INSERT INTO user_invitations (token, user_id, expiry) VALUES ($1, $2, $3)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := tx.Exec(ctx, query, token, userID, time.Now().Add(exp))
	return err
}

// Activate flips is_active for the user behind a still-valid invitation token
// and burns the invitation.
func (s *UsersStore) Activate(ctx context.Context, token string) error {
	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		user, err := s.getUserFromInvitation(ctx, tx, token)
		if err != nil {
			return err
		}

		query := `UPDATE users SET is_active = true, updated_at = now() WHERE id = $1`
		if _, err := tx.Exec(ctx, query, user.ID); err != nil {
			return err
		}

		query = `DELETE FROM user_invitations WHERE user_id = $1`
		if _, err := tx.Exec(ctx, query, user.ID); err != nil {
			return err
		}

		return nil
	})
}

func (s *UsersStore) getUserFromInvitation(ctx context.Context, tx pgx.Tx, token string) (*User, error) {
	query := `
	  SELECT u.id FROM users u
	  JOIN user_invitations ui ON ui.user_id = u.id
	  WHERE ui.token = $1 AND ui.expiry > $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := tx.QueryRow(ctx, query, token, time.Now()).Scan(&user.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

func (s *UsersStore) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `
	  SELECT id, first_name, last_name, email, phone, role, avatar_url, is_active, created_at, updated_at
	  FROM users
	  WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.AvatarURL,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

func (s *UsersStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
	  SELECT id, first_name, last_name, email, phone, role, password, is_active, created_at, updated_at
	  FROM users
	  WHERE email = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.Password.hash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

// UpdateUser updates the allowed profile columns from the given field map.
func (s *UsersStore) UpdateUser(ctx context.Context, userID int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	allowed := map[string]bool{
		"first_name": true,
		"last_name":  true,
		"phone":      true,
	}

	setClauses := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields)+1)
	i := 1

	for col, val := range fields {
		if !allowed[col] {
			return fmt.Errorf("column %q cannot be updated", col)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, val)
		i++
	}

	args = append(args, userID)
	query := fmt.Sprintf(
		"UPDATE users SET %s, updated_at = now() WHERE id = $%d",
		strings.Join(setClauses, ", "), i,
	)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *UsersStore) SetAvatar(ctx context.Context, avatarURL string, userID int64) error {
	query := `UPDATE users SET avatar_url = $1, updated_at = now() WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, avatarURL, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateRefreshToken stores the hash of the latest refresh token; an empty
// hash logs the user out everywhere.
func (s *UsersStore) UpdateRefreshToken(ctx context.Context, userID int64, hashedToken string) error {
	query := `UPDATE users SET refresh_token = $1, updated_at = now() WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, hashedToken, userID)
	return err
}

func (s *UsersStore) GetByRefreshToken(ctx context.Context, hashedToken string) (*User, error) {
	query := `
	  SELECT id, first_name, last_name, email, role, is_active
	  FROM users
	  WHERE refresh_token = $1 AND refresh_token <> ''
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := s.db.QueryRow(ctx, query, hashedToken).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Role,
		&user.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

// UpdateResetToken stores the hashed password-reset token and its expiry for
// the account behind email.
func (s *UsersStore) UpdateResetToken(ctx context.Context, email, hashedToken string, expires time.Time) error {
	query := `
	  UPDATE users
	  SET reset_password_token = $1, reset_password_expires = $2, updated_at = now()
	  WHERE email = $3
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, hashedToken, expires, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *UsersStore) GetByResetToken(ctx context.Context, hashedToken string) (*User, error) {
	query := `
	  SELECT id, first_name, last_name, email, role, reset_password_expires
	  FROM users
	  WHERE reset_password_token = $1 AND reset_password_token <> ''
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	var expires sql.NullTime
	err := s.db.QueryRow(ctx, query, hashedToken).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Role,
		&expires,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	user.ResetPasswordExpires = expires.Time

	return user, nil
}

// ResetPassword saves the user's new password hash and burns the reset token.
func (s *UsersStore) ResetPassword(ctx context.Context, user *User) error {
	query := `
	  UPDATE users
	  SET password = $1, reset_password_token = '', reset_password_expires = NULL, updated_at = now()
	  WHERE id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, user.Password.hash, user.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteExpiredInvitations removes stale invitations and their never-activated
// accounts. Run from the background sweeper.
func (s *UsersStore) DeleteExpiredInvitations(ctx context.Context) (int64, error) {
	query := `
	  DELETE FROM users
	  WHERE is_active = false
	    AND id IN (SELECT user_id FROM user_invitations WHERE expiry < now())
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
