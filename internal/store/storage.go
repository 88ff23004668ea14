package store

import (
	"context"
	"errors"
	"time"

	"welp/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		CreateAndInvite(ctx context.Context, user *User, token string, exp time.Duration) error
		Activate(context.Context, string) error
		UpdateUser(context.Context, int64, map[string]interface{}) error
		SetAvatar(ctx context.Context, avatarURL string, userID int64) error
		UpdateRefreshToken(ctx context.Context, userID int64, hashedToken string) error
		GetByRefreshToken(ctx context.Context, hashedToken string) (*User, error)
		UpdateResetToken(ctx context.Context, email, hashedToken string, expires time.Time) error
		GetByResetToken(ctx context.Context, hashedToken string) (*User, error)
		ResetPassword(ctx context.Context, user *User) error
		DeleteExpiredInvitations(context.Context) (int64, error)
	}
	Businesses interface {
		Create(context.Context, *Business) error
		GetByID(context.Context, int64) (*Business, error)
		Update(context.Context, int64, map[string]interface{}) error
		SetLogo(ctx context.Context, logoURL string, businessID int64) error
		IsOwner(ctx context.Context, businessID, userID int64) (bool, error)
	}
	Reviews interface {
		Create(context.Context, *Review) error
		GetByID(context.Context, int64) (*Review, error)
		GetByShareCode(context.Context, string) (*Review, error)
		SetShareCode(ctx context.Context, reviewID int64, code string) error
		ListByBusiness(ctx context.Context, businessID int64, p params.Pagination) ([]Review, int, error)
		ListClaimedByCustomer(ctx context.Context, customerID int64) ([]Review, error)
		Claim(ctx context.Context, reviewID, customerID int64) error
		Delete(ctx context.Context, reviewID, businessID int64) error
		GetStats(ctx context.Context, businessID int64) (int, float64, error)
	}
	Responses interface {
		Create(context.Context, *Response) error
		GetByID(context.Context, int64) (*Response, error)
		ListByReview(ctx context.Context, reviewID int64) ([]Response, error)
		Delete(ctx context.Context, responseID, authorID int64) error
	}
	Archives interface {
		Archive(ctx context.Context, reviewID, userID int64, responses []Response) error
		Retrieve(ctx context.Context, reviewID, userID int64) (*ArchivedRecord, error)
		Clear(ctx context.Context, reviewID, userID int64) error
	}
	PushTokens interface {
		Upsert(ctx context.Context, userID int64, token string) error
		Delete(ctx context.Context, userID int64, token string) error
		ListByUser(ctx context.Context, userID int64) ([]string, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:      &UsersStore{db},
		Businesses: &BusinessesStore{db},
		Reviews:    &ReviewsStore{db},
		Responses:  &ResponsesStore{db},
		Archives:   &ArchivesStore{db},
		PushTokens: &PushTokensStore{db},
	}
}

func withTx(ctx context.Context, db *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
