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
)

type Business struct {
	ID        int64          `json:"id"`
	OwnerID   int64          `json:"owner_id"`
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	About     string         `json:"about"`
	LogoURL   sql.NullString `json:"logo_url" swaggertype:"string"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type BusinessesStore struct {
	db *pgxpool.Pool
}

func (s *BusinessesStore) Create(ctx context.Context, business *Business) error {
	query := `
	  INSERT INTO businesses (owner_id, name, category, about)
	  VALUES ($1, $2, $3, $4)
	  RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		business.OwnerID,
		business.Name,
		business.Category,
		business.About,
	).Scan(&business.ID, &business.CreatedAt, &business.UpdatedAt)

	if err != nil && strings.Contains(err.Error(), "businesses_owner_id_key") {
		return ErrConflict
	}
	return err
}

func (s *BusinessesStore) GetByID(ctx context.Context, businessID int64) (*Business, error) {
	query := `
	  SELECT id, owner_id, name, category, about, logo_url, created_at, updated_at
	  FROM businesses
	  WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	business := &Business{}
	err := s.db.QueryRow(ctx, query, businessID).Scan(
		&business.ID,
		&business.OwnerID,
		&business.Name,
		&business.Category,
		&business.About,
		&business.LogoURL,
		&business.CreatedAt,
		&business.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return business, nil
}

// Update patches the allowed business columns from the given field map.
func (s *BusinessesStore) Update(ctx context.Context, businessID int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	allowed := map[string]bool{
		"name":     true,
		"category": true,
		"about":    true,
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

	args = append(args, businessID)
	query := fmt.Sprintf(
		"UPDATE businesses SET %s, updated_at = now() WHERE id = $%d",
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

func (s *BusinessesStore) SetLogo(ctx context.Context, logoURL string, businessID int64) error {
	query := `UPDATE businesses SET logo_url = $1, updated_at = now() WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, logoURL, businessID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *BusinessesStore) IsOwner(ctx context.Context, businessID, userID int64) (bool, error) {
	query := `SELECT owner_id FROM businesses WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var ownerID int64
	err := s.db.QueryRow(ctx, query, businessID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}

	return ownerID == userID, nil
}
