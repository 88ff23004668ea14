package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"welp/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Review is a rating a business writes about a customer. ClaimantID is unset
// until a customer claims the review; a re-claim by a different customer
// replaces it, which is what strands the old conversation chain.
type Review struct {
	ID           int64         `json:"id"`
	BusinessID   int64         `json:"business_id"`
	SubjectName  string        `json:"subject_name"`
	SubjectPhone string        `json:"subject_phone"`
	Rating       int           `json:"rating"` // 1-5
	Content      string        `json:"content"`
	ClaimantID   sql.NullInt64 `json:"claimant_id" swaggertype:"integer"`
	ShareCode    string        `json:"share_code"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	// Joined fields
	BusinessName string `json:"business_name,omitempty"`
}

type ReviewsStore struct {
	db *pgxpool.Pool
}

func (s *ReviewsStore) Create(ctx context.Context, review *Review) error {
	query := `
	  INSERT INTO reviews (business_id, subject_name, subject_phone, rating, content)
	  VALUES ($1, $2, $3, $4, $5)
	  RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query,
		review.BusinessID,
		review.SubjectName,
		review.SubjectPhone,
		review.Rating,
		review.Content,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
}

func (s *ReviewsStore) GetByID(ctx context.Context, reviewID int64) (*Review, error) {
	query := `
	  SELECT r.id, r.business_id, r.subject_name, r.subject_phone, r.rating, r.content,
	         r.claimant_id, r.share_code, r.created_at, r.updated_at, b.name
	  FROM reviews r
	  JOIN businesses b ON b.id = r.business_id
	  WHERE r.id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.scanOne(s.db.QueryRow(ctx, query, reviewID))
}

func (s *ReviewsStore) GetByShareCode(ctx context.Context, code string) (*Review, error) {
	query := `
	  SELECT r.id, r.business_id, r.subject_name, r.subject_phone, r.rating, r.content,
	         r.claimant_id, r.share_code, r.created_at, r.updated_at, b.name
	  FROM reviews r
	  JOIN businesses b ON b.id = r.business_id
	  WHERE r.share_code = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.scanOne(s.db.QueryRow(ctx, query, code))
}

func (s *ReviewsStore) scanOne(row pgx.Row) (*Review, error) {
	review := &Review{}
	err := row.Scan(
		&review.ID,
		&review.BusinessID,
		&review.SubjectName,
		&review.SubjectPhone,
		&review.Rating,
		&review.Content,
		&review.ClaimantID,
		&review.ShareCode,
		&review.CreatedAt,
		&review.UpdatedAt,
		&review.BusinessName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *ReviewsStore) SetShareCode(ctx context.Context, reviewID int64, code string) error {
	query := `UPDATE reviews SET share_code = $1 WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, code, reviewID)
	return err
}

func (s *ReviewsStore) ListByBusiness(ctx context.Context, businessID int64, p params.Pagination) ([]Review, int, error) {
	query := `
	  SELECT id, business_id, subject_name, subject_phone, rating, content,
	         claimant_id, share_code, created_at, updated_at,
	         COUNT(*) OVER() AS total
	  FROM reviews
	  WHERE business_id = $1
	  ORDER BY created_at DESC
	  LIMIT $2 OFFSET $3
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, businessID, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reviews []Review
	var total int
	for rows.Next() {
		var review Review
		err := rows.Scan(
			&review.ID,
			&review.BusinessID,
			&review.SubjectName,
			&review.SubjectPhone,
			&review.Rating,
			&review.Content,
			&review.ClaimantID,
			&review.ShareCode,
			&review.CreatedAt,
			&review.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, review)
	}

	return reviews, total, rows.Err()
}

func (s *ReviewsStore) ListClaimedByCustomer(ctx context.Context, customerID int64) ([]Review, error) {
	query := `
	  SELECT r.id, r.business_id, r.subject_name, r.subject_phone, r.rating, r.content,
	         r.claimant_id, r.share_code, r.created_at, r.updated_at, b.name
	  FROM reviews r
	  JOIN businesses b ON b.id = r.business_id
	  WHERE r.claimant_id = $1
	  ORDER BY r.created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		err := rows.Scan(
			&review.ID,
			&review.BusinessID,
			&review.SubjectName,
			&review.SubjectPhone,
			&review.Rating,
			&review.Content,
			&review.ClaimantID,
			&review.ShareCode,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.BusinessName,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}

	return reviews, rows.Err()
}

// Claim binds the customer to the review. A later claim by a different
// customer simply replaces claimant_id; the conversation validator deals
// with the responses the previous claimant left behind.
func (s *ReviewsStore) Claim(ctx context.Context, reviewID, customerID int64) error {
	query := `
	  UPDATE reviews
	  SET claimant_id = $1, updated_at = now()
	  WHERE id = $2 AND (claimant_id IS NULL OR claimant_id <> $1)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, customerID, reviewID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the review does not exist or this customer already holds the claim.
		if _, err := s.GetByID(ctx, reviewID); err != nil {
			return err
		}
		return ErrConflict
	}

	return nil
}

func (s *ReviewsStore) Delete(ctx context.Context, reviewID, businessID int64) error {
	query := `DELETE FROM reviews WHERE id = $1 AND business_id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, reviewID, businessID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *ReviewsStore) GetStats(ctx context.Context, businessID int64) (total int, average float64, err error) {
	query := `
	  SELECT COUNT(id), COALESCE(AVG(rating), 0)
	  FROM reviews
	  WHERE business_id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err = s.db.QueryRow(ctx, query, businessID).Scan(&total, &average)
	return total, average, err
}
