package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrResponseNotFound = errors.New("response not found")

// Response is a single message in a review's conversation thread. The store
// returns them in creation order but makes no validity judgment; that is the
// conversation package's job.
type Response struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"review_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields
	AuthorName string `json:"author_name,omitempty"`
}

type ResponsesStore struct {
	db *pgxpool.Pool
}

func (s *ResponsesStore) Create(ctx context.Context, response *Response) error {
	query := `
	  INSERT INTO responses (review_id, author_id, content)
	  VALUES ($1, $2, $3)
	  RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query,
		response.ReviewID,
		response.AuthorID,
		response.Content,
	).Scan(&response.ID, &response.CreatedAt, &response.UpdatedAt)
}

func (s *ResponsesStore) GetByID(ctx context.Context, responseID int64) (*Response, error) {
	query := `
	  SELECT id, review_id, author_id, content, created_at, updated_at
	  FROM responses
	  WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	response := &Response{}
	err := s.db.QueryRow(ctx, query, responseID).Scan(
		&response.ID,
		&response.ReviewID,
		&response.AuthorID,
		&response.Content,
		&response.CreatedAt,
		&response.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResponseNotFound
		}
		return nil, err
	}

	return response, nil
}

func (s *ResponsesStore) ListByReview(ctx context.Context, reviewID int64) ([]Response, error) {
	query := `
	  SELECT rs.id, rs.review_id, rs.author_id, rs.content, rs.created_at, rs.updated_at,
	         u.first_name || ' ' || u.last_name
	  FROM responses rs
	  JOIN users u ON u.id = rs.author_id
	  WHERE rs.review_id = $1
	  ORDER BY rs.created_at ASC, rs.id ASC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []Response
	for rows.Next() {
		var response Response
		err := rows.Scan(
			&response.ID,
			&response.ReviewID,
			&response.AuthorID,
			&response.Content,
			&response.CreatedAt,
			&response.UpdatedAt,
			&response.AuthorName,
		)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}

	return responses, rows.Err()
}

// Delete removes a response; only its author may do so.
func (s *ResponsesStore) Delete(ctx context.Context, responseID, authorID int64) error {
	query := `DELETE FROM responses WHERE id = $1 AND author_id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, responseID, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrResponseNotFound
	}

	return nil
}
