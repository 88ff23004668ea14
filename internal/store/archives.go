package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ArchivedRecord holds the responses a user lost from a review's live
// conversation, so the UI can show a "this no longer applies" notice. One
// record per (review, user); a newer orphaning event overwrites the old one.
type ArchivedRecord struct {
	ReviewID   int64      `json:"review_id"`
	UserID     int64      `json:"user_id"`
	Responses  []Response `json:"responses"`
	ArchivedAt time.Time  `json:"archived_at"`
}

type ArchivesStore struct {
	db *pgxpool.Pool
}

// Archive upserts the orphan set for (review, user). Last write wins; the
// record is a notice, not a history log.
func (s *ArchivesStore) Archive(ctx context.Context, reviewID, userID int64, responses []Response) error {
	payload, err := json.Marshal(responses)
	if err != nil {
		return err
	}

	query := `
	  INSERT INTO archived_responses (review_id, user_id, payload, archived_at)
	  VALUES ($1, $2, $3, now())
	  ON CONFLICT (review_id, user_id)
	  DO UPDATE SET payload = EXCLUDED.payload, archived_at = now()
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err = s.db.Exec(ctx, query, reviewID, userID, payload)
	return err
}

func (s *ArchivesStore) Retrieve(ctx context.Context, reviewID, userID int64) (*ArchivedRecord, error) {
	query := `
	  SELECT review_id, user_id, payload, archived_at
	  FROM archived_responses
	  WHERE review_id = $1 AND user_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	record := &ArchivedRecord{}
	var payload []byte
	err := s.db.QueryRow(ctx, query, reviewID, userID).Scan(
		&record.ReviewID,
		&record.UserID,
		&payload,
		&record.ArchivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(payload, &record.Responses); err != nil {
		return nil, err
	}

	return record, nil
}

// Clear drops the notice; called once the user posts a new valid response.
// Clearing an absent record is not an error.
func (s *ArchivesStore) Clear(ctx context.Context, reviewID, userID int64) error {
	query := `DELETE FROM archived_responses WHERE review_id = $1 AND user_id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, reviewID, userID)
	return err
}
