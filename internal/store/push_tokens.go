package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PushTokensStore struct {
	db *pgxpool.Pool
}

// Upsert registers an Expo push token for a user; re-registering refreshes
// last_updated.
func (s *PushTokensStore) Upsert(ctx context.Context, userID int64, token string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
	INSERT INTO user_push_tokens (user_id, expo_push_token, last_updated)
	VALUES ($1, $2, NOW())
	ON CONFLICT (user_id, expo_push_token)
	DO UPDATE SET last_updated = NOW();
	`

	_, err := s.db.Exec(ctx, q, userID, token)
	return err
}

func (s *PushTokensStore) Delete(ctx context.Context, userID int64, token string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `DELETE FROM user_push_tokens WHERE user_id = $1 AND expo_push_token = $2`
	_, err := s.db.Exec(ctx, q, userID, token)
	return err
}

func (s *PushTokensStore) ListByUser(ctx context.Context, userID int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `SELECT expo_push_token FROM user_push_tokens WHERE user_id = $1`
	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
