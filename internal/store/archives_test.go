package store_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"welp/internal/store"
	"welp/internal/store/testhelper"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seedSeq atomic.Int64

func seedUser(t *testing.T, pool *pgxpool.Pool, role string) int64 {
	t.Helper()

	n := seedSeq.Add(1)
	var id int64
	err := pool.QueryRow(context.Background(), `
	  INSERT INTO users (first_name, last_name, email, phone, role, password, is_active)
	  VALUES ($1, $2, $3, $4, $5, $6, true)
	  RETURNING id`,
		"Test", "User",
		fmt.Sprintf("user%d@example.com", n),
		fmt.Sprintf("202555%04d", n%10000),
		role,
		[]byte("not-a-real-hash"),
	).Scan(&id)
	require.NoError(t, err)

	return id
}

func seedReview(t *testing.T, pool *pgxpool.Pool) (reviewID, claimantID int64) {
	t.Helper()

	ownerID := seedUser(t, pool, store.RoleBusiness)
	claimantID = seedUser(t, pool, store.RoleCustomer)

	var businessID int64
	err := pool.QueryRow(context.Background(), `
	  INSERT INTO businesses (owner_id, name, category)
	  VALUES ($1, 'Mel''s Diner', 'restaurant')
	  RETURNING id`, ownerID,
	).Scan(&businessID)
	require.NoError(t, err)

	err = pool.QueryRow(context.Background(), `
	  INSERT INTO reviews (business_id, subject_name, subject_phone, rating, content, claimant_id)
	  VALUES ($1, 'Pat Doe', '2025550000', 2, 'left without paying', $2)
	  RETURNING id`, businessID, claimantID,
	).Scan(&reviewID)
	require.NoError(t, err)

	return reviewID, claimantID
}

func archivedResponse(reviewID, authorID int64, content string) store.Response {
	return store.Response{
		ReviewID:  reviewID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestArchivesStore_ArchiveIsLastWriteWins(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	storage := store.NewStorage(pool)
	ctx := context.Background()

	reviewID, claimantID := seedReview(t, pool)

	first := []store.Response{
		archivedResponse(reviewID, claimantID, "first orphaning"),
	}
	require.NoError(t, storage.Archives.Archive(ctx, reviewID, claimantID, first))

	second := []store.Response{
		archivedResponse(reviewID, claimantID, "second orphaning"),
		archivedResponse(reviewID, claimantID, "second orphaning, part two"),
	}
	require.NoError(t, storage.Archives.Archive(ctx, reviewID, claimantID, second))

	// The record is a notice, not a history log: only the latest orphan set
	// survives a double archive.
	rec, err := storage.Archives.Retrieve(ctx, reviewID, claimantID)
	require.NoError(t, err)
	assert.Equal(t, reviewID, rec.ReviewID)
	assert.Equal(t, claimantID, rec.UserID)
	require.Len(t, rec.Responses, 2)
	assert.Equal(t, "second orphaning", rec.Responses[0].Content)
	assert.Equal(t, "second orphaning, part two", rec.Responses[1].Content)
	assert.False(t, rec.ArchivedAt.IsZero())
}

func TestArchivesStore_ClearThenRetrieveReturnsNotFound(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	storage := store.NewStorage(pool)
	ctx := context.Background()

	reviewID, claimantID := seedReview(t, pool)

	orphans := []store.Response{
		archivedResponse(reviewID, claimantID, "no longer applies"),
	}
	require.NoError(t, storage.Archives.Archive(ctx, reviewID, claimantID, orphans))

	require.NoError(t, storage.Archives.Clear(ctx, reviewID, claimantID))

	_, err := storage.Archives.Retrieve(ctx, reviewID, claimantID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Clearing an absent record is not an error.
	assert.NoError(t, storage.Archives.Clear(ctx, reviewID, claimantID))
}

func TestArchivesStore_RetrieveWithoutArchive(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	storage := store.NewStorage(pool)
	ctx := context.Background()

	reviewID, claimantID := seedReview(t, pool)

	_, err := storage.Archives.Retrieve(ctx, reviewID, claimantID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
