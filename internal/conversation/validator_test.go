package conversation

import (
	"testing"
	"time"

	"welp/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	business  int64 = 10
	customer1 int64 = 21
	customer2 int64 = 22
)

func resp(id, author int64, at time.Time) store.Response {
	return store.Response{ID: id, ReviewID: 1, AuthorID: author, CreatedAt: at}
}

func ts(offset int) time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(offset) * time.Minute)
}

func authorIDs(rs []store.Response) []int64 {
	ids := make([]int64, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, r.AuthorID)
	}
	return ids
}

func TestValidate_BusinessThenCustomer(t *testing.T) {
	responses := []store.Response{
		resp(1, business, ts(1)),
		resp(2, customer1, ts(2)),
	}

	p := Validate(responses, business, customer1)

	assert.Equal(t, []int64{business, customer1}, authorIDs(p.Valid))
	assert.Empty(t, p.Orphaned)
}

func TestValidate_CustomerReplyBetweenBusinessTurnsStaysValid(t *testing.T) {
	responses := []store.Response{
		resp(1, business, ts(1)),
		resp(2, customer1, ts(2)),
		resp(3, business, ts(3)),
	}

	p := Validate(responses, business, customer1)

	assert.Equal(t, []int64{business, customer1, business}, authorIDs(p.Valid))
	assert.Empty(t, p.Orphaned)
}

func TestValidate_CustomerReplySupersededByNewerBusinessTurn(t *testing.T) {
	responses := []store.Response{
		resp(1, business, ts(1)),
		resp(2, customer1, ts(2)),
		resp(3, business, ts(3)),
		resp(4, customer1, ts(4)),
		resp(5, business, ts(5)),
		resp(6, customer1, ts(6)),
	}

	p := Validate(responses, business, customer1)

	// Only the reply to the business's latest turn survives.
	assert.Equal(t, []int64{business, business, business, customer1}, authorIDs(p.Valid))
	require.Len(t, p.Orphaned, 2)
	assert.Equal(t, int64(2), p.Orphaned[0].ID)
	assert.Equal(t, int64(4), p.Orphaned[1].ID)
}

func TestValidate_ClaimantReplyOrphanedOnlyOnceReplaced(t *testing.T) {
	// The business answered the claimant's t2 reply, but until the claimant
	// speaks again that reply remains the live customer turn.
	answered := []store.Response{
		resp(1, business, ts(1)),
		resp(2, customer1, ts(2)),
		resp(3, business, ts(3)),
	}

	p := Validate(answered, business, customer1)

	assert.Equal(t, []int64{business, customer1, business}, authorIDs(p.Valid))
	assert.Empty(t, p.Orphaned)

	// A newer claimant reply replaces it; now the old one is dead.
	replaced := append(answered, resp(4, customer1, ts(4)))

	p = Validate(replaced, business, customer1)

	assert.Equal(t, []int64{business, business, customer1}, authorIDs(p.Valid))
	require.Len(t, p.Orphaned, 1)
	assert.Equal(t, int64(2), p.Orphaned[0].ID)
}

func TestValidate_PreviousClaimantPassesThrough(t *testing.T) {
	responses := []store.Response{
		resp(1, business, ts(1)),
		resp(2, customer1, ts(2)),
		resp(3, business, ts(3)),
	}

	// Review has been re-claimed by customer2; customer1's message is neither
	// participant's and must not be silently dropped.
	p := Validate(responses, business, customer2)

	assert.Equal(t, []int64{business, customer1, business}, authorIDs(p.Valid))
	assert.Empty(t, p.Orphaned)
}

func TestValidate_CustomerCannotOpenConversation(t *testing.T) {
	responses := []store.Response{
		resp(1, customer1, ts(1)),
	}

	p := Validate(responses, business, customer1)

	assert.Empty(t, p.Valid)
	require.Len(t, p.Orphaned, 1)
	assert.Equal(t, int64(1), p.Orphaned[0].ID)
}

func TestValidate_EmptyInput(t *testing.T) {
	p := Validate(nil, business, customer1)

	assert.Empty(t, p.Valid)
	assert.Empty(t, p.Orphaned)
}

func TestValidate_UnclaimedReview(t *testing.T) {
	responses := []store.Response{
		resp(1, business, ts(1)),
		resp(2, customer1, ts(2)),
	}

	// claimantID 0 = unclaimed; nothing is attributed to a claimant, so the
	// old customer message rides along untouched.
	p := Validate(responses, business, 0)

	assert.Equal(t, []int64{business, customer1}, authorIDs(p.Valid))
	assert.Empty(t, p.Orphaned)
}

func TestValidate_DeterministicRegardlessOfInputOrder(t *testing.T) {
	shuffled := []store.Response{
		resp(4, customer1, ts(4)),
		resp(1, business, ts(1)),
		resp(3, business, ts(3)),
		resp(2, customer1, ts(2)),
	}
	ordered := []store.Response{
		resp(1, business, ts(1)),
		resp(2, customer1, ts(2)),
		resp(3, business, ts(3)),
		resp(4, customer1, ts(4)),
	}

	a := Validate(shuffled, business, customer1)
	b := Validate(ordered, business, customer1)

	assert.Equal(t, b.Valid, a.Valid)
	assert.Equal(t, b.Orphaned, a.Orphaned)
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	responses := []store.Response{
		resp(2, customer1, ts(2)),
		resp(1, business, ts(1)),
	}

	Validate(responses, business, customer1)

	assert.Equal(t, int64(2), responses[0].ID)
	assert.Equal(t, int64(1), responses[1].ID)
}

func TestValidate_ZeroTimestampSortsLast(t *testing.T) {
	responses := []store.Response{
		resp(9, customer1, time.Time{}),
		resp(1, business, ts(1)),
	}

	// The broken record must not be mistaken for the conversation opener; it
	// lands after the business turn and, with no later business response,
	// counts as the claimant's live reply.
	p := Validate(responses, business, customer1)

	assert.Equal(t, []int64{business, customer1}, authorIDs(p.Valid))
	assert.Empty(t, p.Orphaned)
}

func TestValidate_TimestampTiesBreakByInsertionOrder(t *testing.T) {
	responses := []store.Response{
		resp(1, business, ts(1)),
		resp(2, customer1, ts(1)),
	}

	p := Validate(responses, business, customer1)

	assert.Equal(t, []int64{business, customer1}, authorIDs(p.Valid))
	assert.Empty(t, p.Orphaned)
}

func TestValidate_PanicsWithoutReviewAuthor(t *testing.T) {
	assert.Panics(t, func() {
		Validate(nil, 0, customer1)
	})
}
