package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"welp/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOwnerID    int64 = 10
	testBusinessID int64 = 5
	testReviewID   int64 = 7
	testClaimantID int64 = 21
)

func conversationFixtures(claimantID int64) (*fakeReviewsStore, *fakeBusinessesStore) {
	reviews := &fakeReviewsStore{
		GetByIDFn: func(ctx context.Context, id int64) (*store.Review, error) {
			if id != testReviewID {
				return nil, store.ErrNotFound
			}
			r := &store.Review{
				ID:         testReviewID,
				BusinessID: testBusinessID,
				Rating:     2,
			}
			if claimantID != 0 {
				r.ClaimantID = sql.NullInt64{Int64: claimantID, Valid: true}
			}
			return r, nil
		},
	}
	businesses := &fakeBusinessesStore{
		GetByIDFn: func(ctx context.Context, id int64) (*store.Business, error) {
			if id != testBusinessID {
				return nil, store.ErrNotFound
			}
			return &store.Business{ID: testBusinessID, OwnerID: testOwnerID, Name: "Mel's Diner"}, nil
		},
	}
	return reviews, businesses
}

func testResponse(id, authorID int64, minute int) store.Response {
	return store.Response{
		ID:        id,
		ReviewID:  testReviewID,
		AuthorID:  authorID,
		Content:   "content",
		CreatedAt: time.Date(2026, 3, 1, 12, minute, 0, 0, time.UTC),
	}
}

func decodeConversation(t *testing.T, body *bytes.Buffer) ConversationResponse {
	t.Helper()
	var envelope struct {
		Data ConversationResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&envelope))
	return envelope.Data
}

func TestGetConversationArchivesSupersededReplies(t *testing.T) {
	reviews, businesses := conversationFixtures(testClaimantID)

	// The business moved past the claimant's first reply and the claimant
	// replied again, so the first reply no longer applies.
	responses := &fakeResponsesStore{
		ListByReviewFn: func(ctx context.Context, reviewID int64) ([]store.Response, error) {
			return []store.Response{
				testResponse(1, testOwnerID, 0),
				testResponse(2, testClaimantID, 1),
				testResponse(3, testOwnerID, 2),
				testResponse(4, testClaimantID, 3),
				testResponse(5, testOwnerID, 4),
			}, nil
		},
	}

	var archivedFor int64
	var archivedResponses []store.Response
	archives := &fakeArchivesStore{
		ArchiveFn: func(ctx context.Context, reviewID, userID int64, rs []store.Response) error {
			archivedFor = userID
			archivedResponses = rs
			return nil
		},
	}

	app := newTestApplication(store.Storage{
		Reviews:    reviews,
		Businesses: businesses,
		Responses:  responses,
		Archives:   archives,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/reviews/7/conversation", nil)
	req = withURLParam(req, "reviewID", "7")
	req = withUser(req, &store.User{ID: testClaimantID, Role: store.RoleCustomer})

	rr := httptest.NewRecorder()
	app.getConversationHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	out := decodeConversation(t, rr.Body)
	require.Len(t, out.Responses, 4)
	assert.Equal(t, int64(1), out.Responses[0].ID)
	assert.Equal(t, int64(3), out.Responses[1].ID)
	assert.Equal(t, int64(4), out.Responses[2].ID)
	assert.Equal(t, int64(5), out.Responses[3].ID)

	assert.Equal(t, testClaimantID, archivedFor)
	require.Len(t, archivedResponses, 1)
	assert.Equal(t, int64(2), archivedResponses[0].ID)

	// Last valid response is the business's, so the claimant may reply.
	assert.True(t, out.CanRespond)
}

func TestGetConversationUnclaimedReview(t *testing.T) {
	reviews, businesses := conversationFixtures(0)

	responses := &fakeResponsesStore{
		ListByReviewFn: func(ctx context.Context, reviewID int64) ([]store.Response, error) {
			return []store.Response{testResponse(1, testOwnerID, 0)}, nil
		},
	}

	archiveCalled := false
	archives := &fakeArchivesStore{
		ArchiveFn: func(ctx context.Context, reviewID, userID int64, rs []store.Response) error {
			archiveCalled = true
			return nil
		},
	}

	app := newTestApplication(store.Storage{
		Reviews:    reviews,
		Businesses: businesses,
		Responses:  responses,
		Archives:   archives,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/reviews/7/conversation", nil)
	req = withURLParam(req, "reviewID", "7")
	req = withUser(req, &store.User{ID: 99, Role: store.RoleCustomer})

	rr := httptest.NewRecorder()
	app.getConversationHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	out := decodeConversation(t, rr.Body)
	assert.Len(t, out.Responses, 1)
	assert.False(t, out.CanRespond)
	assert.False(t, archiveCalled)
}

func TestGetConversationReturnsArchivedNotice(t *testing.T) {
	reviews, businesses := conversationFixtures(testClaimantID)

	record := &store.ArchivedRecord{
		ReviewID:   testReviewID,
		UserID:     testClaimantID,
		Responses:  []store.Response{testResponse(2, testClaimantID, 1)},
		ArchivedAt: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
	}
	archives := &fakeArchivesStore{
		RetrieveFn: func(ctx context.Context, reviewID, userID int64) (*store.ArchivedRecord, error) {
			if userID == testClaimantID {
				return record, nil
			}
			return nil, store.ErrNotFound
		},
	}

	app := newTestApplication(store.Storage{
		Reviews:    reviews,
		Businesses: businesses,
		Responses:  &fakeResponsesStore{},
		Archives:   archives,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/reviews/7/conversation", nil)
	req = withURLParam(req, "reviewID", "7")
	req = withUser(req, &store.User{ID: testClaimantID, Role: store.RoleCustomer})

	rr := httptest.NewRecorder()
	app.getConversationHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	out := decodeConversation(t, rr.Body)
	require.NotNil(t, out.Archived)
	assert.Len(t, out.Archived.Responses, 1)
}

func TestGetConversationArchiveFailureDegrades(t *testing.T) {
	reviews, businesses := conversationFixtures(testClaimantID)

	responses := &fakeResponsesStore{
		ListByReviewFn: func(ctx context.Context, reviewID int64) ([]store.Response, error) {
			return []store.Response{
				testResponse(1, testOwnerID, 0),
				testResponse(2, testClaimantID, 1),
				testResponse(3, testOwnerID, 2),
				testResponse(4, testClaimantID, 3),
				testResponse(5, testOwnerID, 4),
			}, nil
		},
	}

	archives := &fakeArchivesStore{
		ArchiveFn: func(ctx context.Context, reviewID, userID int64, rs []store.Response) error {
			return context.DeadlineExceeded
		},
	}

	app := newTestApplication(store.Storage{
		Reviews:    reviews,
		Businesses: businesses,
		Responses:  responses,
		Archives:   archives,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/reviews/7/conversation", nil)
	req = withURLParam(req, "reviewID", "7")
	req = withUser(req, &store.User{ID: testClaimantID, Role: store.RoleCustomer})

	rr := httptest.NewRecorder()
	app.getConversationHandler(rr, req)

	// Archiving is best effort; the conversation still renders.
	require.Equal(t, http.StatusOK, rr.Code)
	out := decodeConversation(t, rr.Body)
	assert.Len(t, out.Responses, 4)
}

func TestGetConversationMissingReview(t *testing.T) {
	reviews, businesses := conversationFixtures(testClaimantID)

	app := newTestApplication(store.Storage{
		Reviews:    reviews,
		Businesses: businesses,
		Responses:  &fakeResponsesStore{},
		Archives:   &fakeArchivesStore{},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/reviews/404/conversation", nil)
	req = withURLParam(req, "reviewID", "404")
	req = withUser(req, &store.User{ID: testClaimantID, Role: store.RoleCustomer})

	rr := httptest.NewRecorder()
	app.getConversationHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func newCreateResponseRequest(t *testing.T, user *store.User) *http.Request {
	t.Helper()
	body := bytes.NewBufferString(`{"content":"thanks for the feedback"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/reviews/7/responses", body)
	req = withURLParam(req, "reviewID", "7")
	return withUser(req, user)
}

func TestCreateResponseBusinessOwner(t *testing.T) {
	reviews, businesses := conversationFixtures(testClaimantID)

	var created *store.Response
	responses := &fakeResponsesStore{
		CreateFn: func(ctx context.Context, r *store.Response) error {
			r.ID = 42
			created = r
			return nil
		},
	}

	app := newTestApplication(store.Storage{
		Reviews:    reviews,
		Businesses: businesses,
		Responses:  responses,
		Archives:   &fakeArchivesStore{},
		PushTokens: &fakePushTokensStore{},
	})

	rr := httptest.NewRecorder()
	app.createResponseHandler(rr, newCreateResponseRequest(t, &store.User{ID: testOwnerID, Role: store.RoleBusiness}))

	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, created)
	assert.Equal(t, testOwnerID, created.AuthorID)
	assert.Equal(t, testReviewID, created.ReviewID)
}

func TestCreateResponseClaimantInTurn(t *testing.T) {
	reviews, businesses := conversationFixtures(testClaimantID)

	responses := &fakeResponsesStore{
		ListByReviewFn: func(ctx context.Context, reviewID int64) ([]store.Response, error) {
			return []store.Response{testResponse(1, testOwnerID, 0)}, nil
		},
	}

	var clearedFor int64
	archives := &fakeArchivesStore{
		ClearFn: func(ctx context.Context, reviewID, userID int64) error {
			clearedFor = userID
			return nil
		},
	}

	app := newTestApplication(store.Storage{
		Reviews:    reviews,
		Businesses: businesses,
		Responses:  responses,
		Archives:   archives,
		PushTokens: &fakePushTokensStore{},
	})

	rr := httptest.NewRecorder()
	app.createResponseHandler(rr, newCreateResponseRequest(t, &store.User{ID: testClaimantID, Role: store.RoleCustomer}))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, testClaimantID, clearedFor)
}

func TestCreateResponseClaimantOutOfTurn(t *testing.T) {
	reviews, businesses := conversationFixtures(testClaimantID)

	// Claimant already holds the last word.
	responses := &fakeResponsesStore{
		ListByReviewFn: func(ctx context.Context, reviewID int64) ([]store.Response, error) {
			return []store.Response{
				testResponse(1, testOwnerID, 0),
				testResponse(2, testClaimantID, 1),
			}, nil
		},
	}

	app := newTestApplication(store.Storage{
		Reviews:    reviews,
		Businesses: businesses,
		Responses:  responses,
		Archives:   &fakeArchivesStore{},
		PushTokens: &fakePushTokensStore{},
	})

	rr := httptest.NewRecorder()
	app.createResponseHandler(rr, newCreateResponseRequest(t, &store.User{ID: testClaimantID, Role: store.RoleCustomer}))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreateResponseClaimantBeforeBusinessOpens(t *testing.T) {
	reviews, businesses := conversationFixtures(testClaimantID)

	app := newTestApplication(store.Storage{
		Reviews:    reviews,
		Businesses: businesses,
		Responses:  &fakeResponsesStore{},
		Archives:   &fakeArchivesStore{},
		PushTokens: &fakePushTokensStore{},
	})

	rr := httptest.NewRecorder()
	app.createResponseHandler(rr, newCreateResponseRequest(t, &store.User{ID: testClaimantID, Role: store.RoleCustomer}))

	// The business has not opened the conversation yet.
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreateResponseNonParticipant(t *testing.T) {
	reviews, businesses := conversationFixtures(testClaimantID)

	app := newTestApplication(store.Storage{
		Reviews:    reviews,
		Businesses: businesses,
		Responses:  &fakeResponsesStore{},
		Archives:   &fakeArchivesStore{},
		PushTokens: &fakePushTokensStore{},
	})

	rr := httptest.NewRecorder()
	app.createResponseHandler(rr, newCreateResponseRequest(t, &store.User{ID: 99, Role: store.RoleCustomer}))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDeleteResponse(t *testing.T) {
	responses := &fakeResponsesStore{
		DeleteFn: func(ctx context.Context, responseID, authorID int64) error {
			if responseID == 42 && authorID == testOwnerID {
				return nil
			}
			return store.ErrResponseNotFound
		},
	}

	app := newTestApplication(store.Storage{Responses: responses})

	req := httptest.NewRequest(http.MethodDelete, "/v1/responses/42", nil)
	req = withURLParam(req, "responseID", "42")
	req = withUser(req, &store.User{ID: testOwnerID, Role: store.RoleBusiness})

	rr := httptest.NewRecorder()
	app.deleteResponseHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDeleteResponseNotAuthor(t *testing.T) {
	app := newTestApplication(store.Storage{Responses: &fakeResponsesStore{}})

	req := httptest.NewRequest(http.MethodDelete, "/v1/responses/42", nil)
	req = withURLParam(req, "responseID", "42")
	req = withUser(req, &store.User{ID: 99, Role: store.RoleCustomer})

	rr := httptest.NewRecorder()
	app.deleteResponseHandler(rr, req)

	// Author scoping surfaces as not found rather than leaking existence.
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
