package main

import (
	"context"
	"net/http"
	"time"

	"welp/internal/notifications"
	"welp/internal/params"
	"welp/internal/store"

	"github.com/9ssi7/exponent"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newTestApplication(st store.Storage) *application {
	return &application{
		logger: zap.NewNop().Sugar(),
		store:  st,
		push:   &stubPushSender{},
	}
}

// withUser returns the request with the authenticated user installed, the way
// AuthTokenMiddleware would.
func withUser(r *http.Request, user *store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userCtx, user))
}

// withURLParam installs a chi route parameter so handlers can be exercised
// without mounting the full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

type stubPushSender struct{}

func (s *stubPushSender) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	return nil, nil
}

func (s *stubPushSender) PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error) {
	return nil, nil
}

var _ notifications.PushSender = (*stubPushSender)(nil)

// Fakes below implement the store interfaces with overridable funcs; anything
// a test does not stub returns store.ErrNotFound.

type fakeReviewsStore struct {
	GetByIDFn func(ctx context.Context, id int64) (*store.Review, error)
}

func (f *fakeReviewsStore) Create(ctx context.Context, r *store.Review) error { return nil }

func (f *fakeReviewsStore) GetByID(ctx context.Context, id int64) (*store.Review, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (f *fakeReviewsStore) GetByShareCode(ctx context.Context, code string) (*store.Review, error) {
	return nil, store.ErrNotFound
}

func (f *fakeReviewsStore) SetShareCode(ctx context.Context, reviewID int64, code string) error {
	return nil
}

func (f *fakeReviewsStore) ListByBusiness(ctx context.Context, businessID int64, p params.Pagination) ([]store.Review, int, error) {
	return nil, 0, nil
}

func (f *fakeReviewsStore) ListClaimedByCustomer(ctx context.Context, customerID int64) ([]store.Review, error) {
	return nil, nil
}

func (f *fakeReviewsStore) Claim(ctx context.Context, reviewID, customerID int64) error { return nil }

func (f *fakeReviewsStore) Delete(ctx context.Context, reviewID, businessID int64) error { return nil }

func (f *fakeReviewsStore) GetStats(ctx context.Context, businessID int64) (int, float64, error) {
	return 0, 0, nil
}

type fakeBusinessesStore struct {
	GetByIDFn func(ctx context.Context, id int64) (*store.Business, error)
}

func (f *fakeBusinessesStore) Create(ctx context.Context, b *store.Business) error { return nil }

func (f *fakeBusinessesStore) GetByID(ctx context.Context, id int64) (*store.Business, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (f *fakeBusinessesStore) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	return nil
}

func (f *fakeBusinessesStore) SetLogo(ctx context.Context, logoURL string, businessID int64) error {
	return nil
}

func (f *fakeBusinessesStore) IsOwner(ctx context.Context, businessID, userID int64) (bool, error) {
	return false, nil
}

type fakeResponsesStore struct {
	CreateFn       func(ctx context.Context, r *store.Response) error
	ListByReviewFn func(ctx context.Context, reviewID int64) ([]store.Response, error)
	DeleteFn       func(ctx context.Context, responseID, authorID int64) error
}

func (f *fakeResponsesStore) Create(ctx context.Context, r *store.Response) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, r)
	}
	r.ID = 1
	r.CreatedAt = time.Now()
	return nil
}

func (f *fakeResponsesStore) GetByID(ctx context.Context, id int64) (*store.Response, error) {
	return nil, store.ErrResponseNotFound
}

func (f *fakeResponsesStore) ListByReview(ctx context.Context, reviewID int64) ([]store.Response, error) {
	if f.ListByReviewFn != nil {
		return f.ListByReviewFn(ctx, reviewID)
	}
	return nil, nil
}

func (f *fakeResponsesStore) Delete(ctx context.Context, responseID, authorID int64) error {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, responseID, authorID)
	}
	return store.ErrResponseNotFound
}

type fakeArchivesStore struct {
	ArchiveFn  func(ctx context.Context, reviewID, userID int64, responses []store.Response) error
	RetrieveFn func(ctx context.Context, reviewID, userID int64) (*store.ArchivedRecord, error)
	ClearFn    func(ctx context.Context, reviewID, userID int64) error
}

func (f *fakeArchivesStore) Archive(ctx context.Context, reviewID, userID int64, responses []store.Response) error {
	if f.ArchiveFn != nil {
		return f.ArchiveFn(ctx, reviewID, userID, responses)
	}
	return nil
}

func (f *fakeArchivesStore) Retrieve(ctx context.Context, reviewID, userID int64) (*store.ArchivedRecord, error) {
	if f.RetrieveFn != nil {
		return f.RetrieveFn(ctx, reviewID, userID)
	}
	return nil, store.ErrNotFound
}

func (f *fakeArchivesStore) Clear(ctx context.Context, reviewID, userID int64) error {
	if f.ClearFn != nil {
		return f.ClearFn(ctx, reviewID, userID)
	}
	return nil
}

type fakePushTokensStore struct{}

func (f *fakePushTokensStore) Upsert(ctx context.Context, userID int64, token string) error {
	return nil
}

func (f *fakePushTokensStore) Delete(ctx context.Context, userID int64, token string) error {
	return nil
}

func (f *fakePushTokensStore) ListByUser(ctx context.Context, userID int64) ([]string, error) {
	return nil, nil
}
