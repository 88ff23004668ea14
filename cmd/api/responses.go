package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"welp/internal/conversation"
	"welp/internal/notifications"
	"welp/internal/store"

	"github.com/go-chi/chi/v5"
)

// ConversationResponse is the payload of GET /reviews/{reviewID}/conversation.
type ConversationResponse struct {
	Responses  []store.Response      `json:"responses"`
	CanRespond bool                  `json:"can_respond"`
	Archived   *store.ArchivedRecord `json:"archived,omitempty"`
}

// getConversationHandler godoc
//
//	@Summary		Get a review's conversation
//	@Description	Returns the live conversation thread, whether the caller may respond, and any archived "no longer applies" notice for the caller
//	@Tags			responses
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	ConversationResponse
//	@Failure		404			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/conversation [get]
func (app *application) getConversationHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	ctx := r.Context()

	review, business, err := app.getReviewWithBusiness(ctx, reviewID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	responses, err := app.store.Responses.ListByReview(ctx, reviewID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	claimantID := review.ClaimantID.Int64 // zero when unclaimed

	partition := conversation.Validate(responses, business.OwnerID, claimantID)

	// Orphans are by construction the current claimant's; park them in the
	// archival sink so the claimant sees a "no longer applies" notice. Best
	// effort: the conversation must render even if archiving is down.
	if len(partition.Orphaned) > 0 && claimantID != 0 {
		if err := app.store.Archives.Archive(ctx, reviewID, claimantID, partition.Orphaned); err != nil {
			app.logger.Warnw("failed to archive orphaned responses", "review_id", reviewID, "error", err)
		}
	}

	out := ConversationResponse{
		Responses:  partition.Valid,
		CanRespond: conversation.CanCustomerRespond(partition.Valid, business.OwnerID, claimantID, user.ID),
	}

	// Same degradation rule on the read side: no archive beats no conversation.
	archived, err := app.store.Archives.Retrieve(ctx, reviewID, user.ID)
	switch {
	case err == nil:
		out.Archived = archived
	case errors.Is(err, store.ErrNotFound):
		// nothing archived for this user
	default:
		app.logger.Warnw("failed to read archived responses", "review_id", reviewID, "error", err)
	}

	app.jsonResponse(w, http.StatusOK, out)
}

type createResponsePayload struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// createResponseHandler godoc
//
//	@Summary		Post a response
//	@Description	Adds a response to the review's conversation. The business owner may always respond; the claimant only when it is their turn, re-checked against the claim state at write time.
//	@Tags			responses
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int						true	"Review ID"
//	@Param			payload		body		createResponsePayload	true	"Response content"
//	@Success		201			{object}	store.Response
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/responses [post]
func (app *application) createResponseHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	var payload createResponsePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	review, business, err := app.getReviewWithBusiness(ctx, reviewID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	claimantID := review.ClaimantID.Int64

	isBusinessSide := user.ID == business.OwnerID
	if !isBusinessSide {
		if user.ID != claimantID {
			app.forbiddenResponse(w, r)
			return
		}

		// The turn gate is enforced here, against the claim state read in
		// this request, never against whatever the client last displayed.
		existing, err := app.store.Responses.ListByReview(ctx, reviewID)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}

		partition := conversation.Validate(existing, business.OwnerID, claimantID)
		if !conversation.CanCustomerRespond(partition.Valid, business.OwnerID, claimantID, user.ID) {
			app.forbiddenResponse(w, r)
			return
		}
	}

	response := &store.Response{
		ReviewID: reviewID,
		AuthorID: user.ID,
		Content:  payload.Content,
	}

	if err := app.store.Responses.Create(ctx, response); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// A new valid response supersedes any "no longer applies" notice.
	if err := app.store.Archives.Clear(ctx, reviewID, user.ID); err != nil {
		app.logger.Warnw("failed to clear archived responses", "review_id", reviewID, "user_id", user.ID, "error", err)
	}

	app.notifyOtherParty(review, business, user.ID, claimantID)

	app.jsonResponse(w, http.StatusCreated, response)
}

// deleteResponseHandler godoc
//
//	@Summary		Delete a response
//	@Description	Deletes a response; author only
//	@Tags			responses
//	@Produce		json
//	@Param			responseID	path		int	true	"Response ID"
//	@Success		200			{object}	map[string]string
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/responses/{responseID} [delete]
func (app *application) deleteResponseHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	responseID, err := strconv.ParseInt(chi.URLParam(r, "responseID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid response ID"))
		return
	}

	if err := app.store.Responses.Delete(r.Context(), responseID, user.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrResponseNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "response deleted"})
}

func (app *application) getReviewWithBusiness(ctx context.Context, reviewID int64) (*store.Review, *store.Business, error) {
	review, err := app.store.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, nil, err
	}

	business, err := app.store.Businesses.GetByID(ctx, review.BusinessID)
	if err != nil {
		return nil, nil, err
	}

	return review, business, nil
}

// notifyOtherParty pushes a "new response" notification to whichever side of
// the conversation did not just post. Fire and forget.
func (app *application) notifyOtherParty(review *store.Review, business *store.Business, authorID, claimantID int64) {
	var recipientID int64
	var event notifications.ResponseEvent

	if authorID == business.OwnerID {
		if claimantID == 0 {
			return // nobody to notify on an unclaimed review
		}
		recipientID = claimantID
		event = notifications.BusinessResponded
	} else {
		recipientID = business.OwnerID
		event = notifications.CustomerResponded
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := notifications.SendResponseNotification(ctx, app.push, app.store.PushTokens, recipientID, event, review)
		if err != nil && !errors.Is(err, notifications.ErrNoTokens) {
			app.logger.Errorw("failed to send response notification", "review_id", review.ID, "error", err)
		}
	}()
}
