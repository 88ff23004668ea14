package main

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"welp/internal/params"
	"welp/internal/sharecode"
	"welp/internal/store"

	"github.com/go-chi/chi/v5"
)

type createReviewPayload struct {
	SubjectName  string `json:"subject_name" validate:"required,max=120"`
	SubjectPhone string `json:"subject_phone" validate:"required,usphone"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Content      string `json:"content" validate:"required,max=2000"`
}

// createReviewHandler godoc
//
//	@Summary		Create a review
//	@Description	Creates a review about a customer; business owner only. The share code in the response is what the business hands to the customer.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			businessID	path		int					true	"Business ID"
//	@Param			payload		body		createReviewPayload	true	"Review details"
//	@Success		201			{object}	store.Review
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses/{businessID}/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(chi.URLParam(r, "businessID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid business ID"))
		return
	}

	var payload createReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review := &store.Review{
		BusinessID:   businessID,
		SubjectName:  payload.SubjectName,
		SubjectPhone: payload.SubjectPhone,
		Rating:       payload.Rating,
		Content:      payload.Content,
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// The code is derived from the id, so it can only be issued after insert.
	code, err := app.shareCodes.Encode(review.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if err := app.store.Reviews.SetShareCode(r.Context(), review.ID, code); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	review.ShareCode = code

	app.jsonResponse(w, http.StatusCreated, review)
}

// getReviewHandler godoc
//
//	@Summary		Get a review
//	@Tags			reviews
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	store.Review
//	@Failure		404			{object}	error
//	@Router			/reviews/{reviewID} [get]
func (app *application) getReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, review)
}

// getReviewByShareCodeHandler godoc
//
//	@Summary		Look up a review by share code
//	@Description	Resolves the short code printed on a receipt or message into the review
//	@Tags			reviews
//	@Produce		json
//	@Param			shareCode	path		string	true	"Share code (WELP-XXXXXXXX)"
//	@Success		200			{object}	store.Review
//	@Failure		404			{object}	error
//	@Router			/reviews/code/{shareCode} [get]
func (app *application) getReviewByShareCodeHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "shareCode")

	if _, err := app.shareCodes.Decode(code); err != nil {
		if errors.Is(err, sharecode.ErrInvalidCode) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	review, err := app.store.Reviews.GetByShareCode(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, review)
}

// listBusinessReviewsHandler godoc
//
//	@Summary		List a business's reviews
//	@Description	Paginated reviews plus rating stats
//	@Tags			reviews
//	@Produce		json
//	@Param			businessID	path		int	true	"Business ID"
//	@Param			limit		query		int	false	"Page size"
//	@Param			page		query		int	false	"Page number"
//	@Success		200			{object}	map[string]interface{}
//	@Failure		500			{object}	error
//	@Router			/businesses/{businessID}/reviews [get]
func (app *application) listBusinessReviewsHandler(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(chi.URLParam(r, "businessID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid business ID"))
		return
	}

	pagination := params.ParsePagination(r.URL.Query())

	reviews, total, err := app.store.Reviews.ListByBusiness(r.Context(), businessID, pagination)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	pagination.ComputeMeta(total)

	_, average, err := app.store.Reviews.GetStats(r.Context(), businessID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"reviews":    reviews,
		"pagination": pagination,
		"average":    math.Round(average*10) / 10,
	}

	app.jsonResponse(w, http.StatusOK, response)
}

// claimReviewHandler godoc
//
//	@Summary		Claim a review
//	@Description	Binds the authenticated customer to the review as its current claimant. Claiming over a previous claimant strands that claimant's conversation, which the validator then archives.
//	@Tags			reviews
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	map[string]string
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Failure		409			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/claim [post]
func (app *application) claimReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if user.Role != store.RoleCustomer {
		app.forbiddenResponse(w, r)
		return
	}

	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	if err := app.store.Reviews.Claim(r.Context(), reviewID, user.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, errors.New("you already claimed this review"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "review claimed"})
}

// deleteReviewHandler godoc
//
//	@Summary		Delete a review
//	@Description	Deletes a review; only the authoring business's owner may
//	@Tags			reviews
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	map[string]string
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	isOwner, err := app.store.Businesses.IsOwner(r.Context(), review.BusinessID, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if !isOwner {
		app.forbiddenResponse(w, r)
		return
	}

	if err := app.store.Reviews.Delete(r.Context(), reviewID, review.BusinessID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "review deleted"})
}
