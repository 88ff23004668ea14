package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"welp/internal/store"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"
)

type CreateBusinessPayload struct {
	Name     string `json:"name" validate:"required,max=120"`
	Category string `json:"category" validate:"required,max=60"`
	About    string `json:"about" validate:"max=2000"`
}

// createBusinessHandler godoc
//
//	@Summary		Create a business profile
//	@Description	Creates the business profile for a business-role account; one per owner
//	@Tags			businesses
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateBusinessPayload	true	"Business details"
//	@Success		201		{object}	store.Business
//	@Failure		400		{object}	error
//	@Failure		403		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses [post]
func (app *application) createBusinessHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if user.Role != store.RoleBusiness {
		app.forbiddenResponse(w, r)
		return
	}

	var payload CreateBusinessPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	business := &store.Business{
		OwnerID:  user.ID,
		Name:     payload.Name,
		Category: payload.Category,
		About:    payload.About,
	}

	if err := app.store.Businesses.Create(r.Context(), business); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, errors.New("this account already has a business profile"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusCreated, business)
}

// getBusinessHandler godoc
//
//	@Summary		Get a business profile
//	@Tags			businesses
//	@Produce		json
//	@Param			businessID	path		int	true	"Business ID"
//	@Success		200			{object}	store.Business
//	@Failure		404			{object}	error
//	@Router			/businesses/{businessID} [get]
func (app *application) getBusinessHandler(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(chi.URLParam(r, "businessID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid business ID"))
		return
	}

	business, err := app.store.Businesses.GetByID(r.Context(), businessID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, business)
}

type UpdateBusinessPayload struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Category *string `json:"category" validate:"omitempty,max=60"`
	About    *string `json:"about" validate:"omitempty,max=2000"`
}

// updateBusinessHandler godoc
//
//	@Summary		Update a business profile
//	@Description	Patches business fields; owner only
//	@Tags			businesses
//	@Accept			json
//	@Produce		json
//	@Param			businessID	path		int						true	"Business ID"
//	@Param			payload		body		UpdateBusinessPayload	true	"Fields to update"
//	@Success		200			{object}	map[string]string
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses/{businessID} [patch]
func (app *application) updateBusinessHandler(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(chi.URLParam(r, "businessID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid business ID"))
		return
	}

	var payload UpdateBusinessPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	fields := map[string]interface{}{}
	if payload.Name != nil {
		fields["name"] = *payload.Name
	}
	if payload.Category != nil {
		fields["category"] = *payload.Category
	}
	if payload.About != nil {
		fields["about"] = *payload.About
	}

	if err := app.store.Businesses.Update(r.Context(), businessID, fields); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "business updated"})
}

// uploadBusinessLogoHandler godoc
//
//	@Summary		Upload business logo
//	@Description	Uploads a logo image and saves its URL; owner only
//	@Tags			businesses
//	@Accept			mpfd
//	@Produce		json
//	@Param			businessID	path		int		true	"Business ID"
//	@Param			logo		formData	file	true	"Logo image, max 2MB"
//	@Success		200			{object}	map[string]string
//	@Failure		400			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses/{businessID}/logo [post]
func (app *application) uploadBusinessLogoHandler(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(chi.URLParam(r, "businessID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid business ID"))
		return
	}

	if err := r.ParseMultipartForm(2 << 20); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Unable to parse form, file size limit is 2MB")
		return
	}

	file, fileHeader, err := r.FormFile("logo")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Unable to retrieve file")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		writeJSONError(w, http.StatusBadRequest, "Only JPEG and PNG images are allowed")
		return
	}

	uploadParams := uploader.UploadParams{
		PublicID:       fmt.Sprintf("/%d", businessID),
		Overwrite:      boolPtr(true),
		Folder:         "business_logos",
		Transformation: "w_300,h_300,c_fill,q_auto",
	}
	uploadResult, err := app.cld.Upload.Upload(context.Background(), file, uploadParams)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Businesses.SetLogo(r.Context(), uploadResult.SecureURL, businessID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"logo_url": uploadResult.SecureURL})
}
