package main

import (
	"context"
	"fmt"
	"net/http"

	"welp/internal/store"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type userKey string

const userCtx userKey = "user"

func getUserFromContext(r *http.Request) *store.User {
	user, _ := r.Context().Value(userCtx).(*store.User)
	return user
}

// for cloudinary uploadParams
func boolPtr(b bool) *bool {
	return &b
}

type UpdateUserPayload struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,usphone"`
}

// updateUserHandler godoc
//
//	@Summary		Update profile
//	@Description	Updates the authenticated user's profile fields
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		UpdateUserPayload	true	"Fields to update"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users [put]
func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload UpdateUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	fields := map[string]interface{}{}
	if payload.FirstName != nil {
		fields["first_name"] = *payload.FirstName
	}
	if payload.LastName != nil {
		fields["last_name"] = *payload.LastName
	}
	if payload.Phone != nil {
		fields["phone"] = *payload.Phone
	}

	if err := app.store.Users.UpdateUser(r.Context(), user.ID, fields); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "profile updated"})
}

// uploadProfilePictureHandler godoc
//
//	@Summary		Upload profile picture
//	@Description	Uploads the user's avatar and saves its URL
//	@Tags			users
//	@Accept			mpfd
//	@Produce		json
//	@Param			profile_picture	formData	file	true	"Profile picture, max 2MB"
//	@Success		200				{object}	map[string]string
//	@Failure		400				{object}	error
//	@Failure		500				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/profile-picture [post]
func (app *application) uploadProfilePictureHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	err := r.ParseMultipartForm(2 << 20) // 2 MB
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Unable to parse form, file size limit is 2MB")
		return
	}

	file, fileHeader, err := r.FormFile("profile_picture")
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
		PublicID:       fmt.Sprintf("/%d", user.ID),
		Overwrite:      boolPtr(true),
		Folder:         "avatars",
		Transformation: "w_300,h_300,c_fill,q_auto",
	}
	uploadResult, err := app.cld.Upload.Upload(context.Background(), file, uploadParams)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SetAvatar(r.Context(), uploadResult.SecureURL, user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"avatar_url": uploadResult.SecureURL})
}

// listClaimedReviewsHandler godoc
//
//	@Summary		List my claimed reviews
//	@Description	Lists reviews the authenticated customer has claimed
//	@Tags			users
//	@Produce		json
//	@Success		200	{array}	store.Review
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/me/reviews [get]
func (app *application) listClaimedReviewsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviews, err := app.store.Reviews.ListClaimedByCustomer(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, reviews)
}
