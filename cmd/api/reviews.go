package main

import (
	"errors"
	"net/http"

	"critiq/internal/accesscontrol"
	"critiq/internal/params"
	"critiq/internal/store"
)

type CreateReviewPayload struct {
	Score int    `json:"score" validate:"required,min=1,max=10"`
	Text  string `json:"text" validate:"required,max=5000"`
}

// listReviewsHandler godoc
//
//	@Summary		List reviews of a title
//	@Tags			reviews
//	@Produce		json
//	@Param			titleID	path		int	true	"Title ID"
//	@Success		200		{array}		store.Review
//	@Failure		404		{object}	error
//	@Router			/titles/{titleID}/reviews [get]
func (app *application) listReviewsHandler(w http.ResponseWriter, r *http.Request) {
	title := getTitleFromContext(r)

	p := params.ParsePagination(r.URL.Query())

	reviews, total, err := app.store.Reviews.ListByTitle(r.Context(), title.ID, p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	response := map[string]any{
		"reviews":    reviews,
		"pagination": p,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createReviewHandler godoc
//
//	@Summary		Review a title
//	@Description	Creates the caller's review of the title. One review per author per title; a second attempt fails no matter what score or text it carries.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			titleID	path		int					true	"Title ID"
//	@Param			payload	body		CreateReviewPayload	true	"Score and text"
//	@Success		201		{object}	store.Review
//	@Failure		400		{object}	error	"Validation error, including a duplicate review"
//	@Failure		401		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/titles/{titleID}/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	title := getTitleFromContext(r)
	user := getUserFromContext(r)

	var payload CreateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	exists, err := app.store.Reviews.HasReview(r.Context(), title.ID, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if exists {
		app.badRequestResponse(w, r, store.ErrDuplicateReview)
		return
	}

	// author and title come from the credential and the resolved path,
	// never from the payload
	review := &store.Review{
		TitleID:  title.ID,
		AuthorID: user.ID,
		Score:    payload.Score,
		Text:     payload.Text,
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateReview):
			// the unique constraint caught a race the pre-check missed
			app.badRequestResponse(w, r, err)
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}
	review.AuthorUsername = user.Username

	if err := app.jsonResponse(w, http.StatusCreated, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getReviewHandler(w http.ResponseWriter, r *http.Request) {
	review := getReviewFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateReviewPayload struct {
	Score *int    `json:"score" validate:"omitempty,min=1,max=10"`
	Text  *string `json:"text" validate:"omitempty,max=5000"`
}

// updateReviewHandler godoc
//
//	@Summary		Edit a review
//	@Description	The author may edit their own review; moderators and admins may edit any. Uniqueness is not re-checked on update.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			titleID		path		int					true	"Title ID"
//	@Param			reviewID	path		int					true	"Review ID"
//	@Param			payload		body		UpdateReviewPayload	true	"Fields to change"
//	@Success		200			{object}	store.Review
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/titles/{titleID}/reviews/{reviewID} [patch]
func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	review := getReviewFromContext(r)
	user := getUserFromContext(r)

	if !accesscontrol.CanModifyContent(user.Identity(), user.ID, review.AuthorID) {
		app.forbiddenResponse(w, r)
		return
	}

	var payload UpdateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.Score != nil {
		review.Score = *payload.Score
	}
	if payload.Text != nil {
		review.Text = *payload.Text
	}

	if err := app.store.Reviews.Update(r.Context(), review); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteReviewHandler godoc
//
//	@Summary		Delete a review
//	@Description	The author may delete their own review; moderators and admins may delete any. Comments on the review go with it.
//	@Tags			reviews
//	@Param			titleID		path	int	true	"Title ID"
//	@Param			reviewID	path	int	true	"Review ID"
//	@Success		204
//	@Failure		403	{object}	error
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/titles/{titleID}/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	review := getReviewFromContext(r)
	user := getUserFromContext(r)

	if !accesscontrol.CanModifyContent(user.Identity(), user.ID, review.AuthorID) {
		app.forbiddenResponse(w, r)
		return
	}

	if err := app.store.Reviews.Delete(r.Context(), review.TitleID, review.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
