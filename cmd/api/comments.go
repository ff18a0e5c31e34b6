package main

import (
	"errors"
	"net/http"

	"critiq/internal/accesscontrol"
	"critiq/internal/params"
	"critiq/internal/store"
)

type CreateCommentPayload struct {
	Text string `json:"text" validate:"required,max=2000"`
}

func (app *application) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	review := getReviewFromContext(r)

	p := params.ParsePagination(r.URL.Query())

	comments, total, err := app.store.Comments.ListByReview(r.Context(), review.ID, p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	response := map[string]any{
		"comments":   comments,
		"pagination": p,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createCommentHandler godoc
//
//	@Summary		Comment on a review
//	@Description	Any authenticated user may comment; there is no one-per-author limit on comments.
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			titleID		path		int						true	"Title ID"
//	@Param			reviewID	path		int						true	"Review ID"
//	@Param			payload		body		CreateCommentPayload	true	"Comment text"
//	@Success		201			{object}	store.Comment
//	@Failure		400			{object}	error
//	@Failure		401			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/titles/{titleID}/reviews/{reviewID}/comments [post]
func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	review := getReviewFromContext(r)
	user := getUserFromContext(r)

	var payload CreateCommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	comment := &store.Comment{
		ReviewID: review.ID,
		AuthorID: user.ID,
		Text:     payload.Text,
	}

	if err := app.store.Comments.Create(r.Context(), comment); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}
	comment.AuthorUsername = user.Username

	if err := app.jsonResponse(w, http.StatusCreated, comment); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getCommentHandler(w http.ResponseWriter, r *http.Request) {
	comment := getCommentFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, comment); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateCommentPayload struct {
	Text *string `json:"text" validate:"omitempty,max=2000"`
}

func (app *application) updateCommentHandler(w http.ResponseWriter, r *http.Request) {
	comment := getCommentFromContext(r)
	user := getUserFromContext(r)

	if !accesscontrol.CanModifyContent(user.Identity(), user.ID, comment.AuthorID) {
		app.forbiddenResponse(w, r)
		return
	}

	var payload UpdateCommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.Text != nil {
		comment.Text = *payload.Text
	}

	if err := app.store.Comments.Update(r.Context(), comment); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, comment); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	comment := getCommentFromContext(r)
	user := getUserFromContext(r)

	if !accesscontrol.CanModifyContent(user.Identity(), user.ID, comment.AuthorID) {
		app.forbiddenResponse(w, r)
		return
	}

	if err := app.store.Comments.Delete(r.Context(), comment.ReviewID, comment.ID); err != nil {
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
