package main

import (
	"errors"
	"net/http"

	"critiq/internal/params"
	"critiq/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateGenrePayload struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required,max=50,lowercase,excludesall= "`
}

func (app *application) listGenresHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	genres, total, err := app.store.Genres.List(r.Context(), r.URL.Query().Get("search"), p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	response := map[string]any{
		"genres":     genres,
		"pagination": p,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) createGenreHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateGenrePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	genre := &store.Genre{Name: payload.Name, Slug: payload.Slug}

	if err := app.store.Genres.Create(r.Context(), genre); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, errors.New("a genre with that name or slug already exists"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, genre); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteGenreHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.store.Genres.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
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
