package main

import (
	"errors"
	"net/http"

	"critiq/internal/params"
	"critiq/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateCategoryPayload struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required,max=50,lowercase,excludesall= "`
}

// listCategoriesHandler godoc
//
//	@Summary		List categories
//	@Tags			catalogue
//	@Produce		json
//	@Param			search	query		string	false	"Filter by name"
//	@Success		200		{array}		store.Category
//	@Router			/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	categories, total, err := app.store.Categories.List(r.Context(), r.URL.Query().Get("search"), p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	response := map[string]any{
		"categories": categories,
		"pagination": p,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	category := &store.Category{Name: payload.Name, Slug: payload.Slug}

	if err := app.store.Categories.Create(r.Context(), category); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, errors.New("a category with that name or slug already exists"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, category); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.store.Categories.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
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
