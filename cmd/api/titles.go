package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"critiq/internal/params"
	"critiq/internal/store"
)

type CreateTitlePayload struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Year        int      `json:"year" validate:"required,gt=0"`
	Description *string  `json:"description" validate:"omitempty,max=512"`
	Category    string   `json:"category" validate:"required,max=50"`
	Genre       []string `json:"genre" validate:"required,min=1,dive,max=50"`
}

// validateYear rejects works that have not come out yet.
func validateYear(year int) error {
	if year > time.Now().Year() {
		return fmt.Errorf("year %d is in the future", year)
	}
	return nil
}

// resolveClassification turns category and genre slugs into stored entities.
func (app *application) resolveClassification(r *http.Request, categorySlug string, genreSlugs []string) (*store.Category, []store.Genre, error) {
	var category *store.Category
	if categorySlug != "" {
		c, err := app.store.Categories.GetBySlug(r.Context(), categorySlug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil, fmt.Errorf("unknown category: %s", categorySlug)
			}
			return nil, nil, err
		}
		category = c
	}

	var genres []store.Genre
	for _, slug := range genreSlugs {
		g, err := app.store.Genres.GetBySlug(r.Context(), slug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil, fmt.Errorf("unknown genre: %s", slug)
			}
			return nil, nil, err
		}
		genres = append(genres, *g)
	}

	return category, genres, nil
}

// listTitlesHandler godoc
//
//	@Summary		List titles
//	@Description	Lists titles with their computed rating. Filterable by category, genre, name and year.
//	@Tags			catalogue
//	@Produce		json
//	@Param			category	query		string	false	"Category slug"
//	@Param			genre		query		string	false	"Genre slug"
//	@Param			name		query		string	false	"Name substring"
//	@Param			year		query		int		false	"Exact year"
//	@Success		200			{array}		store.Title
//	@Failure		400			{object}	error
//	@Router			/titles [get]
func (app *application) listTitlesHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := store.TitleFilterQuery{}.Parse(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p := params.ParsePagination(r.URL.Query())

	titles, total, err := app.store.Titles.List(r.Context(), filter, p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	response := map[string]any{
		"titles":     titles,
		"pagination": p,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createTitleHandler godoc
//
//	@Summary		Add a title to the catalogue
//	@Tags			catalogue
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateTitlePayload	true	"Title details"
//	@Success		201		{object}	store.Title
//	@Failure		400		{object}	error	"Validation error, including a year in the future"
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/titles [post]
func (app *application) createTitleHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTitlePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := validateYear(payload.Year); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	category, genres, err := app.resolveClassification(r, payload.Category, payload.Genre)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	title := &store.Title{
		Name:        payload.Name,
		Year:        payload.Year,
		Description: payload.Description,
		Category:    category,
		Genres:      genres,
	}

	if err := app.store.Titles.Create(r.Context(), title); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, title); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getTitleHandler(w http.ResponseWriter, r *http.Request) {
	title := getTitleFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, title); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateTitlePayload struct {
	Name        *string   `json:"name" validate:"omitempty,max=200"`
	Year        *int      `json:"year" validate:"omitempty,gt=0"`
	Description *string   `json:"description" validate:"omitempty,max=512"`
	Category    *string   `json:"category" validate:"omitempty,max=50"`
	Genre       *[]string `json:"genre" validate:"omitempty,min=1,dive,max=50"`
}

func (app *application) updateTitleHandler(w http.ResponseWriter, r *http.Request) {
	title := getTitleFromContext(r)

	var payload UpdateTitlePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.Name != nil {
		title.Name = *payload.Name
	}
	if payload.Year != nil {
		if err := validateYear(*payload.Year); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		title.Year = *payload.Year
	}
	if payload.Description != nil {
		title.Description = payload.Description
	}
	if payload.Category != nil {
		category, _, err := app.resolveClassification(r, *payload.Category, nil)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		title.Category = category
	}
	if payload.Genre != nil {
		_, genres, err := app.resolveClassification(r, "", *payload.Genre)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		title.Genres = genres
	}

	if err := app.store.Titles.Update(r.Context(), title); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, title); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteTitleHandler(w http.ResponseWriter, r *http.Request) {
	title := getTitleFromContext(r)

	if err := app.store.Titles.Delete(r.Context(), title.ID); err != nil {
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
