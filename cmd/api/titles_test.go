package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"critiq/internal/accesscontrol"
	"critiq/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTitle(t *testing.T) {
	st := newTestStorage()
	app := newTestApplication(t, st)
	mux := app.mount()

	users := st.Users.(*stubUsersStore)
	alice := users.add(&store.User{Username: "alice", Email: "alice@example.com"})
	admin := users.add(&store.User{Username: "root", Email: "root@example.com", Role: accesscontrol.RoleAdmin})

	require.NoError(t, st.Categories.Create(t.Context(), &store.Category{Name: "Books", Slug: "books"}))
	require.NoError(t, st.Genres.Create(t.Context(), &store.Genre{Name: "Horror", Slug: "horror"}))

	t.Run("requires admin", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/titles/",
			`{"name": "The Stand", "year": 1978, "category": "books", "genre": ["horror"]}`)
		req.Header.Set("Authorization", bearerToken(t, app, alice))
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("rejects a year in the future", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/titles/",
			`{"name": "The Stand II", "year": 3000, "category": "books", "genre": ["horror"]}`)
		req.Header.Set("Authorization", bearerToken(t, app, admin))
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/titles/",
			`{"name": "The Stand", "year": 1978, "category": "films", "genre": ["horror"]}`)
		req.Header.Set("Authorization", bearerToken(t, app, admin))
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects an unknown genre", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/titles/",
			`{"name": "The Stand", "year": 1978, "category": "books", "genre": ["comedy"]}`)
		req.Header.Set("Authorization", bearerToken(t, app, admin))
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("creates with resolved classification", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/titles/",
			`{"name": "The Stand", "year": 1978, "category": "books", "genre": ["horror"]}`)
		req.Header.Set("Authorization", bearerToken(t, app, admin))
		rr := executeRequest(req, mux)

		require.Equal(t, http.StatusCreated, rr.Code)

		var body struct {
			Data store.Title `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		require.NotNil(t, body.Data.Category)
		assert.Equal(t, "books", body.Data.Category.Slug)
		require.Len(t, body.Data.Genres, 1)
		assert.Equal(t, "horror", body.Data.Genres[0].Slug)
		assert.Nil(t, body.Data.Rating, "a fresh title has no rating")
	})
}

func TestGetTitle(t *testing.T) {
	st := newTestStorage()
	app := newTestApplication(t, st)
	mux := app.mount()

	title := &store.Title{Name: "Dune", Year: 1965}
	require.NoError(t, st.Titles.Create(t.Context(), title))

	t.Run("found, no authentication needed", func(t *testing.T) {
		req := jsonRequest(t, http.MethodGet, fmt.Sprintf("/v1/titles/%d/", title.ID), "")
		rr := executeRequest(req, mux)

		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Data store.Title `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "Dune", body.Data.Name)
	})

	t.Run("unknown ID", func(t *testing.T) {
		req := jsonRequest(t, http.MethodGet, "/v1/titles/9999/", "")
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed ID", func(t *testing.T) {
		req := jsonRequest(t, http.MethodGet, "/v1/titles/not-a-number/", "")
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
