package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"critiq/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	st := newTestStorage()
	app := newTestApplication(t, st)
	mux := app.mount()

	alice, bob, mod, title := seedReviewFixtures(t, st)

	review := &store.Review{TitleID: title.ID, AuthorID: alice.ID, Score: 7, Text: "fine"}
	require.NoError(t, st.Reviews.Create(t.Context(), review))

	base := fmt.Sprintf("/v1/titles/%d/reviews/%d/comments/", title.ID, review.ID)

	var commentID int64

	t.Run("any authenticated user can comment", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, base, `{"text": "agreed"}`)
		req.Header.Set("Authorization", bearerToken(t, app, bob))
		rr := executeRequest(req, mux)

		require.Equal(t, http.StatusCreated, rr.Code)

		var body struct {
			Data store.Comment `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, bob.ID, body.Data.AuthorID)
		assert.Equal(t, review.ID, body.Data.ReviewID)
		commentID = body.Data.ID
	})

	t.Run("a second comment by the same author is fine", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, base, `{"text": "still agreed"}`)
		req.Header.Set("Authorization", bearerToken(t, app, bob))
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("another user cannot edit", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPatch, fmt.Sprintf("%s%d/", base, commentID), `{"text": "hijacked"}`)
		req.Header.Set("Authorization", bearerToken(t, app, alice))
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("the author can edit", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPatch, fmt.Sprintf("%s%d/", base, commentID), `{"text": "amended"}`)
		req.Header.Set("Authorization", bearerToken(t, app, bob))
		rr := executeRequest(req, mux)

		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Data store.Comment `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "amended", body.Data.Text)
	})

	t.Run("a moderator can delete", func(t *testing.T) {
		req := jsonRequest(t, http.MethodDelete, fmt.Sprintf("%s%d/", base, commentID), "")
		req.Header.Set("Authorization", bearerToken(t, app, mod))
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestCommentResolvedUnderItsReviewOnly(t *testing.T) {
	st := newTestStorage()
	app := newTestApplication(t, st)
	mux := app.mount()

	alice, bob, _, title := seedReviewFixtures(t, st)

	first := &store.Review{TitleID: title.ID, AuthorID: alice.ID, Score: 7, Text: "fine"}
	require.NoError(t, st.Reviews.Create(t.Context(), first))
	second := &store.Review{TitleID: title.ID, AuthorID: bob.ID, Score: 3, Text: "meh"}
	require.NoError(t, st.Reviews.Create(t.Context(), second))

	comment := &store.Comment{ReviewID: first.ID, AuthorID: bob.ID, Text: "agreed"}
	require.NoError(t, st.Comments.Create(t.Context(), comment))

	req := jsonRequest(t, http.MethodGet,
		fmt.Sprintf("/v1/titles/%d/reviews/%d/comments/%d/", title.ID, second.ID, comment.ID), "")
	rr := executeRequest(req, mux)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
