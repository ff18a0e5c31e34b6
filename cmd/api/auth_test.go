package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"critiq/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSignup(t *testing.T) {
	st := newTestStorage()
	app := newTestApplication(t, st)
	mux := app.mount()

	mailer := app.mailer.(*stubMailer)

	t.Run("rejects the reserved username", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/signup", `{"email": "me@example.com", "username": "me"}`)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("creates an account and emails a code", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/signup", `{"email": "carol@example.com", "username": "carol"}`)
		rr := executeRequest(req, mux)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, mailer.sent)

		user, err := st.Users.GetByUsername(t.Context(), "carol")
		require.NoError(t, err)
		assert.Equal(t, "carol@example.com", user.Email)

		_, err = st.Users.ConfirmationHash(t.Context(), user.ID)
		assert.NoError(t, err)
	})

	t.Run("the same pair signing up again gets a fresh code", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/signup", `{"email": "carol@example.com", "username": "carol"}`)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 2, mailer.sent)
	})

	t.Run("a taken username with a different email is rejected", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/signup", `{"email": "other@example.com", "username": "carol"}`)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSignupRollsBackOnMailFailure(t *testing.T) {
	st := newTestStorage()
	app := newTestApplication(t, st)
	mux := app.mount()

	app.mailer.(*stubMailer).fail = true

	req := jsonRequest(t, http.MethodPost, "/v1/auth/signup", `{"email": "dave@example.com", "username": "dave"}`)
	rr := executeRequest(req, mux)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	_, err := st.Users.GetByUsername(t.Context(), "dave")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateToken(t *testing.T) {
	st := newTestStorage()
	app := newTestApplication(t, st)
	mux := app.mount()

	users := st.Users.(*stubUsersStore)
	carol := users.add(&store.User{Username: "carol", Email: "carol@example.com"})

	codeHash, err := bcrypt.GenerateFromPassword([]byte("the-real-code"), bcrypt.MinCost)
	require.NoError(t, err)
	users.confirmations[carol.ID] = codeHash

	t.Run("unknown username", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/token", `{"username": "nobody", "confirmation_code": "whatever"}`)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("wrong code", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/token", `{"username": "carol", "confirmation_code": "guess"}`)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("valid code yields a working token", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/token", `{"username": "carol", "confirmation_code": "the-real-code"}`)
		rr := executeRequest(req, mux)

		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		token := body.Data["token"]
		require.NotEmpty(t, token)

		me := jsonRequest(t, http.MethodGet, "/v1/users/me", "")
		me.Header.Set("Authorization", "Bearer "+token)
		rr = executeRequest(me, mux)

		require.Equal(t, http.StatusOK, rr.Code)

		var profile struct {
			Data store.User `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&profile))
		assert.Equal(t, "carol", profile.Data.Username)
	})

	t.Run("no pending code", func(t *testing.T) {
		delete(users.confirmations, carol.ID)

		req := jsonRequest(t, http.MethodPost, "/v1/auth/token", `{"username": "carol", "confirmation_code": "the-real-code"}`)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
