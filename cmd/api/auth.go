package main

import (
	"errors"
	"fmt"
	"net/http"

	"critiq/internal/accesscontrol"
	"critiq/internal/mailer"
	"critiq/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type SignupPayload struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=150,alphanumunicode,notreserved"`
}

type confirmationVars struct {
	Username         string
	ConfirmationCode string
	ExpiresIn        string
}

// signupHandler godoc
//
//	@Summary		Sign up
//	@Description	Registers a user and emails them a one-time confirmation code. Signing up again with the same email and username issues a fresh code.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SignupPayload	true	"Email and username"
//	@Success		200		{object}	store.User		"Code sent"
//	@Failure		400		{object}	error			"Validation error"
//	@Failure		500		{object}	error			"Internal server error"
//	@Router			/auth/signup [post]
func (app *application) signupHandler(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	plainCode := uuid.New().String()

	codeHash, err := bcrypt.GenerateFromPassword([]byte(plainCode), bcrypt.DefaultCost)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	user := &store.User{
		Username: payload.Username,
		Email:    payload.Email,
		Role:     accesscontrol.RoleUser,
	}

	created := true
	err = app.store.Users.CreateWithConfirmation(ctx, user, codeHash, app.config.mail.exp)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail), errors.Is(err, store.ErrDuplicateUsername):
			// the same pair signing up again gets a fresh code; any other
			// collision is a validation failure
			existing, lookupErr := app.store.Users.GetByUsername(ctx, payload.Username)
			if lookupErr != nil || existing.Email != payload.Email {
				app.badRequestResponse(w, r, err)
				return
			}
			if err := app.store.Users.RefreshConfirmation(ctx, existing.ID, codeHash, app.config.mail.exp); err != nil {
				app.internalServerError(w, r, err)
				return
			}
			user = existing
			created = false
		default:
			app.internalServerError(w, r, err)
			return
		}
	}

	vars := confirmationVars{
		Username:         user.Username,
		ConfirmationCode: plainCode,
		ExpiresIn:        app.config.mail.exp.String(),
	}

	status, err := app.mailer.Send(mailer.ConfirmationCodeTemplate, user.Username, user.Email, vars)
	if err != nil {
		app.logger.Errorw("error sending confirmation email", "error", err)

		// roll back user creation if email fails (SAGA pattern)
		if created {
			if err := app.store.Users.Delete(ctx, user.Username); err != nil {
				app.logger.Errorw("error deleting user", "error", err)
			}
		}

		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("confirmation email sent", "status code", status)

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateTokenPayload struct {
	Username         string `json:"username" validate:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" validate:"required,max=512"`
}

// createTokenHandler godoc
//
//	@Summary		Exchange a confirmation code for a token
//	@Description	Verifies the emailed confirmation code and issues a bearer token.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateTokenPayload	true	"Username and confirmation code"
//	@Success		200		{object}	map[string]string	"Bearer token"
//	@Failure		400		{object}	error				"Invalid confirmation code"
//	@Failure		404		{object}	error				"Unknown username"
//	@Failure		500		{object}	error				"Internal server error"
//	@Router			/auth/token [post]
func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	user, err := app.store.Users.GetByUsername(ctx, payload.Username)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	codeHash, err := app.store.Users.ConfirmationHash(ctx, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.badRequestResponse(w, r, fmt.Errorf("no valid confirmation code, sign up again"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword(codeHash, []byte(payload.ConfirmationCode)); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid confirmation code"))
		return
	}

	token, err := app.authenticator.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]string{
		"token":      token,
		"expires_in": app.config.auth.token.exp.String(),
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}
