package main

import (
	"mime"
	"net/http"
	"time"

	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/user"
)

func (app *application) signupPOST(w http.ResponseWriter, r *http.Request) {
	var nu user.NewUser
	if !app.decodeOrReject(w, r, &nu) {
		return
	}
	_, err := app.userService.Signup(r.Context(), nu)
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		app.errorResponse(w, r, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, user.ErrInvalidInput):
		app.invalidInput(w, r, err)
	case err != nil:
		app.serverError(w, r, err)
	default:
		app.message(w, r, "User created successfully")
	}
}

type credentials struct {
	// Username carries the email, following the OAuth2 password flow field names.
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// readCredentials accepts both a JSON body and the OAuth2 password form.
func (app *application) readCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var creds credentials
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if !app.decodeOrReject(w, r, &creds) {
			return credentials{}, false
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			app.errorResponse(w, r, http.StatusUnprocessableEntity, "Malformed form")
			return credentials{}, false
		}
		creds.Username = r.PostForm.Get("username")
		creds.Password = r.PostForm.Get("password")
	}
	if creds.Username == "" {
		creds.Username = creds.Email
	}
	return creds, true
}

// loginPOST checks the credentials and returns an access token. The session cookie is set as well so that
// browser clients can skip the token.
func (app *application) loginPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	creds, ok := app.readCredentials(w, r)
	if !ok {
		return
	}
	u, err := app.userService.Authenticate(ctx, creds.Username, creds.Password)
	if errors.Is(err, user.ErrInvalidCredentials) {
		app.errorResponse(w, r, http.StatusBadRequest, "Invalid credentials")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	token, expiresAt, err := app.tokens.Issue(u.Email)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if err = app.sessionManager.RenewToken(ctx); err != nil {
		app.serverError(w, r, errors.Wrap(err, "renew session token"))
		return
	}
	app.sessionManager.Put(ctx, sessionEmailKey, u.Email)

	app.writeJSON(w, r, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}

func (app *application) logoutPOST(w http.ResponseWriter, r *http.Request) {
	if err := app.sessionManager.Destroy(r.Context()); err != nil {
		app.serverError(w, r, errors.Wrap(err, "destroy session"))
		return
	}
	app.message(w, r, "Logged out successfully")
}
