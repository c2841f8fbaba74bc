package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/myrjola/aitrainer/internal/errors"
)

const maxBodyBytes = 1 << 20

// errorBody mirrors the {"detail": "..."} error shape the frontend expects.
type errorBody struct {
	Detail string `json:"detail"`
}

type messageBody struct {
	Message string `json:"message"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("marshal response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(append(body, '\n')); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "write response", slog.Any("error", err))
	}
}

func (app *application) message(w http.ResponseWriter, r *http.Request, msg string) {
	app.writeJSON(w, r, http.StatusOK, messageBody{Message: msg})
}

func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, detail string) {
	app.writeJSON(w, r, status, errorBody{Detail: detail})
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.errorResponse(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request, detail string) {
	app.errorResponse(w, r, http.StatusNotFound, detail)
}

// invalidInput reports a request that is well-formed JSON but fails validation.
func (app *application) invalidInput(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "invalid input", errors.SlogError(err))
	app.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

var errUnsupportedMediaType = errors.NewSentinel("content type must be application/json")

// decodeJSON decodes the request body into v. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return errUnsupportedMediaType
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode json body: %w", err)
	}
	return nil
}

// decodeOrReject decodes the request body into v and writes a 422 response when that fails.
// It reports whether the handler can continue.
func (app *application) decodeOrReject(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(w, r, v); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, errUnsupportedMediaType) {
			status = http.StatusUnsupportedMediaType
		}
		app.errorResponse(w, r, status, err.Error())
		return false
	}
	return true
}

// parseIDParam parses the named path parameter as a positive integer id.
// On failure, sends HTTP 404 response automatically.
func (app *application) parseIDParam(w http.ResponseWriter, r *http.Request, name, notFoundDetail string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		app.notFound(w, r, notFoundDetail)
		return 0, false
	}
	return id, true
}
