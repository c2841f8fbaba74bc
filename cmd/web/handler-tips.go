package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/aitrainer/internal/ai"
	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/workout"
)

// workoutTipsGET asks the AI for tips on the latest workout. The tips are not stored until the client saves them.
func (app *application) workoutTipsGET(w http.ResponseWriter, r *http.Request) {
	tips, err := app.workoutService.Tips(r.Context())
	switch {
	case errors.Is(err, workout.ErrNotFound):
		app.notFound(w, r, "No workout found. Generate a workout first.")
	case errors.Is(err, ai.ErrUnparsable):
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "unparsable tips", errors.SlogError(err))
		app.errorResponse(w, r, http.StatusInternalServerError, "AI response could not be parsed. Please try again.")
	case errors.Is(err, ai.ErrNotConfigured):
		app.errorResponse(w, r, http.StatusServiceUnavailable, "AI service is not configured")
	case err != nil:
		app.serverError(w, r, err)
	default:
		app.writeJSON(w, r, http.StatusOK, tips)
	}
}

type saveTipsRequest struct {
	Tips ai.Tips `json:"tips"`
}

func (app *application) saveTipsPOST(w http.ResponseWriter, r *http.Request) {
	var req saveTipsRequest
	if !app.decodeOrReject(w, r, &req) {
		return
	}
	saved, err := app.workoutService.SaveTips(r.Context(), req.Tips)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, saved)
}

func (app *application) tipHistoryGET(w http.ResponseWriter, r *http.Request) {
	history, err := app.workoutService.TipHistory(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, history)
}
