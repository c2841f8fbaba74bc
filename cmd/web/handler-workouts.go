package main

import (
	"net/http"
	"strconv"

	"github.com/myrjola/aitrainer/internal/coaching"
	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/workout"
)

const defaultInsightHistoryLimit = 20

func (app *application) workoutGeneratePOST(w http.ResponseWriter, r *http.Request) {
	var req workout.Request
	if !app.decodeOrReject(w, r, &req) {
		return
	}
	wo, err := app.workoutService.Generate(r.Context(), req)
	switch {
	case errors.Is(err, workout.ErrInvalidInput):
		app.invalidInput(w, r, err)
	case err != nil:
		app.serverError(w, r, err)
	default:
		app.writeJSON(w, r, http.StatusOK, wo)
	}
}

func (app *application) workoutsGET(w http.ResponseWriter, r *http.Request) {
	workouts, err := app.workoutService.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, workouts)
}

func (app *application) workoutMemoryGET(w http.ResponseWriter, r *http.Request) {
	entries, err := app.workoutService.Memory(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, entries)
}

type insightsResponse struct {
	Insights coaching.InsightResult `json:"insights"`
	Saved    bool                   `json:"saved"`
}

func (app *application) workoutInsightsGET(w http.ResponseWriter, r *http.Request) {
	result, saved, err := app.workoutService.Insights(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, insightsResponse{Insights: result, Saved: saved})
}

func (app *application) workoutInsightHistoryGET(w http.ResponseWriter, r *http.Request) {
	limit := defaultInsightHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			app.errorResponse(w, r, http.StatusUnprocessableEntity, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	insights, err := app.workoutService.InsightHistory(r.Context(), limit)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, insights)
}

func (app *application) workoutDELETE(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r, "id", "Workout not found")
	if !ok {
		return
	}
	err := app.workoutService.Delete(r.Context(), id)
	switch {
	case errors.Is(err, workout.ErrNotFound):
		app.notFound(w, r, "Workout not found")
	case err != nil:
		app.serverError(w, r, err)
	default:
		app.message(w, r, "Workout deleted successfully")
	}
}
