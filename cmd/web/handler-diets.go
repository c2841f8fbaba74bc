package main

import (
	"net/http"

	"github.com/myrjola/aitrainer/internal/diet"
	"github.com/myrjola/aitrainer/internal/errors"
)

func (app *application) dietGeneratePOST(w http.ResponseWriter, r *http.Request) {
	var req diet.Request
	if !app.decodeOrReject(w, r, &req) {
		return
	}
	d, err := app.dietService.Generate(r.Context(), req)
	switch {
	case errors.Is(err, diet.ErrInvalidInput):
		app.invalidInput(w, r, err)
	case err != nil:
		app.serverError(w, r, err)
	default:
		app.writeJSON(w, r, http.StatusOK, d)
	}
}

func (app *application) dietsGET(w http.ResponseWriter, r *http.Request) {
	diets, err := app.dietService.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, diets)
}
