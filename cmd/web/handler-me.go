package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/myrjola/aitrainer/internal/diet"
	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/user"
	"github.com/myrjola/aitrainer/internal/workout"
	"golang.org/x/sync/errgroup"
)

func (app *application) meGET(w http.ResponseWriter, r *http.Request) {
	u, err := app.userService.Get(r.Context())
	if errors.Is(err, user.ErrNotFound) {
		app.notFound(w, r, "User not found")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, u)
}

func (app *application) mePUT(w http.ResponseWriter, r *http.Request) {
	var p user.Profile
	if !app.decodeOrReject(w, r, &p) {
		return
	}
	u, err := app.userService.UpdateProfile(r.Context(), p)
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		app.invalidInput(w, r, err)
	case err != nil:
		app.serverError(w, r, err)
	default:
		app.writeJSON(w, r, http.StatusOK, u)
	}
}

type passwordChange struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (app *application) mePasswordPOST(w http.ResponseWriter, r *http.Request) {
	var pc passwordChange
	if !app.decodeOrReject(w, r, &pc) {
		return
	}
	err := app.userService.ChangePassword(r.Context(), pc.OldPassword, pc.NewPassword, pc.ConfirmPassword)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		app.errorResponse(w, r, http.StatusBadRequest, "Old password is incorrect")
	case errors.Is(err, user.ErrInvalidInput):
		app.invalidInput(w, r, err)
	case err != nil:
		app.serverError(w, r, err)
	default:
		app.message(w, r, "Password updated successfully")
	}
}

func (app *application) meDELETE(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := app.userService.Delete(ctx); err != nil {
		app.serverError(w, r, err)
		return
	}
	if err := app.sessionManager.Destroy(ctx); err != nil {
		app.serverError(w, r, errors.Wrap(err, "destroy session"))
		return
	}
	app.message(w, r, "Account deleted successfully")
}

type userExport struct {
	ExportedAt time.Time            `json:"exported_at"`
	User       user.User            `json:"user"`
	Workouts   []workout.Workout    `json:"workouts"`
	Diets      []diet.Diet          `json:"diets"`
	Insights   []workout.Insight    `json:"insights"`
	TipHistory []workout.TipHistory `json:"tip_history"`
}

// meExportGET returns everything stored about the user as a single downloadable JSON document.
func (app *application) meExportGET(w http.ResponseWriter, r *http.Request) {
	export := userExport{ExportedAt: time.Now().UTC()} //nolint:exhaustruct // filled concurrently below.

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		export.User, err = app.userService.Get(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		export.Workouts, err = app.workoutService.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		export.Diets, err = app.dietService.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		export.Insights, err = app.workoutService.InsightHistory(ctx, 0)
		return err
	})
	g.Go(func() error {
		var err error
		export.TipHistory, err = app.workoutService.TipHistory(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		app.serverError(w, r, fmt.Errorf("export user data: %w", err))
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="aitrainer-export.json"`)
	app.writeJSON(w, r, http.StatusOK, export)
}
