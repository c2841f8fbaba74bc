package main

import (
	"net/http"
	"time"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()
	protection := app.crossOriginProtection()

	var (
		shared = func(route string, timeout time.Duration, next http.Handler) http.Handler {
			return app.recoverPanic(app.logAndTraceRequest(route, secureHeaders(protection(
				app.timeout(timeout)(next)))))
		}
		noAuth = func(route string, next http.HandlerFunc) {
			mux.Handle(route, shared(route, defaultTimeout, next))
		}
		session = func(route string, next http.HandlerFunc) {
			mux.Handle(route, app.recoverPanic(app.logAndTraceRequest(route, secureHeaders(protection(
				app.sessionManager.LoadAndSave(app.timeout(defaultTimeout)(next)))))))
		}
		authenticated = func(timeout time.Duration) func(route string, next http.HandlerFunc) {
			return func(route string, next http.HandlerFunc) {
				mux.Handle(route, app.recoverPanic(app.logAndTraceRequest(route, secureHeaders(protection(
					app.sessionManager.LoadAndSave(app.authenticate(app.mustAuthenticate(
						app.timeout(timeout)(next)))))))))
			}
		}
		mustSession = authenticated(defaultTimeout)
		// mustSessionAI is for the routes waiting on the LLM.
		mustSessionAI = authenticated(app.aiTimeout)
	)

	noAuth("GET /api/healthy", app.healthy)
	mux.Handle("GET /metrics", shared("GET /metrics", defaultTimeout, app.metrics.Handler()))

	noAuth("POST /signup", app.signupPOST)
	session("POST /login", app.loginPOST)
	session("POST /logout", app.logoutPOST)
	noAuth("POST /contact", app.contactPOST)

	mustSession("GET /me", app.meGET)
	mustSession("PUT /me", app.mePUT)
	mustSession("DELETE /me", app.meDELETE)
	mustSession("POST /me/password", app.mePasswordPOST)
	mustSession("GET /me/export", app.meExportGET)

	mustSessionAI("POST /workouts/generate", app.workoutGeneratePOST)
	mustSession("GET /workouts", app.workoutsGET)
	mustSession("GET /workouts/memory", app.workoutMemoryGET)
	mustSession("GET /workouts/insights", app.workoutInsightsGET)
	mustSession("GET /workouts/insights/history", app.workoutInsightHistoryGET)
	mustSession("DELETE /workouts/{id}", app.workoutDELETE)

	mustSessionAI("GET /workout-tips", app.workoutTipsGET)
	mustSession("POST /workout-history/save-tips", app.saveTipsPOST)
	mustSession("GET /workout-history", app.tipHistoryGET)

	mustSessionAI("POST /diet/generate", app.dietGeneratePOST)
	mustSession("GET /diets", app.dietsGET)

	// Everything else is a JSON 404 so that API clients never see an HTML error page.
	noAuth("/", func(w http.ResponseWriter, r *http.Request) {
		app.notFound(w, r, http.StatusText(http.StatusNotFound))
	})

	return app.cors(mux)
}
