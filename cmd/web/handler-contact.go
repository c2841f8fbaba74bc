package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/mail"
)

func (app *application) contactPOST(w http.ResponseWriter, r *http.Request) {
	var c mail.Contact
	if !app.decodeOrReject(w, r, &c) {
		return
	}
	msg, err := mail.ContactMessage(c, app.contactInbox)
	if err != nil {
		app.invalidInput(w, r, err)
		return
	}
	if err = app.mailer.Send(r.Context(), msg); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "send contact message", errors.SlogError(err))
		app.errorResponse(w, r, http.StatusInternalServerError, "Failed to send email")
		return
	}
	app.message(w, r, "Message sent successfully")
}
