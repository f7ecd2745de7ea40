package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/records"
	"tally/internal/services"
	"tally/internal/session"
)

// User-facing messages for store failures. Local state is untouched when
// one of these is shown.
const (
	msgSaveFailed   = "Failed to save to the database. Please try again."
	msgUpdateFailed = "Failed to update the record. Please try again."
	msgDeleteFailed = "Failed to delete the record. Please try again."
	msgNotFound     = "Record not found."
)

// handleCreateRecords stores one delivery form submission.
func (s *Server) handleCreateRecords(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	form := deliveryForm{Values: r.PostForm, Types: core.AggregateTypes}

	delivery, err := ParseDelivery(r.PostForm, s.dash.Now())
	if err == nil {
		err = delivery.Validate()
	}
	if err != nil {
		s.logger.LogFields(r.Context(), slog.LevelWarn, "Delivery rejected", log.NewFields().
			WithOperation(log.OpValidate).WithErrorType(log.ErrorTypeValidation).WithError(err))
		form.Error = err.Error()
		s.renderDeliveryForm(w, r, http.StatusUnprocessableEntity, form)
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	rows, err := s.dash.AddDelivery(ctx, delivery)
	if err != nil {
		if services.IsValidation(err) {
			form.Error = err.Error()
			s.renderDeliveryForm(w, r, http.StatusUnprocessableEntity, form)
			return
		}
		s.logStoreError(r, "Failed to store delivery", err, log.OpCreate, "")
		form.Error = msgSaveFailed
		s.renderDeliveryForm(w, r, http.StatusInternalServerError, form)
		return
	}
	log.NewStructuredLogger(s.logger).LogRecordsCreated(r.Context(), rows)

	success := fmt.Sprintf("Added %d record(s) for %s.", len(rows), delivery.CompanyName)
	if !isHTMX(r) {
		s.redirectWithFlash(w, r, "/?tab="+TabAdmin, success)
		return
	}
	body, err := s.renderString("delivery_form", deliveryForm{Success: success, Types: core.AggregateTypes})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", log.FieldError, err)
	}
	NewHTMXResponse().
		TriggerRecordsChanged(log.OpCreate, len(rows)).
		TriggerFormReset().
		TriggerSuccessNotification(success).
		BodyHTML(body).
		Write(w)
}

func (s *Server) renderDeliveryForm(w http.ResponseWriter, r *http.Request, status int, form deliveryForm) {
	if isHTMX(r) {
		s.render(w, r, status, "delivery_form", form)
		return
	}
	sess := session.FromContext(r.Context())
	data := s.pageData(r, sess, ViewParams{Period: core.Daily, Date: s.dash.Now(), Tab: TabAdmin, Page: 1})
	data.Form = form
	s.render(w, r, status, "index.html", data)
}

// handleEditRecord puts one row in edit mode. Any other row leaves it.
func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = r.ParseForm()
	sess := session.FromContext(r.Context())
	if _, ok := s.dash.Record(id); !ok {
		s.respondTally(w, r, http.StatusNotFound, msgNotFound)
		return
	}
	sess.BeginEdit(id)
	s.saveSession(w, r, sess)
	s.respondTally(w, r, http.StatusOK, "")
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	sess := session.FromContext(r.Context())
	sess.EndEdit()
	s.saveSession(w, r, sess)
	s.respondTally(w, r, http.StatusOK, "")
}

// handleSaveRecord sends the edit draft to the store. On failure the row
// stays in edit mode and shows its stored values.
func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	sess := session.FromContext(r.Context())

	draft, err := ParseDraft(r.PostForm)
	if err == nil {
		err = draft.Validate()
	}
	if err != nil {
		s.respondTally(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	switch err := s.dash.SaveEdit(ctx, id, draft); {
	case err == nil:
	case errors.Is(err, records.ErrNotFound):
		sess.EndEdit()
		s.saveSession(w, r, sess)
		s.respondTally(w, r, http.StatusNotFound, msgNotFound)
		return
	case services.IsValidation(err):
		s.respondTally(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		s.logStoreError(r, "Failed to update record", err, log.OpUpdate, id)
		s.respondTally(w, r, http.StatusInternalServerError, msgUpdateFailed)
		return
	}

	sess.EndEdit()
	s.saveSession(w, r, sess)
	s.logger.InfoContext(r.Context(), "Sales record updated", log.FieldRecordID, id)
	s.respondMutated(w, r, log.OpUpdate, "Record updated.")
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	sess := session.FromContext(r.Context())

	ctx, cancel := s.storeContext(r)
	defer cancel()
	if err := s.dash.Delete(ctx, id); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			s.respondTally(w, r, http.StatusNotFound, msgNotFound)
			return
		}
		s.logStoreError(r, "Failed to delete record", err, log.OpDelete, id)
		s.respondTally(w, r, http.StatusInternalServerError, msgDeleteFailed)
		return
	}

	if sess.Editing(id) {
		sess.EndEdit()
		s.saveSession(w, r, sess)
	}
	s.logger.InfoContext(r.Context(), "Sales record deleted", log.FieldRecordID, id)
	s.respondMutated(w, r, log.OpDelete, "Record deleted.")
}

// respondTally re-renders the tally sheet for the view carried in the
// form, or redirects back to the reports tab for plain form posts.
func (s *Server) respondTally(w http.ResponseWriter, r *http.Request, status int, message string) {
	if !isHTMX(r) {
		s.redirectWithFlash(w, r, s.reportsURL(r), message)
		return
	}
	if b, ok := s.tallyResponse(w, r, status, message); ok {
		b.Write(w)
	}
}

// respondMutated is respondTally after a successful store write.
func (s *Server) respondMutated(w http.ResponseWriter, r *http.Request, op, success string) {
	if !isHTMX(r) {
		s.redirectWithFlash(w, r, s.reportsURL(r), success)
		return
	}
	if b, ok := s.tallyResponse(w, r, http.StatusOK, ""); ok {
		b.TriggerRecordsChanged(op, 1).TriggerSuccessNotification(success).Write(w)
	}
}

func (s *Server) tallyResponse(w http.ResponseWriter, r *http.Request, status int, message string) (*HTMXResponseBuilder, bool) {
	view := ParseViewParams(r.Form, s.dash.Now())
	view.Tab = TabReports
	data := s.tallyData(view, session.FromContext(r.Context()))
	data.Error = message
	body, err := s.renderString("tally", data)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldComponent, log.ComponentTemplate, log.FieldError, err)
		InternalServerError("Failed to render the page.").Write(w)
		return nil, false
	}
	b := NewHTMXResponse().Status(status).BodyHTML(body)
	if status >= http.StatusInternalServerError {
		b.TriggerErrorNotification(message)
	}
	return b, true
}

func (s *Server) reportsURL(r *http.Request) string {
	view := ParseViewParams(r.Form, s.dash.Now())
	view.Tab = TabReports
	return "/?" + view.Query(view.Page)
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, flash string) {
	if flash != "" {
		sess := session.FromContext(r.Context())
		sess.Flash = flash
		s.saveSession(w, r, sess)
	}
	if isHTMX(r) {
		NewHTMXResponse().Redirect(target).Write(w)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := s.sessions.Save(r.Context(), w, sess); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to save session",
			log.FieldComponent, log.ComponentSession, log.FieldError, err)
	}
}

func (s *Server) logStoreError(r *http.Request, msg string, err error, op, id string) {
	fields := log.NewFields().WithErrorType(log.ErrorTypeStore)
	if id != "" {
		fields = fields.WithRecordID(id)
	}
	log.NewStructuredLogger(s.logger).LogError(r.Context(), msg, err, log.ComponentStorage, op, fields)
}
