package http

import (
	"log/slog"
	"net/http"

	"tally/internal/log"
	"tally/internal/session"
)

const msgInvalidCredentials = "Invalid credentials"

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	sess := session.FromContext(r.Context())
	username := sanitizeInput(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	ok, err := s.sessions.Login(r.Context(), w, sess, username, password)
	if err != nil {
		// The admin flag is set on the request's session even when the
		// store write fails, so this request still sees it.
		s.logger.WarnContext(r.Context(), "Failed to persist login",
			log.FieldComponent, log.ComponentSession, log.FieldError, err)
	}
	if !ok {
		s.logger.LogFields(r.Context(), slog.LevelWarn, "Login rejected", log.NewFields().
			WithOperation(log.OpLogin).
			WithErrorType(log.ErrorTypeAuth).
			WithClientIP(extractClientIP(r)))
		if isHTMX(r) {
			UnauthorizedError(msgInvalidCredentials).Write(w)
			return
		}
		s.redirectWithFlash(w, r, "/", msgInvalidCredentials)
		return
	}

	s.logger.InfoContext(r.Context(), "Admin logged in",
		log.FieldOperation, log.OpLogin, log.FieldClientIP, extractClientIP(r))
	target := "/?tab=" + TabAdmin
	if isHTMX(r) {
		NewHTMXResponse().Redirect(target).Write(w)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := s.sessions.Logout(r.Context(), w, sess); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to clear session",
			log.FieldComponent, log.ComponentSession, log.FieldError, err)
	}
	s.logger.InfoContext(r.Context(), "Admin logged out", log.FieldOperation, log.OpLogout)
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
