// Package web serves the server-rendered UI: the login/registration
// page when logged out, and the sidebar dashboard (generate form,
// history, PDF download) once a session exists.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"roadmap-backend/application/services"
	"roadmap-backend/domain/roadmap"
	"roadmap-backend/infrastructure/credentials"
	"roadmap-backend/pkg/auth"
	apperrors "roadmap-backend/pkg/errors"
	"roadmap-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

// Handler renders the HTML surface of the application.
type Handler struct {
	store    *credentials.Store
	tokens   *auth.TokenManager
	service  *services.RoadmapService
	metrics  *observability.Metrics
	logger   *zap.Logger
	markdown goldmark.Markdown
}

// NewHandler creates a new web handler
func NewHandler(
	store *credentials.Store,
	tokens *auth.TokenManager,
	service *services.RoadmapService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		store:   store,
		tokens:  tokens,
		service: service,
		metrics: metrics,
		logger:  logger,
		// Raw HTML in model output stays escaped; only Markdown
		// constructs reach the page.
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

type loginData struct {
	Error  string
	Notice string
}

type selectedRoadmap struct {
	ID       string
	Skill    string
	Markdown string
	HTML     template.HTML
	Filename string
}

type dashboardData struct {
	Session  auth.Session
	History  []roadmap.Record
	Selected *selectedRoadmap
	Warn     string
}

// Home handles GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	session, err := auth.GetSessionFromContext(r.Context())
	if err != nil {
		h.renderLogin(w, loginData{
			Error:  r.URL.Query().Get("error"),
			Notice: r.URL.Query().Get("notice"),
		})
		return
	}
	h.renderDashboard(w, r, session, nil, r.URL.Query().Get("warn"))
}

// ShowRoadmap handles GET /roadmaps/{roadmapID}: the dashboard with a
// history entry selected.
func (h *Handler) ShowRoadmap(w http.ResponseWriter, r *http.Request) {
	session, err := auth.GetSessionFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	record, err := h.service.Get(r.Context(), session, chi.URLParam(r, "roadmapID"))
	if err != nil {
		h.renderDashboard(w, r, session, nil, userMessage(err))
		return
	}
	h.renderDashboard(w, r, session, h.selected(record, true), r.URL.Query().Get("warn"))
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.Verify(r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		h.metrics.RecordLogin("failure")
		if apperrors.IsValidation(err) {
			// Empty form: a prompt, not a failure.
			h.redirect(w, r, "/", "notice", userMessage(err))
			return
		}
		h.redirect(w, r, "/", "error", userMessage(err))
		return
	}

	if !h.setSession(w, auth.Session{Username: user.Username, Name: user.Name}) {
		h.redirect(w, r, "/", "error", "could not establish a session")
		return
	}
	h.metrics.RecordLogin("success")
	h.logger.Info("user logged in", zap.String("username", user.Username))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Guest handles POST /guest
func (h *Handler) Guest(w http.ResponseWriter, r *http.Request) {
	if !h.setSession(w, auth.NewGuestSession()) {
		h.redirect(w, r, "/", "error", "could not establish a session")
		return
	}
	h.metrics.RecordLogin("guest")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetSessionFromContext(r.Context()); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	_, err := h.store.Register(
		r.FormValue("reg_username"),
		r.FormValue("reg_name"),
		r.FormValue("reg_email"),
		r.FormValue("reg_password"),
	)
	if err != nil {
		h.metrics.RecordRegistration("failure")
		h.redirect(w, r, "/", "error", userMessage(err))
		return
	}

	h.metrics.RecordRegistration("success")
	h.redirect(w, r, "/", "notice", "registration successful, please log in")
}

// Logout handles POST /logout. Guest sessions only drop the cookie;
// nothing is looked up in the credential store either way.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.store.CookieConfig().Name)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Generate handles POST /generate: one full cycle of the sidebar form.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	session, err := auth.GetSessionFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	months, _ := strconv.Atoi(r.FormValue("duration"))
	req := roadmap.GenerationRequest{
		Skill:          r.FormValue("skill"),
		DurationMonths: months,
	}

	start := time.Now()
	result, err := h.service.Generate(r.Context(), session, req)
	if err != nil {
		outcome := "failure"
		if apperrors.IsValidation(err) {
			outcome = "invalid"
		}
		h.metrics.RecordGeneration(outcome, session.Guest, time.Since(start))
		h.renderDashboard(w, r, session, nil, userMessage(err))
		return
	}
	h.metrics.RecordGeneration("success", session.Guest, time.Since(start))

	if result.Persisted {
		http.Redirect(w, r, "/roadmaps/"+url.PathEscape(result.Record.ID), http.StatusSeeOther)
		return
	}

	// Guest sessions and failed persists have no stored record to
	// redirect to; the generated content is rendered directly so it is
	// never lost.
	warn := ""
	if result.PersistErr != nil {
		warn = "the roadmap could not be saved to your history"
	}
	h.renderDashboard(w, r, session, h.selected(result.Record, result.Persisted), warn)
}

// DownloadPDF handles GET /roadmaps/{roadmapID}/pdf
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	session, err := auth.GetSessionFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	record, err := h.service.Get(r.Context(), session, chi.URLParam(r, "roadmapID"))
	if err != nil {
		h.renderDashboard(w, r, session, nil, userMessage(err))
		return
	}
	h.servePDF(w, record.Skill, record.Content)
}

// Export handles POST /export: the download path for roadmaps that
// were never persisted (guest sessions). The Markdown travels in the
// form because there is no stored record to fetch.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetSessionFromContext(r.Context()); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	content := r.FormValue("markdown")
	if content == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.servePDF(w, r.FormValue("skill"), content)
}

func (h *Handler) servePDF(w http.ResponseWriter, skill, markdown string) {
	data, err := h.service.ExportPDF(markdown)
	if err != nil {
		h.logger.Error("pdf export failed", zap.Error(err))
		http.Error(w, "failed to render PDF", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordPDFExport()
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", roadmap.PDFFilename(skill)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// selected prepares a roadmap for the main panel. Only persisted
// records carry their ID into the page: the download form for anything
// unstored must go through POST /export, because there is no record to
// fetch behind GET /roadmaps/{id}/pdf.
func (h *Handler) selected(record roadmap.Record, persisted bool) *selectedRoadmap {
	sel := &selectedRoadmap{
		Skill:    record.Skill,
		Markdown: record.Content,
		Filename: record.PDFFilename(),
	}
	if persisted {
		sel.ID = record.ID
	}

	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(record.Content), &buf); err != nil {
		h.logger.Warn("markdown render failed; falling back to plain text", zap.Error(err))
		sel.HTML = template.HTML(template.HTMLEscapeString(record.Content))
		return sel
	}
	sel.HTML = template.HTML(buf.String())
	return sel
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, session auth.Session, selected *selectedRoadmap, warn string) {
	data := dashboardData{
		Session:  session,
		Selected: selected,
		Warn:     warn,
	}

	if !session.Guest {
		history, err := h.service.History(r.Context(), session)
		if err != nil {
			h.logger.Error("failed to load history", zap.Error(err))
			if data.Warn == "" {
				data.Warn = "your roadmap history is temporarily unavailable"
			}
		} else {
			data.History = history
		}
	}

	h.render(w, "dashboard.html", data)
}

func (h *Handler) renderLogin(w http.ResponseWriter, data loginData) {
	h.render(w, "login.html", data)
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("template render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (h *Handler) setSession(w http.ResponseWriter, session auth.Session) bool {
	token, err := h.tokens.Issue(session)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		return false
	}
	auth.SetSessionCookie(w, h.store.CookieConfig().Name, token, h.tokens.Lifetime())
	return true
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path, param, message string) {
	q := url.Values{}
	q.Set(param, message)
	http.Redirect(w, r, path+"?"+q.Encode(), http.StatusSeeOther)
}

// userMessage maps service errors onto the inline messages the page
// shows; collaborator causes are surfaced, internals are not.
func userMessage(err error) string {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		if appErr.Type == apperrors.ErrorTypeExternal && appErr.Cause != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
		}
		return appErr.Message
	}
	return "something went wrong, please try again"
}
