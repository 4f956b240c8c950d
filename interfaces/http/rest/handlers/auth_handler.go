package handlers

import (
	"net/http"

	"roadmap-backend/infrastructure/credentials"
	"roadmap-backend/pkg/auth"
	"roadmap-backend/pkg/common"
	apperrors "roadmap-backend/pkg/errors"
	"roadmap-backend/pkg/observability"
	"roadmap-backend/pkg/utils"

	"go.uber.org/zap"
)

// AuthHandler handles authentication-related API requests
type AuthHandler struct {
	store   *credentials.Store
	tokens  *auth.TokenManager
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	store *credentials.Store,
	tokens *auth.TokenManager,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		store:   store,
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
	}
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents the request body for self-registration
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=64,alphanum"`
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4,max=128"`
}

// SessionResponse describes the established session
type SessionResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Guest    bool   `json:"guest"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := common.ParseJSONBody(r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "invalid request body")
		return
	}

	user, err := h.store.Verify(req.Username, req.Password)
	if err != nil {
		h.metrics.RecordLogin("failure")
		common.RespondAppError(w, err)
		return
	}

	h.establishSession(w, auth.Session{Username: user.Username, Name: user.Name})
	h.metrics.RecordLogin("success")
	h.logger.Info("user logged in", zap.String("username", user.Username))
}

// Guest handles POST /api/v1/auth/guest: the continue-as-guest escape
// hatch that bypasses credential checks.
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	h.establishSession(w, auth.NewGuestSession())
	h.metrics.RecordLogin("guest")
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	// Registration is only reachable while logged out.
	if _, err := auth.GetSessionFromContext(r.Context()); err == nil {
		common.RespondError(w, http.StatusConflict, string(apperrors.ErrorTypeConflict), "already logged in")
		return
	}

	var req RegisterRequest
	if err := common.ParseJSONBody(r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.metrics.RecordRegistration("failure")
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	user, err := h.store.Register(req.Username, req.Name, req.Email, req.Password)
	if err != nil {
		h.metrics.RecordRegistration("failure")
		common.RespondAppError(w, err)
		return
	}

	h.metrics.RecordRegistration("success")
	h.logger.Info("user registered", zap.String("username", user.Username))
	common.RespondJSON(w, http.StatusCreated, map[string]string{"username": user.Username})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.store.CookieConfig().Name)
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *AuthHandler) establishSession(w http.ResponseWriter, session auth.Session) {
	token, err := h.tokens.Issue(session)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, string(apperrors.ErrorTypeInternal), "failed to establish session")
		return
	}

	auth.SetSessionCookie(w, h.store.CookieConfig().Name, token, h.tokens.Lifetime())
	common.RespondJSON(w, http.StatusOK, SessionResponse{
		Token:    token,
		Username: session.Username,
		Name:     session.Name,
		Guest:    session.Guest,
	})
}
