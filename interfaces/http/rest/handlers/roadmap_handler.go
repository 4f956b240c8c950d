package handlers

import (
	"fmt"
	"net/http"
	"time"

	"roadmap-backend/application/services"
	"roadmap-backend/domain/roadmap"
	"roadmap-backend/pkg/auth"
	"roadmap-backend/pkg/common"
	apperrors "roadmap-backend/pkg/errors"
	"roadmap-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RoadmapHandler handles roadmap-related API requests
type RoadmapHandler struct {
	service *services.RoadmapService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewRoadmapHandler creates a new roadmap handler
func NewRoadmapHandler(service *services.RoadmapService, metrics *observability.Metrics, logger *zap.Logger) *RoadmapHandler {
	return &RoadmapHandler{
		service: service,
		metrics: metrics,
		logger:  logger,
	}
}

// GenerateRequest represents the request body for generating a roadmap
type GenerateRequest struct {
	Skill          string `json:"skill"`
	DurationMonths int    `json:"duration_months"`
}

// RoadmapResponse represents one roadmap in API responses
type RoadmapResponse struct {
	ID        string `json:"id,omitempty"`
	Skill     string `json:"skill"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
	Persisted bool   `json:"persisted"`
	// PersistError is set when generation succeeded but the store
	// append failed; the roadmap content is still delivered.
	PersistError string `json:"persist_error,omitempty"`
}

func toResponse(record roadmap.Record, persisted bool) RoadmapResponse {
	resp := RoadmapResponse{
		Skill:     record.Skill,
		Content:   record.Content,
		Persisted: persisted,
	}
	if persisted {
		resp.ID = record.ID
		resp.CreatedAt = record.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

// Generate handles POST /api/v1/roadmaps
func (h *RoadmapHandler) Generate(w http.ResponseWriter, r *http.Request) {
	session, err := auth.GetSessionFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "authentication required")
		return
	}

	var req GenerateRequest
	if err := common.ParseJSONBody(r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "invalid request body")
		return
	}

	start := time.Now()
	result, err := h.service.Generate(r.Context(), session, roadmap.GenerationRequest{
		Skill:          req.Skill,
		DurationMonths: req.DurationMonths,
	})
	if err != nil {
		outcome := "failure"
		if apperrors.IsValidation(err) {
			outcome = "invalid"
		}
		h.metrics.RecordGeneration(outcome, session.Guest, time.Since(start))
		common.RespondAppError(w, err)
		return
	}
	h.metrics.RecordGeneration("success", session.Guest, time.Since(start))

	resp := toResponse(result.Record, result.Persisted)
	if result.PersistErr != nil {
		resp.PersistError = "the roadmap could not be saved to your history"
	}
	common.RespondJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/v1/roadmaps
func (h *RoadmapHandler) List(w http.ResponseWriter, r *http.Request) {
	session, err := auth.GetSessionFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "authentication required")
		return
	}

	records, err := h.service.History(r.Context(), session)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	responses := make([]RoadmapResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toResponse(record, true))
	}
	common.RespondJSON(w, http.StatusOK, responses)
}

// Get handles GET /api/v1/roadmaps/{roadmapID}
func (h *RoadmapHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := auth.GetSessionFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "authentication required")
		return
	}

	record, err := h.service.Get(r.Context(), session, chi.URLParam(r, "roadmapID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toResponse(record, true))
}

// DownloadPDF handles GET /api/v1/roadmaps/{roadmapID}/pdf
func (h *RoadmapHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	session, err := auth.GetSessionFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "authentication required")
		return
	}

	record, err := h.service.Get(r.Context(), session, chi.URLParam(r, "roadmapID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	data, err := h.service.ExportPDF(record.Content)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	h.metrics.RecordPDFExport()
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.PDFFilename()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
