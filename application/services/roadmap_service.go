// Package services holds the session orchestrator: the one piece of
// in-repo logic that sequences generate -> persist -> list around the
// external collaborators.
package services

import (
	"context"

	"roadmap-backend/application/ports"
	"roadmap-backend/domain/roadmap"
	"roadmap-backend/pkg/auth"
	apperrors "roadmap-backend/pkg/errors"
	"roadmap-backend/pkg/utils"

	"go.uber.org/zap"
)

// RoadmapService coordinates one user-facing generation cycle.
type RoadmapService struct {
	generator ports.Generator
	repo      ports.RoadmapRepository
	renderer  ports.PDFRenderer
	logger    *zap.Logger
}

// NewRoadmapService creates a new roadmap service
func NewRoadmapService(
	generator ports.Generator,
	repo ports.RoadmapRepository,
	renderer ports.PDFRenderer,
	logger *zap.Logger,
) *RoadmapService {
	return &RoadmapService{
		generator: generator,
		repo:      repo,
		renderer:  renderer,
		logger:    logger,
	}
}

// GenerateResult carries the outcome of one generation cycle. The
// record is always populated on success; PersistErr reports a failed
// persist without hiding the generated content, which has already been
// produced and must still reach the user.
type GenerateResult struct {
	Record     roadmap.Record
	Persisted  bool
	PersistErr error
}

// Generate runs one cycle: validate the request, call the model once,
// then append the record for non-guest sessions. There is no retry and
// no idempotency: generating twice stores two records.
func (s *RoadmapService) Generate(ctx context.Context, session auth.Session, req roadmap.GenerationRequest) (GenerateResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return GenerateResult{}, apperrors.NewValidationError(err.Error())
	}

	content, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.logger.Warn("roadmap generation failed",
			zap.String("username", session.Username),
			zap.String("skill", req.Skill),
			zap.Error(err),
		)
		return GenerateResult{}, apperrors.Wrap(err, "generate roadmap")
	}

	record := roadmap.NewRecord(session.Username, req.Skill, content)
	result := GenerateResult{Record: record}

	if session.Guest {
		// Guest sessions have no persistence permission.
		return result, nil
	}

	stored, err := s.repo.Save(ctx, record)
	if err != nil {
		// The roadmap already exists from the user's point of view;
		// report the persist failure alongside it, never instead of it.
		s.logger.Error("failed to persist roadmap",
			zap.String("username", session.Username),
			zap.String("roadmapID", record.ID),
			zap.Error(err),
		)
		result.PersistErr = apperrors.NewDatabaseError("save roadmap", err)
		return result, nil
	}

	result.Record = stored
	result.Persisted = true

	s.logger.Info("roadmap generated",
		zap.String("username", session.Username),
		zap.String("roadmapID", stored.ID),
		zap.String("skill", stored.Skill),
		zap.Int("durationMonths", req.DurationMonths),
	)
	return result, nil
}

// History returns the user's roadmaps, newest first. Each call is a
// fresh query. Guests have no history.
func (s *RoadmapService) History(ctx context.Context, session auth.Session) ([]roadmap.Record, error) {
	if session.Guest {
		return nil, apperrors.ErrGuestNotAllowed
	}
	records, err := s.repo.FindByUser(ctx, session.Username)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list roadmaps", err)
	}
	return records, nil
}

// Get returns one stored roadmap scoped to the session's user.
func (s *RoadmapService) Get(ctx context.Context, session auth.Session, id string) (roadmap.Record, error) {
	if session.Guest {
		return roadmap.Record{}, apperrors.ErrGuestNotAllowed
	}
	record, err := s.repo.FindByID(ctx, session.Username, id)
	if err != nil {
		return roadmap.Record{}, err
	}
	return record, nil
}

// ExportPDF renders the given Markdown to a PDF byte stream. The same
// Markdown string that drove the screen render is passed here.
func (s *RoadmapService) ExportPDF(markdown string) ([]byte, error) {
	data, err := s.renderer.Render(markdown)
	if err != nil {
		return nil, apperrors.NewInternalError("render pdf").WithCause(err)
	}
	return data, nil
}
