package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"roadmap-backend/domain/roadmap"
	"roadmap-backend/infrastructure/persistence/memory"
	"roadmap-backend/pkg/auth"
	apperrors "roadmap-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	content string
	err     error
	calls   int
}

func (g *stubGenerator) Generate(_ context.Context, req roadmap.GenerationRequest) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.content, nil
}

type stubRenderer struct{}

func (stubRenderer) Render(markdown string) ([]byte, error) {
	return []byte("%PDF-stub " + markdown), nil
}

type failingRepo struct{}

func (failingRepo) Save(context.Context, roadmap.Record) (roadmap.Record, error) {
	return roadmap.Record{}, errors.New("table unreachable")
}

func (failingRepo) FindByUser(context.Context, string) ([]roadmap.Record, error) {
	return nil, errors.New("table unreachable")
}

func (failingRepo) FindByID(context.Context, string, string) (roadmap.Record, error) {
	return roadmap.Record{}, errors.New("table unreachable")
}

var (
	userSession  = auth.Session{Username: "alice", Name: "Alice"}
	guestSession = auth.NewGuestSession()
)

func TestGeneratePersistsForUsers(t *testing.T) {
	gen := &stubGenerator{content: "# Week 1\n\nLearn syntax."}
	repo := memory.NewRoadmapRepository()
	svc := NewRoadmapService(gen, repo, stubRenderer{}, zap.NewNop())

	ctx := context.Background()
	result, err := svc.Generate(ctx, userSession, roadmap.GenerationRequest{Skill: "Go", DurationMonths: 3})
	require.NoError(t, err)
	assert.True(t, result.Persisted)
	assert.NoError(t, result.PersistErr)
	assert.Equal(t, "Go", result.Record.Skill)
	assert.Equal(t, gen.content, result.Record.Content)
	assert.Equal(t, "alice", result.Record.Username)

	history, err := svc.History(ctx, userSession)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.Record.ID, history[0].ID)
}

func TestGenerateTwiceStoresTwoRecords(t *testing.T) {
	gen := &stubGenerator{content: "# plan"}
	repo := memory.NewRoadmapRepository()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo.SetNowFunc(func() time.Time {
		now = now.Add(time.Minute)
		return now
	})
	svc := NewRoadmapService(gen, repo, stubRenderer{}, zap.NewNop())

	ctx := context.Background()
	req := roadmap.GenerationRequest{Skill: "Go", DurationMonths: 3}
	first, err := svc.Generate(ctx, userSession, req)
	require.NoError(t, err)
	second, err := svc.Generate(ctx, userSession, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Record.ID, second.Record.ID)

	history, err := svc.History(ctx, userSession)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest first.
	assert.Equal(t, second.Record.ID, history[0].ID)
}

func TestGenerateGuestNeverPersists(t *testing.T) {
	gen := &stubGenerator{content: "# plan"}
	repo := memory.NewRoadmapRepository()
	svc := NewRoadmapService(gen, repo, stubRenderer{}, zap.NewNop())

	ctx := context.Background()
	result, err := svc.Generate(ctx, guestSession, roadmap.GenerationRequest{Skill: "Go", DurationMonths: 3})
	require.NoError(t, err)
	assert.False(t, result.Persisted)
	assert.Equal(t, "# plan", result.Record.Content)

	// Nothing landed in the store, not even under the guest username.
	records, err := repo.FindByUser(ctx, auth.GuestUsername)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGenerateValidation(t *testing.T) {
	gen := &stubGenerator{content: "# plan"}
	svc := NewRoadmapService(gen, memory.NewRoadmapRepository(), stubRenderer{}, zap.NewNop())

	tests := []struct {
		name string
		req  roadmap.GenerationRequest
	}{
		{"empty skill", roadmap.GenerationRequest{DurationMonths: 3}},
		{"zero duration", roadmap.GenerationRequest{Skill: "Go"}},
		{"negative duration", roadmap.GenerationRequest{Skill: "Go", DurationMonths: -1}},
		{"excessive duration", roadmap.GenerationRequest{Skill: "Go", DurationMonths: 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), userSession, tt.req)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
	// The model is never called for invalid input.
	assert.Zero(t, gen.calls)
}

func TestGenerateFailureLeavesHistoryUnchanged(t *testing.T) {
	gen := &stubGenerator{err: apperrors.NewExternalError("roadmap generation", fmt.Errorf("overloaded"))}
	repo := memory.NewRoadmapRepository()
	svc := NewRoadmapService(gen, repo, stubRenderer{}, zap.NewNop())

	ctx := context.Background()
	_, err := svc.Generate(ctx, userSession, roadmap.GenerationRequest{Skill: "Go", DurationMonths: 3})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))

	history, err := svc.History(ctx, userSession)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGeneratePersistFailureStillReturnsRoadmap(t *testing.T) {
	gen := &stubGenerator{content: "# plan"}
	svc := NewRoadmapService(gen, failingRepo{}, stubRenderer{}, zap.NewNop())

	result, err := svc.Generate(context.Background(), userSession, roadmap.GenerationRequest{Skill: "Go", DurationMonths: 3})
	// The persist failure rides alongside the content, never instead of it.
	require.NoError(t, err)
	assert.False(t, result.Persisted)
	require.Error(t, result.PersistErr)
	assert.True(t, apperrors.IsType(result.PersistErr, apperrors.ErrorTypeDatabase))
	assert.Equal(t, "# plan", result.Record.Content)
}

func TestHistoryGuestForbidden(t *testing.T) {
	svc := NewRoadmapService(&stubGenerator{}, memory.NewRoadmapRepository(), stubRenderer{}, zap.NewNop())

	_, err := svc.History(context.Background(), guestSession)
	assert.True(t, errors.Is(err, apperrors.ErrGuestNotAllowed))

	_, err = svc.Get(context.Background(), guestSession, "any")
	assert.True(t, errors.Is(err, apperrors.ErrGuestNotAllowed))
}

func TestGetScopedToSessionUser(t *testing.T) {
	gen := &stubGenerator{content: "# plan"}
	repo := memory.NewRoadmapRepository()
	svc := NewRoadmapService(gen, repo, stubRenderer{}, zap.NewNop())

	ctx := context.Background()
	result, err := svc.Generate(ctx, userSession, roadmap.GenerationRequest{Skill: "Go", DurationMonths: 3})
	require.NoError(t, err)

	record, err := svc.Get(ctx, userSession, result.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Record.ID, record.ID)

	other := auth.Session{Username: "bob", Name: "Bob"}
	_, err = svc.Get(ctx, other, result.Record.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestExportPDF(t *testing.T) {
	svc := NewRoadmapService(&stubGenerator{}, memory.NewRoadmapRepository(), stubRenderer{}, zap.NewNop())

	data, err := svc.ExportPDF("# plan")
	require.NoError(t, err)
	assert.Contains(t, string(data), "# plan")
}
