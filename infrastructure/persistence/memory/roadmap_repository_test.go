package memory

import (
	"context"
	"testing"
	"time"

	"roadmap-backend/domain/roadmap"
	apperrors "roadmap-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAssignsTimestamp(t *testing.T) {
	repo := NewRoadmapRepository()
	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo.SetNowFunc(func() time.Time { return fixed })

	stored, err := repo.Save(context.Background(), roadmap.NewRecord("alice", "Go", "# plan"))
	require.NoError(t, err)
	assert.Equal(t, fixed, stored.CreatedAt)
}

func TestFindByUserNewestFirst(t *testing.T) {
	repo := NewRoadmapRepository()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo.SetNowFunc(func() time.Time {
		now = now.Add(time.Minute)
		return now
	})

	ctx := context.Background()
	for _, skill := range []string{"Go", "Rust", "Zig"} {
		_, err := repo.Save(ctx, roadmap.NewRecord("alice", skill, "# plan"))
		require.NoError(t, err)
	}
	_, err := repo.Save(ctx, roadmap.NewRecord("bob", "SQL", "# plan"))
	require.NoError(t, err)

	records, err := repo.FindByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Zig", records[0].Skill)
	assert.Equal(t, "Rust", records[1].Skill)
	assert.Equal(t, "Go", records[2].Skill)
}

func TestFindByUserEmpty(t *testing.T) {
	repo := NewRoadmapRepository()
	records, err := repo.FindByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFindByIDScopedToUser(t *testing.T) {
	repo := NewRoadmapRepository()
	ctx := context.Background()

	stored, err := repo.Save(ctx, roadmap.NewRecord("alice", "Go", "# plan"))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, "alice", stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, found.ID)
	assert.Equal(t, "# plan", found.Content)

	// Another user cannot reach the record by ID.
	_, err = repo.FindByID(ctx, "bob", stored.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.FindByID(ctx, "alice", "missing")
	assert.True(t, apperrors.IsNotFound(err))
}
