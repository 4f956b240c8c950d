// Package ports defines the interfaces the orchestration layer depends
// on. Infrastructure packages provide the implementations.
package ports

import (
	"context"

	"roadmap-backend/domain/roadmap"
)

// RoadmapRepository is the append-only per-user roadmap store.
type RoadmapRepository interface {
	// Save appends a record. The store assigns the authoritative
	// timestamp and returns the stored record.
	Save(ctx context.Context, record roadmap.Record) (roadmap.Record, error)

	// FindByUser returns all records for a user, newest first.
	FindByUser(ctx context.Context, username string) ([]roadmap.Record, error)

	// FindByID returns one record scoped to the user.
	FindByID(ctx context.Context, username, id string) (roadmap.Record, error)
}

// Generator produces roadmap Markdown from a generation request. The
// call is synchronous and is never retried by callers.
type Generator interface {
	Generate(ctx context.Context, req roadmap.GenerationRequest) (string, error)
}

// PDFRenderer converts a Markdown document into a PDF byte stream.
type PDFRenderer interface {
	Render(markdown string) ([]byte, error)
}
