// Package roadmap holds the core records of the service: what a user
// asked to learn, and the generated plan that came back.
package roadmap

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is one generated roadmap as persisted in the store. Records
// are append-only: once written they are never updated or deleted.
type Record struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Skill     string    `json:"skill"`
	Content   string    `json:"content"` // Markdown
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord builds a record ready for persistence. The store assigns
// the final timestamp; CreatedAt here is a placeholder for callers
// that never persist (guest sessions).
func NewRecord(username, skill, content string) Record {
	return Record{
		ID:        uuid.New().String(),
		Username:  username,
		Skill:     skill,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Title is the label shown in the history selector.
func (r Record) Title() string {
	return fmt.Sprintf("%s - %s", r.CreatedAt.Format("2006-01-02 15:04:05"), r.Skill)
}

// PDFFilename returns the download filename for this record.
func (r Record) PDFFilename() string {
	return PDFFilename(r.Skill)
}

// GenerationRequest is the form input for one generation cycle.
type GenerationRequest struct {
	Skill          string `json:"skill" validate:"required,max=200"`
	DurationMonths int    `json:"duration_months" validate:"required,gte=1,lte=120"`
}

// Prompt renders the instruction sent to the model.
func (g GenerationRequest) Prompt() string {
	return fmt.Sprintf(
		"Generate a comprehensive roadmap for learning %s in %d months. Divide the topics in weeks. Make sure you include projects.",
		g.Skill, g.DurationMonths,
	)
}

// PDFFilename builds the "{skill}_roadmap.pdf" download name, with the
// skill reduced to something a browser and filesystem will accept.
func PDFFilename(skill string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(skill))
	if safe == "" {
		safe = "roadmap"
	}
	return safe + "_roadmap.pdf"
}
