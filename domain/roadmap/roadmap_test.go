package roadmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerationRequestPrompt(t *testing.T) {
	req := GenerationRequest{Skill: "Rust programming", DurationMonths: 3}

	prompt := req.Prompt()
	assert.Contains(t, prompt, "learning Rust programming in 3 months")
	assert.Contains(t, prompt, "Divide the topics in weeks")
	assert.Contains(t, prompt, "Make sure you include projects")
}

func TestNewRecord(t *testing.T) {
	record := NewRecord("alice", "Go", "# Week 1")

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "alice", record.Username)
	assert.Equal(t, "Go", record.Skill)
	assert.Equal(t, "# Week 1", record.Content)
	assert.False(t, record.CreatedAt.IsZero())

	other := NewRecord("alice", "Go", "# Week 1")
	assert.NotEqual(t, record.ID, other.ID)
}

func TestRecordTitle(t *testing.T) {
	record := Record{
		Skill:     "Kubernetes",
		CreatedAt: time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, "2026-08-28 09:30:00 - Kubernetes", record.Title())
}

func TestPDFFilename(t *testing.T) {
	tests := []struct {
		name  string
		skill string
		want  string
	}{
		{"plain", "Go", "Go_roadmap.pdf"},
		{"spaces", "Rust programming", "Rust_programming_roadmap.pdf"},
		{"special characters stripped", "C++ / systems!", "C__systems_roadmap.pdf"},
		{"surrounding whitespace", "  data engineering  ", "data_engineering_roadmap.pdf"},
		{"nothing usable", "©®™", "roadmap_roadmap.pdf"},
		{"empty", "", "roadmap_roadmap.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PDFFilename(tt.skill))
		})
	}
}
