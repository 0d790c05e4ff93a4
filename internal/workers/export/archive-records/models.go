// internal/workers/export/archive-records/models.go
package archiverecords

import (
	"time"

	"agentkit-workers/internal/models"
)

type Input struct {
	Records []models.RecordItem       `json:"records"`
	Results []models.GenerationResult `json:"results,omitempty"`
	Index   string                    `json:"index,omitempty"`
}

type Output struct {
	Index   string `json:"index"`
	Indexed int    `json:"indexed"`
}

// Document is the archived form of a record and its summary.
type Document struct {
	RecordID     string     `json:"record_id"`
	AuthorID     string     `json:"author_id,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	Text         string     `json:"text"`
	LikeCount    *int       `json:"like_count,omitempty"`
	Source       string     `json:"source,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	SummaryError string     `json:"summary_error,omitempty"`
	ArchivedAt   time.Time  `json:"archived_at"`
}
