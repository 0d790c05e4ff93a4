// internal/workers/export/export-tabular/models.go
package exporttabular

import (
	"strconv"
	"time"

	"agentkit-workers/internal/models"
)

type Input struct {
	Records []models.RecordItem `json:"records"`
	Path    string              `json:"path,omitempty"`
}

type Output struct {
	Path string `json:"path,omitempty"`
	Rows int    `json:"rows"`
}

// Row is one line of the export file. Missing attributes are written as empty cells.
type Row struct {
	UserID      string `csv:"User ID"`
	DateCreated string `csv:"Date Created"`
	Likes       string `csv:"Number of Likes"`
	Source      string `csv:"Source of Tweet"`
	Text        string `csv:"Tweet"`
}

func NewRow(rec models.RecordItem) Row {
	row := Row{
		UserID: rec.AuthorID,
		Source: rec.Source,
		Text:   rec.Text,
	}
	if rec.CreatedAt != nil {
		row.DateCreated = rec.CreatedAt.UTC().Format(time.RFC3339)
	}
	if rec.LikeCount != nil {
		row.Likes = strconv.Itoa(*rec.LikeCount)
	}
	return row
}
