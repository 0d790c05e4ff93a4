// internal/workers/social/fetch-records/models.go
package fetchrecords

import "agentkit-workers/internal/models"

type Input struct {
	Query      string   `json:"query"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields,omitempty"`
}

type Output struct {
	Records    []models.RecordItem `json:"records"`
	Count      int                 `json:"count"`
	FetchError string              `json:"fetchError,omitempty"`
}
