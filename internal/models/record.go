// internal/models/record.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultRecordFields are the optional attributes requested with every search.
var DefaultRecordFields = []string{"created_at", "public_metrics", "source", "author_id"}

// SearchQuery describes one search request.
type SearchQuery struct {
	Query      string   `json:"query"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields,omitempty"`
}

// Validate reports whether the query can be sent.
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("query must not be empty")
	}
	if q.MaxResults <= 0 {
		return fmt.Errorf("maxResults must be positive, got %d", q.MaxResults)
	}
	return nil
}

// RecordItem is one result of a search. Optional attributes are nil or empty when the
// remote did not return them.
type RecordItem struct {
	ID        string     `json:"id"`
	AuthorID  string     `json:"authorId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	Text      string     `json:"text"`
	LikeCount *int       `json:"likeCount,omitempty"`
	Source    string     `json:"source,omitempty"`
}
