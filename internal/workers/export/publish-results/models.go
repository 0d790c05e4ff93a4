// internal/workers/export/publish-results/models.go
package publishresults

import "agentkit-workers/internal/models"

type Input struct {
	Records  []models.RecordItem       `json:"records"`
	Results  []models.GenerationResult `json:"results"`
	TopicARN string                    `json:"topicArn,omitempty"`
	Subject  string                    `json:"subject,omitempty"`
}

type Output struct {
	Published  int      `json:"published"`
	MessageIDs []string `json:"messageIds"`
}

// Message is the body published for one summarized record.
type Message struct {
	RecordID string `json:"recordId"`
	AuthorID string `json:"authorId,omitempty"`
	Text     string `json:"text"`
	Summary  string `json:"summary"`
}
