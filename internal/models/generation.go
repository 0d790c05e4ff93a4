// internal/models/generation.go
package models

// GenerationRequest pairs a prompt template with the values bound to its placeholders.
type GenerationRequest struct {
	Template string                 `json:"template"`
	Values   map[string]interface{} `json:"values"`
}

// GenerationResult is the outcome of one generation call, aligned with the record at
// Index. Exactly one of Text and Error is set.
type GenerationResult struct {
	Index    int    `json:"index"`
	RecordID string `json:"recordId"`
	Text     string `json:"text,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (r GenerationResult) OK() bool {
	return r.Error == ""
}
