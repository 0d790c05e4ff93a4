// internal/workers/ai/summarize-records/models.go
package summarizerecords

import "agentkit-workers/internal/models"

type Input struct {
	Records []models.RecordItem `json:"records"`
	// Template is a built-in template name or the template text itself.
	Template    string                 `json:"template,omitempty"`
	Values      map[string]interface{} `json:"values,omitempty"`
	Temperature *float64               `json:"temperature,omitempty"`
}

type Output struct {
	Results   []models.GenerationResult `json:"results"`
	Succeeded int                       `json:"succeeded"`
	Failed    int                       `json:"failed"`
}
