package archiverecords

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentkit-workers/internal/common/config"
	"agentkit-workers/internal/common/database"
	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/models"
)

type indexed struct {
	index string
	id    string
	doc   Document
}

type fakeIndexer struct {
	docs   []indexed
	failID string
}

func (f *fakeIndexer) IndexDocument(ctx context.Context, index, id string, doc interface{}) error {
	if id == f.failID {
		return errors.New("cluster unavailable")
	}
	f.docs = append(f.docs, indexed{index: index, id: id, doc: doc.(Document)})
	return nil
}

func createTestConfig() *Config {
	return &Config{Index: "agentkit-records", Timeout: 5 * time.Second}
}

func TestExecute_IndexesRecordsWithSummaries(t *testing.T) {
	idx := &fakeIndexer{}
	h := NewHandler(createTestConfig(), idx, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	out, err := h.Execute(context.Background(), &Input{
		Records: []models.RecordItem{{ID: "T1", Text: "one"}, {ID: "T2", Text: "two"}},
		Results: []models.GenerationResult{
			{Index: 0, RecordID: "T1", Text: "summary one"},
			{Index: 1, RecordID: "T2", Error: "GENERATION_TIMEOUT"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Indexed)
	assert.Equal(t, "agentkit-records", out.Index)

	require.Len(t, idx.docs, 2)
	assert.Equal(t, "T1", idx.docs[0].id)
	assert.Equal(t, "summary one", idx.docs[0].doc.Summary)
	assert.Equal(t, "GENERATION_TIMEOUT", idx.docs[1].doc.SummaryError)
	assert.Equal(t, 2024, idx.docs[1].doc.ArchivedAt.Year())
}

func TestExecute_StopsAtFirstFailure(t *testing.T) {
	idx := &fakeIndexer{failID: "T2"}
	h := NewHandler(createTestConfig(), idx, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{
		Index:   "custom",
		Records: []models.RecordItem{{ID: "T1"}, {ID: "T2"}, {ID: "T3"}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeArchiveFailed))
	assert.Len(t, idx.docs, 1)
	assert.Equal(t, "custom", idx.docs[0].index)
}

func TestExecute_WithElasticsearchClient(t *testing.T) {
	var paths []string
	var bodies []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		paths = append(paths, r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer server.Close()

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)
	h := NewHandler(createTestConfig(), es, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Records: []models.RecordItem{{ID: "T1", Text: "one"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Indexed)
	assert.Equal(t, []string{"/agentkit-records/_doc/T1"}, paths)
	assert.Equal(t, "one", bodies[0]["text"])
}
