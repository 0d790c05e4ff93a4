package exporttabular

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/models"
)

func createTestConfig(t *testing.T) *Config {
	return &Config{Path: filepath.Join(t.TempDir(), "tweets.csv"), Timeout: 5 * time.Second}
}

func TestExecute_WritesFixedColumns(t *testing.T) {
	cfg := createTestConfig(t)
	h := NewHandler(cfg, logger.NewTestLogger(t))

	created := time.Date(2024, 11, 3, 9, 30, 0, 0, time.UTC)
	likes := 12
	out, err := h.Execute(context.Background(), &Input{Records: []models.RecordItem{
		{ID: "T1", AuthorID: "u1", CreatedAt: &created, Text: "hello, world", LikeCount: &likes, Source: "Twitter Web App"},
		{ID: "T2", Text: "bare"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows)
	assert.Equal(t, cfg.Path, out.Path)

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	assert.Equal(t,
		"User ID,Date Created,Number of Likes,Source of Tweet,Tweet\n"+
			"u1,2024-11-03T09:30:00Z,12,Twitter Web App,\"hello, world\"\n"+
			",,,,bare\n",
		string(data))
}

func TestExecute_OverwritesPreviousFile(t *testing.T) {
	cfg := createTestConfig(t)
	require.NoError(t, os.WriteFile(cfg.Path, []byte("stale,content\n1,2\n3,4\n5,6\n"), 0o644))
	h := NewHandler(cfg, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Records: []models.RecordItem{{ID: "T1", Text: "fresh"}}})
	require.NoError(t, err)

	var rows []Row
	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	require.NoError(t, gocsv.UnmarshalBytes(data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "fresh", rows[0].Text)
	assert.NotContains(t, string(data), "stale")
}

func TestExecute_NoRecordsWritesNothing(t *testing.T) {
	cfg := createTestConfig(t)
	h := NewHandler(cfg, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Zero(t, out.Rows)
	_, statErr := os.Stat(cfg.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExecute_InputPathOverridesConfig(t *testing.T) {
	cfg := createTestConfig(t)
	h := NewHandler(cfg, logger.NewTestLogger(t))
	custom := filepath.Join(t.TempDir(), "custom.csv")

	out, err := h.Execute(context.Background(), &Input{Path: custom, Records: []models.RecordItem{{ID: "T1", Text: "x"}}})
	require.NoError(t, err)
	assert.Equal(t, custom, out.Path)
	assert.FileExists(t, custom)
}

func TestExecute_UnwritablePath(t *testing.T) {
	cfg := createTestConfig(t)
	h := NewHandler(cfg, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{
		Path:    filepath.Join(t.TempDir(), "missing-dir", "out.csv"),
		Records: []models.RecordItem{{ID: "T1", Text: "x"}},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExportFailed))
}
