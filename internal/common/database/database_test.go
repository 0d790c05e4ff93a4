package database

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentkit-workers/internal/common/config"
)

func TestRedisClient_RoundTripAndScan(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.Set(ctx, "wallet:a", "1", 0))
	require.NoError(t, client.Set(ctx, "wallet:b", "2", time.Minute))
	require.NoError(t, client.Set(ctx, "other", "3", 0))

	v, err := client.Get(ctx, "wallet:a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	keys, err := client.Keys(ctx, "wallet:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"wallet:a", "wallet:b"}, keys)

	require.NoError(t, client.Del(ctx, "wallet:a"))
	_, err = client.Get(ctx, "wallet:a")
	assert.True(t, IsNotFound(err))
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestPostgresClient_Exec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	client := NewPostgresFromDB(db)
	defer client.Close()

	mock.ExpectExec("INSERT INTO contract_invocations").
		WithArgs("0xabc").
		WillReturnResult(sqlmock.NewResult(1, 1))

	res, err := client.Exec(context.Background(), "INSERT INTO contract_invocations (tx_hash) VALUES ($1)", "0xabc")
	require.NoError(t, err)
	n, _ := res.RowsAffected()
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestElasticsearchClient_IndexDocument(t *testing.T) {
	var gotPath string
	var gotDoc map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer server.Close()

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)

	err = client.IndexDocument(context.Background(), "agentkit-records", "T1", map[string]string{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "/agentkit-records/_doc/T1", gotPath)
	assert.Equal(t, "hello", gotDoc["text"])
}

func TestElasticsearchClient_IndexDocumentError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	}))
	defer server.Close()

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)

	err = client.IndexDocument(context.Background(), "idx", "1", map[string]string{})
	assert.ErrorContains(t, err, "mapper_parsing_exception")
}
