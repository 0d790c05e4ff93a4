package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CheckResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"value":"x"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"title":"Unauthorized"}`))
	}))
	defer server.Close()

	c := NewClientWithBaseURL(server.URL, time.Second)

	var out struct {
		Value string `json:"value"`
	}
	resp, err := c.R(context.Background()).SetResult(&out).Get("/ok")
	require.NoError(t, CheckResponse(resp, err))
	assert.Equal(t, "x", out.Value)

	resp, err = c.R(context.Background()).Get("/denied")
	err = CheckResponse(resp, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Unauthorized")
}

func TestClient_NoRetryOnFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(time.Second)
	resp, err := c.R(context.Background()).Get(server.URL)
	assert.Error(t, CheckResponse(resp, err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_TimeoutIsDetected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewClient(20 * time.Millisecond)
	resp, err := c.R(context.Background()).Get(server.URL)
	err = CheckResponse(resp, err)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsTimeout(nil))
}
