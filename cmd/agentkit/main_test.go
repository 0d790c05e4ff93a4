package main

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "agentkit-workers/internal/common/errors"
)

// clearSecrets keeps credentials from the developer's environment out of the tests.
func clearSecrets(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TWITTER_BEARER_TOKEN", "GENAI_API_KEY", "OPENAI_API_KEY",
		"CDP_API_KEY_NAME", "CDP_PRIVATE_KEY", "CDP_RPC_URL", "CDP_SEED_PASSPHRASE",
		"DATABASE_REDIS_ADDRESS", "DATABASE_POSTGRES_HOST",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	s := &session{}
	cmd := newRootCmd(s)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	s.close()
	return out.String(), err
}

func searchServer(t *testing.T, texts ...string) (*httptest.Server, *int32) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/2/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "Bearer search-token", r.Header.Get("Authorization"))
		data := make([]map[string]interface{}, 0, len(texts))
		for i, text := range texts {
			data = append(data, map[string]interface{}{
				"id":         string(rune('1' + i)),
				"text":       text,
				"author_id":  "42",
				"created_at": "2024-05-01T10:00:00.000Z",
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": data,
			"meta": map[string]int{"result_count": len(texts)},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "agentkit dev"))
}

func TestFetch_MissingTokenFailsBeforeAnyRequest(t *testing.T) {
	clearSecrets(t)
	srv, calls := searchServer(t, "T1")
	cfg := writeConfig(t, "twitter:\n  base_url: "+srv.URL+"\n")

	_, err := run(t, "--config", cfg, "fetch", "--query", "crypto")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigurationMissing))
	assert.Contains(t, err.Error(), "TWITTER_BEARER_TOKEN")
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestFetch_PrintsAndSavesCSV(t *testing.T) {
	clearSecrets(t)
	t.Setenv("TWITTER_BEARER_TOKEN", "search-token")
	srv, _ := searchServer(t, "T1", "T2", "T3")
	cfg := writeConfig(t, "twitter:\n  base_url: "+srv.URL+"\n")
	csvPath := filepath.Join(t.TempDir(), "out.csv")

	out, err := run(t, "--config", cfg, "fetch", "--query", "crypto", "--max", "5", "--csv", "--output", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Tweet 1: T1\nTweet 2: T2\nTweet 3: T3\n")
	assert.Contains(t, out, "Saved 3 tweets to "+csvPath)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "42,2024-05-01T10:00:00Z,,,T1")
}

func TestFetch_NoResults(t *testing.T) {
	clearSecrets(t)
	t.Setenv("TWITTER_BEARER_TOKEN", "search-token")
	srv, _ := searchServer(t)
	cfg := writeConfig(t, "twitter:\n  base_url: "+srv.URL+"\n")

	out, err := run(t, "--config", cfg, "fetch", "--query", "crypto")
	require.NoError(t, err)
	assert.Equal(t, "No tweets found for the given query.\n", out)
}

func TestSummarize(t *testing.T) {
	clearSecrets(t)
	t.Setenv("TWITTER_BEARER_TOKEN", "search-token")
	t.Setenv("GENAI_API_KEY", "sk-test")
	search, _ := searchServer(t, "T1", "T2")

	var prompts []string
	gen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompts = append(prompts, req.Messages[0].Content)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"short summary"}}]}`))
	}))
	defer gen.Close()

	cfg := writeConfig(t, "twitter:\n  base_url: "+search.URL+"\ngenai:\n  base_url: "+gen.URL+"\n")

	out, err := run(t, "--config", cfg, "summarize", "--query", "crypto")
	require.NoError(t, err)
	assert.Equal(t,
		"Tweet 1: T1\nSummary of Tweet 1: short summary\nTweet 2: T2\nSummary of Tweet 2: short summary\n",
		out)
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "Tweet content: T1")
	assert.Contains(t, prompts[1], "Tweet content: T2")
}

func TestSummarize_MissingGenerationKey(t *testing.T) {
	clearSecrets(t)
	t.Setenv("TWITTER_BEARER_TOKEN", "search-token")
	srv, calls := searchServer(t, "T1")
	cfg := writeConfig(t, "twitter:\n  base_url: "+srv.URL+"\n")

	_, err := run(t, "--config", cfg, "summarize", "--query", "crypto")
	assert.ErrorContains(t, err, "GENAI_API_KEY")
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestAnalyze_RejectsInvalidOnChainData(t *testing.T) {
	clearSecrets(t)
	cfg := writeConfig(t, "app:\n  name: test\n")

	_, err := run(t, "--config", cfg, "analyze", "--text", "ETH up", "--on-chain-data", "{not json")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestWallet_CreateAndShow(t *testing.T) {
	clearSecrets(t)
	mr := miniredis.RunT(t)
	seed := filepath.Join(t.TempDir(), "wallet_seed.json")
	cfg := writeConfig(t, "database:\n  redis:\n    address: "+mr.Addr()+"\ncdp:\n  seed_file: "+seed+"\n")

	out, err := run(t, "--config", cfg, "wallet", "create")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Wallet ID: "))
	assert.Contains(t, out, "Network: base-sepolia")
	assert.Contains(t, out, "Seed saved to "+seed)
	id := strings.TrimSpace(strings.TrimPrefix(strings.SplitN(out, "\n", 2)[0], "Wallet ID: "))

	_, err = os.Stat(seed)
	require.NoError(t, err)

	out, err = run(t, "--config", cfg, "wallet", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Wallet ID: "+id)

	_, err = run(t, "--config", cfg, "wallet", "show", "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeWalletNotFound))
}

func TestWallet_FaucetNeedsCredentials(t *testing.T) {
	clearSecrets(t)
	cfg := writeConfig(t, "database:\n  redis:\n    address: "+miniredis.RunT(t).Addr()+"\n")

	_, err := run(t, "--config", cfg, "wallet", "create", "--faucet")
	assert.ErrorContains(t, err, "CDP_API_KEY_NAME")

	_, err = run(t, "--config", cfg, "wallet", "faucet", "some-id")
	assert.ErrorContains(t, err, "CDP_API_KEY_NAME")
}

const mintOnlyInvocation = `
walletId: 6f1c1f0e-3c1e-4f7e-9d0a-2b1f5f0e9a11
contractAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
method: transfer
args:
  to: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
  tokenId: 1
abi:
  - type: function
    name: mint
    stateMutability: nonpayable
    inputs:
      - name: to
        type: address
      - name: tokenId
        type: uint256
    outputs: []
`

func TestContractInvoke_MethodMissingFromABI(t *testing.T) {
	clearSecrets(t)
	cfg := writeConfig(t, "app:\n  name: test\n")
	file := filepath.Join(t.TempDir(), "invoke.yaml")
	require.NoError(t, os.WriteFile(file, []byte(mintOnlyInvocation), 0o600))

	_, err := run(t, "--config", cfg, "contract", "invoke", "--file", file)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeContractABIMismatch))
}

func TestContractInvoke_ValidFileStillNeedsCredentials(t *testing.T) {
	clearSecrets(t)
	cfg := writeConfig(t, "app:\n  name: test\n")
	file := filepath.Join(t.TempDir(), "invoke.yaml")
	require.NoError(t, os.WriteFile(file, []byte(mintOnlyInvocation), 0o600))

	_, err := run(t, "--config", cfg, "contract", "invoke", "--file", file, "--method", "mint")
	assert.ErrorContains(t, err, "CDP_API_KEY_NAME")
}

func TestContractInvoke_SchemaViolation(t *testing.T) {
	clearSecrets(t)
	cfg := writeConfig(t, "app:\n  name: test\n")
	file := filepath.Join(t.TempDir(), "invoke.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"walletId":"w","contractAddress":"0x12","abi":[],"method":"mint","args":{}}`), 0o600))

	_, err := run(t, "--config", cfg, "contract", "invoke", "--file", file)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestContractStatus_NeedsLedgerDatabase(t *testing.T) {
	clearSecrets(t)
	cfg := writeConfig(t, "app:\n  name: test\n")

	_, err := run(t, "--config", cfg, "contract", "status", "inv-1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigurationMissing))
	assert.ErrorContains(t, err, "DATABASE_POSTGRES_HOST")
}

func TestWallet_CreatePrintsWalletWhenFaucetFails(t *testing.T) {
	clearSecrets(t)
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	t.Setenv("CDP_API_KEY_NAME", "organizations/o/apiKeys/k")
	t.Setenv("CDP_PRIVATE_KEY", string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})))

	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"faucet limit reached"}`))
	}))
	defer platform.Close()

	mr := miniredis.RunT(t)
	seed := filepath.Join(t.TempDir(), "wallet_seed.json")
	cfg := writeConfig(t, "database:\n  redis:\n    address: "+mr.Addr()+
		"\ncdp:\n  base_url: "+platform.URL+"\n  seed_file: "+seed+"\n")

	out, err := run(t, "--config", cfg, "wallet", "create", "--faucet")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFaucetRequestFailed))

	require.True(t, strings.HasPrefix(out, "Wallet ID: "))
	id := strings.TrimSpace(strings.TrimPrefix(strings.SplitN(out, "\n", 2)[0], "Wallet ID: "))
	assert.Contains(t, err.Error(), id)
	assert.Contains(t, out, "Seed saved to "+seed)

	out, err = run(t, "--config", cfg, "wallet", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Wallet ID: "+id)
}

func TestSession_ClosesConnectionsWhenCommandFails(t *testing.T) {
	clearSecrets(t)
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, "database:\n  redis:\n    address: "+mr.Addr()+"\n")

	_, err := run(t, "--config", cfg, "wallet", "show", "missing")
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeWalletNotFound))

	assert.Eventually(t, func() bool {
		return mr.CurrentConnectionCount() == 0
	}, 2*time.Second, 20*time.Millisecond)
}
