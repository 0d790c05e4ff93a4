package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentkit-workers/pkg/registry"
)

func testRegistry() *registry.ActivityRegistry {
	return &registry.ActivityRegistry{Activities: []registry.Activity{{
		ID:          "tag-records",
		DisplayName: "Tag Records",
		Description: "adds labels to fetched records",
		Category:    "social",
		TaskType:    "tag-records",
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"walletId"},
			"properties": map[string]interface{}{
				"walletId": map[string]interface{}{"type": "string", "description": "registered wallet"},
				"labels":   map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				"limit":    map[string]interface{}{"type": "integer"},
			},
		},
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"rpc_url": map[string]interface{}{"type": "string"},
			},
		},
	}}}
}

func TestGenerate_WritesWorkerPackage(t *testing.T) {
	root := t.TempDir()

	dir, err := generate(testRegistry(), "tag-records", root, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "social", "tag-records"), dir)

	models, err := os.ReadFile(filepath.Join(dir, "models.go"))
	require.NoError(t, err)
	assert.Contains(t, string(models), "package tagrecords")
	assert.Regexp(t, "WalletID\\s+string\\s+`json:\"walletId\"`\\s+// registered wallet", string(models))
	assert.Regexp(t, "Labels\\s+\\[\\]string\\s+`json:\"labels,omitempty\"`", string(models))
	assert.Regexp(t, "Limit\\s+int\\s+`json:\"limit,omitempty\"`", string(models))
	assert.Regexp(t, "RPCURL\\s+string\\s+`json:\"rpc_url,omitempty\"`", string(models))

	handler, err := os.ReadFile(filepath.Join(dir, "handler.go"))
	require.NoError(t, err)
	assert.Contains(t, string(handler), `const TaskType = "tag-records"`)
	assert.Contains(t, string(handler), "validation.DecodeJob(registry.InputSchema(TaskType)")

	_, err = os.Stat(filepath.Join(dir, "config.go"))
	assert.NoError(t, err)
}

func TestGenerate_RefusesToOverwrite(t *testing.T) {
	root := t.TempDir()
	_, err := generate(testRegistry(), "tag-records", root, false)
	require.NoError(t, err)

	_, err = generate(testRegistry(), "tag-records", root, false)
	assert.ErrorContains(t, err, "already exists")

	_, err = generate(testRegistry(), "tag-records", root, true)
	assert.NoError(t, err)
}

func TestGenerate_UnknownTaskType(t *testing.T) {
	_, err := generate(testRegistry(), "missing", t.TempDir(), false)
	assert.ErrorContains(t, err, "not found")
}

func TestExportedName(t *testing.T) {
	assert.Equal(t, "WalletID", exportedName("walletId"))
	assert.Equal(t, "ContractAddress", exportedName("contract_address"))
	assert.Equal(t, "ABI", exportedName("abi"))
	assert.Equal(t, "MaxResults", exportedName("maxResults"))
}
