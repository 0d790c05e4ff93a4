package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "agentkit-workers/internal/common/errors"
)

const mintABI = `[
  {
    "inputs": [
      {"internalType": "address", "name": "to", "type": "address"},
      {"internalType": "string", "name": "tokenId", "type": "string"}
    ],
    "name": "mint",
    "type": "function"
  }
]`

const tokenABI = `[
  {"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"id","type":"uint64"},{"name":"flag","type":"bool"},{"name":"delta","type":"int8"}],"name":"configure","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

func TestValidateCall_MethodNotDeclared(t *testing.T) {
	parsed, err := ParseABI(mintABI)
	require.NoError(t, err)

	_, err = ValidateCall(parsed, "transfer", map[string]interface{}{
		"to":      "0x4F0a252f8D50a779ffCF265A8BC5c84517346E6A",
		"tokenId": "1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeContractABIMismatch))
	assert.ErrorContains(t, err, `"transfer"`)
	assert.ErrorContains(t, err, "mint")
}

func TestValidateCall_ArgumentNames(t *testing.T) {
	parsed, err := ParseABI(mintABI)
	require.NoError(t, err)

	_, err = ValidateCall(parsed, "mint", map[string]interface{}{"to": "0x4F0a252f8D50a779ffCF265A8BC5c84517346E6A"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeContractABIMismatch))
	assert.ErrorContains(t, err, "tokenId")

	_, err = ValidateCall(parsed, "mint", map[string]interface{}{
		"to": "0x4F0a252f8D50a779ffCF265A8BC5c84517346E6A", "tokenId": "1", "extra": true,
	})
	assert.ErrorContains(t, err, "extra")

	m, err := ValidateCall(parsed, "mint", map[string]interface{}{
		"to": "0x4F0a252f8D50a779ffCF265A8BC5c84517346E6A", "tokenId": "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "mint(address,string)", m.Sig)
}

func TestEncodeCall_Mint(t *testing.T) {
	parsed, err := ParseABI(mintABI)
	require.NoError(t, err)

	data, err := EncodeCall(parsed, "mint", map[string]interface{}{
		"to": "0x4F0a252f8D50a779ffCF265A8BC5c84517346E6A", "tokenId": "1",
	})
	require.NoError(t, err)
	assert.Equal(t, parsed.Methods["mint"].ID, data[:4])

	values, err := parsed.Methods["mint"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x4F0a252f8D50a779ffCF265A8BC5c84517346E6A"), values[0])
	assert.Equal(t, "1", values[1])
}

func TestEncodeCall_ConvertsNumericTypes(t *testing.T) {
	parsed, err := ParseABI(tokenABI)
	require.NoError(t, err)

	data, err := EncodeCall(parsed, "transfer", map[string]interface{}{
		"to":     "0x4F0a252f8D50a779ffCF265A8BC5c84517346E6A",
		"amount": "1000000000000000000",
	})
	require.NoError(t, err)
	values, err := parsed.Methods["transfer"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("1000000000000000000", 10)
	assert.Equal(t, 0, want.Cmp(values[1].(*big.Int)))

	data, err = EncodeCall(parsed, "configure", map[string]interface{}{
		"id": float64(7), "flag": "true", "delta": float64(-3),
	})
	require.NoError(t, err)
	values, err = parsed.Methods["configure"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, uint64(7), values[0])
	assert.Equal(t, true, values[1])
	assert.Equal(t, int8(-3), values[2])
}

func TestEncodeCall_RejectsBadValues(t *testing.T) {
	parsed, err := ParseABI(tokenABI)
	require.NoError(t, err)

	_, err = EncodeCall(parsed, "transfer", map[string]interface{}{"to": "not-an-address", "amount": "1"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeContractABIMismatch))

	_, err = EncodeCall(parsed, "configure", map[string]interface{}{"id": float64(-1), "flag": true, "delta": float64(0)})
	assert.ErrorContains(t, err, "negative")

	_, err = EncodeCall(parsed, "configure", map[string]interface{}{"id": float64(1), "flag": true, "delta": float64(200)})
	assert.ErrorContains(t, err, "overflows")
}

func TestParseABI_AcceptsDecodedJSON(t *testing.T) {
	decoded := []interface{}{
		map[string]interface{}{
			"name": "mint", "type": "function",
			"inputs": []interface{}{
				map[string]interface{}{"name": "to", "type": "address"},
			},
		},
	}
	parsed, err := ParseABI(decoded)
	require.NoError(t, err)
	assert.Contains(t, parsed.Methods, "mint")

	_, err = ParseABI("{not json")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}
