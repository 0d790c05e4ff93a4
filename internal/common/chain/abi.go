// Package chain validates contract calls against their ABI and sends them over RPC.
package chain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	apperrors "agentkit-workers/internal/common/errors"
)

// ParseABI parses a JSON ABI given either as raw JSON text or as decoded JSON values.
func ParseABI(v interface{}) (abi.ABI, error) {
	var raw []byte
	switch val := v.(type) {
	case string:
		raw = []byte(val)
	case []byte:
		raw = val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return abi.ABI{}, apperrors.NewInvalidInputError(fmt.Sprintf("abi: %v", err))
		}
		raw = b
	}
	parsed, err := abi.JSON(strings.NewReader(string(raw)))
	if err != nil {
		return abi.ABI{}, apperrors.NewInvalidInputError(fmt.Sprintf("abi: %v", err))
	}
	return parsed, nil
}

// ValidateCall checks that method is declared and that args names exactly the method
// inputs. It never guesses a substitute method.
func ValidateCall(parsed abi.ABI, method string, args map[string]interface{}) (abi.Method, error) {
	m, ok := parsed.Methods[method]
	if !ok {
		return abi.Method{}, apperrors.NewContractABIMismatchError(
			fmt.Sprintf("method %q is not declared in the ABI (declared: %s)", method, strings.Join(declaredMethods(parsed), ", ")))
	}

	expected := make(map[string]bool, len(m.Inputs))
	for _, in := range m.Inputs {
		expected[in.Name] = true
	}
	var missing, unexpected []string
	for _, in := range m.Inputs {
		if _, ok := args[in.Name]; !ok {
			missing = append(missing, in.Name)
		}
	}
	for name := range args {
		if !expected[name] {
			unexpected = append(unexpected, name)
		}
	}
	sort.Strings(unexpected)
	if len(missing) > 0 || len(unexpected) > 0 {
		return abi.Method{}, apperrors.NewContractABIMismatchError(
			fmt.Sprintf("arguments of %s do not match its inputs (missing: %v, unexpected: %v)", m.Sig, missing, unexpected))
	}
	return m, nil
}

// EncodeCall validates the call and returns its calldata.
func EncodeCall(parsed abi.ABI, method string, args map[string]interface{}) ([]byte, error) {
	m, err := ValidateCall(parsed, method, args)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, len(m.Inputs))
	for i, in := range m.Inputs {
		v, err := convertArg(in.Type, args[in.Name])
		if err != nil {
			return nil, apperrors.NewContractABIMismatchError(fmt.Sprintf("argument %s (%s): %v", in.Name, in.Type.String(), err))
		}
		values[i] = v
	}
	data, err := parsed.Pack(method, values...)
	if err != nil {
		return nil, apperrors.NewContractABIMismatchError(err.Error())
	}
	return data, nil
}

func declaredMethods(parsed abi.ABI) []string {
	names := make([]string, 0, len(parsed.Methods))
	for name := range parsed.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// convertArg turns a JSON-decoded value into the Go type the ABI packer expects.
func convertArg(t abi.Type, v interface{}) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		s, ok := v.(string)
		if !ok || !common.IsHexAddress(s) {
			return nil, fmt.Errorf("expected a hex address, got %v", v)
		}
		return common.HexToAddress(s), nil
	case abi.StringTy:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	case abi.BoolTy:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(b)
		}
		return nil, fmt.Errorf("expected a boolean, got %v", v)
	case abi.UintTy, abi.IntTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		return sizedInt(t, n)
	case abi.BytesTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected hex bytes, got %v", v)
		}
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		s, ok := v.(string)
		if !ok || t.Size != 32 {
			return nil, fmt.Errorf("only bytes32 hex strings are supported")
		}
		b, err := hexutil.Decode(s)
		if err != nil || len(b) != 32 {
			return nil, fmt.Errorf("expected 32 hex bytes")
		}
		var out [32]byte
		copy(out[:], b)
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported argument type")
	}
}

func toBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case string:
		out, ok := new(big.Int).SetString(strings.TrimSpace(n), 0)
		if !ok {
			return nil, fmt.Errorf("expected an integer, got %q", n)
		}
		return out, nil
	case float64:
		if n != float64(int64(n)) {
			return nil, fmt.Errorf("expected an integer, got %v", n)
		}
		return big.NewInt(int64(n)), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case json.Number:
		return toBigInt(n.String())
	case *big.Int:
		return n, nil
	}
	return nil, fmt.Errorf("expected an integer, got %T", v)
}

// sizedInt narrows n to the native Go type the packer requires for 8..64 bit sizes.
func sizedInt(t abi.Type, n *big.Int) (interface{}, error) {
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value for unsigned type")
	}
	unsigned := t.T == abi.UintTy
	limit := t.Size
	if !unsigned {
		limit--
	}
	if n.BitLen() > limit {
		return nil, fmt.Errorf("value overflows %s", t.String())
	}
	switch t.Size {
	case 8:
		if unsigned {
			return uint8(n.Uint64()), nil
		}
		return int8(n.Int64()), nil
	case 16:
		if unsigned {
			return uint16(n.Uint64()), nil
		}
		return int16(n.Int64()), nil
	case 32:
		if unsigned {
			return uint32(n.Uint64()), nil
		}
		return int32(n.Int64()), nil
	case 64:
		if unsigned {
			return n.Uint64(), nil
		}
		return n.Int64(), nil
	default:
		return n, nil
	}
}
