// Package errors provides the standardized error type shared by the routines, the CLI
// and the Zeebe job handlers.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode is a stable, machine-readable failure class.
type ErrorCode string

// Configuration
const (
	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"
	ErrCodeConfigurationInvalid ErrorCode = "CONFIGURATION_INVALID"
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
)

// Fetch / transform / emit
const (
	ErrCodeSearchRequestFailed        ErrorCode = "SEARCH_REQUEST_FAILED"
	ErrCodeSearchTimeout              ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeTemplatePlaceholderMissing ErrorCode = "TEMPLATE_PLACEHOLDER_MISSING"
	ErrCodeTemplateInvalid            ErrorCode = "TEMPLATE_INVALID"
	ErrCodeGenerationFailed           ErrorCode = "GENERATION_FAILED"
	ErrCodeGenerationTimeout          ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeExportFailed               ErrorCode = "EXPORT_FAILED"
	ErrCodeArchiveFailed              ErrorCode = "ARCHIVE_FAILED"
	ErrCodePublishFailed              ErrorCode = "PUBLISH_FAILED"
)

// Wallet / contract
const (
	ErrCodeWalletNotFound           ErrorCode = "WALLET_NOT_FOUND"
	ErrCodeWalletSeedInvalid        ErrorCode = "WALLET_SEED_INVALID"
	ErrCodeWalletStoreFailed        ErrorCode = "WALLET_STORE_FAILED"
	ErrCodeFaucetRequestFailed      ErrorCode = "FAUCET_REQUEST_FAILED"
	ErrCodeContractABIMismatch      ErrorCode = "CONTRACT_ABI_MISMATCH"
	ErrCodeContractInvocationFailed ErrorCode = "CONTRACT_INVOCATION_FAILED"
)

var knownCodes = map[ErrorCode]bool{
	ErrCodeConfigurationMissing: true, ErrCodeConfigurationInvalid: true, ErrCodeInvalidInput: true,
	ErrCodeSearchRequestFailed: true, ErrCodeSearchTimeout: true,
	ErrCodeTemplatePlaceholderMissing: true, ErrCodeTemplateInvalid: true,
	ErrCodeGenerationFailed: true, ErrCodeGenerationTimeout: true,
	ErrCodeExportFailed: true, ErrCodeArchiveFailed: true, ErrCodePublishFailed: true,
	ErrCodeWalletNotFound: true, ErrCodeWalletSeedInvalid: true, ErrCodeWalletStoreFailed: true,
	ErrCodeFaucetRequestFailed: true, ErrCodeContractABIMismatch: true, ErrCodeContractInvocationFailed: true,
}

// IsKnownCode reports whether code is one of the codes declared above.
func IsKnownCode(code ErrorCode) bool {
	return knownCodes[code]
}

// StandardError is a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// CodeOf returns the code of the first StandardError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

func NewConfigurationMissingError(key, envVar string) *StandardError {
	return newError(ErrCodeConfigurationMissing,
		"Required configuration value is not set",
		fmt.Sprintf("key: %s, env: %s", key, envVar), false, nil).
		WithMetadata("key", key)
}

func NewConfigurationInvalidError(details string) *StandardError {
	return newError(ErrCodeConfigurationInvalid, "Configuration value is invalid", details, false, nil)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Input validation failed", details, false, nil)
}

func NewSearchRequestFailedError(err error) *StandardError {
	return newError(ErrCodeSearchRequestFailed, "Search API request failed", err.Error(), true, err)
}

func NewSearchTimeoutError(err error) *StandardError {
	return newError(ErrCodeSearchTimeout, "Search API timeout", err.Error(), true, err)
}

func NewTemplatePlaceholderMissingError(placeholders []string) *StandardError {
	return newError(ErrCodeTemplatePlaceholderMissing,
		"Prompt template placeholder has no value",
		fmt.Sprintf("missing: %v", placeholders), false, nil).
		WithMetadata("missing", placeholders)
}

func NewTemplateInvalidError(err error) *StandardError {
	return newError(ErrCodeTemplateInvalid, "Prompt template could not be parsed", err.Error(), false, err)
}

func NewGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeGenerationFailed, "Generation API request failed", err.Error(), true, err)
}

func NewGenerationTimeoutError(err error) *StandardError {
	return newError(ErrCodeGenerationTimeout, "Generation API timeout", err.Error(), true, err)
}

func NewExportFailedError(path string, err error) *StandardError {
	return newError(ErrCodeExportFailed, "Tabular export failed",
		fmt.Sprintf("path: %s, error: %s", path, err.Error()), false, err)
}

func NewArchiveFailedError(index string, err error) *StandardError {
	return newError(ErrCodeArchiveFailed, "Record archive failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true, err)
}

func NewPublishFailedError(topic string, err error) *StandardError {
	return newError(ErrCodePublishFailed, "Result publish failed",
		fmt.Sprintf("topic: %s, error: %s", topic, err.Error()), true, err)
}

func NewWalletNotFoundError(walletID string) *StandardError {
	return newError(ErrCodeWalletNotFound, "Wallet not found",
		fmt.Sprintf("walletId: %s", walletID), false, nil)
}

func NewWalletSeedInvalidError(walletID string, err error) *StandardError {
	return newError(ErrCodeWalletSeedInvalid, "Wallet seed could not be loaded",
		fmt.Sprintf("walletId: %s, error: %s", walletID, err.Error()), false, err)
}

func NewWalletStoreFailedError(err error) *StandardError {
	return newError(ErrCodeWalletStoreFailed, "Wallet registry operation failed", err.Error(), true, err)
}

func NewFaucetRequestFailedError(err error) *StandardError {
	return newError(ErrCodeFaucetRequestFailed, "Faucet request failed", err.Error(), true, err)
}

func NewContractABIMismatchError(details string) *StandardError {
	return newError(ErrCodeContractABIMismatch,
		"Contract invocation does not match the declared ABI", details, false, nil)
}

func NewContractInvocationFailedError(err error) *StandardError {
	return newError(ErrCodeContractInvocationFailed, "Contract invocation failed", err.Error(), false, err)
}

// BPMNError is the error shape thrown to the Zeebe engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the process variables attached to a thrown error.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ConvertToBPMNError maps a StandardError onto a BPMN error with the same code.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		ErrorVariables: stdErr.Metadata,
	}
}
