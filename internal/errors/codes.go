// Package errors provides structured error handling for ctxindex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Content store errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
//   - 6XX: Resolution conditions (logged and absorbed, never fatal)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStore indicates content store errors.
	CategoryStore Category = "STORE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
	// CategoryResolution indicates an index resolution condition.
	CategoryResolution Category = "RESOLUTION"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Store errors (200-299)
	ErrCodeItemNotFound = "ERR_201_ITEM_NOT_FOUND"
	ErrCodeAccessDenied = "ERR_202_ACCESS_DENIED"
	ErrCodeStoreFailed  = "ERR_203_STORE_FAILED"
	ErrCodeStoreLocked  = "ERR_204_STORE_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidPath  = "ERR_402_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodeIndexFailed = "ERR_502_INDEX_FAILED"

	// Resolution conditions (600-699)
	ErrCodeNoCandidate             = "ERR_601_NO_CANDIDATE"
	ErrCodeUnresolvableDefaultType = "ERR_602_UNRESOLVABLE_DEFAULT_TYPE"
	ErrCodeRankingUnavailable      = "ERR_603_RANKING_UNAVAILABLE"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStore
	case '4':
		return CategoryValidation
	case '6':
		return CategoryResolution
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeNoCandidate:
		return SeverityError
	case ErrCodeUnresolvableDefaultType, ErrCodeRankingUnavailable:
		return SeverityInfo
	case ErrCodeStoreLocked:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	return code == ErrCodeStoreLocked
}
