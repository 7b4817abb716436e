package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("disk I/O error")

	// When: wrapping with Error
	err := New(ErrCodeStoreFailed, "read item", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, err)
	assert.Equal(t, originalErr, errors.Unwrap(err))
	assert.True(t, errors.Is(err, originalErr))
}

func TestError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "item error",
			code:     ErrCodeItemNotFound,
			message:  "/sitecore/content/home not found",
			expected: "[ERR_201_ITEM_NOT_FOUND] /sitecore/content/home not found",
		},
		{
			name:     "resolution condition",
			code:     ErrCodeNoCandidate,
			message:  "no index",
			expected: "[ERR_601_NO_CANDIDATE] no index",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeItemNotFound, "item A not found", nil)
	err2 := New(ErrCodeItemNotFound, "item B not found", nil)
	assert.True(t, errors.Is(err1, err2))

	err3 := New(ErrCodeAccessDenied, "denied", nil)
	assert.False(t, errors.Is(err1, err3))
}

func TestError_WithDetails_AddsContext(t *testing.T) {
	err := NotFound("item not found").
		WithDetail("database", "master").
		WithDetail("path", "/sitecore/content")

	assert.Equal(t, "master", err.Details["database"])
	assert.Equal(t, "/sitecore/content", err.Details["path"])
}

func TestError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeItemNotFound, CategoryStore},
		{ErrCodeAccessDenied, CategoryStore},
		{ErrCodeInvalidInput, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodeIndexFailed, CategoryInternal},
		{ErrCodeNoCandidate, CategoryResolution},
		{ErrCodeUnresolvableDefaultType, CategoryResolution},
		{ErrCodeRankingUnavailable, CategoryResolution},
		{"bogus", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestError_SeverityAndRetryable(t *testing.T) {
	tests := []struct {
		code          string
		wantSeverity  Severity
		wantRetryable bool
	}{
		{ErrCodeNoCandidate, SeverityError, false},
		{ErrCodeUnresolvableDefaultType, SeverityInfo, false},
		{ErrCodeRankingUnavailable, SeverityInfo, false},
		{ErrCodeStoreLocked, SeverityWarning, true},
		{ErrCodeConfigInvalid, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
			assert.Equal(t, tt.wantRetryable, IsRetryable(err))
		})
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWrap_CreatesErrorFromError(t *testing.T) {
	originalErr := errors.New("something went wrong")

	err := Wrap(ErrCodeInternal, originalErr)

	require.NotNil(t, err)
	assert.Equal(t, ErrCodeInternal, err.Code)
	assert.Equal(t, "something went wrong", err.Message)
	assert.Equal(t, originalErr, err.Cause)
}

func TestHelpers_SetCategory(t *testing.T) {
	assert.Equal(t, CategoryConfig, ConfigError("bad yaml", nil).Category)
	assert.Equal(t, CategoryStore, StoreError("closed", nil).Category)
	assert.Equal(t, CategoryStore, AccessDenied("nope").Category)
	assert.Equal(t, CategoryValidation, ValidationError("empty", nil).Category)
	assert.Equal(t, CategoryInternal, InternalError("oops", nil).Category)
}

func TestAs_FindsWrappedError(t *testing.T) {
	// Given: an Error wrapped by fmt.Errorf
	inner := AccessDenied("read /sitecore/system denied")
	wrapped := fmt.Errorf("load root: %w", inner)

	// When: extracting
	ae, ok := As(wrapped)

	// Then: the coded error is found
	require.True(t, ok)
	assert.Equal(t, ErrCodeAccessDenied, ae.Code)
	assert.Equal(t, ErrCodeAccessDenied, GetCode(wrapped))
	assert.Equal(t, CategoryStore, GetCategory(wrapped))
	assert.True(t, HasCode(wrapped, ErrCodeAccessDenied))
	assert.False(t, HasCode(wrapped, ErrCodeItemNotFound))
}

func TestGetCode_PlainError(t *testing.T) {
	assert.Equal(t, "", GetCode(errors.New("plain")))
	assert.Equal(t, Category(""), GetCategory(errors.New("plain")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}
