// Package mcp implements the Model Context Protocol (MCP) server for ctxindex.
package mcp

import (
	"context"
	"errors"
	"fmt"

	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
)

// Custom MCP error codes for ctxindex.
const (
	// ErrCodeIndexNotFound indicates the named search index is not configured.
	ErrCodeIndexNotFound = -32001

	// ErrCodeItemNotFound indicates the content item does not exist.
	ErrCodeItemNotFound = -32002

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// ErrCodeAccessDenied indicates the content item is protected.
	ErrCodeAccessDenied = -32004

	// ErrCodeStoreUnavailable indicates the content store failed or is busy.
	ErrCodeStoreUnavailable = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	// ErrIndexNotFound indicates the named search index is not configured.
	ErrIndexNotFound = errors.New("index not found")

	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("invalid parameters")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
// It maps known error types to appropriate MCP error codes and messages.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	if ce, ok := cerrors.As(err); ok {
		return mapCodedError(ce)
	}

	switch {
	case errors.Is(err, ErrIndexNotFound):
		return &MCPError{
			Code:    ErrCodeIndexNotFound,
			Message: "Index not found. Run the list_indexes tool to see configured indexes.",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{
			Code:    ErrCodeMethodNotFound,
			Message: "Tool not found.",
		}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid parameters.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error.",
		}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewIndexNotFoundError creates an error for an unknown index name.
func NewIndexNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeIndexNotFound,
		Message: fmt.Sprintf("Index '%s' not found.", name),
	}
}

// mapCodedError converts a coded ctxindex error to an MCPError.
func mapCodedError(ce *cerrors.Error) *MCPError {
	message := ce.Message
	if ce.Suggestion != "" {
		message = fmt.Sprintf("%s %s", ce.Message, ce.Suggestion)
	}

	switch ce.Category {
	case cerrors.CategoryStore:
		switch ce.Code {
		case cerrors.ErrCodeItemNotFound:
			return &MCPError{Code: ErrCodeItemNotFound, Message: message}
		case cerrors.ErrCodeAccessDenied:
			return &MCPError{Code: ErrCodeAccessDenied, Message: message}
		default:
			return &MCPError{Code: ErrCodeStoreUnavailable, Message: message}
		}
	case cerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default: // Config, Resolution, Internal and unknown
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
