package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/docket/internal/domain/item"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, item.ErrEmptyTitle):
		return &APIError{Code: "EMPTY_TITLE", Message: "title must not be empty", RecoveryHint: "Provide a non-empty title"}
	case errors.Is(err, item.ErrItemNotFound):
		return &APIError{Code: "ITEM_NOT_FOUND", Message: "item not found", RecoveryHint: "Call list_items to refresh ids"}
	case errors.Is(err, item.ErrMissingPartition):
		return &APIError{Code: "MISSING_PARTITION", Message: "no partition available for workspace scope", RecoveryHint: "Pass partition_key or open a workspace"}
	case errors.Is(err, item.ErrInvalidScope):
		return &APIError{Code: "INVALID_SCOPE", Message: "scope must be global or workspace", RecoveryHint: `Use scope "global" or "workspace"`}
	default:
		return nil
	}
}
