package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/calbridge/calbridge/internal/credentials"
)

// errorEnvelope is the JSON shape of every tool error payload.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Operation string `json:"operation"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// JSONResult marshals v as indented JSON into a tool text result.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(encoded)), nil
}

// ErrorResult builds the structured error payload for a failed tool call.
// The kind comes from the credential error taxonomy; anything unclassified is
// a provider error.
//
// Credential errors are reported by their detail line only. The wrapped cause
// may carry upstream response bodies, which have no place in a payload that
// goes back to the model.
func ErrorResult(operation string, err error) *mcp.CallToolResult {
	kind := credentials.KindOf(err)

	message := err.Error()
	var credErr *credentials.Error
	if errors.As(err, &credErr) {
		message = credErr.Detail
	}

	encoded, marshalErr := json.Marshal(errorEnvelope{
		Error: errorBody{
			Operation: operation,
			Kind:      string(kind),
			Message:   message,
		},
	})
	if marshalErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", operation, message))
	}

	return mcp.NewToolResultError(string(encoded))
}

// ValidationError builds the error payload for a rejected argument. No
// credential resolution or provider call has happened at this point.
func ValidationError(operation, message string) *mcp.CallToolResult {
	return ErrorResult(operation, credentials.NewError(credentials.KindValidation, message))
}
