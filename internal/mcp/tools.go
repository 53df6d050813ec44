package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameTrace    = "icepack_trace"
	ToolNameClassify = "icepack_classify"
)

// Input size limits.
const (
	// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
	MaxCodeInputBytes = 1 << 20
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyEntryPath indicates the entry_path parameter is empty.
	ErrEmptyEntryPath = errors.New("entry_path parameter is required and must not be empty")
	// ErrEntryPathNotAbsolute indicates the entry_path is not an absolute path.
	ErrEntryPathNotAbsolute = errors.New("entry_path must be an absolute path")
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
)

// Input types (auto-generate JSON schemas via struct tags).

// TraceInput is the input schema for the icepack_trace tool.
type TraceInput struct {
	EntryPath   string   `json:"entry_path"             jsonschema:"absolute path to the program entry script"`
	SearchPaths []string `json:"search_paths,omitempty" jsonschema:"module search paths (default: entry script directory)"`
	Excludes    []string `json:"excludes,omitempty"     jsonschema:"module names to exclude from the trace"`
	Workers     int      `json:"workers,omitempty"      jsonschema:"parallel parse width (default: 4)"`
}

// ClassifyInput is the input schema for the icepack_classify tool.
type ClassifyInput struct {
	Code string `json:"code" jsonschema:"inline Python source whose imports should be classified"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateCodeInput checks inline code input constraints.
func validateCodeInput(code string) error {
	if code == "" {
		return ErrEmptyCode
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}
