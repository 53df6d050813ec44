package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/icepack-dev/icepack/pkg/pysrc"
)

// classifySnippetName is the synthetic filename for inline code input.
const classifySnippetName = "snippet.py"

// ImportRecord is one classified import target in icepack_classify output.
type ImportRecord struct {
	Module  string   `json:"module"`
	Names   []string `json:"names,omitempty"`
	Level   int      `json:"level,omitempty"`
	Style   string   `json:"style"`
	Dynamic bool     `json:"dynamic,omitempty"`
}

// handleClassify processes icepack_classify tool calls.
func handleClassify(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ClassifyInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCodeInput(input.Code)
	if err != nil {
		return errorResult(err)
	}

	parser, err := pysrc.NewParser()
	if err != nil {
		return errorResult(fmt.Errorf("create parser: %w", err))
	}

	imports, err := parser.ExtractFile(ctx, classifySnippetName, []byte(input.Code))
	if err != nil {
		return errorResult(fmt.Errorf("parse code: %w", err))
	}

	records := make([]ImportRecord, 0, len(imports))
	for _, imp := range imports {
		records = append(records, ImportRecord{
			Module:  imp.Module,
			Names:   imp.Names,
			Level:   imp.Level,
			Style:   imp.Style.String(),
			Dynamic: imp.Dynamic,
		})
	}

	return jsonResult(records)
}
