package mcpadapter

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
)

type Checker interface {
	Execute(ctx context.Context, req models.CheckRequest) (models.CheckResponse, error)
}

// CheckInput is the MCP tool input schema (matches HTTP API field names).
type CheckInput struct {
	RequestID  string   `json:"request_id,omitempty" jsonschema:"optional request identifier"`
	Names      []string `json:"names" jsonschema:"band names to check"`
	Categories []string `json:"categories,omitempty" jsonschema:"categories to analyze: Hate, SelfHarm, Sexual, Violence (default: configured set)"`
	Threshold  *int     `json:"threshold,omitempty" jsonschema:"blocking threshold 0, 2, 4 or 6 (default: configured threshold)"`
}

// CheckNameInput is the MCP tool input schema for a single name.
type CheckNameInput struct {
	Name      string `json:"name" jsonschema:"band name to check"`
	Threshold *int   `json:"threshold,omitempty" jsonschema:"blocking threshold 0, 2, 4 or 6 (default: configured threshold)"`
	Variants  bool   `json:"variants,omitempty" jsonschema:"also check casing and spacing variants and apply keyword overrides"`
}

// NewCheckHandler returns a tool handler that uses the given checker.
// Pass the returned function to mcp.AddTool.
func NewCheckHandler(checker Checker) func(context.Context, *mcp.CallToolRequest, CheckInput) (*mcp.CallToolResult, models.CheckResponse, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CheckInput) (*mcp.CallToolResult, models.CheckResponse, error) {
		result, err := checker.Execute(ctx, models.CheckRequest{
			RequestID:  input.RequestID,
			Names:      input.Names,
			Categories: input.Categories,
			Threshold:  input.Threshold,
		})
		return nil, result, err
	}
}

// NewCheckNameHandler returns a tool handler for a single band name.
// Pass the returned function to mcp.AddTool.
func NewCheckNameHandler(checker Checker) func(context.Context, *mcp.CallToolRequest, CheckNameInput) (*mcp.CallToolResult, models.CheckResponse, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CheckNameInput) (*mcp.CallToolResult, models.CheckResponse, error) {
		result, err := checker.Execute(ctx, models.CheckRequest{
			Names:     []string{input.Name},
			Threshold: input.Threshold,
			Variants:  input.Variants,
		})
		return nil, result, err
	}
}

// NewServer registers the check tools on a fresh MCP server.
func NewServer(checker Checker, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "bandcheck",
			Version: version,
		}, nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_band_names",
		Description: "Check band names for hate, self-harm, sexual and violent content and return an ALLOWED or BLOCKED verdict for each",
	}, NewCheckHandler(checker))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_band_name",
		Description: "Check a single band name, optionally with casing and spacing variants",
	}, NewCheckNameHandler(checker))

	return server
}
