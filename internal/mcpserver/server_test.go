package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/thellimist/lanemeta/internal/fetch"
	"github.com/thellimist/lanemeta/internal/schema"
)

const apiTokenSource = `def self.available_options
  [
    FastlaneCore::ConfigItem.new(key: :api_token,
                                 env_name: "API_TOKEN",
                                 sensitive: true,
                                 description: "comma separated list"),
    FastlaneCore::ConfigItem.new(key: :broken,
                                 is_string: "no")
  ]
end
`

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, location string) (string, error) {
	text, ok := m[location]
	if !ok {
		return "", &fetch.FetchError{Location: location, Err: errors.New("not found")}
	}
	return text, nil
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func decodeResult(t *testing.T, result *mcp.CallToolResult) Extraction {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error result: %+v", result.Content)
	}
	if len(result.Content) != 1 {
		t.Fatalf("content items = %d, want 1", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want mcp.TextContent", result.Content[0])
	}
	var out Extraction
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestExtractOptions(t *testing.T) {
	s := New(nil, nil)

	result, err := s.handleExtractOptions(context.Background(), callTool("extract_options", map[string]any{
		"source": apiTokenSource,
		"name":   "tool",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	out := decodeResult(t, result)

	raw := result.Content[0].(mcp.TextContent).Text
	if !strings.Contains(raw, `"List<string>"`) {
		t.Errorf("type names should not be HTML-escaped: %s", raw)
	}
	if out.Name != "tool" {
		t.Errorf("name = %q, want tool", out.Name)
	}
	if len(out.Arguments) != 1 {
		t.Fatalf("arguments = %+v, want 1", out.Arguments)
	}
	arg := out.Arguments[0]
	if arg.Name != "ApiToken" || !arg.Secret || arg.Type != schema.TypeStringList || arg.Separator != "," {
		t.Errorf("argument = %+v", arg)
	}
	if arg.Format != "--api_token={value}" {
		t.Errorf("format = %q", arg.Format)
	}
	if len(out.Diagnostics) != 1 || !strings.Contains(out.Diagnostics[0], "is_string") {
		t.Errorf("diagnostics = %v, want one about is_string", out.Diagnostics)
	}
}

func TestExtractOptions_Action(t *testing.T) {
	s := New(nil, nil)

	result, err := s.handleExtractOptions(context.Background(), callTool("extract_options", map[string]any{
		"source":    apiTokenSource,
		"is_action": true,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	out := decodeResult(t, result)
	if out.Arguments[0].Format != "api_token:{value}" {
		t.Errorf("format = %q, want api_token:{value}", out.Arguments[0].Format)
	}
}

func TestExtractOptions_MissingSource(t *testing.T) {
	result, err := New(nil, nil).handleExtractOptions(context.Background(), callTool("extract_options", map[string]any{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result when source is missing")
	}
}

func TestExtractOptions_NoRegion(t *testing.T) {
	result, err := New(nil, nil).handleExtractOptions(context.Background(), callTool("extract_options", map[string]any{
		"source": "puts 'hello'",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	out := decodeResult(t, result)
	if len(out.Arguments) != 0 || len(out.Diagnostics) != 0 {
		t.Errorf("out = %+v, want empty", out)
	}
}

func TestExtractSource(t *testing.T) {
	s := New(mapFetcher{"https://example.com/actions/slack.rb": apiTokenSource}, nil)

	result, err := s.handleExtractSource(context.Background(), callTool("extract_source", map[string]any{
		"location":  "https://example.com/actions/slack.rb",
		"is_action": true,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	out := decodeResult(t, result)
	if out.Name != "slack" {
		t.Errorf("name = %q, want slack", out.Name)
	}
	if len(out.Arguments) != 1 || out.Arguments[0].Format != "api_token:{value}" {
		t.Errorf("arguments = %+v", out.Arguments)
	}

	missing, err := s.handleExtractSource(context.Background(), callTool("extract_source", map[string]any{
		"location": "https://example.com/nope.rb",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !missing.IsError {
		t.Error("expected an error result for a failed fetch")
	}
}

func TestMCPServer(t *testing.T) {
	if New(nil, nil).MCPServer("test") == nil {
		t.Fatal("MCPServer returned nil")
	}
}
