package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for sorta resources.
	uriScheme = "sorta://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "activity",
		Name:        "activity",
		Description: "Recent moves, newest first",
		MIMEType:    "application/json",
	}, s.handleActivityResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "rules",
		Name:        "rules",
		Description: "Filename rules in evaluation order",
		MIMEType:    "application/json",
	}, s.handleRulesResource)

	// Template for folder listings; the path is URL-escaped.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "files/{path}",
		Name:        "folder-files",
		Description: "Files directly inside a folder",
		MIMEType:    "application/json",
	}, s.handleFilesResource)
}

func (s *Server) handleActivityResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entries, err := s.ports.History.ListActivity(ctx, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	out := make([]ActivityOutput, len(entries))
	for i := range entries {
		out[i] = *toActivity(&entries[i])
	}
	return jsonResource(req.Params.URI, out)
}

func (s *Server) handleRulesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	rules, err := s.ports.History.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	out := make([]RuleOutput, len(rules))
	for i, r := range rules {
		out[i] = RuleOutput{ID: r.ID, Pattern: r.Pattern, TargetFolder: r.TargetFolder}
	}
	return jsonResource(req.Params.URI, out)
}

func (s *Server) handleFilesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	dir := extractFolderPath(req.Params.URI)
	if dir == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	files, err := s.ports.Browse.ScanFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return jsonResource(req.Params.URI, toFiles(files))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractFolderPath extracts the folder from a URI like sorta://files/{path}.
func extractFolderPath(uri string) string {
	const prefix = uriScheme + "files/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	path, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil {
		return ""
	}
	return path
}
