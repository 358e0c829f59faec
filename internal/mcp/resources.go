package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) lifters(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	lifters, err := h.ds.Lifters(ctx)
	if err != nil {
		return nil, err
	}
	if lifters == nil {
		lifters = []string{}
	}
	return jsonContents(req.Params.URI, lifters)
}

func (h *handlers) settings(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	settings, err := h.ds.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, settings)
}
