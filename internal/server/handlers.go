package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/sf-fields/internal/report"
)

// handleListObjects handles the list_objects tool request
func (m *MCPServer) handleListObjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	objects, err := m.source.ListObjects(ctx)
	if err != nil {
		m.logger.Error("list_objects: %v", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to list objects: %v", err)), nil
	}

	data, err := json.Marshal(objects)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal objects: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

// handleDescribeFields handles the describe_fields tool request
func (m *MCPServer) handleDescribeFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, errResult := objectsArgument(request)
	if errResult != nil {
		return errResult, nil
	}

	sets, err := m.source.DescribeObjects(ctx, names)
	if err != nil {
		m.logger.Error("describe_fields: %v", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to describe objects: %v", err)), nil
	}

	data, err := json.Marshal(sets)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal fields: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

// handleRenderFields handles the render_fields tool request
func (m *MCPServer) handleRenderFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, errResult := objectsArgument(request)
	if errResult != nil {
		return errResult, nil
	}

	sets, err := m.source.DescribeObjects(ctx, names)
	if err != nil {
		m.logger.Error("render_fields: %v", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to describe objects: %v", err)), nil
	}

	doc, err := report.RenderHTML(sets)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(string(doc)), nil
}

// objectsArgument extracts the "objects" string array from a tool request.
func objectsArgument(request mcp.CallToolRequest) ([]string, *mcp.CallToolResult) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, mcp.NewToolResultError("invalid arguments type")
	}

	raw, ok := args["objects"].([]interface{})
	if !ok {
		return nil, mcp.NewToolResultError("missing or invalid 'objects' argument")
	}

	names := make([]string, 0, len(raw))
	for _, v := range raw {
		name, ok := v.(string)
		if !ok || name == "" {
			return nil, mcp.NewToolResultError("'objects' must contain non-empty strings")
		}
		names = append(names, name)
	}
	return names, nil
}
