// Package server exposes org metadata lookups as MCP tools so AI assistants
// can query the same data the interactive command shows.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/sf-fields/internal/logging"
	"github.com/giantswarm/sf-fields/internal/org"
)

// Supported server transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// EndpointPath is the fixed HTTP path of the streamable-http transport.
const EndpointPath = "/mcp"

// Source is the metadata backend the tools query.
type Source interface {
	ListObjects(ctx context.Context) ([]org.ObjectDescriptor, error)
	DescribeObjects(ctx context.Context, names []string) ([]org.ObjectFieldSet, error)
}

// MCPServer exposes Source via MCP
type MCPServer struct {
	source    Source
	logger    *logging.Logger
	mcpServer *server.MCPServer
	transport string
}

// New creates an MCP server and registers its tools.
func New(source Source, transport, version string, logger *logging.Logger) (*MCPServer, error) {
	switch transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return nil, fmt.Errorf("unsupported server transport: %s", transport)
	}
	if version == "" {
		version = "dev"
	}

	mcpServer := server.NewMCPServer(
		"sf-fields",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
	)

	ms := &MCPServer{
		source:    source,
		logger:    logger,
		mcpServer: mcpServer,
		transport: transport,
	}
	ms.registerTools()

	return ms, nil
}

// Start serves until the transport stops or ctx is cancelled.
func (m *MCPServer) Start(ctx context.Context, listenAddr string) error {
	switch m.transport {
	case TransportStdio:
		m.logger.Info("Serving MCP over stdio")
		return server.ServeStdio(m.mcpServer)
	case TransportStreamableHTTP:
		httpServer := server.NewStreamableHTTPServer(
			m.mcpServer,
			server.WithEndpointPath(EndpointPath),
		)

		errCh := make(chan error, 1)
		go func() {
			m.logger.Info("Serving MCP on http://%s%s", listenAddr, EndpointPath)
			errCh <- httpServer.Start(listenAddr)
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				m.logger.Warning("MCP server shutdown: %v", err)
			}
			return nil
		}
	default:
		return fmt.Errorf("unsupported server transport: %s", m.transport)
	}
}

func (m *MCPServer) registerTools() {
	listObjectsTool := mcp.NewTool("list_objects",
		mcp.WithDescription("List all objects (API name and label) available in the Salesforce org"),
	)
	m.mcpServer.AddTool(listObjectsTool, m.handleListObjects)

	describeFieldsTool := mcp.NewTool("describe_fields",
		mcp.WithDescription(fmt.Sprintf("Get field labels and API names for %d to %d Salesforce objects", org.MinSelection, org.MaxSelection)),
		mcp.WithArray("objects",
			mcp.Required(),
			mcp.Description("API names of the objects to describe, e.g. [\"Account\", \"Contact\"]"),
			mcp.WithStringItems(),
		),
	)
	m.mcpServer.AddTool(describeFieldsTool, m.handleDescribeFields)

	renderFieldsTool := mcp.NewTool("render_fields",
		mcp.WithDescription("Render the field tables of the given objects as an HTML document"),
		mcp.WithArray("objects",
			mcp.Required(),
			mcp.Description("API names of the objects to render"),
			mcp.WithStringItems(),
		),
	)
	m.mcpServer.AddTool(renderFieldsTool, m.handleRenderFields)
}
