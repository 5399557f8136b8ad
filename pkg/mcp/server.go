// Package mcp exposes the console core to agents over the Model Context
// Protocol: schema fetch, record rendering, live status, diagrams, and
// document validation.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fresque-dev/fresque/internal/render"
	"github.com/fresque-dev/fresque/internal/store"
	"github.com/fresque-dev/fresque/internal/validation"
	"github.com/fresque-dev/fresque/pkg/schema"
)

// SchemaFetcher is the slice of the schema client the tools need.
type SchemaFetcher interface {
	CollectionSchema(ctx context.Context, model string, mode schema.Mode) (*schema.CollectionSchema, error)
	DagGraph(ctx context.Context, graphID string) (*schema.GraphData, error)
}

// SnapshotReader serves last-known live state and chat history.
type SnapshotReader interface {
	GetSnapshot(ctx context.Context, graphID string) (*store.StatusSnapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]*store.StatusSnapshot, error)
	ListChat(ctx context.Context, room string, since int64, limit int) ([]*store.ChatRecord, error)
}

// ConsoleServerDeps holds the dependencies for creating a ConsoleServer.
type ConsoleServerDeps struct {
	Schemas   SchemaFetcher
	Renderer  *render.Renderer
	Snapshots SnapshotReader
	Validator *validation.SchemaValidator
	Logger    *slog.Logger
}

// ConsoleServer wraps an MCP server with console-specific tool handlers.
type ConsoleServer struct {
	schemas   SchemaFetcher
	renderer  *render.Renderer
	snapshots SnapshotReader
	validator *validation.SchemaValidator
	logger    *slog.Logger
	sessions  *SessionRegistry
	mcpServer *server.MCPServer
}

// NewConsoleServer creates a ConsoleServer with all 5 tools registered.
func NewConsoleServer(deps ConsoleServerDeps) *ConsoleServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &ConsoleServer{
		schemas:   deps.Schemas,
		renderer:  deps.Renderer,
		snapshots: deps.Snapshots,
		validator: deps.Validator,
		logger:    logger,
		sessions:  NewSessionRegistry(),
	}

	mcpSrv := server.NewMCPServer(
		"fresque",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Fresque is a schema-driven admin console core for DAG-execution platforms. Use fresque.schema to fetch a collection schema, fresque.render to render a record against its schema, fresque.status to read the last-known state of a job, fresque.diagram to draw a job's task graph, and fresque.validate to check a schema document."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *ConsoleServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *ConsoleServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 5 registered MCP tools as ServerTool entries.
func (s *ConsoleServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: schemaTool(), Handler: s.handleSchema},
		{Tool: renderTool(), Handler: s.handleRender},
		{Tool: statusTool(), Handler: s.handleStatus},
		{Tool: diagramTool(), Handler: s.handleDiagram},
		{Tool: validateTool(), Handler: s.handleValidate},
	}
}

// --- Tool definitions ---

func schemaTool() mcp.Tool {
	return mcp.NewTool("fresque.schema",
		mcp.WithDescription("Fetch the collection schema of a model"),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model name, e.g. 'Job'")),
		mcp.WithString("mode",
			mcp.Enum("default", "list", "show", "edit", "create"),
			mcp.Description("Schema mode (default: 'default')"),
		),
	)
}

func renderTool() mcp.Tool {
	return mcp.NewTool("fresque.render",
		mcp.WithDescription("Render a record against its collection schema and return the display tree"),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model name of the record")),
		mcp.WithObject("record", mcp.Required(), mcp.Description("The record data to render")),
		mcp.WithString("format",
			mcp.Enum("json", "text"),
			mcp.Description("Output format: json node tree or indented text (default: json)"),
		),
	)
}

func statusTool() mcp.Tool {
	return mcp.NewTool("fresque.status",
		mcp.WithDescription("Read the last-known live state of a DAG/job, or list recent jobs when no id is given"),
		mcp.WithString("graph_id", mcp.Description("Job/DAG id")),
		mcp.WithString("agent_id", mcp.Description("ID of the calling agent, enables push notifications")),
		mcp.WithString("chat_room", mcp.Description("Also include this room's chat history")),
	)
}

func diagramTool() mcp.Tool {
	return mcp.NewTool("fresque.diagram",
		mcp.WithDescription("Draw a job's task graph with its live status overlay. Returns Graphviz DOT, Mermaid flowchart syntax, or a base64-encoded PNG"),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("Job/DAG id")),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("dot", "mermaid", "image"),
			mcp.Description("Output format"),
		),
		mcp.WithString("theme",
			mcp.Enum("dark", "light"),
			mcp.Description("Color theme (default: dark)"),
		),
		mcp.WithString("include_status", mcp.Description("Overlay the last-known task statuses (default: true)")),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("fresque.validate",
		mcp.WithDescription("Validate a collection-schema document or a job's task graph"),
		mcp.WithObject("document", mcp.Description("Collection-schema document to validate")),
		mcp.WithString("graph_id", mcp.Description("Job/DAG id whose task graph to validate")),
	)
}
