package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fresque-dev/fresque/internal/diagram"
	"github.com/fresque-dev/fresque/internal/render"
	"github.com/fresque-dev/fresque/internal/validation"
	"github.com/fresque-dev/fresque/pkg/schema"
)

// handleSchema fetches and returns a collection schema.
func (s *ConsoleServer) handleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, err := req.RequireString("model")
	if err != nil {
		return mcp.NewToolResultError("model is required"), nil
	}
	mode := schema.Mode(req.GetString("mode", string(schema.ModeDefault)))

	cs, fetchErr := s.schemas.CollectionSchema(ctx, model, mode)
	if fetchErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("schema fetch failed: %v", fetchErr)), nil
	}

	return marshalResult(cs)
}

// handleRender renders a record against its collection schema.
func (s *ConsoleServer) handleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, err := req.RequireString("model")
	if err != nil {
		return mcp.NewToolResultError("model is required"), nil
	}
	record := mcp.ParseStringMap(req, "record", nil)
	if record == nil {
		return mcp.NewToolResultError("record is required"), nil
	}
	format := req.GetString("format", "json")

	cs, fetchErr := s.schemas.CollectionSchema(ctx, model, schema.ModeShow)
	if fetchErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("schema fetch failed: %v", fetchErr)), nil
	}

	nodes, renderErr := s.renderer.RenderDisplay(ctx, cs.Fields, record, schema.ModeShow)
	if renderErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", renderErr)), nil
	}

	if format == "text" {
		return mcp.NewToolResultText(render.FormatDisplay(nodes)), nil
	}
	return marshalResult(map[string]any{
		"model": model,
		"nodes": render.EncodeDisplay(nodes),
	})
}

// handleStatus returns a job's last-known state, or lists recent jobs.
func (s *ConsoleServer) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID := req.GetString("graph_id", "")
	if agentID := req.GetString("agent_id", ""); agentID != "" {
		s.captureSession(ctx, agentID)
	}

	if graphID == "" {
		snaps, err := s.snapshots.ListSnapshots(ctx, 50)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshot list failed: %v", err)), nil
		}
		return marshalResult(map[string]any{"jobs": snaps})
	}

	snap, err := s.snapshots.GetSnapshot(ctx, graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot lookup failed: %v", err)), nil
	}

	result := map[string]any{
		"graph_id":   snap.GraphID,
		"status":     snap.Status,
		"progress":   snap.Progress,
		"updated_at": snap.UpdatedAt,
	}
	if len(snap.Tasks) > 0 {
		result["tasks"] = snap.Tasks
	}

	if room := req.GetString("chat_room", ""); room != "" {
		messages, chatErr := s.snapshots.ListChat(ctx, room, 0, 100)
		if chatErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("chat lookup failed: %v", chatErr)), nil
		}
		result["chat"] = messages
	}

	return marshalResult(result)
}

// handleDiagram draws a job's task graph in the requested format.
func (s *ConsoleServer) handleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := req.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError("graph_id is required"), nil
	}
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}
	if format != "dot" && format != "mermaid" && format != "image" {
		return mcp.NewToolResultError("format must be dot, mermaid, or image"), nil
	}

	graph, graphErr := s.schemas.DagGraph(ctx, graphID)
	if graphErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph lookup failed: %v", graphErr)), nil
	}

	var statuses schema.StatusMap
	if req.GetString("include_status", "true") != "false" {
		if snap, snapErr := s.snapshots.GetSnapshot(ctx, graphID); snapErr == nil && len(snap.Tasks) > 0 {
			_ = json.Unmarshal(snap.Tasks, &statuses)
		}
	}

	switch format {
	case "mermaid":
		return mcp.NewToolResultText(diagram.BuildMermaid(*graph, statuses)), nil
	case "dot", "image":
		dot := diagram.BuildDOT(*graph, statuses, diagram.Options{
			Theme: diagram.Theme(req.GetString("theme", "")),
		})
		if format == "dot" {
			return mcp.NewToolResultText(dot), nil
		}
		png, imgErr := diagram.RenderPNG(ctx, dot)
		if imgErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("image render failed: %v", imgErr)), nil
		}
		return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(png)), nil
	default:
		return mcp.NewToolResultError("unsupported format"), nil
	}
}

// handleValidate checks a schema document or a task graph.
func (s *ConsoleServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document := mcp.ParseStringMap(req, "document", nil)
	graphID := req.GetString("graph_id", "")

	if document == nil && graphID == "" {
		return mcp.NewToolResultError("one of document or graph_id is required"), nil
	}

	result := &schema.ValidationResult{}

	if document != nil {
		raw, marshalErr := json.Marshal(document)
		if marshalErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid document: %v", marshalErr)), nil
		}
		result.Merge(s.validator.Validate(raw))
	}

	if graphID != "" {
		graph, graphErr := s.schemas.DagGraph(ctx, graphID)
		if graphErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("graph lookup failed: %v", graphErr)), nil
		}
		result.Merge(validation.ValidateGraph(graph))
	}

	return marshalResult(map[string]any{
		"valid":    result.Valid(),
		"errors":   result.Errors,
		"warnings": result.Warnings,
	})
}

// --- Internal helpers ---

// captureSession maps the agent ID to its current MCP session for notifications.
func (s *ConsoleServer) captureSession(ctx context.Context, agentID string) {
	if session := server.ClientSessionFromContext(ctx); session != nil {
		s.sessions.Register(agentID, session.SessionID())
	}
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
