package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/server"

	"github.com/fresque-dev/fresque/internal/channel"
	"github.com/fresque-dev/fresque/pkg/schema"
)

// AgentNotifier pushes status notifications to connected agents, e.g. when
// a watched job finishes.
type AgentNotifier interface {
	Notify(ctx context.Context, agentID string, payload map[string]any) error
}

// MCPNotifier implements AgentNotifier using MCP SSE push.
type MCPNotifier struct {
	mcpServer *server.MCPServer
	sessions  *SessionRegistry
}

// NewMCPNotifier creates a notifier that pushes via MCP SSE.
func NewMCPNotifier(mcpServer *server.MCPServer, sessions *SessionRegistry) *MCPNotifier {
	return &MCPNotifier{mcpServer: mcpServer, sessions: sessions}
}

// Notify sends a notification to the agent's SSE session.
// Best-effort: returns nil if the agent is not connected.
func (n *MCPNotifier) Notify(_ context.Context, agentID string, payload map[string]any) error {
	sessionID, ok := n.sessions.SessionFor(agentID)
	if !ok {
		return nil // agent not connected, best-effort
	}
	err := n.mcpServer.SendNotificationToSpecificClient(sessionID, "notifications/message", payload)
	if errors.Is(err, server.ErrSessionNotFound) {
		// Session expired between lookup and send.
		n.sessions.Remove(sessionID)
		return nil
	}
	return err
}

// StartChannelFeed forwards live status events from hub to every agent that
// registered a session via agent_id. The feed stops when ctx is cancelled
// or the hub subscription closes.
func (s *ConsoleServer) StartChannelFeed(ctx context.Context, hub *channel.Hub) error {
	events, cancel, err := hub.Subscribe(ctx, channel.Filter{Names: []string{schema.EventMessage}})
	if err != nil {
		return err
	}
	notifier := NewMCPNotifier(s.mcpServer, s.sessions)

	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				var payload map[string]any
				if err := json.Unmarshal(ev.Data, &payload); err != nil {
					s.logger.Warn("unparseable status event", "error", err)
					continue
				}
				for _, agentID := range s.sessions.Agents() {
					if err := notifier.Notify(ctx, agentID, payload); err != nil {
						s.logger.Warn("agent notification failed", "agent_id", agentID, "error", err)
					}
				}
			}
		}
	}()
	return nil
}
