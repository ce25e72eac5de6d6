package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for tome resources.
	uriScheme = "tome://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing sessions.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "List of stored conversation sessions",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)

	// Template for one session's conversation history.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}",
		Name:        "session-history",
		Description: "Conversation history of a specific session",
		MIMEType:    "application/json",
	}, s.handleSessionHistoryResource)
}

// handleSessionsResource returns a list of stored sessions.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Sessions == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	infos, err := s.ports.Sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	// Build simplified session list.
	type sessionInfo struct {
		ID        string `json:"id"`
		TurnCount int    `json:"turn_count"`
		UpdatedAt string `json:"updated_at"`
	}

	out := make([]sessionInfo, len(infos))
	for i, info := range infos {
		out[i] = sessionInfo{
			ID:        info.ID,
			TurnCount: info.TurnCount,
			UpdatedAt: info.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sessions: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleSessionHistoryResource returns the conversation history of one session.
func (s *Server) handleSessionHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Sessions == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract sessionId from URI: tome://sessions/{sessionId}
	sessionID := extractSessionID(req.Params.URI)
	if sessionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	session, err := s.ports.Sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	// Build simplified turn list.
	type turnInfo struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Summary  string `json:"summary,omitempty"`
		AskedAt  string `json:"asked_at"`
	}

	turns := make([]turnInfo, len(session.Turns))
	for i, turn := range session.Turns {
		turns[i] = turnInfo{
			Question: turn.Question,
			Answer:   turn.Answer,
			Summary:  turn.Summary,
			AskedAt:  turn.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling session history: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID extracts the session ID from a URI like tome://sessions/{sessionId}.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
