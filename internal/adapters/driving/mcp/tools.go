package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/tome-cli/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session ID for conversational memory, omit for a one-off query"`
	Summarise bool   `json:"summarise,omitempty" jsonschema:"include a summary of the retrieved context"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string         `json:"answer"`
	Summary   string         `json:"summary,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Sources   []SourceOutput `json:"sources"`
}

// SourceOutput represents one retrieved source chunk.
type SourceOutput struct {
	Page    int     `json:"page,omitempty"`
	Type    string  `json:"type"`
	Score   float32 `json:"score"`
	Content string  `json:"content"`
}

// IndexInput is the input schema for the index_document tool.
type IndexInput struct {
	Path string `json:"path" jsonschema:"path to the document on disk"`
}

// IndexOutput is the output schema for the index_document tool.
type IndexOutput struct {
	DocumentID       string `json:"document_id"`
	Collection       string `json:"collection"`
	ChunksIndexed    int    `json:"chunks_indexed"`
	FragmentsSkipped int    `json:"fragments_skipped"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question about the indexed documents and get an answer grounded in retrieved content",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_document",
		Description: "Index a document from disk into the vector store",
	}, s.handleIndexDocument)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Ask(ctx, driving.AskRequest{
		Question:  input.Question,
		SessionID: input.SessionID,
		Summarise: input.Summarise,
		TopK:      input.TopK,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    answer.Text,
		Summary:   answer.Summary,
		SessionID: answer.SessionID,
		Sources:   make([]SourceOutput, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			Page:    src.Chunk.Page,
			Type:    string(src.Chunk.Modality),
			Score:   src.Score,
			Content: src.Chunk.Text,
		}
	}

	return nil, output, nil
}

// handleIndexDocument handles the index_document tool invocation.
func (s *Server) handleIndexDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IndexOutput{}, errors.New("indexing is not available")
	}

	report, err := s.ports.Ingest.Index(ctx, driving.IndexRequest{Path: input.Path})
	if err != nil {
		return nil, IndexOutput{}, err
	}

	return nil, IndexOutput{
		DocumentID:       report.DocumentID,
		Collection:       report.Collection,
		ChunksIndexed:    report.ChunksIndexed,
		FragmentsSkipped: report.FragmentsSkipped,
	}, nil
}
