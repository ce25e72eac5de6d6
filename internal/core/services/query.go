package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tome-cli/internal/logger"
)

// Ensure QueryService implements the interfaces.
var (
	_ driving.QueryService    = (*QueryService)(nil)
	_ driven.PromptStoreAware = (*QueryService)(nil)
)

// defaultTopK is how many chunks are retrieved when the request does
// not say otherwise.
const defaultTopK = 5

// defaultAnswerSystemPrompt is the grounding instruction. Answers come
// from retrieved context alone; missing information is stated, not
// invented.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultAnswerSystemPrompt = `You are an expert assistant for a document collection. Answer the user's question based *only* on the following context. If the context does not contain the answer, state that. When possible, cite the page number from the source metadata.`

// QueryService answers questions over the indexed corpus.
type QueryService struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorIndex
	llm      driven.LLMService
	sessions driven.SessionStore
	prompts  driven.PromptStore
}

// NewQueryService creates a new query service.
// The sessions parameter may be nil when conversational memory is not
// wired; asking with a session ID then fails rather than silently
// dropping history.
func NewQueryService(
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	llm driven.LLMService,
	sessions driven.SessionStore,
) *QueryService {
	return &QueryService{
		embedder: embedder,
		vectors:  vectors,
		llm:      llm,
		sessions: sessions,
	}
}

// SetPromptStore wires user-customisable prompts into answer generation.
func (s *QueryService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Ask retrieves relevant chunks, assembles context with any prior
// conversation, and generates a grounded answer. The completed turn is
// appended only after generation succeeds, so a failed query never
// pollutes session history.
func (s *QueryService) Ask(ctx context.Context, req driving.AskRequest) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	logger.Section("Query Execution")
	logger.Debug("Question: %q", question)
	logger.Debug("Session: %q, summarise: %t, top_k: %d", req.SessionID, req.Summarise, topK)

	// 1. LOAD SESSION (corrupt records degrade to a fresh session)
	session, err := s.loadSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	// 2. RETRIEVE the most similar chunks
	retrieved, err := s.retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}
	contextText := FormatSources(retrieved)

	// 3. SUMMARISE retrieved context when requested. The digest is an
	// additional artifact; the full context still reaches the prompt.
	var summary string
	if req.Summarise {
		logger.Debug("Summarising %d characters of context", len(contextText))
		summary, err = s.llm.Summarise(ctx, contextText)
		if err != nil {
			return nil, fmt.Errorf("%w: summarise context: %w", domain.ErrGenerationFailure, err)
		}
	}

	// 4. GENERATE the grounded answer
	messages := s.buildMessages(session, contextText, question)
	answer, err := s.llm.Chat(ctx, messages, driven.ChatOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailure, err)
	}
	answer = strings.TrimSpace(answer)
	logger.Info("Generated answer (%d characters)", len(answer))

	// 5. PERSIST the completed turn
	if req.SessionID != "" {
		turn := domain.Turn{
			Question:          question,
			RetrievedChunkIDs: chunkIDs(retrieved),
			Answer:            answer,
			Summary:           summary,
			CreatedAt:         time.Now().UTC(),
		}
		if err := s.sessions.Append(ctx, req.SessionID, turn); err != nil {
			return nil, fmt.Errorf("append turn: %w", err)
		}
		logger.Debug("Appended turn to session %s", req.SessionID)
	}

	return &domain.Answer{
		Text:      answer,
		Summary:   summary,
		Sources:   retrieved,
		SessionID: req.SessionID,
	}, nil
}

// loadSession returns the session's state, or nil in stateless mode.
// A corrupt record warns and continues with empty history: memory is
// an enhancement, not a correctness requirement.
func (s *QueryService) loadSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	if s.sessions == nil {
		return nil, errors.New("session store not configured")
	}

	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionCorrupt) {
			logger.Warn("Session %s unreadable, starting fresh: %v", sessionID, err)
			return &domain.Session{ID: sessionID}, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	logger.Debug("Loaded session %s (%d turns)", sessionID, len(session.Turns))
	return session, nil
}

// retrieve embeds the question and searches the collection.
// Zero hits is a distinct condition, not an empty success: the caller
// must be able to tell "nothing indexed" from "nothing relevant".
func (s *QueryService) retrieve(ctx context.Context, question string, topK int) ([]domain.ScoredChunk, error) {
	logger.Debug("Generating query embedding...")
	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingFailure, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	hits, err := s.vectors.Search(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("search collection: %w", err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: collection returned no chunks", domain.ErrNoResults)
	}

	results := make([]domain.ScoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = domain.ScoredChunk{Chunk: hit.Chunk, Score: hit.Score}
		logger.Debug("Hit %d: %s (page %d, %s, score %.4f)",
			i+1, hit.Chunk.ID, hit.Chunk.Page, hit.Chunk.Modality, hit.Score)
	}
	return results, nil
}

// buildMessages assembles the chat sequence: system instruction, the
// most recent prior turn when the session carries history, then the
// fresh context and question. Prior turns come before fresh evidence
// so the model weighs current retrieval most heavily.
func (s *QueryService) buildMessages(session *domain.Session, contextText, question string) []driven.ChatMessage {
	messages := []driven.ChatMessage{
		{Role: "system", Content: s.loadPrompt(driven.PromptAnswerSystem, defaultAnswerSystemPrompt)},
	}

	if session != nil {
		if last := session.LastTurn(); last != nil {
			messages = append(messages,
				driven.ChatMessage{Role: "user", Content: last.Question},
				driven.ChatMessage{Role: "assistant", Content: last.Answer},
			)
		}
	}

	messages = append(messages, driven.ChatMessage{
		Role:    "user",
		Content: fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION:\n%s", contextText, question),
	})
	return messages
}

// loadPrompt returns the named prompt, falling back to the embedded
// default when no store is configured or the load fails.
func (s *QueryService) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil || prompt == "" {
		logger.Debug("Prompt %q unavailable, using default: %v", name, err)
		return fallback
	}
	return prompt
}

// FormatSources renders retrieved chunks as tagged source blocks. The
// same rendering feeds the generation prompt and the sources display,
// so citations in the answer line up with what the user sees.
func FormatSources(chunks []domain.ScoredChunk) string {
	blocks := make([]string, len(chunks))
	for i, sc := range chunks {
		blocks[i] = fmt.Sprintf("--- Source (Page %s, Type: %s) ---\n%s",
			pageLabel(sc.Chunk.Page), sc.Chunk.Modality, sc.Chunk.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// pageLabel formats a 1-based page number, with zero meaning unknown.
func pageLabel(page int) string {
	if page <= 0 {
		return "N/A"
	}
	return strconv.Itoa(page)
}

// chunkIDs extracts the IDs of retrieved chunks in rank order.
func chunkIDs(chunks []domain.ScoredChunk) []string {
	ids := make([]string, len(chunks))
	for i, sc := range chunks {
		ids[i] = sc.Chunk.ID
	}
	return ids
}
