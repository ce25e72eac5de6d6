package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driven"
)

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// Load returns the session with the given ID, creating an empty one if
// none exists. A stored turn that cannot be decoded yields an empty
// session wrapped with domain.ErrSessionCorrupt: history is a
// convenience, losing it must not block the query.
func (s *sessionStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at FROM sessions WHERE id = ?
	`, id)

	session := &domain.Session{ID: id}
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&session.ID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// First use of this session ID
			return session, nil
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	if createdAt.Valid {
		session.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		session.UpdatedAt = updatedAt.Time
	}

	turns, err := s.loadTurns(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionCorrupt) {
			return &domain.Session{ID: id}, err
		}
		return nil, err
	}
	session.Turns = turns

	return session, nil
}

// loadTurns reads the session's turns in conversation order.
func (s *sessionStore) loadTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT question, retrieved_chunk_ids, answer, summary, created_at
		FROM turns WHERE session_id = ? ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn //nolint:prealloc // row count unknown
	for rows.Next() {
		var turn domain.Turn
		var chunkIDsJSON string
		var createdAt sql.NullTime
		if err := rows.Scan(&turn.Question, &chunkIDsJSON, &turn.Answer, &turn.Summary, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if err := json.Unmarshal([]byte(chunkIDsJSON), &turn.RetrievedChunkIDs); err != nil {
			return nil, fmt.Errorf("%w: decoding turn chunk IDs: %v", domain.ErrSessionCorrupt, err)
		}
		if createdAt.Valid {
			turn.CreatedAt = createdAt.Time
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	return turns, nil
}

// Append adds one completed turn, creating the session if needed.
func (s *sessionStore) Append(ctx context.Context, id string, turn domain.Turn) error {
	chunkIDs := turn.RetrievedChunkIDs
	if chunkIDs == nil {
		chunkIDs = []string{}
	}
	chunkIDsJSON, err := json.Marshal(chunkIDs)
	if err != nil {
		return fmt.Errorf("marshalling chunk IDs: %w", err)
	}

	now := time.Now().UTC()
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = now
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at
	`, id, now, now)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO turns (session_id, question, retrieved_chunk_ids, answer, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, turn.Question, string(chunkIDsJSON), turn.Answer, turn.Summary, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing turn: %w", err)
	}
	return nil
}

// List returns summaries of all sessions, most recently updated first.
func (s *sessionStore) List(ctx context.Context) ([]domain.SessionInfo, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT s.id, COUNT(t.id), s.updated_at
		FROM sessions s
		LEFT JOIN turns t ON t.session_id = s.id
		GROUP BY s.id
		ORDER BY s.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var infos []domain.SessionInfo //nolint:prealloc // row count unknown
	for rows.Next() {
		var info domain.SessionInfo
		var updatedAt sql.NullTime
		if err := rows.Scan(&info.ID, &info.TurnCount, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if updatedAt.Valid {
			info.UpdatedAt = updatedAt.Time
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	return infos, nil
}

// Get returns the full session with the given ID, or domain.ErrNotFound.
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at FROM sessions WHERE id = ?
	`, id)

	session := &domain.Session{}
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&session.ID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	if createdAt.Valid {
		session.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		session.UpdatedAt = updatedAt.Time
	}

	turns, err := s.loadTurns(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Turns = turns

	return session, nil
}

// Close is a no-op; the owning Store manages the connection.
func (s *sessionStore) Close() error {
	return nil
}
