package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	// Create a temporary directory for the test database
	tempDir, err := os.MkdirTemp("", "tome-test-*")
	require.NoError(t, err)

	// Create store in temp directory
	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	// Return cleanup function
	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func testTurn(question, answer string) domain.Turn {
	return domain.Turn{
		Question:          question,
		RetrievedChunkIDs: []string{"chunk-a", "chunk-b"},
		Answer:            answer,
		Summary:           "",
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "tome-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestSessionStore_LoadCreatesEmptySession(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	session, err := store.SessionStore().Load(ctx, "fresh")

	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "fresh", session.ID)
	assert.Empty(t, session.Turns)
}

func TestSessionStore_AppendAndLoad(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	sessions := store.SessionStore()

	require.NoError(t, sessions.Append(ctx, "s1", testTurn("first question", "first answer")))
	require.NoError(t, sessions.Append(ctx, "s1", testTurn("second question", "second answer")))

	session, err := sessions.Load(ctx, "s1")

	require.NoError(t, err)
	require.Len(t, session.Turns, 2)
	assert.Equal(t, "first question", session.Turns[0].Question)
	assert.Equal(t, "second question", session.Turns[1].Question)
	assert.Equal(t, []string{"chunk-a", "chunk-b"}, session.Turns[0].RetrievedChunkIDs)
	assert.False(t, session.Turns[0].CreatedAt.IsZero())

	last := session.LastTurn()
	require.NotNil(t, last)
	assert.Equal(t, "second answer", last.Answer)
}

func TestSessionStore_AppendSetsTimestamps(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	sessions := store.SessionStore()

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, sessions.Append(ctx, "s1", testTurn("q", "a")))

	session, err := sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, session.CreatedAt.After(before))
	assert.True(t, session.UpdatedAt.After(before))
}

func TestSessionStore_List(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	sessions := store.SessionStore()

	require.NoError(t, sessions.Append(ctx, "older", testTurn("q1", "a1")))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, sessions.Append(ctx, "newer", testTurn("q2", "a2")))
	require.NoError(t, sessions.Append(ctx, "newer", testTurn("q3", "a3")))

	infos, err := sessions.List(ctx)

	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "newer", infos[0].ID, "most recently updated first")
	assert.Equal(t, 2, infos[0].TurnCount)
	assert.Equal(t, "older", infos[1].ID)
	assert.Equal(t, 1, infos[1].TurnCount)
}

func TestSessionStore_ListEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	infos, err := store.SessionStore().List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestSessionStore_Get(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	sessions := store.SessionStore()

	require.NoError(t, sessions.Append(ctx, "s1", testTurn("q", "a")))

	session, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, session.Turns, 1)

	_, err = sessions.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_LoadCorruptTurn(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	sessions := store.SessionStore()

	require.NoError(t, sessions.Append(ctx, "s1", testTurn("q", "a")))

	// Corrupt the stored chunk IDs directly
	_, err := store.db.Exec(`UPDATE turns SET retrieved_chunk_ids = 'not json' WHERE session_id = 's1'`)
	require.NoError(t, err)

	session, err := sessions.Load(ctx, "s1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionCorrupt)
	require.NotNil(t, session, "caller needs an empty session to continue with")
	assert.Equal(t, "s1", session.ID)
	assert.Empty(t, session.Turns)
}

func TestSessionStore_NilChunkIDs(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	sessions := store.SessionStore()

	turn := domain.Turn{Question: "q", Answer: "a"}
	require.NoError(t, sessions.Append(ctx, "s1", turn))

	session, err := sessions.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, session.Turns, 1)
	assert.Empty(t, session.Turns[0].RetrievedChunkIDs)
}
