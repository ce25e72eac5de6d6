package domain

import "time"

// Turn records one completed question/answer exchange within a session.
type Turn struct {
	// Question is the user's question as asked.
	Question string

	// RetrievedChunkIDs are the chunk IDs surfaced for this question,
	// in rank order.
	RetrievedChunkIDs []string

	// Answer is the generated grounded answer.
	Answer string

	// Summary is the optional context digest shown for this turn.
	Summary string

	// CreatedAt is when the turn completed.
	CreatedAt time.Time
}

// Session is conversational state keyed by a caller-supplied identifier.
// A session is created on first use and grows by exactly one Turn per
// completed query. The core never deletes sessions.
type Session struct {
	// ID is the caller-supplied session key.
	ID string

	// Turns is the chronological exchange history, oldest first.
	Turns []Turn

	// CreatedAt is when the session was first used.
	CreatedAt time.Time

	// UpdatedAt is when the last turn was appended.
	UpdatedAt time.Time
}

// LastTurn returns the most recent turn, or nil for an empty session.
func (s *Session) LastTurn() *Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	return &s.Turns[len(s.Turns)-1]
}

// SessionInfo is a summary row for listing sessions.
type SessionInfo struct {
	// ID is the session key.
	ID string

	// TurnCount is the number of completed turns.
	TurnCount int

	// UpdatedAt is when the session last grew.
	UpdatedAt time.Time
}
