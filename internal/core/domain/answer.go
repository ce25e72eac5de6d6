package domain

// Answer is the result of one completed query.
type Answer struct {
	// Text is the grounded answer.
	Text string

	// Summary is the optional context digest, empty unless requested.
	Summary string

	// Sources are the retrieved chunks backing the answer, in rank order.
	Sources []ScoredChunk

	// SessionID echoes the session the turn was appended to, if any.
	SessionID string
}

// IndexReport summarises a completed indexing run.
type IndexReport struct {
	// DocumentID identifies the document that was indexed.
	DocumentID string

	// Collection is the vector collection that was populated.
	Collection string

	// ChunksIndexed is the number of chunks embedded and upserted.
	ChunksIndexed int

	// FragmentsSkipped counts fragments dropped during normalisation,
	// such as images whose captioning failed.
	FragmentsSkipped int

	// EmbeddingModel is the model that produced the vectors.
	EmbeddingModel string

	// Dimensions is the vector size used for the collection.
	Dimensions int
}
