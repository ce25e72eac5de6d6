// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentParser: Splits a source document into typed fragments
//   - EmbeddingService: Generates vector embeddings for chunk text
//   - VectorIndex: Stores embeddings and answers similarity queries (Qdrant)
//   - LLMService: Generates grounded answers and context summaries
//   - SessionStore: Conversation history persistence
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VisionService: Captions image fragments. Without it, image fragments
//     are skipped during indexing and the corpus is text and tables only.
//   - PromptStore: Prompt template overrides. Without it, services use
//     their embedded default prompts.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
