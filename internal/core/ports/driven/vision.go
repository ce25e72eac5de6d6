package driven

import "context"

// VisionService produces text descriptions of images.
// This is an optional service - when nil, image fragments are skipped
// during indexing and only text and table content is searchable.
//
// Implementations may include:
//   - Ollama (llava, moondream)
//   - Hosted multimodal APIs
type VisionService interface {
	// Caption describes the image so the description can be embedded
	// and retrieved like any text chunk.
	Caption(ctx context.Context, image []byte) (string, error)

	// ModelName returns the name of the vision model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
