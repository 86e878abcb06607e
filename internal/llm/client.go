package llm

import "context"

// CompletionRequest is a single prompted completion call. System and User are
// kept separate so providers can map them onto their chat roles.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
}

// CompletionClient is the text-in/text-out contract the SQL generator depends
// on.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Embedder is the text-in/vector-out contract the retriever depends on.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
