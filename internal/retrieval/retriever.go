package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopquery/shopquery/internal/knowledge"
	"github.com/shopquery/shopquery/internal/llm"
)

// Question carries the caller's text and its whitespace-normalized form used
// for embedding.
type Question struct {
	RawText        string
	NormalizedText string
}

func NewQuestion(raw string) Question {
	return Question{
		RawText:        raw,
		NormalizedText: strings.Join(strings.Fields(raw), " "),
	}
}

// EmbeddingError marks a failed or empty embedding call after the single
// retry allowed for transient provider failures.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embed question: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// Retriever embeds questions and fetches the most similar context items from
// the knowledge store.
type Retriever struct {
	embedder llm.Embedder
	store    *knowledge.Store
	topK     int
}

func NewRetriever(embedder llm.Embedder, store *knowledge.Store, topK int) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("knowledge store is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("top k must be positive, got %d", topK)
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}, nil
}

// Retrieve returns up to topK context items ordered by descending similarity
// to the question. A failed embedding call is retried once with identical
// input before surfacing.
func (r *Retriever) Retrieve(ctx context.Context, question Question) ([]knowledge.ScoredItem, error) {
	if question.NormalizedText == "" {
		return nil, fmt.Errorf("question text is empty")
	}

	vector, err := r.embed(ctx, question.NormalizedText)
	if err != nil {
		return nil, err
	}

	results, err := r.store.Search(vector, r.topK)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Retriever) embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := r.embedder.Embed(ctx, text)
	if err == nil && len(vector) > 0 {
		return vector, nil
	}
	if ctx.Err() != nil {
		return nil, &EmbeddingError{Err: ctx.Err()}
	}

	vector, retryErr := r.embedder.Embed(ctx, text)
	if retryErr != nil {
		return nil, &EmbeddingError{Err: retryErr}
	}
	if len(vector) == 0 {
		return nil, &EmbeddingError{Err: fmt.Errorf("provider returned a zero-length vector")}
	}
	return vector, nil
}
