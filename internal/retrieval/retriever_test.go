package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopquery/shopquery/internal/knowledge"
)

type fakeEmbedder struct {
	vectors [][]float32
	errs    []error
	calls   int
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	index := f.calls
	f.calls++
	var vector []float32
	if index < len(f.vectors) {
		vector = f.vectors[index]
	}
	var err error
	if index < len(f.errs) {
		err = f.errs[index]
	}
	return vector, err
}

func seededStore(t *testing.T) *knowledge.Store {
	t.Helper()
	store := knowledge.NewStore()
	err := store.Ingest([]knowledge.ContextItem{
		{ID: "sales", Kind: knowledge.KindSchema, Text: "Table: sales_summary", Embedding: []float32{1, 0}},
		{ID: "ads", Kind: knowledge.KindSchema, Text: "Table: ad_data", Embedding: []float32{0, 1}},
		{ID: "cpc", Kind: knowledge.KindMetric, Text: "Calculation: CPC", Embedding: []float32{1, 1}},
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	return store
}

func TestNewQuestionNormalizesWhitespace(t *testing.T) {
	q := NewQuestion("  What   is my\ttotal sales? ")
	if q.NormalizedText != "What is my total sales?" {
		t.Fatalf("NormalizedText = %q", q.NormalizedText)
	}
	if q.RawText != "  What   is my\ttotal sales? " {
		t.Fatalf("RawText = %q", q.RawText)
	}
}

func TestRetrieveReturnsOrderedResults(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float32{{1, 0}}}
	retriever, err := NewRetriever(embedder, seededStore(t), 2)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	results, err := retriever.Retrieve(context.Background(), NewQuestion("what is my total sales"))
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Item.ID != "sales" {
		t.Fatalf("results[0] = %q", results[0].Item.ID)
	}
	if embedder.calls != 1 {
		t.Fatalf("embedder calls = %d, want 1", embedder.calls)
	}
}

func TestRetrieveRetriesEmbeddingOnce(t *testing.T) {
	embedder := &fakeEmbedder{
		vectors: [][]float32{nil, {1, 0}},
		errs:    []error{fmt.Errorf("transient"), nil},
	}
	retriever, err := NewRetriever(embedder, seededStore(t), 1)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	results, err := retriever.Retrieve(context.Background(), NewQuestion("total sales"))
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if embedder.calls != 2 {
		t.Fatalf("embedder calls = %d, want 2", embedder.calls)
	}
}

func TestRetrieveSurfacesEmbeddingErrorAfterRetry(t *testing.T) {
	embedder := &fakeEmbedder{errs: []error{fmt.Errorf("down"), fmt.Errorf("still down")}}
	retriever, err := NewRetriever(embedder, seededStore(t), 1)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	_, err = retriever.Retrieve(context.Background(), NewQuestion("total sales"))
	var embedErr *EmbeddingError
	if !errors.As(err, &embedErr) {
		t.Fatalf("Retrieve() error = %v, want EmbeddingError", err)
	}
	if embedder.calls != 2 {
		t.Fatalf("embedder calls = %d, want 2", embedder.calls)
	}
}

func TestRetrieveTreatsZeroLengthVectorAsError(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float32{{}, {}}}
	retriever, err := NewRetriever(embedder, seededStore(t), 1)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	_, err = retriever.Retrieve(context.Background(), NewQuestion("total sales"))
	var embedErr *EmbeddingError
	if !errors.As(err, &embedErr) {
		t.Fatalf("Retrieve() error = %v, want EmbeddingError", err)
	}
}

func TestRetrievePropagatesEmptyStore(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float32{{1, 0}}}
	retriever, err := NewRetriever(embedder, knowledge.NewStore(), 1)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	_, err = retriever.Retrieve(context.Background(), NewQuestion("total sales"))
	if !errors.Is(err, knowledge.ErrEmptyStore) {
		t.Fatalf("Retrieve() error = %v, want ErrEmptyStore", err)
	}
}

func TestRetrieveRejectsEmptyQuestion(t *testing.T) {
	embedder := &fakeEmbedder{}
	retriever, err := NewRetriever(embedder, seededStore(t), 1)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	if _, err := retriever.Retrieve(context.Background(), NewQuestion("   ")); err == nil {
		t.Fatal("Retrieve() expected error for empty question")
	}
}
