package knowledge

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrEmptyStore is returned by Search when no items have been ingested.
var ErrEmptyStore = errors.New("knowledge store is empty")

// Store holds the embedded knowledge base in memory. It is populated once at
// startup and immutable afterwards, so concurrent Search calls need no
// locking.
type Store struct {
	items     []ContextItem
	dimension int
}

func NewStore() *Store {
	return &Store{}
}

// Ingest adds items to the store, normalizing each embedding so Search can
// use the inner product as cosine similarity. All embeddings must share one
// dimension.
func (s *Store) Ingest(items []ContextItem) error {
	for _, item := range items {
		if len(item.Embedding) == 0 {
			return fmt.Errorf("context item %q has an empty embedding", item.ID)
		}
		if s.dimension == 0 {
			s.dimension = len(item.Embedding)
		}
		if len(item.Embedding) != s.dimension {
			return fmt.Errorf("context item %q has dimension %d, store has %d", item.ID, len(item.Embedding), s.dimension)
		}
		stored := item
		stored.Embedding = normalize(item.Embedding)
		s.items = append(s.items, stored)
	}
	return nil
}

func (s *Store) Len() int {
	return len(s.items)
}

// Search returns the top-k items by descending cosine similarity to the
// query embedding. Ties keep insertion order.
func (s *Store) Search(queryEmbedding []float32, k int) ([]ScoredItem, error) {
	if len(s.items) == 0 {
		return nil, ErrEmptyStore
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(queryEmbedding) != s.dimension {
		return nil, fmt.Errorf("query embedding has dimension %d, store has %d", len(queryEmbedding), s.dimension)
	}

	query := normalize(queryEmbedding)
	scored := make([]ScoredItem, 0, len(s.items))
	for _, item := range s.items {
		scored = append(scored, ScoredItem{Item: item, Score: dot(query, item.Embedding)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func normalize(vector []float32) []float32 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return append([]float32(nil), vector...)
	}
	normalized := make([]float32, len(vector))
	for i, v := range vector {
		normalized[i] = float32(float64(v) / norm)
	}
	return normalized
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
