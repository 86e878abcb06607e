package knowledge

// Kind classifies a context item within the knowledge base.
type Kind string

const (
	KindSchema       Kind = "schema"
	KindColumn       Kind = "column"
	KindExampleQuery Kind = "example_query"
	KindMetric       Kind = "metric"
)

// ContextItem is one embedded fragment of the knowledge base. Items are
// created during the offline build and never mutated afterwards.
type ContextItem struct {
	ID        string
	Kind      Kind
	Text      string
	Embedding []float32
}

// ScoredItem pairs a context item with its similarity to a query embedding.
type ScoredItem struct {
	Item  ContextItem
	Score float32
}

func IsValidKind(kind Kind) bool {
	switch kind {
	case KindSchema, KindColumn, KindExampleQuery, KindMetric:
		return true
	default:
		return false
	}
}
