package prompt

import (
	"strings"

	"github.com/shopquery/shopquery/internal/knowledge"
	"github.com/shopquery/shopquery/internal/retrieval"
)

// Payload is the fully composed model input. Building it is a pure function
// of its inputs; no model calls happen here.
type Payload struct {
	System   string
	User     string
	Snippets []knowledge.ScoredItem
}

const systemInstructions = `You are a precise assistant that converts user questions into valid PostgreSQL SELECT queries.

Rules:
- Output exactly one SELECT statement and nothing else: no prose, no markdown fences, no comments.
- Reference only the tables and columns listed in the schema below. Do not invent or singularize names.
- Avoid division by zero. Use a WHERE clause or CASE WHEN to prevent it.
- Do not add LIMIT unless the user explicitly asks for it.`

// Compose merges the system contract, schema summary, retrieved snippets in
// descending-similarity order, and the raw question. Snippets are dropped
// lowest-similarity first once their combined length exceeds charBudget.
func Compose(question retrieval.Question, retrieved []knowledge.ScoredItem, schemaSummary string, charBudget int) Payload {
	snippets := truncateSnippets(retrieved, charBudget)

	var user strings.Builder
	user.WriteString("Schema:\n")
	user.WriteString(strings.TrimSpace(schemaSummary))
	user.WriteString("\n")

	if len(snippets) > 0 {
		user.WriteString("\nRelevant context for this question:\n")
		for _, snippet := range snippets {
			user.WriteString("- ")
			user.WriteString(snippet.Item.Text)
			user.WriteString("\n")
		}
	}

	user.WriteString("\nUser question: ")
	user.WriteString(question.RawText)
	user.WriteString("\nSQL query:")

	return Payload{
		System:   systemInstructions,
		User:     user.String(),
		Snippets: snippets,
	}
}

// AmendWithFailure rebuilds the payload with the prior candidate's rejection
// reasons so the model can correct itself. Used for the single amended retry
// after static validation fails.
func AmendWithFailure(payload Payload, failedSQL string, reasons []string) Payload {
	var user strings.Builder
	user.WriteString(payload.User)
	user.WriteString("\n\nYour previous answer was rejected:\n")
	user.WriteString(failedSQL)
	user.WriteString("\nReasons:\n")
	for _, reason := range reasons {
		user.WriteString("- ")
		user.WriteString(reason)
		user.WriteString("\n")
	}
	user.WriteString("Produce a corrected single SELECT statement.")

	amended := payload
	amended.User = user.String()
	return amended
}

func truncateSnippets(retrieved []knowledge.ScoredItem, charBudget int) []knowledge.ScoredItem {
	if charBudget <= 0 {
		return retrieved
	}
	kept := make([]knowledge.ScoredItem, 0, len(retrieved))
	total := 0
	for _, snippet := range retrieved {
		total += len(snippet.Item.Text)
		if total > charBudget {
			break
		}
		kept = append(kept, snippet)
	}
	return kept
}
