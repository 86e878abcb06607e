package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopquery/shopquery/internal/executor"
	"github.com/shopquery/shopquery/internal/knowledge"
	"github.com/shopquery/shopquery/internal/observability"
	"github.com/shopquery/shopquery/internal/prompt"
	"github.com/shopquery/shopquery/internal/retrieval"
	"github.com/shopquery/shopquery/internal/shaper"
	"github.com/shopquery/shopquery/internal/sqlgen"
)

// Outcome labels for the answers metric and for mapping errors onto HTTP
// statuses.
const (
	OutcomeAnswered          = "answered"
	OutcomeBadQuestion       = "bad_question"
	OutcomeEmptyKnowledge    = "empty_knowledge"
	OutcomeEmbeddingFailed   = "embedding_failed"
	OutcomeGenerationFailed  = "generation_failed"
	OutcomeGenerationTimeout = "generation_timeout"
	OutcomeInvalidSQL        = "invalid_sql"
	OutcomeExecutionFailed   = "execution_failed"
)

// Error carries the pipeline stage outcome alongside the underlying cause so
// the API layer can map it to a status code without inspecting stage types.
type Error struct {
	Outcome string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Outcome, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// AnswerPayload is the full response for an answered question: the shaped
// answer plus the SQL and raw result that produced it.
type AnswerPayload struct {
	Question  string             `json:"question"`
	SQL       string             `json:"sql"`
	Answer    shaper.Answer      `json:"answer"`
	Columns   []string           `json:"columns"`
	Rows      [][]any            `json:"rows"`
	RowCount  int                `json:"row_count"`
	Retrieved []RetrievedSnippet `json:"retrieved"`
}

// RetrievedSnippet identifies one context item that grounded the prompt.
type RetrievedSnippet struct {
	ID    string  `json:"id"`
	Kind  string  `json:"kind"`
	Score float32 `json:"score"`
}

// Generator is the SQL-candidate stage contract.
type Generator interface {
	Generate(ctx context.Context, payload prompt.Payload) (sqlgen.Candidate, error)
}

// Runner is the query-execution stage contract.
type Runner interface {
	Execute(ctx context.Context, candidate sqlgen.Candidate) (executor.ResultSet, error)
}

// Pipeline wires retrieval, prompt composition, generation, execution and
// shaping into the single Ask operation.
type Pipeline struct {
	retriever     *retrieval.Retriever
	generator     Generator
	runner        Runner
	shaper        *shaper.Shaper
	schemaSummary string
	charBudget    int
	logger        *slog.Logger
}

func New(retriever *retrieval.Retriever, generator Generator, runner Runner, resultShaper *shaper.Shaper, schemaSummary string, charBudget int, logger *slog.Logger) (*Pipeline, error) {
	if retriever == nil || generator == nil || runner == nil || resultShaper == nil {
		return nil, errors.New("pipeline: all stages are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		retriever:     retriever,
		generator:     generator,
		runner:        runner,
		shaper:        resultShaper,
		schemaSummary: schemaSummary,
		charBudget:    charBudget,
		logger:        logger,
	}, nil
}

// Ask answers a natural-language question. Each request is independent: no
// conversational state survives between calls.
func (p *Pipeline) Ask(ctx context.Context, rawQuestion string) (AnswerPayload, error) {
	observability.IncrementQuestions()

	payload, err := p.ask(ctx, rawQuestion)
	if err != nil {
		var stageErr *Error
		if errors.As(err, &stageErr) {
			observability.ObserveAnswer(stageErr.Outcome)
			p.logger.WarnContext(ctx, "question failed",
				slog.String("outcome", stageErr.Outcome),
				slog.String("error", stageErr.Err.Error()),
			)
		}
		return AnswerPayload{}, err
	}

	observability.ObserveAnswer(OutcomeAnswered)
	return payload, nil
}

func (p *Pipeline) ask(ctx context.Context, rawQuestion string) (AnswerPayload, error) {
	if strings.TrimSpace(rawQuestion) == "" {
		return AnswerPayload{}, &Error{Outcome: OutcomeBadQuestion, Err: errors.New("question is empty")}
	}
	question := retrieval.NewQuestion(rawQuestion)

	retrieved, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		return AnswerPayload{}, classifyRetrievalError(err)
	}

	composed := prompt.Compose(question, retrieved, p.schemaSummary, p.charBudget)

	candidate, err := p.generator.Generate(ctx, composed)
	if err != nil {
		return AnswerPayload{}, classifyGenerationError(err)
	}
	if !candidate.Valid {
		return AnswerPayload{}, &Error{
			Outcome: OutcomeInvalidSQL,
			Err:     fmt.Errorf("generated SQL failed validation: %s", strings.Join(candidate.Reasons(), "; ")),
		}
	}

	p.logger.InfoContext(ctx, "executing generated sql", slog.String("sql", candidate.StatementText))

	result, err := p.runner.Execute(ctx, candidate)
	if err != nil {
		return AnswerPayload{}, &Error{Outcome: OutcomeExecutionFailed, Err: err}
	}

	answer := p.shaper.Shape(result)

	columns := make([]string, len(result.Columns))
	for i, column := range result.Columns {
		columns[i] = column.Name
	}
	snippets := make([]RetrievedSnippet, len(composed.Snippets))
	for i, snippet := range composed.Snippets {
		snippets[i] = RetrievedSnippet{
			ID:    snippet.Item.ID,
			Kind:  string(snippet.Item.Kind),
			Score: snippet.Score,
		}
	}
	return AnswerPayload{
		Question:  question.RawText,
		SQL:       candidate.StatementText,
		Answer:    answer,
		Columns:   columns,
		Rows:      result.Rows,
		RowCount:  len(result.Rows),
		Retrieved: snippets,
	}, nil
}

func classifyRetrievalError(err error) *Error {
	if errors.Is(err, knowledge.ErrEmptyStore) {
		return &Error{Outcome: OutcomeEmptyKnowledge, Err: err}
	}
	var embeddingErr *retrieval.EmbeddingError
	if errors.As(err, &embeddingErr) {
		return &Error{Outcome: OutcomeEmbeddingFailed, Err: err}
	}
	return &Error{Outcome: OutcomeBadQuestion, Err: err}
}

func classifyGenerationError(err error) *Error {
	var timeoutErr *sqlgen.TimeoutError
	if errors.As(err, &timeoutErr) {
		return &Error{Outcome: OutcomeGenerationTimeout, Err: err}
	}
	return &Error{Outcome: OutcomeGenerationFailed, Err: err}
}
