package sqlgen

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/shopquery/shopquery/internal/llm"
	"github.com/shopquery/shopquery/internal/observability"
	"github.com/shopquery/shopquery/internal/prompt"
	"github.com/shopquery/shopquery/internal/schema"
)

// ServiceError wraps a completion request that failed after the transport
// retry was exhausted.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("sql generation failed: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// TimeoutError wraps a completion request that exceeded its deadline.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("sql generation timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Generator turns a composed prompt into a validated SQL candidate. A failed
// validation earns exactly one amended retry; the second candidate is
// returned as-is, valid or not.
type Generator struct {
	client      llm.CompletionClient
	catalog     *schema.Catalog
	temperature float64
}

func NewGenerator(client llm.CompletionClient, catalog *schema.Catalog, temperature float64) (*Generator, error) {
	if client == nil {
		return nil, errors.New("sqlgen: completion client is required")
	}
	if catalog == nil {
		return nil, errors.New("sqlgen: schema catalog is required")
	}
	return &Generator{client: client, catalog: catalog, temperature: temperature}, nil
}

// Generate produces a candidate for the payload. Transport failures are
// retried once with identical input before being surfaced as a ServiceError
// or TimeoutError.
func (g *Generator) Generate(ctx context.Context, payload prompt.Payload) (Candidate, error) {
	candidate, err := g.attempt(ctx, payload)
	if err != nil {
		return Candidate{}, err
	}
	if candidate.Valid {
		return candidate, nil
	}

	for _, violation := range candidate.Violations {
		observability.ObserveValidationFailure(violation.Rule)
	}

	amended := prompt.AmendWithFailure(payload, candidate.StatementText, candidate.Reasons())
	retried, err := g.attempt(ctx, amended)
	if err != nil {
		return Candidate{}, err
	}
	if !retried.Valid {
		for _, violation := range retried.Violations {
			observability.ObserveValidationFailure(violation.Rule)
		}
	}
	return retried, nil
}

func (g *Generator) attempt(ctx context.Context, payload prompt.Payload) (Candidate, error) {
	completion, err := g.complete(ctx, payload)
	if err != nil {
		return Candidate{}, err
	}

	extraction := ExtractSQL(completion)
	if !extraction.OK {
		return Candidate{
			StatementText: completion,
			Violations: []Violation{{
				Rule:    RuleUnparseable,
				Message: extraction.Reason,
			}},
		}, nil
	}
	return Validate(extraction.SQL, g.catalog), nil
}

func (g *Generator) complete(ctx context.Context, payload prompt.Payload) (string, error) {
	request := llm.CompletionRequest{
		System:      payload.System,
		User:        payload.User,
		Temperature: g.temperature,
	}
	completion, err := g.client.Complete(ctx, request)
	if err == nil {
		return completion, nil
	}
	if ctx.Err() != nil {
		return "", classifyCompletionError(err)
	}

	observability.IncrementGenerationRetry()
	completion, retryErr := g.client.Complete(ctx, request)
	if retryErr == nil {
		return completion, nil
	}
	return "", classifyCompletionError(retryErr)
}

func classifyCompletionError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Err: err}
	}
	return &ServiceError{Err: err}
}
