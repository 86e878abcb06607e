package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopquery/shopquery/internal/config"
	"github.com/shopquery/shopquery/internal/observability"
	"github.com/shopquery/shopquery/internal/schema"
	"github.com/shopquery/shopquery/internal/sqlgen"
)

// ColumnMeta pairs a result column with the semantic kind the shaper keys
// its decisions on.
type ColumnMeta struct {
	Name string
	Kind schema.ColumnKind
}

// ResultSet is a bounded, fully materialized query result. Truncated is set
// when the warehouse had more rows than the configured cap.
type ResultSet struct {
	Columns   []ColumnMeta
	Rows      [][]any
	Truncated bool
	Duration  time.Duration
}

// InvalidCandidateError is returned when execution is requested for a
// candidate that failed static validation. Nothing reaches the warehouse in
// that case.
type InvalidCandidateError struct {
	Reasons []string
}

func (e *InvalidCandidateError) Error() string {
	return fmt.Sprintf("refusing to execute invalid candidate: %s", strings.Join(e.Reasons, "; "))
}

// ExecutionError wraps an engine failure on a statement that passed
// validation, keeping the engine message for the client.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Executor runs validated SELECT statements against the warehouse under a
// row cap and a per-query timeout.
type Executor struct {
	db           *sql.DB
	catalog      *schema.Catalog
	rowLimit     int
	queryTimeout time.Duration
	browseTables map[string]struct{}
}

func New(db *sql.DB, catalog *schema.Catalog, cfg config.ExecutorConfig) (*Executor, error) {
	if db == nil {
		return nil, errors.New("executor: database handle is required")
	}
	if cfg.RowLimit <= 0 {
		return nil, errors.New("executor: row limit must be positive")
	}
	browse := make(map[string]struct{}, len(cfg.BrowseTables))
	for _, table := range cfg.BrowseTables {
		browse[strings.ToLower(table)] = struct{}{}
	}
	return &Executor{
		db:           db,
		catalog:      catalog,
		rowLimit:     cfg.RowLimit,
		queryTimeout: cfg.QueryTimeout,
		browseTables: browse,
	}, nil
}

// Execute runs a validated candidate. Execution errors are never retried;
// the engine message comes back wrapped so the client can see what failed.
func (e *Executor) Execute(ctx context.Context, candidate sqlgen.Candidate) (ResultSet, error) {
	if !candidate.Valid {
		return ResultSet{}, &InvalidCandidateError{Reasons: candidate.Reasons()}
	}
	result, err := e.run(ctx, candidate.StatementText)
	if err != nil {
		return ResultSet{}, err
	}
	observability.ObserveQuery(len(result.Rows), result.Duration)
	return result, nil
}

// Browse returns a capped sample of a whitelisted table for the raw data
// endpoint. Tables outside the whitelist are refused before any SQL runs.
func (e *Executor) Browse(ctx context.Context, table string) (ResultSet, error) {
	lowered := strings.ToLower(strings.TrimSpace(table))
	if _, ok := e.browseTables[lowered]; !ok {
		return ResultSet{}, fmt.Errorf("table %q is not browsable", table)
	}
	return e.run(ctx, fmt.Sprintf("SELECT * FROM %s", lowered))
}

func (e *Executor) run(ctx context.Context, statement string) (ResultSet, error) {
	if e.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, statement)
	if err != nil {
		return ResultSet{}, &ExecutionError{Err: err}
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return ResultSet{}, &ExecutionError{Err: fmt.Errorf("query columns: %w", err)}
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return ResultSet{}, &ExecutionError{Err: fmt.Errorf("query column types: %w", err)}
	}

	result := ResultSet{Columns: make([]ColumnMeta, len(names))}
	for i, name := range names {
		result.Columns[i] = ColumnMeta{Name: name, Kind: e.columnKind(name, types[i])}
	}

	for rows.Next() {
		if len(result.Rows) == e.rowLimit {
			result.Truncated = true
			break
		}
		values := make([]any, len(names))
		scanTargets := make([]any, len(names))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return ResultSet{}, &ExecutionError{Err: fmt.Errorf("scan row: %w", err)}
		}
		result.Rows = append(result.Rows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return ResultSet{}, &ExecutionError{Err: fmt.Errorf("iterate rows: %w", err)}
	}

	refineKindsFromValues(&result)
	result.Duration = time.Since(start)
	return result, nil
}

// columnKind prefers the catalog's classification when the result column is
// a bare warehouse column, then falls back to the driver's reported type.
// Derived columns with no usable type are refined from sampled values later.
func (e *Executor) columnKind(name string, columnType *sql.ColumnType) schema.ColumnKind {
	if e.catalog != nil {
		for _, table := range e.catalog.Tables() {
			for _, column := range table.Columns {
				if strings.EqualFold(column.Name, name) {
					return column.Kind
				}
			}
		}
	}
	if dbType := columnType.DatabaseTypeName(); dbType != "" {
		return schema.InferKind(dbType, name)
	}
	return schema.KindText
}

// refineKindsFromValues upgrades text-classified columns whose actual values
// are numeric or temporal. Drivers report empty type names for some computed
// expressions.
func refineKindsFromValues(result *ResultSet) {
	for i := range result.Columns {
		if result.Columns[i].Kind != schema.KindText {
			continue
		}
		if kind, ok := sampleKind(result.Rows, i); ok {
			result.Columns[i].Kind = kind
		}
	}
}

func sampleKind(rows [][]any, column int) (schema.ColumnKind, bool) {
	for _, row := range rows {
		if column >= len(row) || row[column] == nil {
			continue
		}
		switch row[column].(type) {
		case int64, int32, int, float64, float32:
			return schema.KindNumeric, true
		case time.Time:
			return schema.KindTemporal, true
		case bool:
			return schema.KindCategorical, true
		default:
			return "", false
		}
	}
	return "", false
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
