package shaper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopquery/shopquery/internal/executor"
	"github.com/shopquery/shopquery/internal/observability"
	"github.com/shopquery/shopquery/internal/schema"
)

type ChartType string

const (
	ChartLine    ChartType = "line"
	ChartBar     ChartType = "bar"
	ChartTreemap ChartType = "treemap"
	ChartScatter ChartType = "scatter"
)

// ChartSpec names the visualization and the columns to put on each axis.
type ChartSpec struct {
	Type ChartType `json:"type"`
	X    string    `json:"x"`
	Y    string    `json:"y"`
}

// Answer is the shaped response for a result set: a sentence, optionally a
// chart, and the truncation note when the row cap was hit.
type Answer struct {
	Text      string     `json:"text"`
	Chart     *ChartSpec `json:"chart,omitempty"`
	Truncated bool       `json:"truncated"`
}

// Shaper turns materialized result sets into user-facing answers. Its rules
// are a fixed decision table over column kinds and row shape.
type Shaper struct {
	maxBarCategories int
}

func New(maxBarCategories int) *Shaper {
	if maxBarCategories <= 0 {
		maxBarCategories = 8
	}
	return &Shaper{maxBarCategories: maxBarCategories}
}

// Shape classifies the result. Single-cell results become a scalar sentence;
// larger results pick the first matching chart rule, temporal before
// categorical; anything unmatched falls back to a plain table answer.
func (s *Shaper) Shape(result executor.ResultSet) Answer {
	answer := s.shape(result)
	answer.Truncated = result.Truncated
	if answer.Chart != nil {
		observability.ObserveChartSpec(string(answer.Chart.Type))
	}
	return answer
}

func (s *Shaper) shape(result executor.ResultSet) Answer {
	if len(result.Rows) == 0 {
		return Answer{Text: "The query returned no data."}
	}

	if len(result.Rows) == 1 && len(result.Columns) == 1 {
		return Answer{Text: scalarSentence(result.Columns[0].Name, result.Rows[0][0])}
	}

	if chart := s.pickChart(result); chart != nil {
		return Answer{
			Text:  fmt.Sprintf("Returned %d rows; see the %s chart.", len(result.Rows), chart.Type),
			Chart: chart,
		}
	}
	return Answer{Text: fmt.Sprintf("Returned %d rows; see table.", len(result.Rows))}
}

// pickChart walks the decision table in priority order. The first rule whose
// axes exist wins.
func (s *Shaper) pickChart(result executor.ResultSet) *ChartSpec {
	temporal := findColumn(result, schema.KindTemporal)
	numeric := findColumn(result, schema.KindNumeric)
	categorical := findCategorical(result)

	switch {
	case temporal >= 0 && numeric >= 0:
		return &ChartSpec{Type: ChartLine, X: result.Columns[temporal].Name, Y: result.Columns[numeric].Name}

	case categorical >= 0 && numeric >= 0:
		chart := ChartBar
		if distinctValues(result.Rows, categorical) > s.maxBarCategories {
			chart = ChartTreemap
		}
		return &ChartSpec{Type: chart, X: result.Columns[categorical].Name, Y: result.Columns[numeric].Name}

	case numeric >= 0:
		if second := findColumnAfter(result, schema.KindNumeric, numeric); second >= 0 {
			return &ChartSpec{Type: ChartScatter, X: result.Columns[numeric].Name, Y: result.Columns[second].Name}
		}
	}
	return nil
}

func findColumn(result executor.ResultSet, kind schema.ColumnKind) int {
	return findColumnAfter(result, kind, -1)
}

func findColumnAfter(result executor.ResultSet, kind schema.ColumnKind, after int) int {
	for i := after + 1; i < len(result.Columns); i++ {
		if result.Columns[i].Kind == kind {
			return i
		}
	}
	return -1
}

// findCategorical treats text columns as categorical for charting; the
// distinction only matters inside the prompt composer.
func findCategorical(result executor.ResultSet) int {
	for i, column := range result.Columns {
		if column.Kind == schema.KindCategorical || column.Kind == schema.KindText {
			return i
		}
	}
	return -1
}

func distinctValues(rows [][]any, column int) int {
	seen := map[string]struct{}{}
	for _, row := range rows {
		if column >= len(row) {
			continue
		}
		seen[fmt.Sprint(row[column])] = struct{}{}
	}
	return len(seen)
}

// scalarSentence renders a one-cell result as a sentence, naming the metric
// after the result column.
func scalarSentence(columnName string, value any) string {
	metric := strings.ReplaceAll(strings.ToLower(columnName), "_", " ")
	return fmt.Sprintf("Your %s is %s.", metric, formatValue(value))
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "not available"
	case float64:
		return strconv.FormatFloat(typed, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', 2, 32)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case int:
		return strconv.Itoa(typed)
	case time.Time:
		return typed.Format("2006-01-02")
	case string:
		if parsed, err := strconv.ParseFloat(typed, 64); err == nil && strings.Contains(typed, ".") {
			return strconv.FormatFloat(parsed, 'f', 2, 64)
		}
		return typed
	default:
		return fmt.Sprint(typed)
	}
}
