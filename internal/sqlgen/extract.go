package sqlgen

import "strings"

// Extraction is the tagged outcome of pulling a SQL statement out of raw
// model output: either SQL text or the reason none was found.
type Extraction struct {
	SQL    string
	OK     bool
	Reason string
}

// ExtractSQL locates a single SQL statement in a model completion. It tries
// a fenced code block first, then falls back to scanning for the first line
// that starts a SELECT.
func ExtractSQL(completion string) Extraction {
	trimmed := strings.TrimSpace(completion)
	if trimmed == "" {
		return Extraction{Reason: "completion is empty"}
	}

	if fenced, ok := extractFenced(trimmed); ok {
		if fenced == "" {
			return Extraction{Reason: "fenced block is empty"}
		}
		return Extraction{SQL: fenced, OK: true}
	}

	if scanned, ok := extractSelectLines(trimmed); ok {
		return Extraction{SQL: scanned, OK: true}
	}
	return Extraction{Reason: "no SELECT statement found in completion"}
}

func extractFenced(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	if newline := strings.IndexByte(rest, '\n'); newline >= 0 {
		// Drop a language tag such as "sql" on the opening fence line.
		firstLine := strings.TrimSpace(rest[:newline])
		if firstLine == "" || isLanguageTag(firstLine) {
			rest = rest[newline+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

func isLanguageTag(line string) bool {
	switch strings.ToLower(line) {
	case "sql", "postgres", "postgresql":
		return true
	default:
		return false
	}
}

func extractSelectLines(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !startsWithSelect(line) {
			continue
		}
		statement := strings.Join(lines[i:], "\n")
		if semicolon := strings.IndexByte(statement, ';'); semicolon >= 0 {
			statement = statement[:semicolon+1]
		}
		return strings.TrimSpace(statement), true
	}
	return "", false
}

func startsWithSelect(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < len("select") {
		return false
	}
	return strings.EqualFold(trimmed[:len("select")], "select")
}
