package sqlgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopquery/shopquery/internal/schema"
)

// Validation rule names, used both in violation records and as metric labels.
const (
	RuleMultipleStatements = "multiple_statements"
	RuleNotSelect          = "not_select"
	RuleForbiddenKeyword   = "forbidden_keyword"
	RuleUnknownIdentifier  = "unknown_identifier"
	RuleUnparseable        = "unparseable"
)

// Violation records a single failed validation rule with a human-readable
// message suitable for an amended prompt.
type Violation struct {
	Rule    string
	Message string
}

// Candidate is a generated SQL statement together with its validation
// verdict. An invalid candidate is never executed.
type Candidate struct {
	StatementText string
	Valid         bool
	Violations    []Violation
}

// Reasons returns the violation messages in order.
func (c Candidate) Reasons() []string {
	reasons := make([]string, 0, len(c.Violations))
	for _, violation := range c.Violations {
		reasons = append(reasons, violation.Message)
	}
	return reasons
}

var forbiddenKeywordPattern = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate)\b`)

// Validate applies the static safety checks to a statement: exactly one
// statement, SELECT only, no write or DDL keywords anywhere, and every
// referenced identifier known to the catalog.
func Validate(statement string, catalog *schema.Catalog) Candidate {
	candidate := Candidate{StatementText: strings.TrimSpace(statement)}
	if candidate.StatementText == "" {
		candidate.Violations = append(candidate.Violations, Violation{
			Rule:    RuleUnparseable,
			Message: "statement is empty",
		})
		return candidate
	}

	stripped := stripStringLiterals(candidate.StatementText)

	if body := strings.TrimRight(stripped, "; \t\n"); strings.ContainsRune(body, ';') {
		candidate.Violations = append(candidate.Violations, Violation{
			Rule:    RuleMultipleStatements,
			Message: "statement must be a single SQL statement",
		})
	}

	if !strings.EqualFold(firstWord(stripped), "select") {
		candidate.Violations = append(candidate.Violations, Violation{
			Rule:    RuleNotSelect,
			Message: "only SELECT statements are allowed",
		})
	}

	for _, keyword := range forbiddenKeywordPattern.FindAllString(stripped, -1) {
		candidate.Violations = append(candidate.Violations, Violation{
			Rule:    RuleForbiddenKeyword,
			Message: fmt.Sprintf("forbidden keyword %q is not allowed", strings.ToUpper(keyword)),
		})
	}

	if catalog != nil {
		for _, ident := range unknownIdentifiers(stripped, catalog) {
			candidate.Violations = append(candidate.Violations, Violation{
				Rule:    RuleUnknownIdentifier,
				Message: fmt.Sprintf("identifier %q does not exist in the schema", ident),
			})
		}
	}

	candidate.Valid = len(candidate.Violations) == 0
	return candidate
}

// stripStringLiterals blanks out single-quoted literals so that keyword and
// semicolon scans never trip on quoted data.
func stripStringLiterals(statement string) string {
	var builder strings.Builder
	builder.Grow(len(statement))
	inString := false
	for i := 0; i < len(statement); i++ {
		ch := statement[i]
		if ch == '\'' {
			if inString && i+1 < len(statement) && statement[i+1] == '\'' {
				i++
				continue
			}
			inString = !inString
			builder.WriteByte(' ')
			continue
		}
		if inString {
			builder.WriteByte(' ')
			continue
		}
		builder.WriteByte(ch)
	}
	return builder.String()
}

func firstWord(statement string) string {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// sqlVocabulary lists keywords and the functions the generator is allowed to
// emit. Tokens in this set are never treated as schema identifiers.
var sqlVocabulary = map[string]struct{}{
	"select": {}, "from": {}, "where": {}, "group": {}, "by": {}, "order": {},
	"having": {}, "as": {}, "and": {}, "or": {}, "not": {}, "on": {},
	"join": {}, "inner": {}, "left": {}, "right": {}, "full": {}, "outer": {},
	"cross": {}, "limit": {}, "offset": {}, "distinct": {}, "case": {},
	"when": {}, "then": {}, "else": {}, "end": {}, "between": {}, "in": {},
	"is": {}, "null": {}, "like": {}, "ilike": {}, "asc": {}, "desc": {},
	"union": {}, "all": {}, "with": {}, "exists": {}, "true": {}, "false": {},
	"count": {}, "sum": {}, "avg": {}, "min": {}, "max": {}, "round": {},
	"abs": {}, "coalesce": {}, "nullif": {}, "cast": {}, "extract": {},
	"date_trunc": {}, "to_char": {}, "current_date": {}, "interval": {},
	"filter": {}, "over": {}, "partition": {}, "numeric": {}, "integer": {},
	"float": {}, "double": {}, "precision": {}, "text": {}, "varchar": {},
	"date": {}, "timestamp": {}, "boolean": {}, "lower": {}, "upper": {},
	"year": {}, "month": {}, "day": {}, "nulls": {}, "first": {}, "last": {},
}

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_.]*`)

// unknownIdentifiers tokenizes the statement and reports every bare
// identifier that is neither SQL vocabulary, a known table or column, nor an
// alias introduced by the statement itself.
func unknownIdentifiers(statement string, catalog *schema.Catalog) []string {
	tokens := identifierPattern.FindAllString(statement, -1)

	aliases := map[string]struct{}{}
	for i, token := range tokens {
		lower := strings.ToLower(token)
		if i == 0 {
			continue
		}
		previous := strings.ToLower(tokens[i-1])
		// "AS name" defines an alias; "FROM table name" does too.
		if previous == "as" || catalog.KnownIdentifier(baseName(previous)) && tableLike(previous, catalog) {
			if _, reserved := sqlVocabulary[lower]; !reserved {
				aliases[lower] = struct{}{}
			}
		}
	}

	var unknown []string
	seen := map[string]struct{}{}
	for _, token := range tokens {
		lower := strings.ToLower(token)
		if _, reserved := sqlVocabulary[lower]; reserved {
			continue
		}
		if _, aliased := aliases[lower]; aliased {
			continue
		}
		if identifierKnown(lower, catalog, aliases) {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		unknown = append(unknown, token)
	}
	return unknown
}

// identifierKnown resolves plain and alias-qualified names against the
// catalog. "s.total_sales" is known when the alias "s" is defined and
// "total_sales" is a real column.
func identifierKnown(lower string, catalog *schema.Catalog, aliases map[string]struct{}) bool {
	if catalog.KnownIdentifier(lower) {
		return true
	}
	qualifier, base, qualified := strings.Cut(lower, ".")
	if !qualified {
		return false
	}
	if !catalog.KnownIdentifier(base) {
		return false
	}
	if catalog.KnownIdentifier(qualifier) {
		return true
	}
	_, aliased := aliases[qualifier]
	return aliased
}

func tableLike(lower string, catalog *schema.Catalog) bool {
	return catalog.HasTable(baseName(lower))
}

func baseName(lower string) string {
	if dot := strings.LastIndexByte(lower, '.'); dot >= 0 {
		return lower[dot+1:]
	}
	return lower
}
