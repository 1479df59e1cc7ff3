// Package validate runs the fail-closed check ladder over candidate SQL:
// cheap lexical safety rules first, structural syntax rules second, and the
// snapshot-backed semantic cross-check last. Checks short-circuit on the
// first failure and never execute the candidate statement.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	askql "github.com/askql/askql"
)

// deniedKeywords is the fixed denylist of mutating operations. Matching is a
// plain substring test on the uppercased input, not a token scan, so a string
// literal containing 'DROP' also trips it. That false positive is a known
// limitation kept on purpose.
var deniedKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "CREATE", "ALTER", "TRUNCATE", "EXEC", "EXECUTE",
}

var (
	tableRefRe  = regexp.MustCompile(`(?i)FROM\s+(\w+)|JOIN\s+(\w+)|(\w+)\.`)
	columnRefRe = regexp.MustCompile(`(\w+)\.(\w+)`)
)

// Validator applies the ordered checks. A nil snapshot disables the semantic
// layer, leaving only the deterministic text checks.
type Validator struct {
	snapshot *askql.Snapshot
}

// New creates a validator. Pass nil to skip the semantic cross-check.
func New(snapshot *askql.Snapshot) *Validator {
	return &Validator{snapshot: snapshot}
}

// Validate runs all checks in cost order and returns pass/fail plus a
// human-readable reason for the first failure.
func (v *Validator) Validate(sql string) (bool, string) {
	if ok, reason := Lexical(sql); !ok {
		return false, reason
	}
	if ok, reason := Structural(sql); !ok {
		return false, reason
	}
	if v.snapshot != nil {
		if ok, reason := v.Semantic(sql); !ok {
			return false, reason
		}
	}

	return true, "SQL appears valid"
}

// Lexical rejects mutating keywords, multiple statements, and anything that
// is not a SELECT or WITH statement.
func Lexical(sql string) (bool, string) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return false, "empty SQL statement"
	}

	upper := strings.ToUpper(trimmed)

	for _, keyword := range deniedKeywords {
		if strings.Contains(upper, keyword) {
			return false, fmt.Sprintf("potentially dangerous SQL operation detected: %s", keyword)
		}
	}

	if strings.Contains(trimmed, ";") {
		return false, "multiple statements not allowed: semicolon found"
	}

	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return false, "statement must start with SELECT or WITH"
	}

	return true, ""
}

// Structural checks clause presence, parenthesis balance, and the WHERE
// case-consistency heuristic. The heuristic flags an uppercase WHERE that has
// no literal-case occurrence; it is crude and acknowledged as unreliable, but
// kept to match the pipeline's established behavior.
func Structural(sql string) (bool, string) {
	upper := strings.ToUpper(sql)

	for _, clause := range []string{"SELECT", "FROM"} {
		if !strings.Contains(upper, clause) {
			return false, fmt.Sprintf("missing required clause: %s", clause)
		}
	}

	if strings.Count(sql, "(") != strings.Count(sql, ")") {
		return false, "mismatched parentheses"
	}

	if strings.Contains(upper, "WHERE") && !strings.Contains(sql, "WHERE") {
		return false, "invalid WHERE clause"
	}

	return true, ""
}

// Semantic cross-checks every referenced table and table.column pair against
// the schema snapshot.
func (v *Validator) Semantic(sql string) (bool, string) {
	for _, match := range tableRefRe.FindAllStringSubmatch(sql, -1) {
		for _, table := range match[1:] {
			if table == "" {
				continue
			}
			if !v.snapshot.HasTable(table) {
				return false, fmt.Sprintf("table '%s' not found in schema", table)
			}
		}
	}

	for _, match := range columnRefRe.FindAllStringSubmatch(sql, -1) {
		table, column := match[1], match[2]
		if v.snapshot.HasTable(table) && !v.snapshot.HasColumn(table, column) {
			return false, fmt.Sprintf("column '%s' not found in table '%s'", column, table)
		}
	}

	return true, ""
}
