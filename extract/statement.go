package extract

import (
	"regexp"
	"strings"
)

var (
	// fenceDelimRe strips markdown code-fence delimiters in place.
	fenceDelimRe = regexp.MustCompile("```sql\n?|```\n?")
	// fencedBlockRe captures the contents of the first fenced code block.
	fencedBlockRe = regexp.MustCompile("(?is)```(?:sql)?\\s*\n?(.*?)\n?```")
	// statementRe greedily captures from the first SELECT or WITH to end-of-text.
	statementRe = regexp.MustCompile(`(?is)(SELECT\s+.+|WITH\s+.+)`)
	// whitespaceRe collapses internal whitespace runs.
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// continuationKeywords mark a line as continuing an SQL statement.
var continuationKeywords = []string{
	"FROM", "WHERE", "GROUP", "ORDER", "HAVING", "LIMIT", "AS", "AND", "OR",
}

// Statement extracts a single SQL statement from an oracle response.
// The search order is fixed: strip code fences and accept text that already
// starts with SELECT; otherwise take the first fenced block's contents; then
// collect a SELECT line plus its continuations; then greedily capture from the
// first SELECT or WITH; and as a last resort return the trimmed input
// unchanged. The final fallback means malformed oracle output degrades to
// non-SQL text, which the validator has to catch.
func Statement(raw string) string {
	stripped := strings.TrimSpace(fenceDelimRe.ReplaceAllString(raw, ""))

	var sql string

	switch {
	case hasStatementPrefix(stripped):
		sql = stripped
	default:
		sql = extractFromProse(raw, stripped)
	}

	return normalize(sql)
}

// extractFromProse digs a statement out of a response that mixes prose and SQL.
func extractFromProse(raw, stripped string) string {
	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}

	if joined := collectStatementLines(stripped); joined != "" {
		return joined
	}

	if m := statementRe.FindStringSubmatch(stripped); m != nil {
		return strings.TrimSpace(m[1])
	}

	return stripped
}

// collectStatementLines finds the first line starting with SELECT and appends
// following lines for as long as they still look like SQL. The continuation
// test is heuristic by construction: keyword presence, a trailing comma on
// either line, a leading AND/OR, or a leading parenthesis. The first blank or
// prose line ends the statement.
func collectStatementLines(text string) string {
	var (
		lines       []string
		foundSelect bool
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if !foundSelect {
			if line == "" {
				continue
			}
			if strings.HasPrefix(strings.ToUpper(line), "SELECT") {
				foundSelect = true
				lines = append(lines, line)
			}
			continue
		}

		if line == "" {
			break
		}
		if continuesStatement(line, lines[len(lines)-1]) {
			lines = append(lines, line)
			continue
		}
		break
	}

	return strings.Join(lines, " ")
}

// continuesStatement reports whether line continues the SQL statement whose
// last collected line is prev.
func continuesStatement(line, prev string) bool {
	upper := strings.ToUpper(line)
	for _, kw := range continuationKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}

	return strings.HasSuffix(line, ",") ||
		strings.HasPrefix(line, "(") ||
		strings.HasSuffix(prev, ",")
}

// hasStatementPrefix reports whether the text starts with SELECT or WITH.
func hasStatementPrefix(text string) bool {
	upper := strings.ToUpper(text)
	return strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH")
}

// normalize collapses whitespace and strips statement terminators along with
// the curly quotes some models emit in place of straight ones.
func normalize(sql string) string {
	sql = whitespaceRe.ReplaceAllString(sql, " ")
	sql = strings.TrimSpace(sql)
	sql = strings.TrimSuffix(sql, ";")
	sql = strings.TrimSuffix(sql, "]")
	sql = strings.NewReplacer("‘", "'", "’", "'").Replace(sql)

	return strings.TrimSpace(sql)
}
