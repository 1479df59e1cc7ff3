// Package extract pulls SQL statements and WHERE-condition fragments out of
// raw oracle responses. All logic here is purely lexical: there is no SQL
// grammar, only pattern matching over the text the model happened to produce.
package extract

import (
	"regexp"
	"strings"
)

// conditionRe matches `identifier comparison-operator value`, the shape of a
// single WHERE condition such as `city = 'NYC'` or `first_name LIKE 'S%'`.
var conditionRe = regexp.MustCompile(`(?i)([\w.]+\s+(LIKE|<=|>=|!=|=|>|<)\s+'?[^'\n\r]+'?)`)

// conditionOps is the operator set used by the line-scan fallback.
var conditionOps = []string{"LIKE", "=", ">", "<", "!="}

// maxShortResponseTokens bounds the whole-response fallback: anything with
// this many whitespace-separated tokens or more is treated as prose.
const maxShortResponseTokens = 10

// Condition extracts the first plausible WHERE condition from an oracle
// response. It returns the first `identifier op value` match verbatim, then
// falls back to the first line containing a comparison operator, then to the
// whole response when it is short, and finally to the empty string.
func Condition(raw string) string {
	if m := conditionRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		for _, op := range conditionOps {
			if strings.Contains(line, op) {
				return strings.ReplaceAll(line, `"`, "")
			}
		}
	}

	if len(strings.Fields(raw)) < maxShortResponseTokens {
		return strings.ReplaceAll(strings.TrimSpace(raw), `"`, "")
	}

	return ""
}
