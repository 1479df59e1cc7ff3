package extract

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCondition(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain equality condition",
			input:    "city = 'New York'",
			expected: "city = 'New York'",
		},
		{
			name:     "LIKE condition",
			input:    "first_name LIKE 'S%'",
			expected: "first_name LIKE 'S%'",
		},
		{
			name:     "condition buried in prose",
			input:    "Sure! The WHERE condition you need is city = 'NYC' based on the question.",
			expected: "city = 'NYC'",
		},
		{
			name:     "qualified column name",
			input:    "orders.total > 100",
			expected: "orders.total > 100",
		},
		{
			name:     "lowercase like operator",
			input:    "name like 'a%'",
			expected: "name like 'a%'",
		},
		{
			name:     "less-or-equal operator",
			input:    "price <= 10",
			expected: "price <= 10",
		},
		{
			name:     "not-equal operator",
			input:    "status != 'inactive'",
			expected: "status != 'inactive'",
		},
		{
			name:     "line scan fallback strips double quotes",
			input:    "-- filter\nWHERE-ish: \"city\" = NYC or so\n",
			expected: "WHERE-ish: city = NYC or so",
		},
		{
			name:     "short response without operator",
			input:    "  no filter needed  ",
			expected: "no filter needed",
		},
		{
			name:     "long prose without operator yields empty",
			input:    "this response contains a great many words but absolutely no usable condition at all anywhere",
			expected: "",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Condition(tc.input))
		})
	}
}
