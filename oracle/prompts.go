package oracle

import (
	"fmt"
	"strings"

	askql "github.com/askql/askql"
)

// TableSelectionPrompt asks which tables are relevant to the question. The
// expected answer is a bare comma-separated list of table names.
func TableSelectionPrompt(snapshot *askql.Snapshot, question string) string {
	var builder strings.Builder
	builder.WriteString("Given this database schema:\n")
	builder.WriteString("Available tables: " + strings.Join(snapshot.TableNames(), ", ") + "\n\n")
	builder.WriteString(fmt.Sprintf("User query: %q\n\n", question))
	builder.WriteString("Identify which tables are needed to answer this query.\n")
	builder.WriteString("IMPORTANT: Return ONLY the table names as a comma-separated list, nothing else.\n")
	builder.WriteString("Example: customers,orders\n")
	return builder.String()
}

// ColumnSelectionPrompt asks which columns to project from the candidate
// tables. The expected answer is a bare comma-separated list of column names.
func ColumnSelectionPrompt(snapshot *askql.Snapshot, question string, tables []string) string {
	var builder strings.Builder
	builder.WriteString("Given these tables and their columns:\n")
	for _, name := range tables {
		table, ok := snapshot.Table(name)
		if !ok {
			continue
		}
		builder.WriteString(fmt.Sprintf("%s: %s\n", name, strings.Join(table.ColumnNames(), ", ")))
	}
	builder.WriteString(fmt.Sprintf("\nUser query: %q\n\n", question))
	builder.WriteString("Identify which columns should be selected to answer this query.\n")
	builder.WriteString("IMPORTANT: Return ONLY the column names as a comma-separated list, nothing else.\n")
	builder.WriteString("Example: first_name,last_name\n")
	return builder.String()
}

// ConditionPrompt asks for the question's filtering conditions as a raw SQL
// WHERE fragment, or nothing when the question has no filter.
func ConditionPrompt(question string, tables []string) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Given the user query: %q\n", question))
	builder.WriteString("And these tables: " + strings.Join(tables, ", ") + "\n\n")
	builder.WriteString("Extract any filtering conditions (WHERE clauses) from the query.\n")
	builder.WriteString("IMPORTANT: Return ONLY the SQL WHERE conditions, or empty string if none.\n")
	builder.WriteString("Examples:\n")
	builder.WriteString("- \"orders from January\" -> \"MONTH(order_date) = 1\"\n")
	builder.WriteString("- \"customers from New York\" -> \"city = 'New York'\"\n")
	builder.WriteString("- \"first_name starts with 'S'\" -> \"first_name LIKE 'S%'\"\n")
	return builder.String()
}

// FullQueryPrompt asks for a complete statement in one shot, with the whole
// schema inlined. Used by the single-step pipeline for questions that need
// CTEs, window functions, or multi-hop joins.
func FullQueryPrompt(snapshot *askql.Snapshot, question string) string {
	dialectName := dialectDisplayName(snapshot.DatabaseInfo.Type)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("You are an expert SQL developer for a %s database. Generate a SQL query based on the user's question.\n\n", dialectName))
	builder.WriteString(fmt.Sprintf("User Question: %q\n\n", question))
	builder.WriteString("Database Schema:\n")
	builder.WriteString(SchemaDescription(snapshot))
	builder.WriteString("\n\nRequirements:\n")
	builder.WriteString("1. Return ONLY the SQL query, no explanations\n")
	builder.WriteString("2. ALWAYS consult the schema above before generating SQL\n")
	builder.WriteString("3. If the requested column does not exist in the mentioned table, identify the correct table from the schema and JOIN using the foreign keys\n")
	builder.WriteString("4. Use proper JOIN syntax when multiple tables are needed\n")
	builder.WriteString("5. Support CTEs (WITH clauses) if they make the query clearer\n")
	builder.WriteString("6. Support window functions if needed\n")
	builder.WriteString("7. Use proper table aliases for clarity\n")
	builder.WriteString("8. Use appropriate aggregation functions, and avoid double-counting across joins with COUNT(DISTINCT ...) or an intermediate CTE\n")
	builder.WriteString("9. Start with a SELECT or WITH statement\n")
	builder.WriteString("10. Do not add a semicolon at the end\n")
	builder.WriteString(fmt.Sprintf("11. Use %s syntax\n\n", dialectName))
	builder.WriteString("Do NOT assume a column exists in a table if the schema does not list it; derive JOINs from the foreign key relationships instead.\n\n")
	builder.WriteString("SQL Query:")
	return builder.String()
}

// SchemaDescription renders the snapshot as plain text for prompt inlining.
func SchemaDescription(snapshot *askql.Snapshot) string {
	var blocks []string

	for _, table := range snapshot.Tables {
		var lines []string
		lines = append(lines, "Table: "+table.Name)

		for _, column := range table.Columns {
			nullable := "NOT NULL"
			if column.Nullable {
				nullable = "NULL"
			}
			pk := ""
			if column.IsPrimaryKey {
				pk = " (PK)"
			}
			lines = append(lines, fmt.Sprintf("  - %s: %s %s%s", column.Name, column.DataType, nullable, pk))
		}

		if len(table.ForeignKeys) > 0 {
			lines = append(lines, "  Foreign Keys:")
			for _, fk := range table.ForeignKeys {
				lines = append(lines, fmt.Sprintf("    - %s -> %s.%s", fk.FromColumn, fk.ToTable, fk.ToColumn))
			}
		}

		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	return strings.Join(blocks, "\n\n")
}

func dialectDisplayName(databaseType string) string {
	switch databaseType {
	case "mysql":
		return "MySQL"
	case "postgres", "postgresql":
		return "PostgreSQL"
	case "sqlite":
		return "SQLite"
	default:
		return "SQL"
	}
}
