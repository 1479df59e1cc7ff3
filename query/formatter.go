package query

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pterm/pterm"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	FormatTable    OutputFormat = "table"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatYAML     OutputFormat = "yaml"
	FormatMarkdown OutputFormat = "markdown"
)

// IsValidOutputFormat checks if the output format is valid
func IsValidOutputFormat(format string) bool {
	f := OutputFormat(strings.ToLower(format))
	return f == FormatTable || f == FormatJSON || f == FormatCSV || f == FormatYAML || f == FormatMarkdown
}

// Formatter renders query results in one output format.
type Formatter struct {
	format OutputFormat
}

// NewFormatter creates a result formatter.
func NewFormatter(format OutputFormat) *Formatter {
	return &Formatter{format: format}
}

// Write renders the result to output.
func (f *Formatter) Write(result *Result, output io.Writer) error {
	switch f.format {
	case FormatTable:
		return f.writeTable(result, output)
	case FormatJSON:
		return f.writeJSON(result, output)
	case FormatCSV:
		return f.writeCSV(result, output)
	case FormatYAML:
		return f.writeYAML(result, output)
	case FormatMarkdown:
		return f.writeMarkdown(result, output)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOutputFormat, f.format)
	}
}

func (f *Formatter) writeTable(result *Result, output io.Writer) error {
	if len(result.Rows) == 0 {
		fmt.Fprintln(output, "No results")
		return nil
	}

	tableData := pterm.TableData{result.Columns}
	for _, row := range result.Rows {
		tableData = append(tableData, recordToStrings(result.Columns, row))
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	fmt.Fprintln(output, rendered)
	fmt.Fprintf(output, "%d rows (%v)\n", result.Count, result.Duration)
	return nil
}

func (f *Formatter) writeMarkdown(result *Result, output io.Writer) error {
	if len(result.Rows) == 0 {
		fmt.Fprintln(output, "No results")
		return nil
	}

	var builder strings.Builder
	builder.WriteString("| " + strings.Join(result.Columns, " | ") + " |\n")

	separators := make([]string, len(result.Columns))
	for i := range separators {
		separators[i] = "---"
	}
	builder.WriteString("| " + strings.Join(separators, " | ") + " |\n")

	for _, row := range result.Rows {
		builder.WriteString("| " + strings.Join(recordToStrings(result.Columns, row), " | ") + " |\n")
	}

	_, err := fmt.Fprint(output, builder.String())
	return err
}

func (f *Formatter) writeJSON(result *Result, output io.Writer) error {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]any{
		"data":     result.Rows,
		"count":    result.Count,
		"duration": result.Duration.String(),
	})
}

func (f *Formatter) writeCSV(result *Result, output io.Writer) error {
	writer := csv.NewWriter(output)
	defer writer.Flush()

	if err := writer.Write(result.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range result.Rows {
		if err := writer.Write(recordToStrings(result.Columns, row)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}

func (f *Formatter) writeYAML(result *Result, output io.Writer) error {
	data, err := yaml.Marshal(map[string]any{
		"data":     result.Rows,
		"count":    result.Count,
		"duration": result.Duration.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal results to YAML: %w", err)
	}

	_, err = output.Write(data)
	return err
}

// recordToStrings orders a record's values by the result's column order.
func recordToStrings(columns []string, record map[string]any) []string {
	values := make([]string, len(columns))
	for i, column := range columns {
		values[i] = formatValue(record[column])
	}
	return values
}

// formatValue formats a single cell value as a string.
func formatValue(val any) string {
	if val == nil {
		return "NULL"
	}

	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return fmt.Sprintf("%t", v)
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}
