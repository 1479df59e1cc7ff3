// Package viz renders query results as terminal charts. Chart selection
// follows the shape of the data: numeric columns drive bar charts and
// histograms, low-cardinality string columns count as categories.
package viz

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/pterm/pterm"
)

var (
	ErrNoData          = errors.New("no data to visualize")
	ErrColumnNotFound  = errors.New("column not found in results")
	ErrNoNumericColumn = errors.New("no numeric column in results")
)

// Low-cardinality threshold for treating a string column as categorical.
const categoricalLimit = 20

// Analysis describes the shape of a result set.
type Analysis struct {
	RowCount           int
	Columns            []string
	NumericColumns     []string
	CategoricalColumns []string
	TextColumns        []string
	Recommended        []string
}

// Analyze classifies the columns of a result set.
func Analyze(rows []map[string]any) *Analysis {
	analysis := &Analysis{RowCount: len(rows)}
	if len(rows) == 0 {
		return analysis
	}

	for column := range rows[0] {
		analysis.Columns = append(analysis.Columns, column)
	}
	sort.Strings(analysis.Columns)

	for _, column := range analysis.Columns {
		switch {
		case isNumericColumn(rows, column):
			analysis.NumericColumns = append(analysis.NumericColumns, column)
		case distinctStrings(rows, column) <= categoricalLimit:
			analysis.CategoricalColumns = append(analysis.CategoricalColumns, column)
		default:
			analysis.TextColumns = append(analysis.TextColumns, column)
		}
	}

	if len(analysis.NumericColumns) >= 1 && len(analysis.CategoricalColumns) >= 1 {
		analysis.Recommended = append(analysis.Recommended, "bar")
	}
	if len(analysis.CategoricalColumns) >= 1 {
		analysis.Recommended = append(analysis.Recommended, "counts")
	}
	if len(analysis.NumericColumns) >= 1 {
		analysis.Recommended = append(analysis.Recommended, "hist", "stats")
	}

	return analysis
}

// Renderer draws charts to one writer.
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Auto picks the best chart for the data and renders it.
func (r *Renderer) Auto(rows []map[string]any) error {
	analysis := Analyze(rows)
	if analysis.RowCount == 0 {
		return ErrNoData
	}

	switch {
	case len(analysis.NumericColumns) >= 1 && len(analysis.CategoricalColumns) >= 1:
		return r.BarChart(rows, analysis.CategoricalColumns[0], analysis.NumericColumns[0])
	case len(analysis.NumericColumns) >= 1:
		return r.Histogram(rows, analysis.NumericColumns[0], 10)
	case len(analysis.CategoricalColumns) >= 1:
		return r.CategoryCounts(rows, analysis.CategoricalColumns[0])
	default:
		return r.Summary(rows)
	}
}

// BarChart groups rows by labelColumn, sums valueColumn per group, and draws
// one bar per group.
func (r *Renderer) BarChart(rows []map[string]any, labelColumn, valueColumn string) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	if !hasColumn(rows, labelColumn) || !hasColumn(rows, valueColumn) {
		return fmt.Errorf("%w: %s, %s", ErrColumnNotFound, labelColumn, valueColumn)
	}

	sums := map[string]float64{}
	var order []string
	for _, row := range rows {
		label := fmt.Sprintf("%v", row[labelColumn])
		value, ok := toFloat(row[valueColumn])
		if !ok {
			continue
		}
		if _, seen := sums[label]; !seen {
			order = append(order, label)
		}
		sums[label] += value
	}

	bars := make([]pterm.Bar, 0, len(order))
	for _, label := range order {
		bars = append(bars, pterm.Bar{Label: label, Value: int(math.Round(sums[label]))})
	}

	return r.renderBars(bars, fmt.Sprintf("%s by %s", valueColumn, labelColumn))
}

// Histogram buckets a numeric column into bins equal-width ranges.
func (r *Renderer) Histogram(rows []map[string]any, column string, bins int) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	if bins <= 0 {
		bins = 10
	}

	var values []float64
	for _, row := range rows {
		if value, ok := toFloat(row[column]); ok {
			values = append(values, value)
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: %s", ErrNoNumericColumn, column)
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	width := (max - min) / float64(bins)
	if width == 0 {
		// All values identical: one bucket holds everything.
		bars := []pterm.Bar{{Label: formatBound(min), Value: len(values)}}
		return r.renderBars(bars, "Distribution of "+column)
	}

	counts := make([]int, bins)
	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	bars := make([]pterm.Bar, bins)
	for i := range counts {
		low := min + float64(i)*width
		bars[i] = pterm.Bar{
			Label: formatBound(low) + "-" + formatBound(low+width),
			Value: counts[i],
		}
	}

	return r.renderBars(bars, "Distribution of "+column)
}

// CategoryCounts draws one bar per distinct value of a column.
func (r *Renderer) CategoryCounts(rows []map[string]any, column string) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	if !hasColumn(rows, column) {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}

	counts := map[string]int{}
	var order []string
	for _, row := range rows {
		label := fmt.Sprintf("%v", row[column])
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	bars := make([]pterm.Bar, 0, len(order))
	for _, label := range order {
		bars = append(bars, pterm.Bar{Label: label, Value: counts[label]})
	}

	return r.renderBars(bars, "Count by "+column)
}

// Summary prints min, max, and mean for every numeric column.
func (r *Renderer) Summary(rows []map[string]any) error {
	analysis := Analyze(rows)
	if analysis.RowCount == 0 {
		return ErrNoData
	}
	if len(analysis.NumericColumns) == 0 {
		return ErrNoNumericColumn
	}

	tableData := pterm.TableData{{"column", "count", "min", "max", "mean"}}
	for _, column := range analysis.NumericColumns {
		var values []float64
		for _, row := range rows {
			if value, ok := toFloat(row[column]); ok {
				values = append(values, value)
			}
		}
		if len(values) == 0 {
			continue
		}

		min, max, sum := values[0], values[0], 0.0
		for _, v := range values {
			min = math.Min(min, v)
			max = math.Max(max, v)
			sum += v
		}

		tableData = append(tableData, []string{
			column,
			strconv.Itoa(len(values)),
			formatBound(min),
			formatBound(max),
			formatBound(sum / float64(len(values))),
		})
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	fmt.Fprintln(r.out, rendered)
	return nil
}

func (r *Renderer) renderBars(bars []pterm.Bar, title string) error {
	rendered, err := pterm.DefaultBarChart.
		WithHorizontal().
		WithShowValue().
		WithBars(bars).
		Srender()
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	fmt.Fprintln(r.out, title)
	fmt.Fprintln(r.out, rendered)
	return nil
}

func hasColumn(rows []map[string]any, column string) bool {
	_, ok := rows[0][column]
	return ok
}

func isNumericColumn(rows []map[string]any, column string) bool {
	seen := false
	for _, row := range rows {
		value := row[column]
		if value == nil {
			continue
		}
		if _, ok := toFloat(value); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func distinctStrings(rows []map[string]any, column string) int {
	seen := map[string]bool{}
	for _, row := range rows {
		seen[fmt.Sprintf("%v", row[column])] = true
	}
	return len(seen)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		// DECIMAL and aggregate columns arrive as strings from some drivers.
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
