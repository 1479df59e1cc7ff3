// Package pipeline turns a natural language question into a validated, executed
// SELECT statement. The stepwise pipeline decomposes the work into table
// identification, join planning, column selection, condition extraction,
// assembly, and a fail-closed validation ladder ordered cheapest first. The
// advanced pipeline asks the model for the whole statement in one shot.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	askql "github.com/askql/askql"
	"github.com/askql/askql/assemble"
	"github.com/askql/askql/extract"
	"github.com/askql/askql/oracle"
	"github.com/askql/askql/query"
	"github.com/askql/askql/validate"
)

// Response is the outcome of one stepwise run. On failure every intermediate
// field that was produced before the failure is preserved so the caller can
// show how far the pipeline got.
type Response struct {
	Question         string              `json:"question"`
	Tables           []string            `json:"tables"`
	Joins            []assemble.JoinEdge `json:"joins"`
	Columns          []string            `json:"columns"`
	SQLQuery         string              `json:"sql_query"`
	Results          []map[string]any    `json:"results"`
	ResultColumns    []string            `json:"result_columns"`
	ValidationPassed bool                `json:"validation_passed"`
	Error            string              `json:"error,omitempty"`
}

// Pipeline runs the stepwise flow against one database and one model client.
type Pipeline struct {
	oracle    oracle.Client
	snapshot  *askql.Snapshot
	db        *sql.DB
	executor  *query.Executor
	validator *validate.Validator
	options   query.Options
	logger    *slog.Logger
}

// New creates a stepwise pipeline. The executor's own EXPLAIN option stays
// off because the pipeline runs the EXPLAIN layer itself, between the text
// checks and the semantic cross-check.
func New(client oracle.Client, snapshot *askql.Snapshot, db *sql.DB, dialect askql.Dialect, options query.Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	options.Explain = false
	return &Pipeline{
		oracle:    client,
		snapshot:  snapshot,
		db:        db,
		executor:  query.NewExecutor(db, dialect),
		validator: validate.New(snapshot),
		options:   options,
		logger:    logger,
	}
}

// Process runs the full flow. It never returns an error: every failure is
// folded into the Response so a conversational caller always has something
// to display.
func (p *Pipeline) Process(ctx context.Context, question string) *Response {
	response := &Response{Question: question}

	tables := p.identifyTables(ctx, question)
	response.Tables = tables
	if len(tables) == 0 {
		return p.fail(response, "no relevant tables identified for the question")
	}
	p.logger.Debug("tables identified", "tables", tables)

	joins := assemble.PlanJoins(p.snapshot, tables)
	response.Joins = joins
	p.logger.Debug("joins planned", "count", len(joins))

	columns := p.selectColumns(ctx, question, tables)
	response.Columns = columns
	p.logger.Debug("columns selected", "columns", columns)

	where := p.extractCondition(ctx, question, tables)

	sqlQuery, err := assemble.Build(p.snapshot, tables, joins, columns, where)
	if err != nil {
		return p.fail(response, err.Error())
	}
	response.SQLQuery = sqlQuery
	p.logger.Info("statement assembled", "sql", sqlQuery)

	// Validation ladder, cheapest first. Text checks, then the planner, then
	// the snapshot cross-check.
	if ok, reason := validate.Lexical(sqlQuery); !ok {
		return p.fail(response, "SQL syntax error: "+reason)
	}
	if ok, reason := validate.Structural(sqlQuery); !ok {
		return p.fail(response, "SQL syntax error: "+reason)
	}
	if err := validate.ExplainCheck(ctx, p.db, sqlQuery); err != nil {
		return p.fail(response, err.Error())
	}
	if ok, reason := p.validator.Semantic(sqlQuery); !ok {
		return p.fail(response, "SQL semantic error: "+reason)
	}

	result, err := p.executor.Execute(ctx, sqlQuery, p.options)
	if err != nil {
		return p.fail(response, err.Error())
	}

	response.Results = result.Rows
	response.ResultColumns = result.Columns
	response.ValidationPassed = true
	p.logger.Info("query executed", "rows", result.Count, "duration", result.Duration)
	return response
}

func (p *Pipeline) fail(response *Response, message string) *Response {
	response.Error = message
	response.ValidationPassed = false
	p.logger.Warn("pipeline failed", "question", response.Question, "error", message)
	return response
}

// identifyTables asks the model for relevant tables and falls back to keyword
// matching against the question when the answer is unusable.
func (p *Pipeline) identifyTables(ctx context.Context, question string) []string {
	var candidates []string

	response, err := p.oracle.Complete(ctx, oracle.SystemPrompt, oracle.TableSelectionPrompt(p.snapshot, question))
	if err != nil {
		p.logger.Warn("table identification call failed", "error", err)
	} else {
		candidates = parseNameList(response, p.snapshot.TableNames())
	}

	var valid []string
	for _, name := range candidates {
		if p.snapshot.HasTable(name) {
			valid = append(valid, name)
		}
	}

	if len(valid) == 0 {
		valid = guessTablesFromQuestion(question, p.snapshot.TableNames())
	}

	return valid
}

// selectColumns asks the model for the projection and falls back to name-like
// columns or the leading columns of each table.
func (p *Pipeline) selectColumns(ctx context.Context, question string, tables []string) []string {
	known := p.knownColumns(tables)

	var columns []string
	response, err := p.oracle.Complete(ctx, oracle.SystemPrompt, oracle.ColumnSelectionPrompt(p.snapshot, question, tables))
	if err != nil {
		p.logger.Warn("column selection call failed", "error", err)
	} else {
		columns = parseNameList(response, known)
	}

	if len(columns) > 0 {
		return columns
	}

	if strings.Contains(strings.ToLower(question), "name") {
		for _, column := range known {
			if strings.Contains(strings.ToLower(column), "name") {
				columns = append(columns, column)
			}
		}
		if len(columns) > 0 {
			return columns
		}
	}

	// Last resort: the first few columns of each table.
	for _, name := range tables {
		table, ok := p.snapshot.Table(name)
		if !ok {
			continue
		}
		names := table.ColumnNames()
		if len(names) > 3 {
			names = names[:3]
		}
		columns = append(columns, names...)
	}
	return columns
}

func (p *Pipeline) knownColumns(tables []string) []string {
	var known []string
	for _, name := range tables {
		if table, ok := p.snapshot.Table(name); ok {
			known = append(known, table.ColumnNames()...)
		}
	}
	return known
}

// extractCondition asks the model for a WHERE fragment and distills the first
// usable condition out of its prose. An empty result means no filter.
func (p *Pipeline) extractCondition(ctx context.Context, question string, tables []string) string {
	response, err := p.oracle.Complete(ctx, oracle.SystemPrompt, oracle.ConditionPrompt(question, tables))
	if err != nil {
		p.logger.Warn("condition extraction call failed", "error", err)
		return ""
	}
	return extract.Condition(response)
}

// parseNameList pulls identifiers out of a model answer. Comma-separated
// answers are split directly; otherwise known names are matched by substring.
func parseNameList(response string, known []string) []string {
	clean := strings.TrimSpace(response)
	clean = strings.ReplaceAll(clean, "\n", " ")
	clean = strings.ReplaceAll(clean, "`", "")

	if strings.Contains(clean, ",") {
		var names []string
		for _, part := range strings.Split(clean, ",") {
			if part = strings.TrimSpace(part); part != "" {
				names = append(names, part)
			}
		}
		return names
	}

	lower := strings.ToLower(clean)
	var names []string
	for _, name := range known {
		if strings.Contains(lower, strings.ToLower(name)) {
			names = append(names, name)
		}
	}
	return names
}

// guessTablesFromQuestion matches table names, or their underscore-separated
// words, against the question text.
func guessTablesFromQuestion(question string, tables []string) []string {
	lower := strings.ToLower(question)

	var guessed []string
	for _, table := range tables {
		tableLower := strings.ToLower(table)
		if strings.Contains(lower, tableLower) {
			guessed = append(guessed, table)
			continue
		}
		for _, word := range strings.Split(tableLower, "_") {
			if word != "" && strings.Contains(lower, word) {
				guessed = append(guessed, table)
				break
			}
		}
	}
	return guessed
}

// String renders the response for terminal display.
func (r *Response) String() string {
	if r.Error != "" {
		return fmt.Sprintf("failed: %s", r.Error)
	}
	return fmt.Sprintf("%s (%d rows)", r.SQLQuery, len(r.Results))
}
