package pipeline

import (
	"context"
	"database/sql"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	askql "github.com/askql/askql"
	"github.com/askql/askql/extract"
	"github.com/askql/askql/oracle"
	"github.com/askql/askql/query"
	"github.com/askql/askql/validate"
)

var mainTableRe = regexp.MustCompile(`(?i)(?:FROM|JOIN|LEFT\s+JOIN|RIGHT\s+JOIN|INNER\s+JOIN|FULL\s+JOIN)\s+(\w+)`)

// AdvancedResponse is the outcome of one single-shot run.
type AdvancedResponse struct {
	Success     bool             `json:"success"`
	Question    string           `json:"question"`
	TargetTable string           `json:"target_table"`
	SQLQuery      string           `json:"sql_query"`
	Results       []map[string]any `json:"results"`
	ResultColumns []string         `json:"result_columns"`
	ResultCount   int              `json:"result_count"`
	Error         string           `json:"error,omitempty"`
}

// AdvancedPipeline asks the model for a complete statement with the whole
// schema inlined, then applies the lexical safety gate before executing.
// It handles shapes the stepwise flow cannot assemble, such as CTEs, window
// functions, and multi-hop joins.
type AdvancedPipeline struct {
	oracle   oracle.Client
	snapshot *askql.Snapshot
	executor *query.Executor
	options  query.Options
	logger   *slog.Logger
}

// NewAdvanced creates a single-shot pipeline. The EXPLAIN pre-check stays on
// through the executor since this flow has no separate validation ladder.
func NewAdvanced(client oracle.Client, snapshot *askql.Snapshot, db *sql.DB, dialect askql.Dialect, options query.Options, logger *slog.Logger) *AdvancedPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	options.Explain = true
	return &AdvancedPipeline{
		oracle:   client,
		snapshot: snapshot,
		executor: query.NewExecutor(db, dialect),
		options:  options,
		logger:   logger,
	}
}

// Process generates, gates, and executes one statement. Failures are folded
// into the response.
func (p *AdvancedPipeline) Process(ctx context.Context, question string) *AdvancedResponse {
	response := &AdvancedResponse{Question: question}

	raw, err := p.oracle.Complete(ctx, oracle.SystemPrompt, oracle.FullQueryPrompt(p.snapshot, question))
	if err != nil {
		return p.fail(response, err.Error())
	}

	sqlQuery := extract.Statement(raw)
	response.SQLQuery = sqlQuery
	p.logger.Info("statement generated", "sql", sqlQuery)

	if ok, reason := validate.Lexical(sqlQuery); !ok {
		return p.fail(response, "generated SQL failed safety check: "+reason)
	}

	result, err := p.executor.Execute(ctx, sqlQuery, p.options)
	if err != nil {
		return p.fail(response, err.Error())
	}

	response.Success = true
	response.TargetTable = mainTables(sqlQuery)
	response.Results = result.Rows
	response.ResultColumns = result.Columns
	response.ResultCount = result.Count
	p.logger.Info("query executed", "rows", result.Count, "duration", result.Duration)
	return response
}

func (p *AdvancedPipeline) fail(response *AdvancedResponse, message string) *AdvancedResponse {
	response.Error = message
	p.logger.Warn("advanced pipeline failed", "question", response.Question, "error", message)
	return response
}

// mainTables lists the distinct tables referenced by FROM and JOIN clauses.
func mainTables(sqlQuery string) string {
	seen := map[string]bool{}
	for _, match := range mainTableRe.FindAllStringSubmatch(sqlQuery, -1) {
		seen[match[1]] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
