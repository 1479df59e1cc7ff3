package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/askql/askql/history"
	"github.com/askql/askql/oracle"
	"github.com/askql/askql/pipeline"
	"github.com/askql/askql/viz"
)

// ChatCmd represents the chat command
type ChatCmd struct {
	Advanced bool   `help:"Generate whole statements in one model call"`
	Env      string `short:"e" help:"Environment name from configuration"`
}

// chatSession holds the REPL state between turns.
type chatSession struct {
	*session
	client   oracle.Client
	history  *history.History
	renderer *viz.Renderer
	advanced bool

	// Results of the most recent successful question, for chart commands.
	lastResults []map[string]any
}

func (cmd *ChatCmd) Run(appCtx *Context) error {
	ctx := context.Background()

	sess, err := openSession(ctx, appCtx, cmd.Env)
	if err != nil {
		return err
	}
	defer sess.close()

	chat := &chatSession{
		session:  sess,
		client:   sess.newOracle(),
		history:  history.New(),
		renderer: viz.NewRenderer(os.Stdout),
		advanced: cmd.Advanced,
	}

	color.Green("Connected to %s (%s, %d tables)", sess.snapshot.DatabaseInfo.Name, sess.snapshot.DatabaseInfo.Type, len(sess.snapshot.Tables))
	fmt.Println("Ask questions in plain language. Type 'help' for commands, 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("askql> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		chat.handle(ctx, line)
	}

	return scanner.Err()
}

func (c *chatSession) handle(ctx context.Context, line string) {
	fields := strings.Fields(line)

	switch fields[0] {
	case "help":
		c.printHelp()
	case "schema":
		c.printSchema()
	case "history":
		c.printHistory()
	case "clear":
		c.history.Clear()
		color.Green("History cleared")
	case "viz", "chart":
		c.runChart(fields[1:])
	default:
		c.ask(ctx, line)
	}
}

func (c *chatSession) ask(ctx context.Context, question string) {
	var sqlQuery, errMessage string
	var results []map[string]any
	var columns []string

	if c.advanced {
		p := pipeline.NewAdvanced(c.client, c.snapshot, c.db, c.dialect, c.queryOptions(), nil)
		response := p.Process(ctx, question)
		sqlQuery, errMessage, results, columns = response.SQLQuery, response.Error, response.Results, response.ResultColumns
	} else {
		p := pipeline.New(c.client, c.snapshot, c.db, c.dialect, c.queryOptions(), nil)
		response := p.Process(ctx, question)
		sqlQuery, errMessage, results, columns = response.SQLQuery, response.Error, response.Results, response.ResultColumns
	}

	c.history.Add(question, sqlQuery, len(results), errMessage)

	if errMessage != "" {
		color.Red("Failed: %s", errMessage)
		if sqlQuery != "" {
			color.Yellow("Generated SQL: %s", sqlQuery)
		}
		return
	}

	color.Green("SQL: %s", sqlQuery)
	c.lastResults = results
	c.printResults(results, columns)
}

func (c *chatSession) printResults(results []map[string]any, columns []string) {
	if len(results) == 0 {
		fmt.Println("No results")
		return
	}

	if len(columns) == 0 {
		columns = columnOrder(results)
	}
	tableData := pterm.TableData{columns}
	for _, row := range results {
		values := make([]string, len(columns))
		for i, column := range columns {
			values[i] = fmt.Sprintf("%v", row[column])
		}
		tableData = append(tableData, values)
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Render(); err != nil {
		color.Red("Failed to render results: %v", err)
		return
	}
	fmt.Printf("%d rows\n", len(results))
}

func (c *chatSession) runChart(args []string) {
	if len(c.lastResults) == 0 {
		color.Yellow("No results to visualize yet. Ask a question first.")
		return
	}

	mode := "auto"
	if len(args) > 0 {
		mode = args[0]
	}

	var err error
	switch mode {
	case "auto":
		err = c.renderer.Auto(c.lastResults)
	case "bar":
		analysis := viz.Analyze(c.lastResults)
		if len(analysis.CategoricalColumns) == 0 || len(analysis.NumericColumns) == 0 {
			color.Yellow("Need a category column and a numeric column for a bar chart")
			return
		}
		err = c.renderer.BarChart(c.lastResults, analysis.CategoricalColumns[0], analysis.NumericColumns[0])
	case "hist":
		analysis := viz.Analyze(c.lastResults)
		if len(analysis.NumericColumns) == 0 {
			color.Yellow("Need a numeric column for a histogram")
			return
		}
		err = c.renderer.Histogram(c.lastResults, analysis.NumericColumns[0], 10)
	case "counts":
		analysis := viz.Analyze(c.lastResults)
		if len(analysis.CategoricalColumns) == 0 {
			color.Yellow("Need a category column for counts")
			return
		}
		err = c.renderer.CategoryCounts(c.lastResults, analysis.CategoricalColumns[0])
	case "stats":
		err = c.renderer.Summary(c.lastResults)
	default:
		color.Yellow("Unknown chart type '%s'. Use auto, bar, hist, counts, or stats.", mode)
		return
	}

	if err != nil {
		color.Red("Chart failed: %v", err)
	}
}

func (c *chatSession) printSchema() {
	fmt.Println(oracle.SchemaDescription(c.snapshot))
}

func (c *chatSession) printHistory() {
	turns := c.history.List()
	if len(turns) == 0 {
		fmt.Println("No questions asked yet")
		return
	}

	for i, turn := range turns {
		status := color.GreenString("%d rows", turn.RowCount)
		if turn.Error != "" {
			status = color.RedString("failed: %s", turn.Error)
		}
		fmt.Printf("%2d. %s\n    %s (%s)\n", i+1, turn.Question, turn.SQLQuery, status)
	}
}

func (c *chatSession) printHelp() {
	fmt.Println(`Commands:
  schema          Show the database schema
  history         Show questions asked this session
  clear           Clear the question history
  viz [type]      Chart the last results (auto, bar, hist, counts, stats)
  exit            Leave the session

Anything else is treated as a question about the database.`)
}
