package main

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/askql/askql/pipeline"
	"github.com/askql/askql/query"
)

// ErrQuestionFailed signals a non-zero exit after a failed pipeline run.
var ErrQuestionFailed = errors.New("question could not be answered")

// AskCmd represents the ask command
type AskCmd struct {
	Question []string `arg:"" help:"Natural language question"`
	Advanced bool     `help:"Generate the whole statement in one model call (CTEs, window functions)"`
	Format   string   `help:"Output format (table, json, csv, yaml, markdown)"`
	Env      string   `short:"e" help:"Environment name from configuration"`
}

func (cmd *AskCmd) Run(appCtx *Context) error {
	ctx := context.Background()

	sess, err := openSession(ctx, appCtx, cmd.Env)
	if err != nil {
		return err
	}
	defer sess.close()

	format, err := resolveFormat(cmd.Format, sess.config)
	if err != nil {
		return err
	}

	question := strings.Join(cmd.Question, " ")
	client := sess.newOracle()

	var sqlQuery, errMessage string
	var results []map[string]any
	var columns []string

	if cmd.Advanced {
		p := pipeline.NewAdvanced(client, sess.snapshot, sess.db, sess.dialect, sess.queryOptions(), nil)
		response := p.Process(ctx, question)
		sqlQuery, errMessage, results, columns = response.SQLQuery, response.Error, response.Results, response.ResultColumns
	} else {
		p := pipeline.New(client, sess.snapshot, sess.db, sess.dialect, sess.queryOptions(), nil)
		response := p.Process(ctx, question)
		sqlQuery, errMessage, results, columns = response.SQLQuery, response.Error, response.Results, response.ResultColumns
	}

	if errMessage != "" {
		if !appCtx.Quiet {
			color.Red("Failed: %s", errMessage)
			if sqlQuery != "" {
				color.Yellow("Generated SQL: %s", sqlQuery)
			}
		}
		return ErrQuestionFailed
	}

	if !appCtx.Quiet {
		color.Green("SQL: %s", sqlQuery)
	}

	if len(columns) == 0 {
		columns = columnOrder(results)
	}
	result := &query.Result{SQL: sqlQuery, Columns: columns, Rows: results, Count: len(results)}
	return query.NewFormatter(format).Write(result, os.Stdout)
}

// columnOrder derives a stable column order from the first record. Used only
// when the projection order is unavailable.
func columnOrder(rows []map[string]any) []string {
	if len(rows) == 0 {
		return nil
	}

	columns := make([]string, 0, len(rows[0]))
	for column := range rows[0] {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
