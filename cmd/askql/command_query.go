package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/askql/askql/query"
	"github.com/askql/askql/validate"
)

// ErrStatementRejected signals a statement that failed validation.
var ErrStatementRejected = errors.New("statement rejected by validation")

// QueryCmd represents the query command
type QueryCmd struct {
	SQL     []string `arg:"" help:"SELECT statement to execute"`
	Env     string   `short:"e" help:"Environment name from configuration"`
	Format  string   `help:"Output format (table, json, csv, yaml, markdown)"`
	Explain bool     `help:"Run an EXPLAIN pre-check before executing" default:"true" negatable:""`
}

func (cmd *QueryCmd) Run(appCtx *Context) error {
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

	statement := strings.Join(cmd.SQL, " ")

	validator := validate.New(sess.snapshot)
	if ok, reason := validator.Validate(statement); !ok {
		if !appCtx.Quiet {
			color.Red("Rejected: %s", reason)
		}
		return ErrStatementRejected
	}

	options := sess.queryOptions()
	options.Explain = cmd.Explain

	executor := query.NewExecutor(sess.db, sess.dialect)
	result, err := executor.Execute(ctx, statement, options)
	if err != nil {
		return err
	}

	if appCtx.Verbose {
		color.Green("Executed in %v", result.Duration)
	}

	return query.NewFormatter(format).Write(result, os.Stdout)
}
