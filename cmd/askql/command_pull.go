package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/askql/askql/pull"
)

// PullCmd represents the pull command
type PullCmd struct {
	Env    string `short:"e" help:"Environment name from configuration"`
	Output string `short:"o" help:"Output file" default:"./schema.yaml" type:"path"`
}

func (cmd *PullCmd) Run(appCtx *Context) error {
	ctx := context.Background()

	sess, err := openSession(ctx, appCtx, cmd.Env)
	if err != nil {
		return err
	}
	defer sess.close()

	data, err := pull.ToYAML(sess.snapshot)
	if err != nil {
		return err
	}

	if err := os.WriteFile(cmd.Output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}

	if !appCtx.Quiet {
		color.Green("Schema extracted to %s (%d tables)", cmd.Output, len(sess.snapshot.Tables))
	}

	return nil
}
