package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	askql "github.com/askql/askql"
	"github.com/askql/askql/oracle"
	"github.com/askql/askql/pull"
	"github.com/askql/askql/query"
)

// Sentinel errors
var (
	ErrNoDatabaseConfig = errors.New("no database configuration found for environment")
)

// session bundles everything a command needs to talk to one environment.
type session struct {
	config   *askql.Config
	db       *sql.DB
	dialect  askql.Dialect
	snapshot *askql.Snapshot
}

func (s *session) close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *session) queryOptions() query.Options {
	return query.Options{
		Timeout: time.Duration(s.config.Query.Timeout) * time.Second,
		Explain: s.config.Query.Explain,
		MaxRows: s.config.Query.MaxRows,
	}
}

func (s *session) newOracle() oracle.Client {
	return oracle.NewAnthropicClient(anthropic.Model(s.config.Oracle.Model), s.config.Oracle.MaxTokens)
}

// openSession loads the configuration, connects to the requested environment,
// and pulls a fresh schema snapshot.
func openSession(ctx context.Context, appCtx *Context, environment string) (*session, error) {
	config, err := askql.LoadConfig(appCtx.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if environment == "" {
		environment = config.Query.DefaultEnvironment
	}

	dbConfig, exists := config.Databases[environment]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrNoDatabaseConfig, environment)
	}

	dialect := askql.Dialect(config.Dialect)
	if dbConfig.Driver != "" {
		dialect = askql.DialectFromDriver(dbConfig.Driver)
	}

	timeout := time.Duration(config.Query.Timeout) * time.Second
	db, err := query.OpenDatabase(dialect, dbConfig.Connection, timeout)
	if err != nil {
		return nil, err
	}

	snapshot, err := pull.Snapshot(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &session{
		config:   config,
		db:       db,
		dialect:  dialect,
		snapshot: snapshot,
	}, nil
}

func resolveFormat(requested string, config *askql.Config) (query.OutputFormat, error) {
	name := requested
	if name == "" {
		name = config.Query.DefaultFormat
	}
	if !query.IsValidOutputFormat(name) {
		return "", fmt.Errorf("%w: %s", query.ErrInvalidOutputFormat, name)
	}
	return query.OutputFormat(name), nil
}
