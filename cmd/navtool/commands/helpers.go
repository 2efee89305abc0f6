// Package commands implements the navtool CLI subcommands.
package commands

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/frye/navtool-sub009/chart/integrity"
	"github.com/frye/navtool-sub009/chart/loader"
	"github.com/frye/navtool-sub009/chart/s57"
	"github.com/frye/navtool-sub009/conf"
	"github.com/frye/navtool-sub009/db"
	"github.com/frye/navtool-sub009/errors"
	"github.com/frye/navtool-sub009/logger"
)

// openDatabase loads configuration, opens the configured SQLite database, and
// brings the schema up to date. The caller owns closing the handle.
func openDatabase() (*sql.DB, *conf.Config, error) {
	cfg, err := conf.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load configuration")
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to create database directory %s", dir)
		}
	}

	database, err := db.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, nil, errors.Wrap(err, "failed to migrate database")
	}

	return database, cfg, nil
}

// buildLoader wires the standard pipeline loader: integrity registry over the
// given database, the built-in structural decoder, and verbose diagnostics
// from configuration.
func buildLoader(ctx context.Context, database *sql.DB, cfg *conf.Config, opts ...loader.Option) (*loader.Loader, *integrity.Registry, error) {
	registry, err := integrity.OpenRegistry(ctx, database, logger.Logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open integrity registry")
	}

	opts = append([]loader.Option{
		loader.WithVerboseDiagnostics(cfg.Loader.VerboseDiagnostics),
	}, opts...)

	return loader.New(registry, s57.NewProbe(), logger.Logger, opts...), registry, nil
}
