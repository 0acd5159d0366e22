package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	tmdb "github.com/tendermint/tm-db"
	"golang.org/x/sync/errgroup"

	"github.com/xydata/oracle/app"
	"github.com/xydata/oracle/indexer"
	"github.com/xydata/oracle/server"
)

// openApp opens the node database and applies genesis on first start.
func openApp(home string, cfg Config) (*app.App, tmdb.DB, error) {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	db, err := tmdb.NewDB(dbName, tmdb.BackendType(cfg.DBBackend), filepath.Join(home, dataDir))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	a, err := app.New(logger, db, cfg.ChainID)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	if a.Height() == 0 {
		gs, err := app.LoadGenesis(genesisPath(home))
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := a.InitChain(gs); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return a, db, nil
}

// StartCmd runs the node and its API until interrupted.
func StartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := homeFromCmd(cmd)
			if err != nil {
				return err
			}
			cfg, err := LoadConfig(home)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}

			a, db, err := openApp(home, cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			api := server.New(cfg.API, a, logger)
			g, ctx := errgroup.WithContext(ctx)

			if cfg.Indexer.Enable {
				store, err := indexer.NewPostgresStore(ctx, cfg.Indexer.DSN)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.Migrate(ctx); err != nil {
					return err
				}
				api.SetStats(store)

				idx := indexer.New(store, logger, cfg.Indexer.ResyncSchedule)
				g.Go(func() error {
					return idx.Run(ctx, a)
				})
			}

			g.Go(func() error {
				return api.Start(ctx)
			})

			logger.Info("node started", "chain_id", a.ChainID(), "height", a.Height())
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("node stopped")
			return nil
		},
	}

	addHomeFlag(cmd)
	return cmd
}
