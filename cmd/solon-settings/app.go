// ABOUTME: Wires config, store, database, codex registry, guild snapshot and settings manager
// ABOUTME: Every configured cog gets settings in every guild of the snapshot

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/solon/internal/codex"
	"github.com/2389/solon/internal/config"
	"github.com/2389/solon/internal/database"
	"github.com/2389/solon/internal/guild"
	"github.com/2389/solon/internal/settings"
	"github.com/2389/solon/internal/store"
)

type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	reg      *codex.Registry
	db       *database.Database
	guilds   *guild.Directory
	settings *settings.Manager
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	st, err := store.NewSQLiteStore(cfg.Database.Path,
		store.WithDriver(cfg.Database.Driver),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	guilds := guild.NewDirectory()
	if cfg.Guilds.Path != "" {
		if guilds, err = guild.LoadDirectory(cfg.Guilds.Path); err != nil {
			st.Close()
			return nil, err
		}
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		reg:    codex.NewDefaultRegistry(logger),
		db:     database.New(st, logger, database.WithEnabled(cfg.Database.SavingEnabled())),
		guilds: guilds,
	}
	a.settings = settings.NewManager(a.reg, a.db, logger, settings.WithLiveness(a.isLive))

	if err := a.createSettings(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) createSettings(ctx context.Context) error {
	for _, cog := range a.cfg.CogNames() {
		specs, err := a.cfg.Cogs[cog].FieldSpecs(a.reg)
		if err != nil {
			return fmt.Errorf("cog %s: %w", cog, err)
		}
		for _, g := range a.guilds.All() {
			if _, err := a.settings.Create(ctx, settings.OwnerID(cog, g.ID()), specs, g); err != nil {
				return fmt.Errorf("cog %s in guild %d: %w", cog, g.ID(), err)
			}
		}
	}
	return nil
}

// isLive treats an owner as active while its cog is configured and its
// guild is still in the snapshot.
func (a *app) isLive(ownerID string) bool {
	cog, guildID, err := settings.SplitOwnerID(ownerID)
	if err != nil {
		return false
	}
	if _, ok := a.cfg.Cogs[cog]; !ok {
		return false
	}
	_, ok := a.guilds.Guild(guildID)
	return ok
}

// save runs one save cycle so command-line changes reach the store.
func (a *app) save(ctx context.Context) error {
	return a.db.SaveAll(ctx)
}

func (a *app) Close() error {
	return a.db.Close()
}
