package cmd

import (
	"context"
	"fmt"

	"cfmods/catalog"
	"cfmods/config"
	"cfmods/curseforge"
	"cfmods/db"
	"cfmods/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// session holds what every command needs once configuration is loaded.
type session struct {
	cfg    config.Config
	client *curseforge.Client
	cache  *catalog.Cache
}

// bootstrap handles shared initialization logic for commands: configuration
// (.env, environment, then flags), logging and the catalog client.
func bootstrap(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := config.ApplyFlags(&cfg, cmd.Flags()); err != nil {
		return nil, fmt.Errorf("reading flags: %w", err)
	}
	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}

	if err := logger.InitLogger(logger.Options{Level: cfg.LogLevel, LogFile: cfg.LogFile}); err != nil {
		return nil, err
	}
	logger.Log.Debugw("Configuration loaded",
		"modloader", cfg.ModLoader,
		"versions", cfg.GameVersions,
		"download_dir", cfg.DownloadDir,
		"cache", cfg.CachePath,
	)

	client, err := curseforge.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating catalog client: %w", err)
	}

	return &session{
		cfg:    cfg,
		client: client,
		cache:  catalog.NewCache(cfg.CachePath, client, logger.Log.Named("catalog")),
	}, nil
}

// loadCatalog makes sure the cached catalog is fresh and indexes it.
func (s *session) loadCatalog(ctx context.Context) (*catalog.Index, error) {
	doc, err := s.cache.EnsureFresh(ctx)
	if err != nil {
		logger.Log.Errorw("Catalog unavailable", zap.Error(err))
		return nil, err
	}
	return catalog.NewIndex(doc), nil
}

// openStore opens the download history. History is best effort for
// downloads, so callers decide whether a failure is fatal.
func (s *session) openStore() (*db.Store, error) {
	store, err := db.InitDatabase(s.cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	logger.Log.Debugw("Database initialized", zap.String("path", s.cfg.DatabasePath))
	return store, nil
}

func closeStore(store *db.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Log.Warnw("Failed to close database", zap.Error(err))
	}
}
