package main

import (
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/cobra"

	"studiosite/internal/assets"
	"studiosite/internal/storage/sqlite"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			db, err := sqlite.NewStore(cfg.DB.Path)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			schemaVersion, err := db.Migrate(cfg.DB.MigrationsPath)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied", "db", cfg.DB.Path, "schema_version", schemaVersion)
			return nil
		},
	}
}

func newSyncAssetsCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "sync-assets",
		Short: "Upload content images to storage and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			if dir == "" {
				dir = cfg.Assets.SourceDir
			}

			files, err := newFileStore(cfg)
			if err != nil {
				return err
			}
			manager := assets.NewManager(files, uuid.FromStringOrNil(cfg.App.AssetNamespace))

			n, err := assets.Sync(cmd.Context(), files, manager, dir, logger)
			if err != nil {
				return fmt.Errorf("sync %s: %w", dir, err)
			}
			logger.Info("assets synced", "dir", dir, "uploaded", n, "registered", manager.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "source directory (default ASSETS_SOURCE_DIR)")
	return cmd
}
