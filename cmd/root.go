package cmd

import (
	"context"

	"github.com/abhisek/medquiz/internal/config"
	"github.com/abhisek/medquiz/internal/logger"
	"github.com/abhisek/medquiz/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "medquiz",
	Short: "Medical quiz answer archive and study trainer",
	Long: `medquiz grades multiple-choice answers, keeps the correct and incorrect
archives and drills missed questions until they are learned.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		if backend, _ := cmd.Flags().GetString("store"); backend != "" {
			c.Store.Backend = backend
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			c.Log.Level = level
		}
		if err := config.Validate(c); err != nil {
			return err
		}
		cfg = c
		log = logger.Setup(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

// Execute runs the root command with ctx, cancelled on interrupt by main.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MEDQUIZ_STORE_DB)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML, JSON or TOML config file")
	rootCmd.PersistentFlags().String("store", "", "Key-value backend: sqlite, memory, redis or postgres")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn or error")

	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(favoriteCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured store.db, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.Store.DB != "" {
		return cfg.Store.DB, store.EnsureDir(cfg.Store.DB)
	}
	return store.DefaultDBPath()
}
