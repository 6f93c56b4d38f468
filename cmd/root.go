package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/config"
	"github.com/pable/go-match-sim/internal/engine"
	"github.com/pable/go-match-sim/internal/random"
	"github.com/pable/go-match-sim/internal/storage"
)

var (
	cfg      config.Config
	dbPath   string
	logLevel string
	seed     uint64
	envFile  string
)

var rootCmd = &cobra.Command{
	Use:   "matchsim",
	Short: "Tournament match simulator",
	Long:  "Simulate duel-based team matches, aggregate their statistics and schedule tournaments.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbPath, "db", config.DefaultDBPath(), "path to SQLite database (env MATCHSIM_DB_PATH)")
	pf.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error (env MATCHSIM_LOG_LEVEL)")
	pf.Uint64Var(&seed, "seed", 0, "random seed, 0 for a fresh one (env MATCHSIM_SEED)")
	pf.StringVar(&envFile, "env-file", ".env", "optional dotenv file")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(stepCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(standingsCmd)
	rootCmd.AddCommand(roundsCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

// loadConfig reads the environment, lets explicitly set flags win and installs the logger.
func loadConfig(cmd *cobra.Command) error {
	var err error
	if cfg, err = config.Load(envFile); err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	dbPath = cfg.DBPath

	lvl, _ := cfg.Level()
	slog.SetDefault(config.NewLogger(os.Stderr, lvl))
	return nil
}

func openStore() (*storage.DB, error) {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// openEngine opens the store and builds an engine seeded from the config.
func openEngine() (*storage.DB, *engine.Engine, error) {
	db, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	rng, used, err := random.New(cfg.Seed)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	slog.Debug("random source ready", "seed", used)
	eng, err := engine.New(db, rng, slog.Default())
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, eng, nil
}
