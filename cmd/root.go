// Package cmd wires the maestro core to a thin command line. It plumbs
// arguments into the core's public surface and prints results; countdown
// timers, progress trees and kata execution live in other tools.
package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/maestro/internal/config"
	"github.com/abhisek/maestro/internal/session"
	"github.com/abhisek/maestro/internal/srs"
	"github.com/abhisek/maestro/internal/store"
	"github.com/abhisek/maestro/internal/streak"
)

var rootCmd = &cobra.Command{
	Use:           "maestro",
	Short:         "Personal practice tool with spaced repetition",
	Long:          "Maestro — short timed practice sessions over code exercises,\nscheduled with the SM-2 spaced repetition algorithm.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MAESTRO_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(streakCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(eventsCmd)
}

// env bundles the opened core components a command needs.
type env struct {
	cfg     *config.Config
	store   *store.Store
	manager *session.Manager
	tracker *streak.Tracker
}

// openEnv loads configuration and opens the store. Callers must Close.
func openEnv(cmd *cobra.Command) (*env, error) {
	level := slog.LevelInfo
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, err
	}
	slog.Debug("opening store", "path", dbPath)

	st, err := store.Open(dbPath, store.WithPassThreshold(srs.Quality(cfg.Review.PassThreshold)))
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		st.Close()
		return nil, err
	}
	tracker := streak.New(st, loc)
	manager := session.NewManager(st, tracker, session.Config{
		MinMinutes: cfg.Session.MinMinutes,
		MaxMinutes: cfg.Session.MaxMinutes,
		BatchSize:  cfg.Session.BatchSize,
	})

	return &env{cfg: cfg, store: st, manager: manager, tracker: tracker}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		slog.Warn("close store", "error", err)
	}
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then the config file, then MAESTRO_DB / the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DB.Path != "" {
		return cfg.DB.Path, store.EnsureDir(cfg.DB.Path)
	}
	return store.DefaultDBPath()
}

// now is the single clock read for a command invocation. The core itself
// never reads the clock; it receives this value explicitly.
func now() time.Time {
	return time.Now()
}
