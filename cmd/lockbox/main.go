package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/benaskins/lockbox/internal/config"
	"github.com/benaskins/lockbox/internal/keychain"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	namespace   string
	accessGroup string
	backendName string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "lockbox",
	Short:         "Store typed secrets in the macOS Keychain or OS keyring",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "", "Namespace (keychain service) to operate on")
	rootCmd.PersistentFlags().StringVar(&accessGroup, "access-group", "", "Shared keychain access group")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "Secret backend: keychain or keyring")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("namespace") {
		cfg.Namespace = namespace
	}
	if flags.Changed("access-group") {
		cfg.AccessGroup = accessGroup
	}
	if flags.Changed("backend") {
		cfg.Backend = backendName
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid flags: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func openStore(cmd *cobra.Command) (*keychain.Store, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Open(), cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
