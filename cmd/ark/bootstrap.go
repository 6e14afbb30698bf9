package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/ark/pkg/ark/config"
	"github.com/jamesainslie/ark/pkg/ark/logging"
)

// appConfig is loaded once per invocation by initializeLogging.
var appConfig *config.Config

// initializeLogging is the root PersistentPreRunE: it loads the
// configuration, makes sure ark's directories exist and starts file logging.
func initializeLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	appConfig = cfg

	if err := ensureDirectories(cfg); err != nil {
		return err
	}

	logCfg, err := cfg.LoggingConfig()
	if err != nil {
		return err
	}
	logCfg.ConsoleLevel = consoleLevel()

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// initTUILogging re-initializes logging for a full-screen UI: console
// output is disabled and warnings go to the in-memory buffer instead.
func initTUILogging() error {
	logCfg, err := currentConfig().LoggingConfig()
	if err != nil {
		return err
	}
	logCfg.Quiet = true
	return logging.Init(logCfg)
}

// consoleLevel picks the stderr mirror level from --verbose and --quiet.
func consoleLevel() string {
	switch {
	case getQuiet():
		return ""
	case getVerbose():
		return "debug"
	default:
		return "warn"
	}
}

func ensureDirectories(cfg *config.Config) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if cfg.History.Enabled && cfg.History.Path != "" {
		if err := os.MkdirAll(cfg.History.Path, 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	return nil
}

// currentConfig returns the loaded configuration, loading it on demand
// when a command runs without the root pre-run hook (as in tests).
func currentConfig() *config.Config {
	if appConfig != nil {
		return appConfig
	}
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		printVerbose("using built-in defaults: %v", err)
		cfg, err = config.Load()
		if err != nil {
			cfg = &config.Config{}
		}
	}
	appConfig = cfg
	return cfg
}

