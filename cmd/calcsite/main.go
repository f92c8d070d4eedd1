package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwvelando/calcsite/internal/calculator"
	"github.com/iwvelando/calcsite/internal/catalog"
	"github.com/iwvelando/calcsite/internal/config"
	"github.com/iwvelando/calcsite/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries the state shared by every subcommand once the configuration
// and logger are set up.
type app struct {
	configPath string
	logLevel   string

	conf   *config.Configuration
	logger *zap.Logger
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
	case "json":
		zapConfig = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Fail early if the file cannot be created or written.
		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// setup loads the configuration and builds the logger. A missing default
// configuration file is not an error; defaults and environment apply.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path := a.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", path, err)
	}

	logger, err := initializeLogger(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	a.conf = conf
	a.logger = logger
	return nil
}

// loadRegistry loads the embedded catalog and layers the configured
// catalog directory on top of it. Files of the directory that cannot be
// applied are logged, skipped and returned as problems; an unreadable
// directory is an error.
func (a *app) loadRegistry() (*calculator.Registry, []string, error) {
	reg, err := catalog.Load(a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load calculator catalog: %w", err)
	}

	var problems []string
	if dir := a.conf.Catalog.Dir; dir != "" {
		applied, err := catalog.LoadDir(a.logger, reg, dir)
		if err != nil {
			if !errors.Is(err, catalog.ErrInvalidFile) {
				return nil, nil, err
			}
			problems = strings.Split(err.Error(), "\n")
			a.logger.Warn("skipped invalid catalog files",
				zap.String("op", "main"),
				zap.String("dir", dir),
				zap.Int("skipped", len(problems)),
			)
		}
		a.logger.Info("loaded catalog overrides",
			zap.String("op", "main"),
			zap.String("dir", dir),
			zap.Int("applied", applied),
		)
	}
	return reg, problems, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "calcsite",
		Short:             "Multi-language calculator catalog and API",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(a),
		newListCmd(a),
		newCalcCmd(a),
		newLintCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
