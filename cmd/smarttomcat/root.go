package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/thawee/SmartTomcat/internal/engine"
	"github.com/thawee/SmartTomcat/internal/shell/store"
)

// app holds state shared by all subcommands of one invocation.
type app struct {
	cfgFile string
	verbose bool
	apiHost string
	apiPort int

	cfg    *Config
	logger *slog.Logger
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		fs:     afero.NewOsFs(),
		stdout: stdout,
		stderr: stderr,
	}

	cmd := &cobra.Command{
		Use:   "smarttomcat",
		Short: "Deploy Java web projects into a Tomcat run profile",
		Long: `SmartTomcat inspects a Java web project, configures its source roots,
output directory and libraries, and registers it as a webapp of the
project's shared Tomcat run profile.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newLinkCmd(a),
		newRelinkCmd(a),
		newUnlinkCmd(a),
		newResolveCmd(a),
		newItemCmd(a),
		newServerCmd(a),
		newProfileCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// setup loads configuration and installs the logger.
func (a *app) setup() error {
	cfg, err := LoadConfig(a.cfgFile)
	if err != nil {
		return &CommandError{Op: "load config", Err: err, ExitCode: ExitConfigError}
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg
	a.logger = SetupLogger(cfg, a.stderr)
	slog.SetDefault(a.logger)
	return nil
}

// openStore opens the configured database, creating its directory first.
func (a *app) openStore() (*store.SQLiteStore, error) {
	dsn := a.cfg.Database.DSN
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, &CommandError{Op: "create database directory", Err: err, ExitCode: ExitDatabaseError}
		}
	}

	s, err := store.NewSQLiteStore(dsn)
	if err != nil {
		return nil, &CommandError{Op: "open database", Err: err, ExitCode: ExitDatabaseError}
	}
	a.logger.Debug("database opened", "dsn", dsn)
	return s, nil
}

// withDeployer runs fn with a deployer bound to a freshly opened store.
func (a *app) withDeployer(fn func(s store.Store, d *engine.Deployer) error) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			a.logger.Error("failed to close database", "error", err)
		}
	}()

	d := engine.NewDeployer(s, a.fs, a.cfg.EngineConfig(), a.logger)
	return fn(s, d)
}

// absPath resolves a command line path argument, defaulting to ".".
func absPath(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}

// contextOf returns the command context, never nil.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
