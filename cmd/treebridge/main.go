// Command treebridge runs the tree bridge against a live websocket producer
// or a recorded stream.
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/treebridge/internal/config"
	"github.com/vango-dev/treebridge/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds the state shared by subcommands after PersistentPreRunE.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	errors.DetectColors(os.Stderr)

	g := &globals{}
	if err := newRootCmd(g, os.Stdout, os.Stderr).Execute(); err != nil {
		g.printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(g *globals, stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treebridge",
		Short: "Render a foreign UI tree through a hash-memoized reconciler",
		Long: `treebridge receives hashed UI trees from a producer, reconciles them
against the previous tree and renders the result as HTML.

Trees come from a live websocket producer (connect) or from a recorded
JSON-lines stream on disk or in S3 (replay).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default: treebridge.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(
		replayCmd(g),
		connectCmd(g),
		versionCmd(),
	)
	return rootCmd
}

// setup loads the config, applies flag overrides and installs the logger.
func (g *globals) setup(stderr io.Writer) error {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return err
	}

	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	g.cfg = cfg
	g.logger = newLogger(stderr, cfg)
	slog.SetDefault(g.logger)
	if cfg.Path() != "" {
		g.logger.Debug("config loaded", "path", cfg.Path())
	}
	return nil
}

// printError writes err as a JSON line when logging in JSON, and as a
// formatted block otherwise.
func (g *globals) printError(w io.Writer, err error) {
	var e *errors.Error
	if g.cfg != nil && g.cfg.Log.Format == "json" && stderrors.As(err, &e) {
		fmt.Fprintln(w, e.FormatJSON())
		return
	}
	errors.Fprint(w, err)
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
