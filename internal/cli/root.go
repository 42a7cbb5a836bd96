// Package cli implements the rasterdoc command line.
package cli

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/rasterdoc/internal/config"
	"github.com/dshills/rasterdoc/internal/logging"
)

// Version information, set by main.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// env is shared by all commands once the root pre-run has loaded settings.
type env struct {
	configPath string
	logLevel   string

	cfg config.Config
	log *logging.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "rasterdoc",
		Short:         "Headless layered raster document engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "settings file (TOML or YAML)")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newRunCommand(e),
		newInspectCommand(e),
		newRenderCommand(e),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line with ctx.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().Load(e.configPath)
	if err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.Logging.Level = e.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	e.cfg = cfg

	lc := logging.DefaultConfig()
	lc.Level = cfg.LogLevel()
	lc.Output = cmd.ErrOrStderr()
	e.log = logging.New(lc)
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "rasterdoc %s (commit %s, built %s)\n", Version, Commit, Date)
			return nil
		},
	}
}

// parseSize parses "WIDTHxHEIGHT".
func parseSize(s string) (image.Point, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return image.Point{}, fmt.Errorf("size %q: want WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return image.Point{}, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return image.Point{}, fmt.Errorf("size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return image.Point{}, fmt.Errorf("size %q: must be positive", s)
	}
	return image.Pt(w, h), nil
}
