// Package cli implements the spantower command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spantower/pkg/buildinfo"
	"github.com/matzehuels/spantower/pkg/cache"
	"github.com/matzehuels/spantower/pkg/config"
	"github.com/matzehuels/spantower/pkg/observability/otelhooks"
	"github.com/matzehuels/spantower/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// skipConfig marks commands that run without loading the config file.
const skipConfig = "spantower/skip-config"

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs.
	Config     config.Config
	configPath string
	verbose    bool
}

// New returns a CLI logging to w at info level.
func New(w io.Writer) *CLI {
	return &CLI{
		Logger: newLogger(w, log.InfoLevel),
		Config: config.Default(),
	}
}

// Execute runs the command line in args and returns the first error.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          config.AppName,
		Short:        "Spantower draws Zipkin traces as waterfalls",
		Long:         `Spantower lays out Zipkin traces as timeline waterfalls with expandable annotation panels, for the terminal, the browser and image files.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.Logger.SetLevel(log.DebugLevel)
			}
			if cmd.Annotations[skipConfig] == "" {
				if err := c.loadConfig(); err != nil {
					return err
				}
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/spantower/config.toml)")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cc, nil, c.Logger)
	runner.TTL = c.Config.Cache.TTL.Duration
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cc, err := c.Config.Cache.OpenCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", c.Config.Cache.Backend, err)
	}
	return cc, nil
}

// startTelemetry exports pipeline spans when an OTLP endpoint is configured.
// The returned function flushes and stops the exporter.
func (c *CLI) startTelemetry(ctx context.Context) func() {
	endpoint := c.Config.Telemetry.OTLPEndpoint
	if endpoint == "" {
		return func() {}
	}
	shutdown, err := otelhooks.Setup(ctx, endpoint, c.Config.Telemetry.ServiceName)
	if err != nil {
		c.Logger.Warn("telemetry disabled", "endpoint", endpoint, "error", err)
		return func() {}
	}
	c.Logger.Debug("exporting telemetry", "endpoint", endpoint)
	return func() {
		if err := shutdown(context.Background()); err != nil {
			c.Logger.Warn("telemetry shutdown failed", "error", err)
		}
	}
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice, falling
// back to fallback when s is empty.
func parseFormats(s string, fallback []string) []string {
	if s == "" {
		if len(fallback) == 0 {
			return []string{pipeline.FormatText}
		}
		return fallback
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseIDs splits a comma-separated list of span ids.
func parseIDs(s []string) []string {
	var out []string
	for _, part := range s {
		for _, id := range strings.Split(part, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}
