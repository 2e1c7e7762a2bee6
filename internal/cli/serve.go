package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spantower/internal/server"
	"github.com/matzehuels/spantower/pkg/errors"
	"github.com/matzehuels/spantower/pkg/session"
)

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		traceDir string
		rate     float64
		burst    int
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a directory of traces over HTTP",
		Long: `Serve every Zipkin JSON file in a directory as a browsable waterfall.

Interactive views keep their open panels on the server; the read-only
display view of a trace is at /traces/{name}/display.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("dir") {
				cfg.TraceDir = traceDir
			}
			if cmd.Flags().Changed("rate") {
				cfg.Rate = rate
			}
			if cmd.Flags().Changed("burst") {
				cfg.Burst = burst
			}
			if err := errors.ValidateTrackWidth(c.Config.TrackWidth); err != nil {
				return err
			}

			stopTelemetry := c.startTelemetry(ctx)
			defer stopTelemetry()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			var store session.Store = session.NewMemoryStore()
			if cfg.SessionDir != "" {
				fs, err := session.NewFileStore(cfg.SessionDir)
				if err != nil {
					return err
				}
				store = fs
			}

			srv := server.New(server.Config{
				Addr:       cfg.Addr,
				TraceDir:   cfg.TraceDir,
				TrackWidth: c.Config.TrackWidth,
				Rate:       cfg.Rate,
				Burst:      cfg.Burst,
				SessionTTL: cfg.SessionTTL.Duration,
			}, runner, store, loggerFromContext(ctx))

			printSuccess("Serving traces from %s", StyleHighlight.Render(cfg.TraceDir))
			printKeyValue("Address", StyleLink.Render(fmt.Sprintf("http://%s/traces", cfg.Addr)))
			printKeyValue("Cache", c.Config.Cache.Backend)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().StringVarP(&traceDir, "dir", "d", "", "directory of trace files (default from config, .)")
	cmd.Flags().Float64Var(&rate, "rate", 0, "requests per second per client, 0 disables limiting")
	cmd.Flags().IntVar(&burst, "burst", 0, "rate limiter burst size")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")

	return cmd
}
