package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagestack/pkg/server"
)

type serveFlags struct {
	addr        string
	maxUploadMB int
	cache       string
	timeout     time.Duration
}

// serveCommand creates the serve command, which exposes merging over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve merges over HTTP",
		Long: `Serve starts an HTTP server with the routes

  GET  /healthz
  GET  /v1/formats
  POST /v1/merge   multipart upload, responds with the merged document
  POST /v1/plan    multipart upload, responds with the JSON plan

Grid, label and output settings from the config file become the defaults
for form fields a request leaves out.`,
		Example: `  pagestack serve --addr :9000
  curl -F file=@slides.pdf -F rows=3 localhost:9000/v1/merge -o slides_merged.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default "+server.DefaultAddr+")")
	cmd.Flags().IntVar(&flags.maxUploadMB, "max-upload-mb", 0, "largest accepted upload in MiB (default 64)")
	cmd.Flags().StringVar(&flags.cache, "cache", "", `cache backend: memory (default), none, a directory or redis://host:port/db`)
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "time limit for one merge (default 5m)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags *serveFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	spec := firstNonEmpty(flags.cache, cfg.Server.CacheURL, cfg.CacheSpec(), "memory")
	runner, err := c.newRunner(ctx, spec, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	maxUpload := flags.maxUploadMB
	if maxUpload == 0 {
		maxUpload = cfg.Server.MaxUploadMB
	}
	srv := server.New(runner, server.Config{
		Addr:           firstNonEmpty(flags.addr, cfg.Server.Addr, server.DefaultAddr),
		MaxUploadBytes: int64(maxUpload) << 20,
		RequestTimeout: flags.timeout,
		Defaults:       cfg.Apply,
		Logger:         c.Logger,
	})

	p := newProgress(c.Logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	p.done("server stopped")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
