package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cfgdot/pkg/host"
	"github.com/matzehuels/cfgdot/pkg/raster"
	"github.com/matzehuels/cfgdot/pkg/server"
)

const defaultAddr = "127.0.0.1:8080"

// serveCommand creates the serve command, an HTTP preview server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve <export>",
		Short: "Serve DOT text and images for a function over HTTP",
		Long: `Serve a function export over HTTP.

Endpoints:
  GET /healthz
  GET /views
  GET /dot?mode=hlil&font=Menlo&size=12
  GET /image?mode=hlil&format=svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], addr, watch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the export when the file changes")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, path, addr string, watch bool) error {
	fn, err := c.loadFunction(path)
	if err != nil {
		return err
	}

	store, err := c.openCache(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	rasterizers := map[raster.Format]raster.Rasterizer{
		raster.FormatPNG: c.newRasterizer(raster.FormatPNG, store),
		raster.FormatSVG: c.newRasterizer(raster.FormatSVG, store),
	}
	srv := server.New(c.Config, fn, rasterizers, c.Logger)

	if watch {
		w := &exportWatcher{
			path: path,
			load: host.Load,
			apply: func(fn *host.Function) {
				srv.SetFunction(fn)
				c.Logger.Info("reloaded export", "function", fn.Name())
			},
			failed: func(err error) { c.Logger.Warn("reload failed", "err", err) },
		}
		go func() {
			if err := w.run(ctx); err != nil {
				c.Logger.Warn("watch disabled", "err", err)
			}
		}()
	}

	printInfo("Serving %s on %s", StyleValue.Render(fn.Name()), StyleValue.Render("http://"+addr))
	return srv.ListenAndServe(ctx, addr)
}
