package cli

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cfgdot/pkg/clipboard"
	"github.com/matzehuels/cfgdot/pkg/host"
	"github.com/matzehuels/cfgdot/pkg/raster"
	"github.com/matzehuels/cfgdot/pkg/session"
)

// previewCommand creates the preview command, an interactive export session.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		opts  viewOpts
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "preview <export>",
		Short: "Interactively tune and export a function graph",
		Long: `Open an interactive session for one function.

Changing the view, font or size re-renders the graph after a short pause.
The DOT text and PNG can then be copied to the clipboard or saved.

Keys:
  tab / shift+tab  next / previous view
  + / -            font size
  f                edit font
  c                copy DOT text
  p                copy PNG image
  s                save PNG image
  r                re-render now
  q                quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), args[0], opts, watch)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the export when the file changes")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, path string, opts viewOpts, watch bool) error {
	kind, font, size, err := opts.resolve(c.Config)
	if err != nil {
		return err
	}
	fn, err := c.loadFunction(path)
	if err != nil {
		return err
	}

	store, err := c.openCache(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The TUI owns the terminal; keep log lines out of it.
	logger := c.Logger.WithPrefix("preview")
	logger.SetOutput(io.Discard)

	conf := c.Config
	conf.DefaultFont, conf.DefaultFontSize = font, size
	sess := session.New(conf, fn, c.newRasterizer(raster.FormatPNG, store),
		session.WithMode(kind),
		session.WithLogger(logger),
	)

	model := newPreviewModel(sess, clipboard.System{}, fn.Name())
	if watch {
		w := &exportWatcher{
			path:   path,
			load:   host.Load,
			apply:  func(fn *host.Function) { sess.SetFunction(fn); model.notify(fmt.Sprintf("reloaded %s", path), false) },
			failed: func(err error) { model.notify("reload failed: "+err.Error(), true) },
		}
		go func() {
			if err := w.run(ctx); err != nil {
				model.notify(err.Error(), true)
			}
		}()
	}

	sess.Start()
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
