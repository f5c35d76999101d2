package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cfgdot/pkg/cfg"
	"github.com/matzehuels/cfgdot/pkg/clipboard"
	"github.com/matzehuels/cfgdot/pkg/errors"
	"github.com/matzehuels/cfgdot/pkg/raster"
	"github.com/matzehuels/cfgdot/pkg/session"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	viewOpts
	format string // png (default) or svg
	output string // output path, default <function>_<mode>.<format>
	copy   bool   // also copy the image to the clipboard
}

// renderCommand creates the render command, which rasterizes one view.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <export>",
		Short: "Render a function view to PNG or SVG",
		Long: `Render a function view through Graphviz.

The DOT text is written to a reused temp file and handed to the configured
dot executable (or the builtin renderer with --dot-path builtin). Results are
cached by DOT text, format and DPI.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts, clipboard.System{})
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "png", "image format: png, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <function>_<mode>.<format>)")
	cmd.Flags().BoolVarP(&opts.copy, "copy", "c", false, "copy the image to the clipboard (png only)")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, path string, opts renderOpts, clip clipboard.Clipboard) error {
	format, err := raster.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.copy && format != raster.FormatPNG {
		return errors.New(errors.ErrCodeInvalidInput, "--copy needs --format png")
	}

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

	conf := c.Config
	conf.DefaultFont, conf.DefaultFontSize = font, size
	sess := session.New(conf, fn, c.newRasterizer(format, store),
		session.WithMode(kind),
		session.WithLogger(c.Logger),
	)

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s (%s)...", fn.Name(), kind.DisplayName()))
	spinner.Start()
	snap, _ := sess.Refresh(ctx)
	if snap.Err != nil {
		spinner.StopWithError("Render failed")
		return snap.Err
	}
	spinner.Stop()
	prog.done("rendered " + fn.Name())

	output := opts.output
	if output == "" {
		output = defaultImageName(fn.Name(), kind, format)
	}
	if err := sess.SaveImage(output); err != nil {
		return err
	}
	printSuccess("Rendered %s %s", fn.Name(), StyleDim.Render(fmt.Sprintf("(%s, %d blocks)", kind.DisplayName(), snap.Blocks)))
	printFile(output)

	if opts.copy {
		if err := sess.CopyImage(clip); err != nil {
			return err
		}
		printDetail("Copied image to clipboard")
	}
	return nil
}

// defaultImageName is "<function>_<mode>.<format>".
func defaultImageName(function string, kind cfg.Kind, format raster.Format) string {
	return fmt.Sprintf("%s_%s.%s", function, kind, format)
}
