package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cfgdot/pkg/cfg"
	"github.com/matzehuels/cfgdot/pkg/config"
	"github.com/matzehuels/cfgdot/pkg/dot"
	"github.com/matzehuels/cfgdot/pkg/host"
)

// viewOpts selects a view and its node font. Zero values fall back to the
// config defaults.
type viewOpts struct {
	mode string // view kind: asm, llil, mlil, hlil
	font string // node font name
	size int    // node font size, clamped to 8-40
}

func (o *viewOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.mode, "mode", "m", "", "view: asm (default), llil, mlil, hlil")
	cmd.Flags().StringVar(&o.font, "font", "", "node font (default from config)")
	cmd.Flags().IntVar(&o.size, "size", 0, "node font size (default from config)")
}

// resolve applies the config defaults and parses the mode.
func (o viewOpts) resolve(conf config.Config) (kind cfg.Kind, font string, size int, err error) {
	kind, err = parseKindFlag(o.mode)
	if err != nil {
		return "", "", 0, err
	}
	font = o.font
	if font == "" {
		font = conf.DefaultFont
	}
	size = o.size
	if size == 0 {
		size = conf.DefaultFontSize
	}
	return kind, font, config.ClampFontSize(size), nil
}

// formatView loads path and formats the selected view.
func (c *CLI) formatView(path string, opts viewOpts) (*host.Function, cfg.Kind, string, error) {
	kind, font, size, err := opts.resolve(c.Config)
	if err != nil {
		return nil, "", "", err
	}
	fn, err := c.loadFunction(path)
	if err != nil {
		return nil, "", "", err
	}
	view, err := fn.View(kind)
	if err != nil {
		return nil, "", "", err
	}
	return fn, kind, dot.Format(view, font, size), nil
}

// dotCommand creates the dot command, which prints the DOT text of a view.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		opts   viewOpts
		output string
	)

	cmd := &cobra.Command{
		Use:   "dot <export>",
		Short: "Print the Graphviz DOT text for a function view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, text, err := c.formatView(args[0], opts)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}
			if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printFile(output)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
