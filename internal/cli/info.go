package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cfgdot/pkg/cfg"
	"github.com/matzehuels/cfgdot/pkg/host"
)

// viewRow is one line of the info table.
type viewRow struct {
	kind      cfg.Kind
	available bool
	stats     cfg.Stats
}

func viewRows(fn *host.Function) []viewRow {
	rows := make([]viewRow, 0, len(cfg.Kinds))
	for _, k := range cfg.Kinds {
		row := viewRow{kind: k}
		if v, err := fn.View(k); err == nil {
			row.available = true
			row.stats = cfg.StatsOf(v)
		}
		rows = append(rows, row)
	}
	return rows
}

// infoCommand creates the info command, which summarizes an export.
func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <export>",
		Short: "Show the views available in a function export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, err := c.loadFunction(args[0])
			if err != nil {
				return err
			}
			printKeyValue("Function", fn.Name())
			printKeyValue("Export", args[0])
			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, renderViewTable(viewRows(fn)))
			return nil
		},
	}
}

func renderViewTable(rows []viewRow) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		if !r.available {
			cells = append(cells, []string{r.kind.DisplayName(), "unavailable", "—", "—", "—"})
			continue
		}
		cells = append(cells, []string{
			r.kind.DisplayName(),
			"ok",
			strconv.Itoa(r.stats.Blocks),
			strconv.Itoa(r.stats.Edges),
			strconv.Itoa(r.stats.Lines),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("View", "Status", "Blocks", "Edges", "Lines").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || row >= len(rows) {
				return base
			}
			if !rows[row].available {
				return base.Foreground(colorDim)
			}
			if col >= 2 {
				return base.Foreground(colorCyan).Align(lipgloss.Right)
			}
			return base.Foreground(colorWhite)
		})
	return t.Render()
}
