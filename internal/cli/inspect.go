package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cartogram/pkg/cartogram"
	pkgio "github.com/matzehuels/cartogram/pkg/io"
)

// inspectCommand creates the inspect command, which prints the per-region
// quantities of the first iteration without moving any vertex.
func (c *CLI) inspectCommand() *cobra.Command {
	var attribute, label string

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show the size error and force of every region",
		Example: `  cartogram inspect states.geojson -a population
  cartogram inspect states.geojson -a population --label NAME`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := pkgio.Import(args[0], attribute)
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			if err := coll.Validate(); err != nil {
				return err
			}
			coll.Normalize()

			state := cartogram.Derive(coll, 0)
			loggerFromContext(cmd.Context()).Debug("derived state",
				"regions", coll.Len(), "ratio", state.Ratio, "multipolygons", coll.HasMultiPolygons())
			labels := make([]string, coll.Len())
			for i := range labels {
				labels[i] = strconv.Itoa(i)
				if label != "" && coll.Properties != nil {
					if v, ok := coll.Properties[i][label]; ok {
						labels[i] = fmt.Sprint(v)
					}
				}
			}

			fmt.Fprintln(stdout, inspectTable(labels, coll.Values, state))
			printKeyValue("Regions", strconv.Itoa(coll.Len()))
			printKeyValue("Total area", formatFloat(state.TotalArea))
			printKeyValue("Total value", formatFloat(state.TotalValue))
			printKeyValue("Avg error", formatFloat(state.AverageError))
			printKeyValue("Reduction", formatFloat(state.ReductionFactor))
			return nil
		},
	}

	cmd.Flags().StringVarP(&attribute, "attribute", "a", "", "numeric attribute that drives the region sizes (required)")
	cmd.Flags().StringVar(&label, "label", "", "property used to name regions (default: feature index)")
	_ = cmd.MarkFlagRequired("attribute")

	return cmd
}

// inspectHeaders are the columns of the inspect table.
var inspectHeaders = []string{"Region", "Area", "Value", "Target", "Error", "Mass", "Radius"}

// inspectRows formats one row per region from a derived state.
func inspectRows(labels []string, values []float64, s *cartogram.State) [][]string {
	rows := make([][]string, len(labels))
	for i := range labels {
		rows[i] = []string{
			labels[i],
			formatFloat(s.Areas[i]),
			formatFloat(values[i]),
			formatFloat(s.Targets[i]),
			formatFloat(s.Errors[i]),
			formatFloat(s.Features[i].Mass),
			formatFloat(s.Features[i].Radius),
		}
	}
	return rows
}

// inspectTable renders the per-region quantities as a bordered table.
// Regions that need to grow are green and those that need to shrink are red.
func inspectTable(labels []string, values []float64, s *cartogram.State) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(inspectHeaders...).
		Rows(inspectRows(labels, values, s)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col != 5 || row < 0 || row >= len(s.Features) {
				return cell
			}
			switch m := s.Features[row].Mass; {
			case m > 0:
				return cell.Foreground(colorGreen)
			case m < 0:
				return cell.Foreground(colorRed)
			}
			return cell
		})
	return t.Render()
}

// formatFloat prints v with six significant digits.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
