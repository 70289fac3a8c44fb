package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pagestack/pkg/layout"
	"github.com/matzehuels/pagestack/pkg/pipeline"
	"github.com/matzehuels/pagestack/pkg/render"
)

// planCommand creates the plan command, which prints the placement of
// every page without rendering.
func (c *CLI) planCommand() *cobra.Command {
	var (
		flags  mergeFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "plan file...",
		Short: "Show where every page lands on the sheets",
		Example: `  pagestack plan --rows 3 --cols 3 handout.pdf
  pagestack plan --json slides.pptx | jq '.placements[0]'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlan(cmd.Context(), args, &flags, asJSON)
		},
	}

	flags.addLayoutFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON placement plan")
	return cmd
}

func (c *CLI) runPlan(ctx context.Context, args []string, flags *mergeFlags, asJSON bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	inputs, err := readInputs(args)
	if err != nil {
		return err
	}

	opts := flags.options(inputs)
	cfg.Apply(&opts)
	opts.Formats = []string{string(render.FormatJSON)}

	runner, err := c.newRunner(ctx, cfg.CacheSpec(), flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	if asJSON {
		res, err := runner.Execute(ctx, opts)
		if err != nil {
			return err
		}
		_, err = stdout.Write(res.Artifacts[render.FormatJSON])
		return err
	}

	src, cached, err := runner.OpenWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	g, placements, err := pipeline.Placements(src, opts)
	if err != nil {
		return err
	}

	how := "opened"
	if cached {
		how = "converted (cached)"
	} else if src.Kind().NeedsConversion() {
		how = "converted"
	}

	fmt.Fprintln(stdout, StyleTitle.Render("Placement plan"))
	printKeyValue("Input", opts.InputName())
	printKeyValue("Kind", src.Kind().String()+", "+how)
	printKeyValue("Grid", fmt.Sprintf("%d x %d, labels %s", g.Rows(), g.Cols(), opts.Anchor))
	printKeyValue("Sheet", fmt.Sprintf("%.1f x %.1f pt", g.SheetWidth(), g.SheetHeight()))
	printKeyValue("Pages", strconv.Itoa(src.NumPages()))
	printKeyValue("Sheets", strconv.Itoa(g.TotalSheets(src.NumPages())))
	fmt.Fprintln(stdout)

	if len(placements) == 0 {
		printWarning("The input has no pages")
		return nil
	}
	fmt.Fprintln(stdout, placementTable(placements).Render())
	return nil
}

func placementTable(placements []layout.Placement) *table.Table {
	rows := make([][]string, len(placements))
	for i, p := range placements {
		rows[i] = []string{
			strconv.Itoa(p.SheetIndex + 1),
			strconv.Itoa(p.SourceIndex + 1),
			fmt.Sprintf("r%d c%d", p.Row+1, p.Col+1),
			fmt.Sprintf("%.1f, %.1f", p.Dest.X0, p.Dest.Y0),
			fmt.Sprintf("%.1f x %.1f", p.Dest.X1-p.Dest.X0, p.Dest.Y1-p.Dest.Y0),
			fmt.Sprintf("%q at %.1f, %.1f", p.LabelText, p.Label.X, p.Label.Y),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Sheet", "Page", "Cell", "Origin", "Size", "Label").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(placements) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col < 2 {
				return base.Foreground(colorCyan)
			}
			if placements[row].SheetIndex%2 == 1 {
				return base.Foreground(colorGray)
			}
			return base
		})
}
