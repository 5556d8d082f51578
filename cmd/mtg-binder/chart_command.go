package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/mtg-binder/internal/charts"
	"github.com/ramonehamilton/mtg-binder/internal/session"
)

func newChartCommand(ctx *commandContext) *cobra.Command {
	var by string
	var output string
	var open bool

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render a breakdown of the collection as an HTML chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			breakdown := charts.Breakdown(by)
			return ctx.withSession(cmd.Context(), sessionOptions{}, func(s *session.Session) error {
				points, err := breakdown.Points(s.Registry().Entries())
				if err != nil {
					return fmt.Errorf("%w (choose one of %s)", err, breakdownNames())
				}

				config := charts.DefaultChartConfig()
				config.Title = breakdown.Title()
				config.Subtitle = fmt.Sprintf("%d cards", s.Registry().Len())

				path := output
				if path == "" {
					path = "collection-" + by + ".html"
				}
				if err := charts.RenderBarChart(points, config, path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)

				if open {
					return charts.OpenInBrowser(path)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&by, "by", string(charts.ByRarity), "Breakdown: "+breakdownNames())
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output HTML file")
	cmd.Flags().BoolVar(&open, "open", false, "Open the chart in a browser")
	return cmd
}

func breakdownNames() string {
	names := make([]string, 0, len(charts.Breakdowns()))
	for _, b := range charts.Breakdowns() {
		names = append(names, string(b))
	}
	return strings.Join(names, ", ")
}
