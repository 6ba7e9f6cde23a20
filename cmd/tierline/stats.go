package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tierline-ai/tierline/pkg/analytics"
	"github.com/tierline-ai/tierline/pkg/config"
	"github.com/tierline-ai/tierline/pkg/ledger"
	"github.com/tierline-ai/tierline/pkg/models"
	"github.com/tierline-ai/tierline/pkg/registry"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		groupBy    string
		department string
		project    string
		since      string
		top        int
		trendDays  int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cost and usage statistics from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			led, err := ledger.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = led.Close() }()

			ctx := context.Background()

			filter := ledger.Filter{Department: department, Project: project}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				filter.Since = t
			}

			if top > 0 {
				summaries, err := led.TopDepartments(ctx, top)
				if err != nil {
					return err
				}
				return printSummaries(summaries, "DEPARTMENT")
			}

			if trendDays > 0 {
				reg, err := registry.New(cfg.Models())
				if err != nil {
					return err
				}
				trends, err := analytics.New(led, reg).Trends(ctx, trendDays, department)
				if err != nil {
					return err
				}
				if len(trends) == 0 {
					fmt.Println("No usage data found.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tDAILY COST\tREQUESTS\tCUMULATIVE")
				for _, p := range trends {
					fmt.Fprintf(w, "%s\t$%.6f\t%d\t$%.6f\n", p.Date, p.DailyCost, p.RequestCount, p.CumulativeCost)
				}
				return w.Flush()
			}

			var (
				rows   []costRow
				header string
			)
			switch groupBy {
			case "department":
				s, err := led.CostsByDepartment(ctx, filter)
				if err != nil {
					return err
				}
				rows, header = toRows(s), "DEPARTMENT"
			case "project":
				s, err := led.CostsByProject(ctx, filter)
				if err != nil {
					return err
				}
				rows, header = toRows(s), "PROJECT"
			case "model":
				s, err := led.CostsByModel(ctx, filter)
				if err != nil {
					return err
				}
				rows, header = toRows(s), "MODEL"
			default:
				return fmt.Errorf("unknown --by value %q (use department, project, or model)", groupBy)
			}

			if len(rows) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tREQUESTS\tINPUT\tOUTPUT\tAVG LATENCY\tTOTAL COST\n", header)
			var total float64
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.0fms\t$%.6f\n",
					r.entity, r.requests, r.input, r.output, r.avgLatency, r.cost)
				total += r.cost
			}
			fmt.Fprintf(w, "TOTAL\t\t\t\t\t$%.6f\n", total)
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tierline.yaml", "path to config file")
	cmd.Flags().StringVar(&groupBy, "by", "department", "group by department, project, or model")
	cmd.Flags().StringVar(&department, "department", "", "filter by department")
	cmd.Flags().StringVar(&project, "project", "", "filter by project")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&top, "top", 0, "show only the top N spending departments")
	cmd.Flags().IntVar(&trendDays, "trend", 0, "show a daily cost trend over the past N days")

	return cmd
}

type costRow struct {
	entity        string
	requests      int64
	input, output int64
	avgLatency    float64
	cost          float64
}

func toRows(summaries []models.CostSummary) []costRow {
	rows := make([]costRow, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, costRow{
			entity:     s.Entity,
			requests:   s.RequestCount,
			input:      s.TotalInputTokens,
			output:     s.TotalOutputTokens,
			avgLatency: s.AvgLatencyMs,
			cost:       s.TotalCost,
		})
	}
	return rows
}

func printSummaries(summaries []models.CostSummary, header string) error {
	if len(summaries) == 0 {
		fmt.Println("No usage data found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tREQUESTS\tAVG COST\tTOTAL COST\n", header)
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t$%.6f\t$%.6f\n", s.Entity, s.RequestCount, s.AvgCostPerRequest, s.TotalCost)
	}
	return w.Flush()
}
