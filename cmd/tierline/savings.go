package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tierline-ai/tierline/pkg/analytics"
	"github.com/tierline-ai/tierline/pkg/config"
	"github.com/tierline-ai/tierline/pkg/ledger"
	"github.com/tierline-ai/tierline/pkg/registry"
)

func newSavingsCmd() *cobra.Command {
	var (
		configPath  string
		baseline    string
		efficiency  bool
		utilization bool
	)

	cmd := &cobra.Command{
		Use:   "savings",
		Short: "Show routing savings vs a single-model baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			reg, err := registry.New(cfg.Models())
			if err != nil {
				return err
			}

			led, err := ledger.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = led.Close() }()

			eng := analytics.New(led, reg)
			ctx := context.Background()

			if efficiency {
				metrics, err := eng.Efficiency(ctx)
				if err != nil {
					return err
				}
				if len(metrics) == 0 {
					fmt.Println("No usage data found.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "MODEL\tREQUESTS\t$/OUTPUT TOKEN\t$/REQUEST\tAVG LATENCY")
				for _, m := range metrics {
					fmt.Fprintf(w, "%s\t%d\t$%.8f\t$%.6f\t%.0fms\n",
						m.Model, m.RequestCount, m.CostPerOutputToken, m.CostPerRequest, m.AvgLatencyMs)
				}
				return w.Flush()
			}

			if utilization {
				rates, err := eng.Utilization(ctx)
				if err != nil {
					return err
				}
				if len(rates) == 0 {
					fmt.Println("No usage data found.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "MODEL\tREQUESTS\tREQUEST %\tCOST\tCOST %")
				for _, r := range rates {
					fmt.Fprintf(w, "%s\t%d\t%.2f%%\t$%.6f\t%.2f%%\n",
						r.Model, r.RequestCount, r.RequestPct, r.Cost, r.CostPct)
				}
				return w.Flush()
			}

			report, err := eng.Savings(ctx, baseline)
			if err != nil {
				return err
			}

			fmt.Printf("Actual cost:    $%.6f\n", report.ActualCost)
			fmt.Printf("Baseline cost:  $%.6f (all traffic on %s)\n", report.BaselineCost, report.BaselineModel)
			fmt.Printf("Savings:        $%.6f (%.2f%%)\n", report.Savings, report.SavingsPct)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tierline.yaml", "path to config file")
	cmd.Flags().StringVar(&baseline, "baseline", "", "baseline model ID (default: most expensive)")
	cmd.Flags().BoolVar(&efficiency, "efficiency", false, "show per-model efficiency metrics")
	cmd.Flags().BoolVar(&utilization, "utilization", false, "show per-model utilization rates")

	return cmd
}
