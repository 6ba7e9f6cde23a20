package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tierline-ai/tierline/pkg/budget"
	"github.com/tierline-ai/tierline/pkg/config"
	"github.com/tierline-ai/tierline/pkg/ledger"
)

// buildEngine seeds a budget engine with the budgets declared in config.
func buildEngine(cfg *config.Config, led ledger.Ledger) (*budget.Engine, error) {
	eng := budget.New(led, budget.Thresholds{
		WarningPct:  cfg.Budget.WarningPct,
		CriticalPct: cfg.Budget.CriticalPct,
	})
	for _, b := range cfg.Budget.Budgets {
		if _, err := eng.Set(b.Entity, b.Limit, b.Period); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

func newBudgetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage spending budgets",
	}

	var entity string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show budget consumption vs limits",
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

			eng, err := buildEngine(cfg, led)
			if err != nil {
				return err
			}

			ctx := context.Background()

			if entity != "" {
				status, err := eng.Check(ctx, entity)
				if err != nil {
					return err
				}
				fmt.Printf("%s: $%.2f of $%.2f (%s, %.1f%%) [%s]\n",
					status.Entity, status.Consumed, status.Limit, status.Period,
					status.UsagePct, status.State)
				return nil
			}

			statuses, err := eng.CheckAll(ctx)
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Println("No budgets configured.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ENTITY\tPERIOD\tLIMIT\tCONSUMED\tREMAINING\tUSAGE\tSTATE")
			for _, s := range statuses {
				fmt.Fprintf(w, "%s\t%s\t$%.2f\t$%.2f\t$%.2f\t%.1f%%\t%s\n",
					s.Entity, s.Period, s.Limit, s.Consumed, s.Remaining, s.UsagePct, s.State)
			}
			return w.Flush()
		},
	}
	statusCmd.Flags().StringVar(&entity, "entity", "", "show a single entity")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "tierline.yaml", "path to config file")
	cmd.AddCommand(statusCmd)
	return cmd
}
