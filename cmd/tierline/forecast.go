package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tierline-ai/tierline/pkg/config"
	"github.com/tierline-ai/tierline/pkg/ledger"
)

func newForecastCmd() *cobra.Command {
	var (
		configPath string
		entity     string
		days       int
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project period spend for a budgeted entity",
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

			f, err := eng.Forecast(context.Background(), entity, days)
			if err != nil {
				return err
			}

			if f.InsufficientData {
				fmt.Printf("%s: no usage this period yet, not enough data to forecast\n", f.Entity)
				return nil
			}

			fmt.Printf("Entity:            %s\n", f.Entity)
			fmt.Printf("Consumed:          $%.6f\n", f.Consumed)
			fmt.Printf("Daily burn rate:   $%.6f\n", f.DailyRate)
			fmt.Printf("Projected (+%dd):  $%.6f\n", f.DaysAhead, f.Projected)
			fmt.Printf("End of period:     $%.6f of $%.2f\n", f.ProjectedEndOfPeriod, f.Limit)
			if f.WillExceed {
				fmt.Println("WARNING: budget projected to be exceeded before the period ends")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tierline.yaml", "path to config file")
	cmd.Flags().StringVar(&entity, "entity", "", "budgeted entity (required)")
	cmd.Flags().IntVar(&days, "days", 30, "days ahead to project")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}
