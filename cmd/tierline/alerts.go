package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tierline-ai/tierline/pkg/config"
	"github.com/tierline-ai/tierline/pkg/ledger"
)

func newAlertsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show threshold alerts for all budgets",
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

			alerts, err := eng.GenerateAlerts(context.Background())
			if err != nil {
				return err
			}

			if len(alerts) == 0 {
				fmt.Println("All budgets OK.")
				return nil
			}
			for _, a := range alerts {
				fmt.Printf("[%s] %s\n", a.ID[:8], a.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tierline.yaml", "path to config file")
	return cmd
}
