package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tierline-ai/tierline/pkg/config"
	"github.com/tierline-ai/tierline/pkg/ledger"
	"github.com/tierline-ai/tierline/pkg/models"
	"github.com/tierline-ai/tierline/pkg/registry"
)

func newLogCmd() *cobra.Command {
	var (
		configPath   string
		model        string
		department   string
		project      string
		inputTokens  int
		outputTokens int
		cost         float64
		latencyMs    float64
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Append a usage record to the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			reg, err := registry.New(cfg.Models())
			if err != nil {
				return err
			}

			m, ok := reg.Get(model)
			if !ok {
				return fmt.Errorf("model %q is not in the registry", model)
			}
			switch {
			case !cmd.Flags().Changed("cost"):
				// Derive cost from registry rates when not supplied.
				cost = m.EstimateCost(inputTokens, outputTokens)
			case cost < 0:
				return fmt.Errorf("--cost must not be negative (got %v)", cost)
			}

			led, err := ledger.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = led.Close() }()

			id, err := led.Log(context.Background(), models.UsageRecord{
				Model:        model,
				Department:   department,
				Project:      project,
				InputTokens:  inputTokens,
				OutputTokens: outputTokens,
				Cost:         cost,
				LatencyMs:    latencyMs,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Logged usage record %d ($%.6f)\n", id, cost)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tierline.yaml", "path to config file")
	cmd.Flags().StringVar(&model, "model", "", "model identifier (required)")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().StringVar(&project, "project", "", "project")
	cmd.Flags().IntVar(&inputTokens, "input-tokens", 0, "input tokens consumed")
	cmd.Flags().IntVar(&outputTokens, "output-tokens", 0, "output tokens generated")
	cmd.Flags().Float64Var(&cost, "cost", 0, "realized cost in USD (default: derived from rates)")
	cmd.Flags().Float64Var(&latencyMs, "latency-ms", 0, "request latency in milliseconds")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}
