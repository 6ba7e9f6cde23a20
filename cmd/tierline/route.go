package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tierline-ai/tierline/pkg/classifier"
	"github.com/tierline-ai/tierline/pkg/config"
	"github.com/tierline-ai/tierline/pkg/ledger"
	"github.com/tierline-ai/tierline/pkg/models"
	"github.com/tierline-ai/tierline/pkg/registry"
	"github.com/tierline-ai/tierline/pkg/router"
)

func newRouteCmd() *cobra.Command {
	var (
		configPath   string
		inputTokens  int
		outputTokens int
		maxCost      float64
		minTier      string
		record       bool
		department   string
		project      string
	)

	cmd := &cobra.Command{
		Use:   "route <text>",
		Short: "Classify a request and select a model for it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			reg, err := registry.New(cfg.Models())
			if err != nil {
				return err
			}

			r := router.New(reg, classifier.New(cfg.Classifier), cfg.Router)
			text := strings.Join(args, " ")

			decision, err := r.RouteWithOptions(text, router.Options{
				InputTokens:  inputTokens,
				OutputTokens: outputTokens,
				MaxCost:      maxCost,
				MinTier:      models.Tier(minTier),
			})
			if err != nil {
				return err
			}

			fmt.Printf("Model:          %s (%s)\n", decision.Model.ID, decision.Model.Name)
			fmt.Printf("Tier:           %s\n", decision.Tier)
			fmt.Printf("Complexity:     %.2f\n", decision.Score)
			fmt.Printf("Tokens:         %d in / %d out\n", decision.InputTokens, decision.OutputTokens)
			fmt.Printf("Estimated cost: $%.6f\n", decision.EstimatedCost)
			fmt.Printf("Reason:         %s\n", decision.Reason)

			if !record {
				return nil
			}

			led, err := ledger.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = led.Close() }()

			id, err := led.Log(context.Background(), models.UsageRecord{
				Model:        decision.Model.ID,
				Department:   department,
				Project:      project,
				InputTokens:  decision.InputTokens,
				OutputTokens: decision.OutputTokens,
				Cost:         decision.EstimatedCost,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Logged usage record %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tierline.yaml", "path to config file")
	cmd.Flags().IntVar(&inputTokens, "input-tokens", 0, "override estimated input tokens")
	cmd.Flags().IntVar(&outputTokens, "output-tokens", 0, "override estimated output tokens")
	cmd.Flags().Float64Var(&maxCost, "max-cost", 0, "maximum acceptable estimated cost in USD")
	cmd.Flags().StringVar(&minTier, "min-tier", "", "minimum tier (economy, standard, premium)")
	cmd.Flags().BoolVar(&record, "log", false, "log the decision as simulated usage")
	cmd.Flags().StringVar(&department, "department", "", "department to attribute logged usage to")
	cmd.Flags().StringVar(&project, "project", "", "project to attribute logged usage to")

	return cmd
}
