package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/tierline-ai/tierline/pkg/config"
	"github.com/tierline-ai/tierline/pkg/ledger"
	"github.com/tierline-ai/tierline/pkg/models"
	"github.com/tierline-ai/tierline/pkg/registry"
)

var (
	seedDepartments = []string{"engineering", "marketing", "research", "support", "sales"}
	seedProjects    = []string{"chatbot", "content-gen", "data-analysis", "code-review", "translation"}
)

func newSeedCmd() *cobra.Command {
	var (
		configPath string
		days       int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the ledger with sample usage data for demos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			reg, err := registry.New(cfg.Models())
			if err != nil {
				return err
			}
			if reg.Len() == 0 {
				return fmt.Errorf("no models configured; nothing to sample from")
			}

			led, err := ledger.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = led.Close() }()

			rng := rand.New(rand.NewSource(seed))
			all := reg.All()
			now := time.Now().UTC()

			var recs []models.UsageRecord
			for dayOffset := 0; dayOffset < days; dayOffset++ {
				date := now.AddDate(0, 0, -dayOffset)
				requests := 5 + rng.Intn(21)
				for i := 0; i < requests; i++ {
					m := all[rng.Intn(len(all))]
					in := 100 + rng.Intn(4901)
					out := 50 + rng.Intn(2951)
					recs = append(recs, models.UsageRecord{
						Model:        m.ID,
						Department:   seedDepartments[rng.Intn(len(seedDepartments))],
						Project:      seedProjects[rng.Intn(len(seedProjects))],
						InputTokens:  in,
						OutputTokens: out,
						Cost:         m.EstimateCost(in, out),
						LatencyMs:    100 + rng.Float64()*2900,
						CreatedAt: time.Date(date.Year(), date.Month(), date.Day(),
							8+rng.Intn(13), rng.Intn(60), 0, 0, time.UTC),
					})
				}
			}

			if err := led.LogBatch(context.Background(), recs); err != nil {
				return err
			}

			fmt.Printf("Seeded %d usage records over %d days\n", len(recs), days)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tierline.yaml", "path to config file")
	cmd.Flags().IntVar(&days, "days", 30, "number of past days to generate")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed for reproducible data")

	return cmd
}
