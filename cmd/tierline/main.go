package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "tierline",
		Short:   "Tier-aware LLM request router and budget governor",
		Version: version,
	}

	root.AddCommand(
		newRouteCmd(),
		newLogCmd(),
		newStatsCmd(),
		newBudgetCmd(),
		newForecastCmd(),
		newAlertsCmd(),
		newSavingsCmd(),
		newSeedCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
