package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/powerdash/internal/insights"
)

var (
	citiesYear    string
	citiesMonth   string
	citiesMetroCd string
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List the city names reported for a metro",
	RunE:  runCities,
}

func init() {
	citiesCmd.Flags().StringVar(&citiesYear, "year", "", "year (YYYY)")
	citiesCmd.Flags().StringVar(&citiesMonth, "month", "", "month (1-12)")
	citiesCmd.Flags().StringVar(&citiesMetroCd, "metro-cd", "", "metro code (e.g. 30)")
	citiesCmd.MarkFlagRequired("year")
	citiesCmd.MarkFlagRequired("month")
	citiesCmd.MarkFlagRequired("metro-cd")
	rootCmd.AddCommand(citiesCmd)
}

func runCities(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(cfg)
	defer log.Sync()

	svc := insights.NewService(newUpstream(cfg, log, nil))
	cities, err := svc.Cities(cmd.Context(), insights.CitiesQuery{
		Year:    citiesYear,
		Month:   citiesMonth,
		MetroCd: citiesMetroCd,
	})
	if err != nil {
		return err
	}

	if len(cities) == 0 {
		fmt.Println("No cities found")
		return nil
	}
	for _, c := range cities {
		fmt.Println(c)
	}
	return nil
}
