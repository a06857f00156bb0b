package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jgoulah/powerdash/internal/insights"
	"github.com/jgoulah/powerdash/pkg/models"
)

var (
	insightsJSON bool

	topYear    string
	topMonth   string
	topMetroCd string
	topCity    string
	topLimit   int
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Summarize usage of the stored facilities",
	Long: `Computes per-facility totals, the merged hourly timeline, highest and
lowest facilities, the average, the peak hour and first-to-last growth.`,
	RunE: runInsights,
}

var insightsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the top industries by usage from the KEPCO API",
	RunE:  runInsightsTop,
}

func init() {
	insightsCmd.PersistentFlags().BoolVar(&insightsJSON, "json", false, "print the result as JSON")

	insightsTopCmd.Flags().StringVar(&topYear, "year", "", "year (YYYY)")
	insightsTopCmd.Flags().StringVar(&topMonth, "month", "", "month (1-12)")
	insightsTopCmd.Flags().StringVar(&topMetroCd, "metro-cd", "", "metro code (e.g. 30)")
	insightsTopCmd.Flags().StringVar(&topCity, "city", "", "city name to filter by")
	insightsTopCmd.Flags().IntVar(&topLimit, "limit", insights.DefaultTopLimit, "number of industries to show")
	insightsTopCmd.MarkFlagRequired("year")
	insightsTopCmd.MarkFlagRequired("month")

	insightsCmd.AddCommand(insightsTopCmd)
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	facilities, err := db.ListFacilities()
	if err != nil {
		return fmt.Errorf("listing facilities: %w", err)
	}
	s := insights.Summarize(facilities)

	if insightsJSON {
		return printJSON(s)
	}

	if len(s.FacilityTotals) == 0 {
		fmt.Println("No facilities found")
		return nil
	}

	fmt.Println("Facility totals:")
	for _, f := range s.FacilityTotals {
		fmt.Printf("  %-24s  %12s kWh\n", f.Name, humanize.CommafWithDigits(f.Total, 2))
	}

	m := s.Metrics
	fmt.Println()
	fmt.Printf("Highest:  %s\n", describeTotal(m.HighestUsage))
	fmt.Printf("Lowest:   %s\n", describeTotal(m.LowestUsage))
	fmt.Printf("Average:  %s kWh\n", humanize.CommafWithDigits(m.AverageUsage, 2))
	if m.PeakHour != nil {
		fmt.Printf("Peak:     %s (%s kWh)\n", m.PeakHour.Hour, humanize.CommafWithDigits(m.PeakHour.KWh, 2))
	}
	fmt.Printf("Growth:   %+.2f kWh (%+.2f%%)\n", m.GrowthRate.Absolute, m.GrowthRate.Percentage)
	return nil
}

func runInsightsTop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(cfg)
	defer log.Sync()

	svc := insights.NewService(newUpstream(cfg, log, nil))
	top, err := svc.TopIndustries(cmd.Context(), insights.IndustryQuery{
		Year:    topYear,
		Month:   topMonth,
		MetroCd: topMetroCd,
		City:    topCity,
		Limit:   topLimit,
	})
	if err != nil {
		return err
	}

	if insightsJSON {
		return printJSON(top)
	}
	if len(top) == 0 {
		fmt.Println("No data found")
		return nil
	}

	fmt.Printf("%-3s  %-28s  %16s  %16s  %8s  %12s\n", "#", "Industry", "kWh", "Bill", "Cust", "kWh/cust")
	for i, t := range top {
		perCust := "-"
		if t.KWhPerCust != nil {
			perCust = humanize.CommafWithDigits(*t.KWhPerCust, 1)
		}
		fmt.Printf("%-3d  %-28s  %16s  %16s  %8s  %12s\n", i+1, t.Biz,
			humanize.CommafWithDigits(t.KWh, 0),
			humanize.CommafWithDigits(t.Bill, 0),
			humanize.Comma(t.CustCnt),
			perCust)
	}
	return nil
}

func describeTotal(t *models.FacilityTotal) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s kWh)", t.Name, humanize.CommafWithDigits(t.Total, 2))
}

func printJSON(v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
