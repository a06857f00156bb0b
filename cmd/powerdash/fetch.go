package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jgoulah/powerdash/internal/kepco"
	"github.com/jgoulah/powerdash/pkg/models"
)

var (
	fetchYear    string
	fetchMonth   string
	fetchMetroCd string
	fetchMetro   string
	fetchCity    string
	fetchBizType string
	fetchJSON    bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [industry|business]",
	Short: "Fetch normalized rows from the KEPCO API",
	Long: `Calls one KEPCO operation and prints the normalized rows.

  industry  powerUsage/industryType, filtered by --metro-cd
  business  powerUsage/businessType, filtered by --metro and --city names`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"industry", "business"},
	RunE:      runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchYear, "year", "", "year (YYYY)")
	fetchCmd.Flags().StringVar(&fetchMonth, "month", "", "month (1-12)")
	fetchCmd.Flags().StringVar(&fetchMetroCd, "metro-cd", "", "metro code, industry only (e.g. 30)")
	fetchCmd.Flags().StringVar(&fetchMetro, "metro", "", "metro name, business only")
	fetchCmd.Flags().StringVar(&fetchCity, "city", "", "city name, business only")
	fetchCmd.Flags().StringVar(&fetchBizType, "biz-type", "", "business type name, business only")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print rows as JSON")
	fetchCmd.MarkFlagRequired("year")
	fetchCmd.MarkFlagRequired("month")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	var operation string
	params := kepco.Params{"year": fetchYear, "month": fetchMonth}
	switch args[0] {
	case "industry":
		operation = kepco.OpIndustryType
		params["metroCd"] = fetchMetroCd
	case "business":
		if fetchMetro == "" || fetchCity == "" {
			return fmt.Errorf("business requires --metro and --city")
		}
		operation = kepco.OpBusinessType
		params["metro"] = fetchMetro
		params["city"] = fetchCity
		params["bizType"] = fetchBizType
	default:
		return fmt.Errorf("unknown operation: %s (available: industry, business)", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(cfg)
	defer log.Sync()

	client := newUpstream(cfg, log, nil)

	start := time.Now()
	rows, err := client.Call(cmd.Context(), operation, params)
	if err != nil {
		return fmt.Errorf("calling %s: %w", operation, err)
	}

	if fetchJSON {
		return printJSON(rows)
	}

	printRows(rows)
	fmt.Printf("✓ %d rows from %s in %s\n", len(rows), operation, time.Since(start).Round(time.Millisecond))
	return nil
}

func printRows(rows []models.Row) {
	if len(rows) == 0 {
		fmt.Println("No data found")
		return
	}

	fmt.Println("------------------------------------------------------------------------")
	fmt.Printf("%-24s  %-10s  %16s  %16s  %8s\n", "Biz", "City", "kWh", "Bill", "Cust")
	fmt.Println("------------------------------------------------------------------------")
	for _, r := range rows {
		fmt.Printf("%-24s  %-10s  %16s  %16s  %8s\n",
			r.Biz, r.City,
			humanize.CommafWithDigits(r.PowerUsage, 2),
			humanize.CommafWithDigits(r.Bill, 0),
			humanize.Comma(r.CustCnt))
	}
	fmt.Println("------------------------------------------------------------------------")

	total := lo.SumBy(rows, func(r models.Row) float64 { return r.PowerUsage })
	fmt.Printf("Total: %s kWh\n", humanize.CommafWithDigits(total, 2))
}
