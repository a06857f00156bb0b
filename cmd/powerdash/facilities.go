package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jgoulah/powerdash/internal/database"
	"github.com/jgoulah/powerdash/pkg/models"
)

var facilitiesCmd = &cobra.Command{
	Use:   "facilities",
	Short: "Manage the stored facilities used by the usage summary",
}

var facilitiesImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import facilities from a JSON or YAML file",
	Long: `Reads a list of facilities (or a document with a "facilities" list) and
stores them, replacing any facility with the same id. Facilities without an
id get a generated UUID.`,
	Args: cobra.ExactArgs(1),
	RunE: runFacilitiesImport,
}

var facilitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored facilities",
	RunE:  runFacilitiesList,
}

var facilitiesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a stored facility",
	Args:  cobra.ExactArgs(1),
	RunE:  runFacilitiesDelete,
}

func init() {
	facilitiesCmd.AddCommand(facilitiesImportCmd, facilitiesListCmd, facilitiesDeleteCmd)
	rootCmd.AddCommand(facilitiesCmd)
}

func runFacilitiesImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	facilities, err := database.DecodeFacilities(data, ext == ".yaml" || ext == ".yml")
	if err != nil {
		return err
	}
	if len(facilities) == 0 {
		fmt.Println("No facilities found in file")
		return nil
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ids, err := db.ImportFacilities(facilities)
	for _, id := range ids {
		fmt.Printf("✓ %s\n", id)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d facilities\n", len(ids))
	return nil
}

func runFacilitiesList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	facilities, err := db.ListFacilities()
	if err != nil {
		return fmt.Errorf("listing facilities: %w", err)
	}
	if len(facilities) == 0 {
		fmt.Println("No facilities found")
		return nil
	}

	fmt.Println("----------------------------------------------------------------------------")
	fmt.Printf("%-36s  %-16s  %-12s  %6s  %12s\n", "ID", "Name", "Category", "Points", "kWh")
	fmt.Println("----------------------------------------------------------------------------")

	var total float64
	for _, f := range facilities {
		kwh := lo.SumBy(f.Usage, func(p models.UsagePoint) float64 { return p.KWh })
		total += kwh
		fmt.Printf("%-36s  %-16s  %-12s  %6d  %12s\n",
			f.ID, f.Name, f.Category, len(f.Usage), humanize.CommafWithDigits(kwh, 2))
	}

	fmt.Println("----------------------------------------------------------------------------")
	fmt.Printf("Total: %s kWh (%d facilities)\n", humanize.CommafWithDigits(total, 2), len(facilities))
	return nil
}

func runFacilitiesDelete(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	f, err := db.GetFacility(args[0])
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("facility not found: %s", args[0])
	}

	if err := db.DeleteFacility(f.ID); err != nil {
		return err
	}
	fmt.Printf("✓ Deleted %s (%s)\n", f.ID, f.Name)
	return nil
}
