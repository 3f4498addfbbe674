package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ikkim/neighborly-backend/config"
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/repository"
	"github.com/ikkim/neighborly-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

const batchSize = 500

// Column headers, matched case-insensitively. name and district are required.
const (
	colName        = "name"
	colDistrict    = "district"
	colAddress     = "address"
	colPhone       = "phone"
	colCategories  = "categories"
	colDescription = "description"
)

type importStats struct {
	TotalRows  int
	Imported   int
	Skipped    int
	Duplicates int
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path> [-y]")
	}
	filePath := os.Args[1]
	assumeYes := len(os.Args) > 2 && os.Args[2] == "-y"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	businesses, stats, err := readBusinessesFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", stats.TotalRows)
	fmt.Printf("  Valid businesses: %d\n", stats.Imported)
	fmt.Printf("  Skipped rows: %d\n", stats.Skipped)
	fmt.Printf("  Duplicate rows: %d\n", stats.Duplicates)

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	businessRepo := repository.NewBusinessRepository(db.GetDB())
	if err := businessRepo.BulkCreate(businesses, batchSize); err != nil {
		log.Fatal("Failed to bulk create businesses:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total businesses imported: %d\n", len(businesses))
}

func readBusinessesFromXLSX(filePath string) ([]model.Business, importStats, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, importStats{}, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, importStats{}, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, importStats{}, fmt.Errorf("failed to read rows: %w", err)
	}
	return parseBusinessRows(rows)
}

// parseBusinessRows converts sheet rows into businesses. The first row holds
// the headers. Rows missing a name or district are skipped, and repeated
// name/district/address rows are imported once.
func parseBusinessRows(rows [][]string) ([]model.Business, importStats, error) {
	var stats importStats
	if len(rows) == 0 {
		return nil, stats, fmt.Errorf("no data found in XLSX file")
	}

	columns := make(map[string]int)
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{colName, colDistrict} {
		if _, ok := columns[required]; !ok {
			return nil, stats, fmt.Errorf("missing required column %q", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var businesses []model.Business
	seen := make(map[string]bool)
	slugCounter := make(map[string]int)

	for _, row := range rows[1:] {
		stats.TotalRows++

		name := cell(row, colName)
		district := cell(row, colDistrict)
		if name == "" || district == "" {
			stats.Skipped++
			continue
		}

		address := cell(row, colAddress)
		key := strings.ToLower(fmt.Sprintf("%s|%s|%s", name, district, address))
		if seen[key] {
			stats.Duplicates++
			continue
		}
		seen[key] = true

		// batch inserts bypass the per-row slug lookup, so dedupe here
		slug := model.GenerateSlug(district, name)
		if count, exists := slugCounter[slug]; exists {
			slugCounter[slug] = count + 1
			slug = fmt.Sprintf("%s-%d", slug, count+1)
		} else {
			slugCounter[slug] = 1
		}

		businesses = append(businesses, model.Business{
			Name:        name,
			Slug:        slug,
			District:    district,
			Address:     address,
			PhoneNumber: cell(row, colPhone),
			Description: cell(row, colDescription),
			Categories:  splitCategories(cell(row, colCategories)),
		})
	}

	stats.Imported = len(businesses)
	return businesses, stats, nil
}

func splitCategories(raw string) model.Categories {
	categories := model.Categories{}
	for _, c := range strings.Split(raw, ",") {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			categories = append(categories, c)
		}
	}
	return categories
}
