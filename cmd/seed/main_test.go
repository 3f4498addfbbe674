package main

import (
	"path/filepath"
	"testing"

	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseBusinessRows(t *testing.T) {
	rows := [][]string{
		{"Name", "District", "Address", "Phone", "Categories"},
		{"Corner Bakery", "Mapo", "12 Main St", "02-111-2222", "Bakery, Cafe"},
		{"Corner Bakery", "Mapo", "12 Main St", "02-111-2222", "Bakery"},
		{"Corner Bakery", "Mapo", "40 Side St"},
		{"", "Mapo", "nowhere"},
		{"Night Market", ""},
	}

	businesses, stats, err := parseBusinessRows(rows)
	require.NoError(t, err)

	assert.Equal(t, importStats{TotalRows: 5, Imported: 2, Skipped: 2, Duplicates: 1}, stats)
	require.Len(t, businesses, 2)
	assert.Equal(t, "mapo-corner-bakery", businesses[0].Slug)
	assert.Equal(t, model.Categories{"bakery", "cafe"}, businesses[0].Categories)
	assert.Equal(t, "02-111-2222", businesses[0].PhoneNumber)
	assert.Equal(t, "mapo-corner-bakery-2", businesses[1].Slug)
	assert.Equal(t, model.Categories{}, businesses[1].Categories)
}

func TestParseBusinessRows_MissingColumns(t *testing.T) {
	_, _, err := parseBusinessRows([][]string{{"Name", "Address"}})
	assert.Error(t, err)

	_, _, err = parseBusinessRows(nil)
	assert.Error(t, err)
}

func TestReadBusinessesFromXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "businesses.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"name", "district", "categories", "description"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Sunrise Laundry", "Jongno", "laundry", "Open late"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	businesses, stats, err := readBusinessesFromXLSX(path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported)
	require.Len(t, businesses, 1)
	assert.Equal(t, "jongno-sunrise-laundry", businesses[0].Slug)
	assert.Equal(t, "Open late", businesses[0].Description)
}
