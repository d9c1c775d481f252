package data

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

// setupTestDB points the package at a fresh database file for one test.
func setupTestDB(t *testing.T) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := InitDB(dbPath); err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	if err := CreateTables(); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}

	t.Cleanup(func() {
		if err := CloseDB(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func mustDecimal(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", raw, err)
	}
	return d
}

func testItem(artistAlbum string, condition Condition, price string, quantity int) InventoryItem {
	return InventoryItem{
		ArtistAlbum: artistAlbum,
		Genre:       "Rock",
		Style:       "Prog Rock",
		Label:       "Harvest",
		Format:      "Vinyl LP",
		Condition:   condition,
		Price:       decimal.RequireFromString(price),
		Quantity:    quantity,
	}
}
