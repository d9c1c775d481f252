package reports

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"recordstorebot/internal/data"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := data.InitDB(dbPath); err != nil {
		t.Fatalf("failed to initialize test database: %v", err)
	}
	if err := data.CreateTables(); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}
	t.Cleanup(func() {
		if err := data.CloseDB(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
}

func seedSale(t *testing.T, sales *data.SalesRepository, date, artistAlbum, price string, method data.PaymentMethod) {
	t.Helper()
	_, err := sales.InsertSale(data.SaleRecord{
		Date:          date,
		ArtistAlbum:   artistAlbum,
		Genre:         "Rock",
		Style:         "Prog Rock",
		Label:         "Harvest",
		Format:        "Vinyl, LP",
		Condition:     data.ConditionNearMint,
		Price:         decimal.RequireFromString(price),
		PaymentMethod: method,
	})
	if err != nil {
		t.Fatalf("failed to seed sale: %v", err)
	}
}

func TestDailySummary(t *testing.T) {
	setupTestDB(t)
	sales := data.NewSalesRepository()
	svc := NewService(sales)

	seedSale(t, sales, "2026-08-01", "Pink Floyd - The Wall", "40.00", data.PaymentCash)
	seedSale(t, sales, "2026-08-01", "Rush - 2112", "12.50", data.PaymentPOS)
	seedSale(t, sales, "2026-08-02", "Led Zeppelin - IV", "30.00", data.PaymentCash)

	summary, err := svc.DailySummary("2026-08-01")
	if err != nil {
		t.Fatalf("daily summary failed: %v", err)
	}
	want := "📅 Sales Report for 2026-08-01\n💵 Cash: $40.00\n💳 POS: $12.50\n📦 Total: $52.50 (2 records)"
	if summary != want {
		t.Errorf("unexpected summary:\n got: %q\nwant: %q", summary, want)
	}
}

func TestDailySummaryNoSales(t *testing.T) {
	setupTestDB(t)
	svc := NewService(data.NewSalesRepository())

	if _, err := svc.DailySummary("2026-08-01"); !errors.Is(err, ErrNoSales) {
		t.Errorf("expected ErrNoSales, got %v", err)
	}
}

func TestPeriodSummary(t *testing.T) {
	setupTestDB(t)
	sales := data.NewSalesRepository()
	svc := NewService(sales)

	seedSale(t, sales, "2026-08-01", "Pink Floyd - The Wall", "40.00", data.PaymentCash)
	seedSale(t, sales, "2026-08-03", "Rush - 2112", "12.50", data.PaymentPOS)
	seedSale(t, sales, "2026-08-03", "Led Zeppelin - IV", "30.00", data.PaymentCash)
	// Outside the range.
	seedSale(t, sales, "2026-08-09", "The Beatles - Abbey Road", "99.00", data.PaymentCash)

	summary, err := svc.PeriodSummary("2026-08-01", "2026-08-07")
	if err != nil {
		t.Fatalf("period summary failed: %v", err)
	}

	for _, want := range []string{
		"📅 Sales 2026-08-01 — 2026-08-07",
		"2026-08-01: $40.00 (1 record)",
		"2026-08-03: $42.50 (2 records)",
		"💵 Cash: $70.00",
		"💳 POS: $12.50",
		"📦 Total: $82.50 (3 records)",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "2026-08-09") {
		t.Error("expected sales outside the range to be excluded")
	}
}

func TestDailyCSV(t *testing.T) {
	setupTestDB(t)
	sales := data.NewSalesRepository()
	svc := NewService(sales)

	seedSale(t, sales, "2026-08-01", "Pink Floyd - The Wall", "40.00", data.PaymentCash)

	csvBytes, filename, err := svc.DailyCSV("2026-08-01")
	if err != nil {
		t.Fatalf("CSV export failed: %v", err)
	}
	if filename != "sales_2026-08-01.csv" {
		t.Errorf("unexpected filename: %q", filename)
	}

	lines := strings.Split(strings.TrimSpace(string(csvBytes)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	if lines[0] != "Date,Artist - Album,Genre,Style,Label,Format,Condition,USD Price,Payment Method" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "2026-08-01,Pink Floyd - The Wall,Rock,Prog Rock,Harvest,\"Vinyl, LP\",nm,40.00,cash" {
		t.Errorf("unexpected row: %q", lines[1])
	}
}

func TestDailyCSVNoSales(t *testing.T) {
	setupTestDB(t)
	svc := NewService(data.NewSalesRepository())

	if _, _, err := svc.DailyCSV("2026-08-01"); !errors.Is(err, ErrNoSales) {
		t.Errorf("expected ErrNoSales, got %v", err)
	}
}
