// internal/reports/reports.go
package reports

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"recordstorebot/internal/data"
)

// ErrNoSales means the requested period has nothing in the sale log. It is a
// user-visible "no sales yet" condition, not a failure.
var ErrNoSales = errors.New("no sales recorded")

// Service builds operator-facing summaries and exports from the sale log.
type Service struct {
	sales *data.SalesRepository
}

func NewService(sales *data.SalesRepository) *Service {
	return &Service{sales: sales}
}

// DailySummary renders the cash/POS/total breakdown for one calendar date.
func (s *Service) DailySummary(date string) (string, error) {
	days, err := s.sales.SalesBetween(date, date)
	if err != nil {
		return "", fmt.Errorf("failed to build daily summary: %w", err)
	}
	if len(days) == 0 {
		return "", ErrNoSales
	}

	day := days[0]
	summary := fmt.Sprintf(
		"📅 Sales Report for %s\n💵 Cash: $%s\n💳 POS: $%s\n📦 Total: $%s (%d record%s)",
		day.Date,
		money(day.CashTotal),
		money(day.POSTotal),
		money(day.Total()),
		day.Count,
		plural(day.Count),
	)
	return summary, nil
}

// PeriodSummary renders per-day lines plus grand totals for a date range
// (inclusive, dates as "2006-01-02").
func (s *Service) PeriodSummary(start, end string) (string, error) {
	days, err := s.sales.SalesBetween(start, end)
	if err != nil {
		return "", fmt.Errorf("failed to build period summary: %w", err)
	}
	if len(days) == 0 {
		return "", ErrNoSales
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "📅 Sales %s — %s\n\n", start, end)

	grandCash := decimal.Zero
	grandPOS := decimal.Zero
	count := 0
	for _, day := range days {
		fmt.Fprintf(&buf, "%s: $%s (%d record%s)\n", day.Date, money(day.Total()), day.Count, plural(day.Count))
		grandCash = grandCash.Add(day.CashTotal)
		grandPOS = grandPOS.Add(day.POSTotal)
		count += day.Count
	}

	fmt.Fprintf(&buf, "\n💵 Cash: $%s\n💳 POS: $%s\n📦 Total: $%s (%d record%s)",
		money(grandCash), money(grandPOS), money(grandCash.Add(grandPOS)), count, plural(count))

	return buf.String(), nil
}

// DailyCSV renders one day's sales as a CSV download for the chat transport.
func (s *Service) DailyCSV(date string) ([]byte, string, error) {
	sales, err := s.sales.SalesOnDate(date)
	if err != nil {
		return nil, "", fmt.Errorf("failed to export sales for %s: %w", date, err)
	}
	if len(sales) == 0 {
		return nil, "", ErrNoSales
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Date", "Artist - Album", "Genre", "Style", "Label", "Format", "Condition", "USD Price", "Payment Method"}
	if err := w.Write(header); err != nil {
		return nil, "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, sale := range sales {
		row := []string{
			sale.Date, sale.ArtistAlbum, sale.Genre, sale.Style, sale.Label,
			sale.Format, string(sale.Condition), sale.Price.StringFixed(2), string(sale.PaymentMethod),
		}
		if err := w.Write(row); err != nil {
			return nil, "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), fmt.Sprintf("sales_%s.csv", date), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
