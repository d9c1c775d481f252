package data

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// SALES REPOSITORY (append-only sale log)
// =============================================================================

// SalesRepository owns the single durable sale log. Reporting reads it as a
// projection; there is no second store to keep in sync.
type SalesRepository struct{}

func NewSalesRepository() *SalesRepository {
	return &SalesRepository{}
}

const salesColumns = `id, sale_date, artist_album, genre, style, label, format, condition, price, payment_method, created_at`

// InsertSale appends one immutable sale snapshot and returns its id.
func (r *SalesRepository) InsertSale(sale SaleRecord) (int64, error) {
	if strings.TrimSpace(sale.ArtistAlbum) == "" {
		return 0, fmt.Errorf("artist_album is required")
	}
	if sale.Price.IsNegative() {
		return 0, fmt.Errorf("sale price must not be negative, got %s", sale.Price)
	}

	date := sale.Date
	if date == "" {
		date = time.Now().Format(DateFormat)
	}

	method := sale.PaymentMethod
	if method == "" {
		method = PaymentCash
	}

	createdAt := sale.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	const stmt = `
		INSERT INTO sales (sale_date, artist_album, genre, style, label, format, condition, price, payment_method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := ExecDB(stmt,
		date, sale.ArtistAlbum, sale.Genre, sale.Style, sale.Label, sale.Format,
		string(sale.Condition), formatDecimal(sale.Price), string(method), formatTime(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sale record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted sale id: %w", err)
	}
	return id, nil
}

// SalesOnDate returns every sale recorded on one calendar day, oldest first.
func (r *SalesRepository) SalesOnDate(date string) ([]SaleRecord, error) {
	const stmt = `
		SELECT ` + salesColumns + `
		FROM sales
		WHERE sale_date = ?
		ORDER BY id`

	rows, err := QueryDB(stmt, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales for %s: %w", date, err)
	}
	defer rows.Close()

	return r.scanSales(rows)
}

// SalesBetween aggregates the sale log per day and payment method over
// [start, end] inclusive. Totals are summed as decimals in Go; prices are
// stored as exact strings, so SQL SUM would go through floats.
func (r *SalesRepository) SalesBetween(start, end string) ([]DailySales, error) {
	const stmt = `
		SELECT ` + salesColumns + `
		FROM sales
		WHERE sale_date >= ? AND sale_date <= ?
		ORDER BY sale_date, id`

	rows, err := QueryDB(stmt, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales between %s and %s: %w", start, end, err)
	}
	defer rows.Close()

	sales, err := r.scanSales(rows)
	if err != nil {
		return nil, err
	}

	var result []DailySales
	for _, sale := range sales {
		if len(result) == 0 || result[len(result)-1].Date != sale.Date {
			result = append(result, DailySales{Date: sale.Date})
		}
		day := &result[len(result)-1]
		day.Count++
		switch sale.PaymentMethod {
		case PaymentPOS:
			day.POSTotal = day.POSTotal.Add(sale.Price)
		default:
			day.CashTotal = day.CashTotal.Add(sale.Price)
		}
	}

	return result, nil
}

// =============================================================================
// ROW SCANNING
// =============================================================================

func (r *SalesRepository) scanSale(row rowScanner) (*SaleRecord, error) {
	var (
		sale      SaleRecord
		condition string
		price     string
		method    string
		createdAt string
	)

	err := row.Scan(&sale.ID, &sale.Date, &sale.ArtistAlbum, &sale.Genre, &sale.Style,
		&sale.Label, &sale.Format, &condition, &price, &method, &createdAt)
	if err != nil {
		return nil, err
	}

	sale.Condition = Condition(condition)
	sale.PaymentMethod = PaymentMethod(method)

	sale.Price, err = parseDecimal(price)
	if err != nil {
		return nil, err
	}

	sale.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &sale, nil
}

func (r *SalesRepository) scanSales(rows *sql.Rows) ([]SaleRecord, error) {
	var result []SaleRecord
	for rows.Next() {
		sale, err := r.scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale row: %w", err)
		}
		result = append(result, *sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale rows: %w", err)
	}

	return result, nil
}
