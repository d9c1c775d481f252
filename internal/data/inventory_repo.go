package data

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"recordstorebot/internal/logger"
)

// =============================================================================
// INVENTORY REPOSITORY (the stock ledger)
// =============================================================================

type InventoryRepository struct{}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{}
}

const inventoryColumns = `id, artist_album, genre, style, label, format, condition, price, quantity, created_at`

// MatchAllQuery is the flow convention for "show everything": a literal "all"
// (or a blank query) bypasses the substring filter.
const MatchAllQuery = "all"

// Insert appends a new stock row and returns its id. Rows are never merged
// with existing ones: each purchase batch keeps its own condition and price.
func (r *InventoryRepository) Insert(item InventoryItem) (int64, error) {
	if strings.TrimSpace(item.ArtistAlbum) == "" {
		return 0, fmt.Errorf("artist_album is required")
	}
	if !item.Condition.Valid() {
		return 0, fmt.Errorf("unknown condition grade %q", item.Condition)
	}

	quantity := item.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return 0, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	const stmt = `
		INSERT INTO inventory (artist_album, genre, style, label, format, condition, price, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := ExecDB(stmt,
		item.ArtistAlbum, item.Genre, item.Style, item.Label, item.Format,
		string(item.Condition), formatDecimal(item.Price), quantity, formatTime(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert inventory item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted inventory id: %w", err)
	}
	return id, nil
}

// Search returns in-stock rows whose artist_album, genre, style or label
// contains the query, case-insensitively. Sold-out rows never appear.
func (r *InventoryRepository) Search(query string) ([]InventoryItem, error) {
	query = normalizeToken(query)
	if query == "" || query == MatchAllQuery {
		return r.AllInStock()
	}

	const stmt = `
		SELECT ` + inventoryColumns + `
		FROM inventory
		WHERE (LOWER(artist_album) LIKE ? OR LOWER(genre) LIKE ? OR LOWER(style) LIKE ? OR LOWER(label) LIKE ?)
			AND quantity > 0
		ORDER BY artist_album, condition`

	pattern := "%" + query + "%"
	rows, err := QueryDB(stmt, pattern, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search inventory: %w", err)
	}
	defer rows.Close()

	return r.scanItems(rows)
}

// AllInStock returns every row with quantity > 0, ordered for listing.
func (r *InventoryRepository) AllInStock() ([]InventoryItem, error) {
	const stmt = `
		SELECT ` + inventoryColumns + `
		FROM inventory
		WHERE quantity > 0
		ORDER BY artist_album, condition`

	rows, err := QueryDB(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	return r.scanItems(rows)
}

// GetByID returns one in-stock row, or nil if it does not exist or is sold out.
func (r *InventoryRepository) GetByID(id int64) (*InventoryItem, error) {
	const stmt = `
		SELECT ` + inventoryColumns + `
		FROM inventory
		WHERE id = ? AND quantity > 0`

	row := QueryRowDB(stmt, id)
	item, err := r.scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory item %d: %w", id, err)
	}
	return item, nil
}

// FindExact resolves one specific SKU by artist_album and condition,
// case-insensitively. Used when a sale must target a row unambiguously.
func (r *InventoryRepository) FindExact(artistAlbum string, condition Condition) (*InventoryItem, error) {
	const stmt = `
		SELECT ` + inventoryColumns + `
		FROM inventory
		WHERE LOWER(artist_album) = LOWER(?) AND LOWER(condition) = LOWER(?) AND quantity > 0
		LIMIT 1`

	row := QueryRowDB(stmt, strings.TrimSpace(artistAlbum), string(condition))
	item, err := r.scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find inventory item: %w", err)
	}
	return item, nil
}

// DecrementQuantity subtracts `by` from a row's quantity, but only if enough
// stock exists. The check and the write are one conditional UPDATE, so two
// concurrent sellers can never both take the last unit. Returns false with no
// mutation when the row is missing or short.
func (r *InventoryRepository) DecrementQuantity(id int64, by int) (bool, error) {
	if by < 1 {
		return false, fmt.Errorf("decrement must be positive, got %d", by)
	}

	result, err := ExecDB(`
		UPDATE inventory
		SET quantity = quantity - ?
		WHERE id = ? AND quantity >= ?`, by, id, by)
	if err != nil {
		return false, fmt.Errorf("failed to decrement inventory item %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read decrement result: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	// Rows that hit zero are garbage-collected. "Row already gone" is fine
	// here; losing the delete only leaves a zero row for the nightly sweep.
	if _, err := ExecDB(`DELETE FROM inventory WHERE id = ? AND quantity <= 0`, id); err != nil {
		logger.LogWarn("Failed to remove sold-out inventory row %d: %v", id, err)
	}

	return true, nil
}

// LowStock returns in-stock rows at or below the threshold, lowest first.
func (r *InventoryRepository) LowStock(threshold int) ([]InventoryItem, error) {
	const stmt = `
		SELECT ` + inventoryColumns + `
		FROM inventory
		WHERE quantity <= ? AND quantity > 0
		ORDER BY quantity ASC, artist_album`

	rows, err := QueryDB(stmt, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}
	defer rows.Close()

	return r.scanItems(rows)
}

// CleanupSoldOut deletes any zero-quantity rows that survived their
// decrement-time delete.
func (r *InventoryRepository) CleanupSoldOut() (int, error) {
	result, err := ExecDB(`DELETE FROM inventory WHERE quantity <= 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sold-out rows: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Stats returns the basic counters shown on /start.
func (r *InventoryRepository) Stats() (InventoryStats, error) {
	var stats InventoryStats

	if err := QueryRowDB(`SELECT COUNT(*), COALESCE(SUM(quantity), 0) FROM inventory`).
		Scan(&stats.InventoryRecords, &stats.TotalQuantity); err != nil {
		return stats, fmt.Errorf("failed to read inventory stats: %w", err)
	}

	if err := QueryRowDB(`SELECT COUNT(*) FROM sales`).Scan(&stats.SalesRecords); err != nil {
		return stats, fmt.Errorf("failed to read sales stats: %w", err)
	}

	return stats, nil
}

// =============================================================================
// ROW SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *InventoryRepository) scanItem(row rowScanner) (*InventoryItem, error) {
	var (
		item      InventoryItem
		condition string
		price     string
		createdAt string
	)

	err := row.Scan(&item.ID, &item.ArtistAlbum, &item.Genre, &item.Style,
		&item.Label, &item.Format, &condition, &price, &item.Quantity, &createdAt)
	if err != nil {
		return nil, err
	}

	item.Condition = Condition(condition)

	item.Price, err = parseDecimal(price)
	if err != nil {
		return nil, err
	}

	item.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *InventoryRepository) scanItems(rows *sql.Rows) ([]InventoryItem, error) {
	var result []InventoryItem
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		result = append(result, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory rows: %w", err)
	}

	return result, nil
}
