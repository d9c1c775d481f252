package engine

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"recordstorebot/internal/data"
	"recordstorebot/internal/logger"
)

// Imported batches carry no grade information; VG+ is the shop's default
// grade for ungraded stock.
const bulkDefaultCondition = data.ConditionVeryGoodPlus

// ImportPair is one title/price pair from an import file.
type ImportPair struct {
	Title string
	Price decimal.Decimal
}

// handleBulkImport is a single-state flow: it waits for a file, imports it
// row by row, and reports the count. One bad row never aborts the batch.
func (e *Engine) handleBulkImport(ctx context.Context, s *session, ev Event) []Prompt {
	if len(ev.FileData) == 0 {
		return []Prompt{textPrompt("❌ Please send the import file (two rows per record: title then price).")}
	}

	e.endSession(s.userID)

	pairs := ParseImportPairs(ev.FileData)
	if len(pairs) == 0 {
		return []Prompt{textPrompt("📭 No importable rows found in '%s'.", ev.FileName)}
	}

	added := e.importPairs(ctx, pairs)
	return []Prompt{textPrompt("✅ Imported %d record(s) from file.", added)}
}

// ParseImportPairs reads alternating title/price rows (one value per line).
// Pairs with a blank title or an unparseable price are dropped; the rest of
// the file still imports.
func ParseImportPairs(fileData []byte) []ImportPair {
	var rows []string
	scanner := bufio.NewScanner(bytes.NewReader(fileData))
	for scanner.Scan() {
		rows = append(rows, strings.TrimSpace(scanner.Text()))
	}

	var pairs []ImportPair
	for i := 0; i < len(rows); i += 2 {
		title := rows[i]
		if title == "" {
			continue
		}
		if i+1 >= len(rows) {
			break
		}

		price, err := decimal.NewFromString(rows[i+1])
		if err != nil {
			continue
		}

		pairs = append(pairs, ImportPair{Title: title, Price: price.Round(2)})
	}
	return pairs
}

// importPairs looks each title up in the catalog and inserts the first match.
// Best effort throughout: per-row failures are logged and skipped.
func (e *Engine) importPairs(ctx context.Context, pairs []ImportPair) int {
	batchID := uuid.NewString()
	logger.LogInfo("Bulk import %s started: %d row pair(s)", batchID, len(pairs))

	added := 0
	for _, pair := range pairs {
		results, err := e.catalog.Search(ctx, pair.Title, 1)
		if err != nil {
			logger.LogWarn("Bulk import %s: catalog lookup for '%s' failed: %v", batchID, pair.Title, err)
			continue
		}
		if len(results) == 0 {
			logger.LogWarn("Bulk import %s: no catalog match for '%s'", batchID, pair.Title)
			continue
		}

		candidate := results[0]
		item := data.InventoryItem{
			ArtistAlbum: candidate.Title,
			Genre:       candidate.Genres,
			Style:       candidate.Styles,
			Label:       candidate.Labels,
			Format:      candidate.Formats,
			Condition:   bulkDefaultCondition,
			Price:       pair.Price,
			Quantity:    1,
		}

		if _, err := e.inventory.Insert(item); err != nil {
			logger.LogWarn("Bulk import %s: failed to add '%s': %v", batchID, candidate.Title, err)
			continue
		}
		added++
	}

	logger.LogInfo("Bulk import %s finished: %d of %d row pair(s) imported", batchID, added, len(pairs))
	return added
}
