package data

import (
	"strings"
	"sync"
	"testing"
)

func TestInventoryRoundTrip(t *testing.T) {
	setupTestDB(t)
	repo := NewInventoryRepository()

	id, err := repo.Insert(testItem("Test Artist - Test Album", ConditionVeryGoodPlus, "25.00", 3))
	assertNoError(t, err)
	if id == 0 {
		t.Fatal("expected a non-zero inserted id")
	}

	results, err := repo.Search("Test Artist")
	assertNoError(t, err)
	if len(results) != 1 {
		t.Fatalf("expected 1 search result, got %d", len(results))
	}
	if results[0].ArtistAlbum != "Test Artist - Test Album" {
		t.Errorf("unexpected artist_album: %s", results[0].ArtistAlbum)
	}

	exact, err := repo.FindExact("Test Artist - Test Album", ConditionVeryGoodPlus)
	assertNoError(t, err)
	if exact == nil {
		t.Fatal("expected an exact match")
	}
	if exact.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", exact.Quantity)
	}
	if !exact.Price.Equal(mustDecimal(t, "25.00")) {
		t.Errorf("expected price 25.00, got %s", exact.Price)
	}
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	setupTestDB(t)
	repo := NewInventoryRepository()

	_, err := repo.Insert(testItem("Pink Floyd - The Wall", ConditionNearMint, "40.00", 2))
	assertNoError(t, err)

	for _, query := range []string{"pink floyd", "FLOYD", "the wall"} {
		results, err := repo.Search(query)
		assertNoError(t, err)
		if len(results) != 1 {
			t.Errorf("query %q: expected 1 result, got %d", query, len(results))
		}
	}

	results, err := repo.Search("Zeppelin")
	assertNoError(t, err)
	if len(results) != 0 {
		t.Errorf("expected no results for Zeppelin, got %d", len(results))
	}
}

func TestSearchMatchAllConvention(t *testing.T) {
	setupTestDB(t)
	repo := NewInventoryRepository()

	_, err := repo.Insert(testItem("Miles Davis - Kind of Blue", ConditionMint, "55.00", 1))
	assertNoError(t, err)
	_, err = repo.Insert(testItem("Pink Floyd - The Wall", ConditionNearMint, "40.00", 2))
	assertNoError(t, err)

	for _, query := range []string{"all", "  ALL  ", "", "   "} {
		results, err := repo.Search(query)
		assertNoError(t, err)
		if len(results) != 2 {
			t.Errorf("query %q: expected 2 results, got %d", query, len(results))
		}
	}
}

func TestInsertValidation(t *testing.T) {
	setupTestDB(t)
	repo := NewInventoryRepository()

	if _, err := repo.Insert(testItem("   ", ConditionMint, "10.00", 1)); err == nil {
		t.Error("expected error for blank artist_album")
	}

	if _, err := repo.Insert(testItem("Some Album", Condition("pristine"), "10.00", 1)); err == nil {
		t.Error("expected error for unknown condition grade")
	}

	item := testItem("Some Album", ConditionGood, "10.00", 0)
	id, err := repo.Insert(item)
	assertNoError(t, err)

	got, err := repo.GetByID(id)
	assertNoError(t, err)
	if got == nil || got.Quantity != 1 {
		t.Error("expected quantity to default to 1")
	}
}

func TestDuplicateRowsAreKeptSeparate(t *testing.T) {
	setupTestDB(t)
	repo := NewInventoryRepository()

	_, err := repo.Insert(testItem("Nirvana - Nevermind", ConditionVeryGood, "20.00", 1))
	assertNoError(t, err)
	_, err = repo.Insert(testItem("Nirvana - Nevermind", ConditionNearMint, "35.00", 1))
	assertNoError(t, err)

	results, err := repo.Search("Nevermind")
	assertNoError(t, err)
	if len(results) != 2 {
		t.Fatalf("expected 2 separate rows, got %d", len(results))
	}
	// Ordered by artist_album then condition.
	if results[0].Condition != ConditionNearMint || results[1].Condition != ConditionVeryGood {
		t.Errorf("unexpected ordering: %s, %s", results[0].Condition, results[1].Condition)
	}
}

func TestDecrementQuantity(t *testing.T) {
	setupTestDB(t)
	repo := NewInventoryRepository()

	id, err := repo.Insert(testItem("Test Artist - Test Album", ConditionNearMint, "30.00", 3))
	assertNoError(t, err)

	ok, err := repo.DecrementQuantity(id, 2)
	assertNoError(t, err)
	if !ok {
		t.Fatal("expected decrement by 2 to succeed")
	}

	got, err := repo.GetByID(id)
	assertNoError(t, err)
	if got == nil || got.Quantity != 1 {
		t.Fatalf("expected quantity 1 after decrement, got %+v", got)
	}

	// More than remaining: refused, nothing changes.
	ok, err = repo.DecrementQuantity(id, 5)
	assertNoError(t, err)
	if ok {
		t.Fatal("expected decrement beyond stock to be refused")
	}
	got, err = repo.GetByID(id)
	assertNoError(t, err)
	if got == nil || got.Quantity != 1 {
		t.Fatalf("refused decrement must not mutate, got %+v", got)
	}

	// Last unit: row disappears entirely.
	ok, err = repo.DecrementQuantity(id, 1)
	assertNoError(t, err)
	if !ok {
		t.Fatal("expected final decrement to succeed")
	}

	got, err = repo.GetByID(id)
	assertNoError(t, err)
	if got != nil {
		t.Errorf("expected sold-out row to be gone, got %+v", got)
	}

	results, err := repo.Search("Test Artist")
	assertNoError(t, err)
	if len(results) != 0 {
		t.Errorf("sold-out row must not appear in search, got %d results", len(results))
	}

	// Missing row: refused, not an error.
	ok, err = repo.DecrementQuantity(id, 1)
	assertNoError(t, err)
	if ok {
		t.Error("expected decrement of a missing row to be refused")
	}
}

// Two sellers racing for the last unit: exactly one wins, the quantity never
// goes negative.
func TestConcurrentDecrementLastUnit(t *testing.T) {
	setupTestDB(t)
	repo := NewInventoryRepository()

	id, err := repo.Insert(testItem("Test Artist - Test Album", ConditionNearMint, "30.00", 1))
	assertNoError(t, err)

	const sellers = 2
	outcomes := make(chan bool, sellers)

	var wg sync.WaitGroup
	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := decrementWithRetry(repo, id, 1, 5)
			if err != nil {
				t.Errorf("decrement failed: %v", err)
				outcomes <- false
				return
			}
			outcomes <- ok
		}()
	}
	wg.Wait()
	close(outcomes)

	successes := 0
	for ok := range outcomes {
		if ok {
			successes++
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 successful sale, got %d", successes)
	}

	got, err := repo.GetByID(id)
	assertNoError(t, err)
	if got != nil {
		t.Errorf("expected the row to be gone after the last unit sold, got %+v", got)
	}
}

// decrementWithRetry retries transient sqlite write contention. A clean
// refusal (false, nil) is a real outcome and is never retried.
func decrementWithRetry(repo *InventoryRepository, id int64, by, attempts int) (bool, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		ok, err := repo.DecrementQuantity(id, by)
		if err == nil {
			return ok, nil
		}
		if !strings.Contains(err.Error(), "busy") && !strings.Contains(err.Error(), "locked") {
			return false, err
		}
		lastErr = err
	}
	return false, lastErr
}

func TestLowStock(t *testing.T) {
	setupTestDB(t)
	repo := NewInventoryRepository()

	_, err := repo.Insert(testItem("Album One", ConditionGood, "10.00", 1))
	assertNoError(t, err)
	_, err = repo.Insert(testItem("Album Two", ConditionGood, "10.00", 2))
	assertNoError(t, err)
	_, err = repo.Insert(testItem("Album Three", ConditionGood, "10.00", 7))
	assertNoError(t, err)

	low, err := repo.LowStock(2)
	assertNoError(t, err)
	if len(low) != 2 {
		t.Fatalf("expected 2 low-stock rows, got %d", len(low))
	}
	if low[0].Quantity != 1 || low[1].Quantity != 2 {
		t.Errorf("expected ascending quantity order, got %d then %d", low[0].Quantity, low[1].Quantity)
	}
}

func TestCleanupSoldOutAndStats(t *testing.T) {
	setupTestDB(t)
	repo := NewInventoryRepository()

	_, err := repo.Insert(testItem("Album One", ConditionGood, "10.00", 2))
	assertNoError(t, err)

	// A zero row planted directly, as if a decrement-time delete was lost.
	_, err = ExecDB(`INSERT INTO inventory (artist_album, condition, price, quantity, created_at)
		VALUES ('Ghost Album', 'g', '5.00', 0, '2024-01-01T00:00:00Z')`)
	assertNoError(t, err)

	swept, err := repo.CleanupSoldOut()
	assertNoError(t, err)
	if swept != 1 {
		t.Errorf("expected 1 swept row, got %d", swept)
	}

	stats, err := repo.Stats()
	assertNoError(t, err)
	if stats.InventoryRecords != 1 || stats.TotalQuantity != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
