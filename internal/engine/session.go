package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"recordstorebot/internal/catalog"
	"recordstorebot/internal/data"
)

// add flow states
type addState int

const (
	addAwaitingQuery addState = iota
	addShowingResults
	addAwaitingCondition
	addAwaitingPrice
	addAwaitingQuantity
)

// sell flow states
type sellState int

const (
	sellAwaitingQuery sellState = iota
	sellAwaitingSelection
	sellAwaitingPayment
	sellAwaitingPrice
)

// session holds one user's in-flight flow state and scratch data. It lives
// only in memory; a restart loses it and the operator restarts the flow.
type session struct {
	userID int64
	flow   Flow

	addState  addState
	sellState sellState

	// add flow scratch
	query     string
	page      int
	results   []catalog.Candidate
	selected  catalog.Candidate
	condition data.Condition
	suggested *decimal.Decimal
	price     decimal.Decimal

	// sell flow scratch
	matches []data.InventoryItem
	item    data.InventoryItem
	payment data.PaymentMethod
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
