package data

import (
	"time"

	"github.com/shopspring/decimal"
)

// Condition is the standard 8-grade vinyl condition scale, stored by its
// short code. Comparing and storing the codes through this type (instead of
// free text) keeps typos out of the ledger.
type Condition string

const (
	ConditionMint         Condition = "m"
	ConditionNearMint     Condition = "nm"
	ConditionVeryGoodPlus Condition = "vg+"
	ConditionVeryGood     Condition = "vg"
	ConditionGoodPlus     Condition = "g+"
	ConditionGood         Condition = "g"
	ConditionFair         Condition = "f"
	ConditionPoor         Condition = "p"
)

// Conditions lists all grades from best to worst. The order matters for
// keyboards and for sorting.
var Conditions = []Condition{
	ConditionMint, ConditionNearMint, ConditionVeryGoodPlus, ConditionVeryGood,
	ConditionGoodPlus, ConditionGood, ConditionFair, ConditionPoor,
}

// conditionLabels maps each grade to the display label Discogs keys its
// price suggestions by.
var conditionLabels = map[Condition]string{
	ConditionMint:         "Mint (M)",
	ConditionNearMint:     "Near Mint (NM or M-)",
	ConditionVeryGoodPlus: "Very Good Plus (VG+)",
	ConditionVeryGood:     "Very Good (VG)",
	ConditionGoodPlus:     "Good Plus (G+)",
	ConditionGood:         "Good (G)",
	ConditionFair:         "Fair (F)",
	ConditionPoor:         "Poor (P)",
}

// ParseCondition normalizes a raw token into a grade. Returns false for
// anything outside the scale.
func ParseCondition(raw string) (Condition, bool) {
	c := Condition(normalizeToken(raw))
	_, ok := conditionLabels[c]
	return c, ok
}

func (c Condition) Valid() bool {
	_, ok := conditionLabels[c]
	return ok
}

// Label returns the full human-readable grade label, e.g. "Near Mint (NM or M-)".
func (c Condition) Label() string {
	if label, ok := conditionLabels[c]; ok {
		return label
	}
	return string(c)
}

func (c Condition) String() string {
	return string(c)
}

// PaymentMethod is how a customer paid for a sale.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentPOS  PaymentMethod = "pos"
)

func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(normalizeToken(raw)) {
	case PaymentCash:
		return PaymentCash, true
	case PaymentPOS:
		return PaymentPOS, true
	}
	return "", false
}

// InventoryItem is one stock row. Rows with identical descriptive fields are
// allowed to coexist: each purchase batch may carry its own condition and
// price.
type InventoryItem struct {
	ID          int64
	ArtistAlbum string
	Genre       string
	Style       string
	Label       string
	Format      string
	Condition   Condition
	Price       decimal.Decimal
	Quantity    int
	CreatedAt   time.Time
}

// SaleRecord is an immutable snapshot of a sold item. It is denormalized on
// purpose: the source inventory row may be deleted later.
type SaleRecord struct {
	ID            int64
	Date          string // calendar date, "2006-01-02"
	ArtistAlbum   string
	Genre         string
	Style         string
	Label         string
	Format        string
	Condition     Condition
	Price         decimal.Decimal
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
}

// DailySales aggregates one day of the sale log by payment method.
type DailySales struct {
	Date      string
	CashTotal decimal.Decimal
	POSTotal  decimal.Decimal
	Count     int
}

// Total returns cash plus POS for the day.
func (d DailySales) Total() decimal.Decimal {
	return d.CashTotal.Add(d.POSTotal)
}

// OperatorSession tracks an authenticated operator in the durable store.
type OperatorSession struct {
	UserID          int64
	Username        string
	FirstName       string
	AuthenticatedAt time.Time
	ExpiresAt       time.Time
	LastActivity    time.Time
}

// InventoryStats holds the counters surfaced by /start diagnostics.
type InventoryStats struct {
	InventoryRecords int
	TotalQuantity    int
	SalesRecords     int
}
