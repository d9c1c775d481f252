package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"recordstorebot/internal/data"
	"recordstorebot/internal/logger"
)

// handleSell advances the sell-record flow one step. The inventory decrement
// and the sale log write happen together at the final step; a failed
// decrement means no sale is recorded.
func (e *Engine) handleSell(ctx context.Context, s *session, ev Event) []Prompt {
	switch s.sellState {
	case sellAwaitingQuery:
		return e.sellHandleQuery(s, ev)
	case sellAwaitingSelection:
		return e.sellHandleSelection(s, ev)
	case sellAwaitingPayment:
		return e.sellHandlePayment(s, ev)
	case sellAwaitingPrice:
		return e.sellHandlePrice(s, ev)
	}

	e.endSession(s.userID)
	return []Prompt{textPrompt("Something went wrong, please start over with /sell.")}
}

func (e *Engine) sellHandleQuery(s *session, ev Event) []Prompt {
	matches, err := e.inventory.Search(ev.Text)
	if err != nil {
		e.endSession(s.userID)
		return []Prompt{textPrompt("❌ Inventory lookup failed: %v", err)}
	}

	if len(matches) == 0 {
		e.endSession(s.userID)
		return []Prompt{textPrompt("📦 No matching records in stock.")}
	}

	s.matches = matches
	s.sellState = sellAwaitingSelection

	var rows [][]Button
	for i, item := range matches {
		label := sprintf("%s [%s] — $%s (x%d)", item.ArtistAlbum, item.Condition, item.Price.StringFixed(2), item.Quantity)
		if len(label) > resultButtonLabelMax {
			label = label[:resultButtonLabelMax]
		}
		rows = append(rows, []Button{{Label: label, Token: "sel_" + strconv.Itoa(i)}})
	}

	return []Prompt{{Text: "Select the record being sold:", Buttons: rows}}
}

func (e *Engine) sellHandleSelection(s *session, ev Event) []Prompt {
	if !strings.HasPrefix(ev.Button, "sel_") {
		return []Prompt{textPrompt("Pick a record from the list.")}
	}

	idx, err := strconv.Atoi(strings.TrimPrefix(ev.Button, "sel_"))
	if err != nil || idx < 0 || idx >= len(s.matches) {
		return []Prompt{textPrompt("Pick a record from the list.")}
	}

	s.item = s.matches[idx]
	s.sellState = sellAwaitingPayment

	return []Prompt{{
		Text: sprintf("Selling: %s [%s]\n\nHow is the customer paying?", s.item.ArtistAlbum, s.item.Condition),
		Buttons: [][]Button{
			{{Label: "💵 Cash", Token: "pay_cash"}, {Label: "💳 POS", Token: "pay_pos"}},
		},
	}}
}

func (e *Engine) sellHandlePayment(s *session, ev Event) []Prompt {
	method, ok := data.ParsePaymentMethod(strings.TrimPrefix(ev.Button, "pay_"))
	if !ok {
		return []Prompt{{
			Text: "Choose the payment method:",
			Buttons: [][]Button{
				{{Label: "💵 Cash", Token: "pay_cash"}, {Label: "💳 POS", Token: "pay_pos"}},
			},
		}}
	}

	s.payment = method
	s.sellState = sellAwaitingPrice

	return []Prompt{textPrompt("Listed price: $%s\n\nSend the sale price or type 'ok' to use the listed price.",
		s.item.Price.StringFixed(2))}
}

func (e *Engine) sellHandlePrice(s *session, ev Event) []Prompt {
	input := strings.TrimSpace(ev.Text)

	var price decimal.Decimal
	if strings.EqualFold(input, "ok") {
		price = s.item.Price
	} else {
		parsed, err := decimal.NewFromString(input)
		if err != nil || parsed.IsNegative() {
			return []Prompt{textPrompt("❌ Invalid price. Send a non-negative number or 'ok' to use the listed price:")}
		}
		price = parsed.Round(2)
	}

	// Terminal from here on: the decrement is attempted exactly once.
	e.endSession(s.userID)

	sold, err := e.inventory.DecrementQuantity(s.item.ID, 1)
	if err != nil {
		return []Prompt{textPrompt("❌ Sale failed: %v", err)}
	}
	if !sold {
		return []Prompt{textPrompt("❌ Could not complete the sale: '%s' [%s] is no longer available.",
			s.item.ArtistAlbum, s.item.Condition)}
	}

	sale := data.SaleRecord{
		Date:          time.Now().Format(data.DateFormat),
		ArtistAlbum:   s.item.ArtistAlbum,
		Genre:         s.item.Genre,
		Style:         s.item.Style,
		Label:         s.item.Label,
		Format:        s.item.Format,
		Condition:     s.item.Condition,
		Price:         price,
		PaymentMethod: s.payment,
	}

	// The stock is already gone, so the customer-facing sale stands even if
	// the log write fails. The operator finds the gap in the logs.
	if _, err := e.sales.InsertSale(sale); err != nil {
		logger.LogError("Sale of '%s' [%s] for $%s completed but was not recorded: %v",
			sale.ArtistAlbum, sale.Condition, price.StringFixed(2), err)
	}

	remaining := 0
	if current, err := e.inventory.GetByID(s.item.ID); err != nil {
		logger.LogWarn("Failed to read remaining stock for item %d: %v", s.item.ID, err)
	} else if current != nil {
		remaining = current.Quantity
	}

	msg := sprintf("✅ Sold '%s' [%s] for $%s via %s.", sale.ArtistAlbum, sale.Condition,
		price.StringFixed(2), s.payment)
	switch {
	case remaining == 0:
		msg += "\n📦 That was the last copy — now out of stock."
	case remaining <= e.lowStockThreshold:
		msg += sprintf("\n⚠️ Low stock: %d cop%s left.", remaining, pluralYIes(remaining))
	default:
		msg += sprintf("\n%d copies left in stock.", remaining)
	}

	return []Prompt{textPrompt("%s", msg)}
}

func pluralYIes(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
