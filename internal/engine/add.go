package engine

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"recordstorebot/internal/catalog"
	"recordstorebot/internal/data"
	"recordstorebot/internal/logger"
)

const resultButtonLabelMax = 60

// handleAdd advances the add-record flow one step. Invalid input re-prompts
// in place; only ledger write failures end the flow early.
func (e *Engine) handleAdd(ctx context.Context, s *session, ev Event) []Prompt {
	switch s.addState {
	case addAwaitingQuery:
		return e.addHandleQuery(ctx, s, ev)
	case addShowingResults:
		return e.addHandleResults(ctx, s, ev)
	case addAwaitingCondition:
		return e.addHandleCondition(ctx, s, ev)
	case addAwaitingPrice:
		return e.addHandlePrice(s, ev)
	case addAwaitingQuantity:
		return e.addHandleQuantity(s, ev)
	}

	e.endSession(s.userID)
	return []Prompt{textPrompt("Something went wrong, please start over with /add.")}
}

func (e *Engine) addHandleQuery(ctx context.Context, s *session, ev Event) []Prompt {
	query := strings.TrimSpace(ev.Text)
	if query == "" {
		return []Prompt{textPrompt("Enter album name (Artist - Title):")}
	}

	s.query = query
	s.page = 1
	return e.addShowResultsPage(ctx, s)
}

func (e *Engine) addShowResultsPage(ctx context.Context, s *session) []Prompt {
	results, err := e.catalog.Search(ctx, s.query, s.page)
	if err != nil {
		logger.LogError("Catalog search for %q (page %d) failed: %v", s.query, s.page, err)
		s.addState = addAwaitingQuery
		return []Prompt{textPrompt("❌ Catalog search failed, please try again. Enter album name (Artist - Title):")}
	}

	if len(results) == 0 {
		s.addState = addAwaitingQuery
		return []Prompt{textPrompt("No releases found for '%s'. Try another query:", s.query)}
	}

	s.results = results
	s.addState = addShowingResults

	var rows [][]Button
	for i, candidate := range results {
		label := candidate.Title + " [" + candidate.Formats + "]"
		if len(label) > resultButtonLabelMax {
			label = label[:resultButtonLabelMax]
		}
		rows = append(rows, []Button{{Label: label, Token: "select_" + strconv.Itoa(i)}})
	}

	var nav []Button
	if s.page > 1 {
		nav = append(nav, Button{Label: "⬅️ Prev", Token: "prev"})
	}
	// A full page means more may exist. The catalog does not report totals,
	// so the last page can still show a dead next button.
	if len(results) == catalog.PageSize {
		nav = append(nav, Button{Label: "➡️ Next", Token: "next"})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	return []Prompt{{Text: "Select a release:", Buttons: rows}}
}

func (e *Engine) addHandleResults(ctx context.Context, s *session, ev Event) []Prompt {
	switch {
	case ev.Button == "next":
		s.page++
		return e.addShowResultsPage(ctx, s)

	case ev.Button == "prev":
		if s.page > 1 {
			s.page--
		}
		return e.addShowResultsPage(ctx, s)

	case strings.HasPrefix(ev.Button, "select_"):
		idx, err := strconv.Atoi(strings.TrimPrefix(ev.Button, "select_"))
		if err != nil || idx < 0 || idx >= len(s.results) {
			return []Prompt{textPrompt("Pick a release from the list.")}
		}
		s.selected = s.results[idx]
		s.addState = addAwaitingCondition
		return []Prompt{{
			Text:    sprintf("Selected: %s\n\nNow choose vinyl condition:", s.selected.Title),
			Buttons: conditionKeyboard(),
		}}
	}

	return []Prompt{textPrompt("Pick a release from the list, or use next/prev.")}
}

func conditionKeyboard() [][]Button {
	var rows [][]Button
	var row []Button
	for _, c := range data.Conditions {
		row = append(row, Button{Label: string(c), Token: "cond_" + string(c)})
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func (e *Engine) addHandleCondition(ctx context.Context, s *session, ev Event) []Prompt {
	if !strings.HasPrefix(ev.Button, "cond_") {
		return []Prompt{{Text: "Choose the vinyl condition:", Buttons: conditionKeyboard()}}
	}

	cond, ok := data.ParseCondition(strings.TrimPrefix(ev.Button, "cond_"))
	if !ok {
		return []Prompt{{Text: "Choose the vinyl condition:", Buttons: conditionKeyboard()}}
	}
	s.condition = cond

	// Suggestions are keyed by the full display label. A failed lookup is an
	// empty map, which reads the same as "no suggestion for this grade".
	suggestions := e.catalog.PriceSuggestions(ctx, s.selected.ReleaseID)

	s.suggested = nil
	msg := "No price suggestion found."
	if suggestion, found := suggestions[cond.Label()]; found {
		value := suggestion.Value.Round(2)
		s.suggested = &value
		msg = sprintf("Suggested price for %s: $%s", cond.Label(), value.StringFixed(2))
	}

	s.addState = addAwaitingPrice
	return []Prompt{textPrompt("%s\n\nSend your own price or type 'ok' to accept the suggested price.", msg)}
}

func (e *Engine) addHandlePrice(s *session, ev Event) []Prompt {
	input := strings.TrimSpace(ev.Text)

	if strings.EqualFold(input, "ok") && s.suggested != nil {
		s.price = *s.suggested
	} else {
		parsed, err := decimal.NewFromString(input)
		if err != nil {
			return []Prompt{textPrompt("❌ Invalid price. Please enter a valid number or 'ok' to accept suggested price:")}
		}
		s.price = parsed.Round(2)
	}

	s.addState = addAwaitingQuantity
	return []Prompt{textPrompt("How many copies do you want to add?")}
}

func (e *Engine) addHandleQuantity(s *session, ev Event) []Prompt {
	qty, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil || qty < 1 {
		return []Prompt{textPrompt("❌ Invalid quantity. Enter a whole number ≥ 1:")}
	}

	item := data.InventoryItem{
		ArtistAlbum: s.selected.Title,
		Genre:       s.selected.Genres,
		Style:       s.selected.Styles,
		Label:       s.selected.Labels,
		Format:      s.selected.Formats,
		Condition:   s.condition,
		Price:       s.price,
		Quantity:    qty,
	}

	e.endSession(s.userID)

	if _, err := e.inventory.Insert(item); err != nil {
		logger.LogError("Failed to add '%s' to inventory: %v", item.ArtistAlbum, err)
		return []Prompt{textPrompt("❌ Error saving to inventory: %v", err)}
	}

	return []Prompt{textPrompt("✅ %d copy(ies) of '%s' added to inventory at $%s each.",
		qty, item.ArtistAlbum, item.Price.StringFixed(2))}
}
