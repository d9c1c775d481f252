// Package engine drives the multi-step conversation flows. Each flow is an
// explicit state machine per user: the gateway feeds events in, the engine
// consults the catalog and the ledger, and hands prompts back. Transport
// details never reach this package, which is what keeps the flows testable.
package engine

import (
	"context"
	"sync"

	"recordstorebot/internal/catalog"
	"recordstorebot/internal/data"
)

// Flow names the three conversational tasks.
type Flow string

const (
	FlowAdd        Flow = "add"
	FlowSell       Flow = "sell"
	FlowBulkImport Flow = "bulkimport"
)

// Event is one inbound chat event. Exactly one of Text, Button or FileData
// is meaningful, depending on what the user did.
type Event struct {
	UserID   int64
	Text     string
	Button   string
	FileName string
	FileData []byte
}

// Button is one inline keyboard button: a visible label and the token the
// transport sends back when pressed.
type Button struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Prompt is one outbound message: text, optional button rows, optional file.
type Prompt struct {
	Text     string
	Buttons  [][]Button
	FileName string
	FileData []byte
}

func textPrompt(format string, args ...interface{}) Prompt {
	return Prompt{Text: sprintf(format, args...)}
}

// Catalog is the slice of the lookup adapter the flows need. Price
// suggestions degrade to an empty map on failure and never error.
type Catalog interface {
	Search(ctx context.Context, query string, page int) ([]catalog.Candidate, error)
	PriceSuggestions(ctx context.Context, releaseID int64) map[string]catalog.PriceSuggestion
}

// Engine owns the per-user sessions and runs the flows against the ledger,
// the sale log and the catalog.
type Engine struct {
	mu       sync.Mutex
	sessions map[int64]*session

	inventory *data.InventoryRepository
	sales     *data.SalesRepository
	catalog   Catalog

	lowStockThreshold int
}

func New(inventory *data.InventoryRepository, sales *data.SalesRepository, cat Catalog, lowStockThreshold int) *Engine {
	return &Engine{
		sessions:          make(map[int64]*session),
		inventory:         inventory,
		sales:             sales,
		catalog:           cat,
		lowStockThreshold: lowStockThreshold,
	}
}

// ActiveFlow reports which flow, if any, the user is currently in.
func (e *Engine) ActiveFlow(userID int64) (Flow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[userID]
	if !ok {
		return "", false
	}
	return s.flow, true
}

// StartFlow opens a fresh session for the user, discarding any in-flight
// flow, and returns the entry prompt.
func (e *Engine) StartFlow(userID int64, flow Flow) Prompt {
	s := &session{userID: userID, flow: flow}

	e.mu.Lock()
	e.sessions[userID] = s
	e.mu.Unlock()

	switch flow {
	case FlowAdd:
		return textPrompt("Enter album name (Artist - Title):")
	case FlowSell:
		return textPrompt("Which record is being sold? Send part of the artist/album name, or 'all' to list everything:")
	case FlowBulkImport:
		return textPrompt("📥 Send the import file (two rows per record: title then price).")
	}
	return textPrompt("Unknown task.")
}

// Cancel discards the user's session without side effects. Safe to call in
// any state; inventory and the sale log are never touched here.
func (e *Engine) Cancel(userID int64) Prompt {
	e.mu.Lock()
	_, active := e.sessions[userID]
	delete(e.sessions, userID)
	e.mu.Unlock()

	if !active {
		return textPrompt("Nothing to cancel.")
	}
	return textPrompt("✅ Cancelled.")
}

// HandleEvent routes one event into the user's active flow and returns the
// resulting prompts. Events with no active session get a pointer to the
// entry commands.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) []Prompt {
	e.mu.Lock()
	s, ok := e.sessions[ev.UserID]
	e.mu.Unlock()

	if !ok {
		return []Prompt{textPrompt("No task in progress. Use /add, /sell or /bulkimport to start one.")}
	}

	switch s.flow {
	case FlowAdd:
		return e.handleAdd(ctx, s, ev)
	case FlowSell:
		return e.handleSell(ctx, s, ev)
	case FlowBulkImport:
		return e.handleBulkImport(ctx, s, ev)
	}

	e.endSession(ev.UserID)
	return []Prompt{textPrompt("Unknown task state, please start over.")}
}

func (e *Engine) endSession(userID int64) {
	e.mu.Lock()
	delete(e.sessions, userID)
	e.mu.Unlock()
}
