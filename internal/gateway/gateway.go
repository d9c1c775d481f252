// internal/gateway/gateway.go
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"recordstorebot/internal/auth"
	"recordstorebot/internal/data"
	"recordstorebot/internal/engine"
	"recordstorebot/internal/logger"
	"recordstorebot/internal/reports"
)

// InboundEvent is one update pushed by the chat platform bridge. FileData is
// base64 on the wire (encoding/json handles []byte that way).
type InboundEvent struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	Text      string `json:"text,omitempty"`
	Button    string `json:"button,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	FileData  []byte `json:"file_data,omitempty"`
}

// OutboundPrompt mirrors engine.Prompt for the wire.
type OutboundPrompt struct {
	Text     string            `json:"text,omitempty"`
	Buttons  [][]engine.Button `json:"buttons,omitempty"`
	FileName string            `json:"file_name,omitempty"`
	FileData []byte            `json:"file_data,omitempty"`
}

// Gateway turns chat updates into engine events and prompts back into chat
// replies. It owns the command surface; the engine owns the flows.
type Gateway struct {
	engine    *engine.Engine
	auth      *auth.Manager
	inventory *data.InventoryRepository
	reports   *reports.Service

	lowStockThreshold int
}

func New(eng *engine.Engine, authMgr *auth.Manager, inventory *data.InventoryRepository, rep *reports.Service, lowStockThreshold int) *Gateway {
	return &Gateway{
		engine:            eng,
		auth:              authMgr,
		inventory:         inventory,
		reports:           rep,
		lowStockThreshold: lowStockThreshold,
	}
}

// UpdateHandler receives one InboundEvent and responds with the prompts to
// send back to the user.
func (g *Gateway) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	logger.LogHTTPRequest(r)

	if r.Method != http.MethodPost {
		WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", "")
		return
	}

	var event InboundEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		logger.LogHTTPError(r, http.StatusBadRequest, err)
		WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "Invalid update payload", err.Error())
		return
	}

	if event.UserID == 0 {
		WriteAPIError(w, r, http.StatusBadRequest, "bad_request", "user_id is required", "")
		return
	}

	prompts := g.dispatch(r.Context(), event)

	out := make([]OutboundPrompt, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, OutboundPrompt{
			Text:     p.Text,
			Buttons:  p.Buttons,
			FileName: p.FileName,
			FileData: p.FileData,
		})
	}

	WriteAPIResponse(w, r, map[string]interface{}{"prompts": out})
}

// dispatch routes one event: slash commands first, everything else into the
// active flow.
func (g *Gateway) dispatch(ctx context.Context, event InboundEvent) []engine.Prompt {
	text := strings.TrimSpace(event.Text)

	if strings.HasPrefix(text, "/") {
		return g.handleCommand(ctx, event, text)
	}

	if !g.auth.IsAuthenticated(event.UserID) {
		return lockedPrompt()
	}

	return g.engine.HandleEvent(ctx, engine.Event{
		UserID:   event.UserID,
		Text:     event.Text,
		Button:   event.Button,
		FileName: event.FileName,
		FileData: event.FileData,
	})
}

func (g *Gateway) handleCommand(ctx context.Context, event InboundEvent, text string) []engine.Prompt {
	command, args := splitCommand(text)

	// Commands available without a session.
	switch command {
	case "/start":
		return g.startCommand(event.UserID)
	case "/login":
		return g.loginCommand(event, args)
	case "/cancel":
		return []engine.Prompt{g.engine.Cancel(event.UserID)}
	}

	if !g.auth.IsAuthenticated(event.UserID) {
		return lockedPrompt()
	}

	switch command {
	case "/logout":
		if err := g.auth.Logout(event.UserID); err != nil {
			logger.LogError("Logout failed for user %d: %v", event.UserID, err)
			return []engine.Prompt{{Text: "❌ Logout failed, please try again."}}
		}
		return []engine.Prompt{{Text: "👋 Logged out."}}

	case "/inventory":
		return g.inventoryCommand(args)

	case "/lowstock":
		return g.lowStockCommand()

	case "/add":
		return []engine.Prompt{g.engine.StartFlow(event.UserID, engine.FlowAdd)}

	case "/sell":
		return []engine.Prompt{g.engine.StartFlow(event.UserID, engine.FlowSell)}

	case "/bulkimport":
		return []engine.Prompt{g.engine.StartFlow(event.UserID, engine.FlowBulkImport)}

	case "/report":
		return g.reportCommand(args)
	}

	return []engine.Prompt{{Text: "Unknown command. Send /start for the list of commands."}}
}

func (g *Gateway) startCommand(userID int64) []engine.Prompt {
	msg := "🎶 Welcome to Record Store Bot!\n\n" +
		"Available commands:\n" +
		"/login <password> - Authenticate\n" +
		"/inventory [query] - View stock\n" +
		"/lowstock - Items running out\n" +
		"/add - Add vinyl via Discogs\n" +
		"/sell - Sell vinyls to customer\n" +
		"/bulkimport - Import records from a file\n" +
		"/report [date] - Daily sales report\n" +
		"/cancel - Abort the current task"

	if g.auth.IsAuthenticated(userID) {
		if stats, err := g.inventory.Stats(); err == nil {
			msg += fmt.Sprintf("\n\n📦 %s record(s) in stock across %s listing(s), %s sale(s) logged.",
				humanize.Comma(int64(stats.TotalQuantity)),
				humanize.Comma(int64(stats.InventoryRecords)),
				humanize.Comma(int64(stats.SalesRecords)))
		}
	}

	return []engine.Prompt{{Text: msg}}
}

func (g *Gateway) loginCommand(event InboundEvent, args string) []engine.Prompt {
	password := strings.TrimSpace(args)
	if password == "" {
		return []engine.Prompt{{Text: "Usage: /login <password>"}}
	}

	ok, err := g.auth.Login(event.UserID, event.Username, event.FirstName, password)
	if err != nil {
		logger.LogError("Login failed for user %d: %v", event.UserID, err)
		return []engine.Prompt{{Text: "❌ Login failed, please try again."}}
	}
	if !ok {
		return []engine.Prompt{{Text: "❌ Wrong password."}}
	}
	return []engine.Prompt{{Text: "✅ Authenticated. You can now manage the store."}}
}

const inventoryListLimit = 20

func (g *Gateway) inventoryCommand(args string) []engine.Prompt {
	items, err := g.inventory.Search(args)
	if err != nil {
		logger.LogError("Inventory listing failed: %v", err)
		return []engine.Prompt{{Text: "❌ Could not read the inventory."}}
	}
	if len(items) == 0 {
		return []engine.Prompt{{Text: "📦 Inventory is empty."}}
	}

	var prompts []engine.Prompt
	for i, item := range items {
		if i == inventoryListLimit {
			prompts = append(prompts, engine.Prompt{
				Text: fmt.Sprintf("…and %d more. Narrow it down with /inventory <query>.", len(items)-inventoryListLimit),
			})
			break
		}
		prompts = append(prompts, engine.Prompt{
			Text: fmt.Sprintf("🎵 %s\nFormat: %s\nCondition: %s\nPrice: $%s\nIn stock: %d",
				item.ArtistAlbum, item.Format, item.Condition, item.Price.StringFixed(2), item.Quantity),
		})
	}
	return prompts
}

func (g *Gateway) lowStockCommand() []engine.Prompt {
	items, err := g.inventory.LowStock(g.lowStockThreshold)
	if err != nil {
		logger.LogError("Low stock listing failed: %v", err)
		return []engine.Prompt{{Text: "❌ Could not read the inventory."}}
	}
	if len(items) == 0 {
		return []engine.Prompt{{Text: "👍 Nothing is running low."}}
	}

	var b strings.Builder
	b.WriteString("⚠️ Running low:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "• %s [%s] — %d left\n", item.ArtistAlbum, item.Condition, item.Quantity)
	}
	return []engine.Prompt{{Text: strings.TrimRight(b.String(), "\n")}}
}

func (g *Gateway) reportCommand(args string) []engine.Prompt {
	date := strings.TrimSpace(args)
	if date == "" {
		date = time.Now().Format(data.DateFormat)
	} else if _, err := time.Parse(data.DateFormat, date); err != nil {
		return []engine.Prompt{{Text: "Usage: /report [YYYY-MM-DD]"}}
	}

	summary, err := g.reports.DailySummary(date)
	if err == reports.ErrNoSales {
		return []engine.Prompt{{Text: fmt.Sprintf("📭 No sales on %s.", date)}}
	}
	if err != nil {
		logger.LogError("Report generation failed for %s: %v", date, err)
		return []engine.Prompt{{Text: "❌ Report generation failed."}}
	}

	prompts := []engine.Prompt{{Text: summary}}

	csvData, filename, err := g.reports.DailyCSV(date)
	if err != nil {
		logger.LogError("Report export failed for %s: %v", date, err)
		return prompts
	}
	prompts = append(prompts, engine.Prompt{FileName: filename, FileData: csvData})

	return prompts
}

func lockedPrompt() []engine.Prompt {
	return []engine.Prompt{{Text: "🔒 Please authenticate first: /login <password>"}}
}

func splitCommand(text string) (string, string) {
	parts := strings.SplitN(text, " ", 2)
	command := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return command, ""
	}
	return command, parts[1]
}
