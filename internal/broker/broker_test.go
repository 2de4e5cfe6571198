package broker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/webmark/webmark/internal/domain"
	"github.com/webmark/webmark/internal/export"
	"github.com/webmark/webmark/internal/logger"
	"github.com/webmark/webmark/internal/store"
)

func newTestBroker(t *testing.T) (*Broker, *store.Store) {
	t.Helper()
	log := logger.New("error", false)
	st := store.New(store.NewMemoryPersistence(), log, store.DefaultLimits())
	return New(st, log), st
}

func createMsg(t *testing.T, url, text string) Message {
	t.Helper()
	data, err := json.Marshal(domain.Draft{URL: url, Text: text})
	if err != nil {
		t.Fatalf("marshal draft: %v", err)
	}
	return Message{Type: OpCreateHighlight, RequestID: "req-1", Data: data}
}

func TestDispatchCreateAndGetForURL(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	resp := b.Dispatch(ctx, createMsg(t, "https://example.com", "highlighted"))
	if !resp.Success {
		t.Fatalf("create failed: %s", resp.Error)
	}
	if resp.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want req-1", resp.RequestID)
	}
	h, ok := resp.Data.(*domain.Highlight)
	if !ok {
		t.Fatalf("Data type = %T, want *domain.Highlight", resp.Data)
	}

	resp = b.Dispatch(ctx, Message{Type: OpGetHighlightsForURL, URL: "https://example.com"})
	if !resp.Success {
		t.Fatalf("get failed: %s", resp.Error)
	}
	list, ok := resp.Data.([]*domain.Highlight)
	if !ok {
		t.Fatalf("Data type = %T", resp.Data)
	}
	if len(list) != 1 || list[0].ID != h.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestDispatchCreateMalformedPayload(t *testing.T) {
	b, _ := newTestBroker(t)

	resp := b.Dispatch(context.Background(), Message{
		Type: OpCreateHighlight,
		Data: json.RawMessage(`{not json`),
	})
	if resp.Success {
		t.Fatal("malformed payload should fail")
	}
	if resp.ErrorCode != domain.CodeValidation {
		t.Errorf("ErrorCode = %v, want %v", resp.ErrorCode, domain.CodeValidation)
	}
}

func TestDispatchQuickHighlight(t *testing.T) {
	b, st := newTestBroker(t)
	ctx := context.Background()

	pink := domain.ColorPink
	if _, err := st.UpdateSettings(ctx, domain.SettingsPatch{DefaultColor: &pink}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	resp := b.Dispatch(ctx, Message{
		Type:      OpQuickHighlight,
		URL:       "https://example.com",
		Text:      "selected words",
		PageTitle: "A Page",
	})
	if !resp.Success {
		t.Fatalf("quick highlight failed: %s", resp.Error)
	}
	h := resp.Data.(*domain.Highlight)
	if h.Color != domain.ColorPink {
		t.Errorf("Color = %v, want settings default pink", h.Color)
	}
	if h.PageTitle != "A Page" {
		t.Errorf("PageTitle = %q", h.PageTitle)
	}
}

func TestDispatchToggleHighlight(t *testing.T) {
	b, st := newTestBroker(t)
	ctx := context.Background()

	toggle := Message{
		Type: OpToggleHighlight,
		URL:  "https://example.com",
		Text: "toggled words",
	}

	resp := b.Dispatch(ctx, toggle)
	if !resp.Success {
		t.Fatalf("toggle on failed: %s", resp.Error)
	}
	if _, ok := resp.Data.(*domain.Highlight); !ok {
		t.Fatalf("Data type = %T, want *domain.Highlight", resp.Data)
	}
	if st.Count() != 1 {
		t.Fatalf("Count() = %d after toggle on", st.Count())
	}

	resp = b.Dispatch(ctx, toggle)
	if !resp.Success {
		t.Fatalf("toggle off failed: %s", resp.Error)
	}
	if st.Count() != 0 {
		t.Errorf("Count() = %d after toggle off, want 0", st.Count())
	}
}

func TestDispatchUpdateAndDelete(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	resp := b.Dispatch(ctx, createMsg(t, "https://example.com", "text"))
	h := resp.Data.(*domain.Highlight)

	note := "annotated"
	resp = b.Dispatch(ctx, Message{
		Type:        OpUpdateHighlight,
		HighlightID: h.ID,
		Updates:     &domain.Patch{Note: &note},
	})
	if !resp.Success {
		t.Fatalf("update failed: %s", resp.Error)
	}
	if resp.Data.(*domain.Highlight).Note != "annotated" {
		t.Error("update did not land")
	}

	resp = b.Dispatch(ctx, Message{Type: OpDeleteHighlight, HighlightID: h.ID})
	if !resp.Success {
		t.Fatalf("delete failed: %s", resp.Error)
	}

	resp = b.Dispatch(ctx, Message{Type: OpDeleteHighlight, HighlightID: h.ID})
	if resp.Success || resp.ErrorCode != domain.CodeNotFound {
		t.Errorf("second delete: success=%v code=%v", resp.Success, resp.ErrorCode)
	}
}

func TestDispatchSearchAndGetAll(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	b.Dispatch(ctx, createMsg(t, "https://example.com/a", "go concurrency patterns"))
	b.Dispatch(ctx, createMsg(t, "https://example.com/b", "rust borrow checker"))

	resp := b.Dispatch(ctx, Message{Type: OpSearchHighlights, Query: "CONCURRENCY"})
	if !resp.Success {
		t.Fatalf("search failed: %s", resp.Error)
	}
	res := resp.Data.(*domain.SearchResult)
	if len(res.Highlights) != 1 {
		t.Errorf("search matched %d, want 1", len(res.Highlights))
	}

	resp = b.Dispatch(ctx, Message{Type: OpGetAllHighlights})
	res = resp.Data.(*domain.SearchResult)
	if len(res.Highlights) != 2 || res.Total != 2 {
		t.Errorf("get all = %d/%d, want 2/2", len(res.Highlights), res.Total)
	}
}

func TestDispatchSettingsAndStats(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	resp := b.Dispatch(ctx, Message{Type: OpGetSettings})
	if !resp.Success {
		t.Fatalf("get settings failed: %s", resp.Error)
	}

	resp = b.Dispatch(ctx, Message{Type: OpUpdateSettings})
	if resp.Success || resp.ErrorCode != domain.CodeValidation {
		t.Errorf("update without payload: success=%v code=%v", resp.Success, resp.ErrorCode)
	}

	dark := "dark"
	resp = b.Dispatch(ctx, Message{Type: OpUpdateSettings, Settings: &domain.SettingsPatch{Theme: &dark}})
	if !resp.Success {
		t.Fatalf("update settings failed: %s", resp.Error)
	}
	got := resp.Data.(map[string]*domain.Settings)["settings"]
	if got.Theme != "dark" {
		t.Errorf("Theme = %q", got.Theme)
	}

	b.Dispatch(ctx, createMsg(t, "https://example.com", "text"))
	resp = b.Dispatch(ctx, Message{Type: OpGetStats})
	stats := resp.Data.(map[string]*domain.Stats)["stats"]
	if stats.TotalHighlights != 1 {
		t.Errorf("TotalHighlights = %d, want 1", stats.TotalHighlights)
	}
}

func TestDispatchExportImportRoundTrip(t *testing.T) {
	b, st := newTestBroker(t)
	ctx := context.Background()

	b.Dispatch(ctx, createMsg(t, "https://example.com", "exported text"))

	resp := b.Dispatch(ctx, Message{Type: OpExportData, Format: "json"})
	if !resp.Success {
		t.Fatalf("export failed: %s", resp.Error)
	}
	out := resp.Data.(*export.Output)

	if err := st.Clear(ctx, "CONFIRM"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	resp = b.Dispatch(ctx, Message{
		Type: OpImportData,
		Data: json.RawMessage(out.Data),
	})
	if !resp.Success {
		t.Fatalf("import failed: %s", resp.Error)
	}
	counts := resp.Data.(map[string]int)
	if counts["imported"] != 1 || counts["total"] != 1 {
		t.Errorf("import counts = %v", counts)
	}
}

func TestDispatchClearRequiresToken(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	resp := b.Dispatch(ctx, Message{Type: OpClearData})
	if resp.Success || resp.ErrorCode != domain.CodeMissingConfirmation {
		t.Errorf("clear without token: success=%v code=%v", resp.Success, resp.ErrorCode)
	}

	resp = b.Dispatch(ctx, Message{Type: OpClearData, ConfirmToken: "CONFIRM"})
	if !resp.Success {
		t.Errorf("clear with token failed: %s", resp.Error)
	}
}

func TestDispatchUnknownType(t *testing.T) {
	b, _ := newTestBroker(t)

	resp := b.Dispatch(context.Background(), Message{Type: "NO_SUCH_OP", RequestID: "req-9"})
	if resp.Success {
		t.Fatal("unknown type should fail, not hang or succeed")
	}
	if resp.ErrorCode != domain.CodeTransport {
		t.Errorf("ErrorCode = %v, want %v", resp.ErrorCode, domain.CodeTransport)
	}
	if resp.RequestID != "req-9" {
		t.Errorf("RequestID = %q, want req-9", resp.RequestID)
	}
}

func TestNotificationsFilteredByURL(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	pageID, pageCh := b.Subscribe("https://example.com/page")
	allID, allCh := b.Subscribe("")
	otherID, otherCh := b.Subscribe("https://example.com/other")
	defer b.Unsubscribe(pageID)
	defer b.Unsubscribe(allID)
	defer b.Unsubscribe(otherID)

	if b.SubscriberCount() != 3 {
		t.Fatalf("SubscriberCount() = %d, want 3", b.SubscriberCount())
	}

	resp := b.Dispatch(ctx, createMsg(t, "https://example.com/page", "text"))
	if !resp.Success {
		t.Fatalf("create failed: %s", resp.Error)
	}

	select {
	case n := <-pageCh:
		if n.Type != NoteHighlightCreated {
			t.Errorf("notification type = %q", n.Type)
		}
	default:
		t.Error("matching subscriber got no notification")
	}

	select {
	case n := <-allCh:
		if n.Data == nil || n.Data.URL != "https://example.com/page" {
			t.Errorf("wildcard notification = %+v", n)
		}
	default:
		t.Error("wildcard subscriber got no notification")
	}

	select {
	case n := <-otherCh:
		t.Errorf("non-matching subscriber notified: %+v", n)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b, _ := newTestBroker(t)

	id, ch := b.Subscribe("https://example.com")
	b.Unsubscribe(id)

	if _, open := <-ch; open {
		t.Error("channel should be closed after Unsubscribe")
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", b.SubscriberCount())
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	id, ch := b.Subscribe("")
	defer b.Unsubscribe(id)

	// Never drained: fills the buffer, then deliveries drop.
	for i := 0; i < subscriberBuffer+5; i++ {
		resp := b.Dispatch(ctx, createMsg(t, "https://example.com", "text"))
		if !resp.Success {
			t.Fatalf("create #%d failed: %s", i, resp.Error)
		}
	}

	if got := len(ch); got != subscriberBuffer {
		t.Errorf("buffered notifications = %d, want %d", got, subscriberBuffer)
	}
}
