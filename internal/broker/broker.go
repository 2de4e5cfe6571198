// Package broker is the sync coordinator between page contexts and the
// record store: request dispatch on one side, fan-out notifications on
// the other. It is transport-agnostic; the HTTP layer feeds it decoded
// envelopes and forwards subscription channels to live connections.
package broker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/webmark/webmark/internal/domain"
	"github.com/webmark/webmark/internal/export"
	"github.com/webmark/webmark/internal/logger"
	"github.com/webmark/webmark/internal/store"
)

// subscriberBuffer is the per-context notification backlog. A context
// that falls further behind loses notifications instead of blocking
// the authority; the next page load reconciles from the store.
const subscriberBuffer = 16

type subscriber struct {
	url string
	ch  chan Notification
}

// Broker dispatches requests against the store and fans change
// notifications out to subscribed page contexts.
type Broker struct {
	store  *store.Store
	logger logger.Logger

	mu     sync.RWMutex
	subs   map[int64]*subscriber
	nextID int64
}

// New wires a broker to the store and registers it as the store's
// notification sink.
func New(st *store.Store, log logger.Logger) *Broker {
	b := &Broker{
		store:  st,
		logger: log,
		subs:   make(map[int64]*subscriber),
	}
	st.SetNotifier(b)
	return b
}

// Subscribe registers a page context interested in records for the
// given resource key. An empty url subscribes to every record change
// (dashboard surfaces). Returns the subscription id and the channel
// notifications arrive on; callers must Unsubscribe on teardown.
func (b *Broker) Subscribe(url string) (int64, <-chan Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	sub := &subscriber{url: url, ch: make(chan Notification, subscriberBuffer)}
	b.subs[id] = sub

	b.logger.Debug("context subscribed",
		logger.String("url", url),
		logger.Int("subscribers", len(b.subs)))
	return id, sub.ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// SubscriberCount reports live subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dispatch routes one request envelope to the store and converts the
// outcome to a Response. Any internal panic becomes a generic
// transport-failure response so the caller always resolves.
func (b *Broker) Dispatch(ctx context.Context, msg Message) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("dispatch panicked",
				logger.String("type", msg.Type))
			resp = fail(msg.RequestID, domain.NewError(domain.CodeTransport,
				"internal error handling %s", msg.Type))
		}
	}()

	start := time.Now()
	resp = b.dispatch(ctx, msg)
	b.logger.Debug("message handled",
		logger.String("type", msg.Type),
		logger.Duration("duration", time.Since(start)))
	return resp
}

func (b *Broker) dispatch(ctx context.Context, msg Message) Response {
	switch msg.Type {
	case OpCreateHighlight:
		var draft domain.Draft
		if err := json.Unmarshal(msg.Data, &draft); err != nil {
			return fail(msg.RequestID, domain.NewError(domain.CodeValidation,
				"malformed highlight payload: %v", err))
		}
		h, err := b.store.Create(ctx, &draft)
		if err != nil {
			return fail(msg.RequestID, err)
		}
		return ok(msg.RequestID, h)

	case OpQuickHighlight:
		color := msg.Color
		if color == "" {
			color = b.store.GetSettings().DefaultColor
		}
		h, err := b.store.Create(ctx, &domain.Draft{
			URL:       msg.URL,
			PageTitle: msg.PageTitle,
			Text:      msg.Text,
			Color:     color,
		})
		if err != nil {
			return fail(msg.RequestID, err)
		}
		return ok(msg.RequestID, h)

	case OpToggleHighlight:
		// Toggling re-highlights the same selection: an existing record
		// with the same text on the page is removed, otherwise one is
		// created with the settings default color.
		for _, existing := range b.store.ListForURL(msg.URL) {
			if existing.Text == msg.Text {
				if _, err := b.store.Delete(ctx, existing.ID); err != nil {
					return fail(msg.RequestID, err)
				}
				return ok(msg.RequestID, map[string]any{"toggled": "off", "id": existing.ID})
			}
		}
		color := msg.Color
		if color == "" {
			color = b.store.GetSettings().DefaultColor
		}
		h, err := b.store.Create(ctx, &domain.Draft{
			URL:       msg.URL,
			PageTitle: msg.PageTitle,
			Text:      msg.Text,
			Color:     color,
		})
		if err != nil {
			return fail(msg.RequestID, err)
		}
		return ok(msg.RequestID, h)

	case OpGetHighlightsForURL:
		return ok(msg.RequestID, b.store.ListForURL(msg.URL))

	case OpDeleteHighlight:
		h, err := b.store.Delete(ctx, msg.HighlightID)
		if err != nil {
			return fail(msg.RequestID, err)
		}
		return ok(msg.RequestID, map[string]string{"id": h.ID})

	case OpUpdateHighlight:
		patch := msg.Updates
		if patch == nil {
			patch = &domain.Patch{}
		}
		h, err := b.store.Update(ctx, msg.HighlightID, patch)
		if err != nil {
			return fail(msg.RequestID, err)
		}
		return ok(msg.RequestID, h)

	case OpGetAllHighlights:
		filters := domain.SearchFilters{}
		if msg.Filters != nil {
			filters = *msg.Filters
		}
		return ok(msg.RequestID, b.store.Query(filters))

	case OpSearchHighlights:
		filters := domain.SearchFilters{}
		if msg.Filters != nil {
			filters = *msg.Filters
		}
		return ok(msg.RequestID, b.store.Search(msg.Query, filters))

	case OpGetSettings:
		return ok(msg.RequestID, map[string]*domain.Settings{"settings": b.store.GetSettings()})

	case OpUpdateSettings:
		if msg.Settings == nil {
			return fail(msg.RequestID, domain.NewError(domain.CodeValidation,
				"settings payload is required"))
		}
		settings, err := b.store.UpdateSettings(ctx, *msg.Settings)
		if err != nil {
			return fail(msg.RequestID, err)
		}
		return ok(msg.RequestID, map[string]*domain.Settings{"settings": settings})

	case OpGetStats:
		return ok(msg.RequestID, map[string]*domain.Stats{"stats": b.store.GetStats()})

	case OpExportData:
		format := msg.Format
		if format == "" {
			format = export.FormatJSON
		}
		out, err := export.Export(b.store.Snapshot(), b.store.GetSettings(), b.store.GetStats(), format)
		if err != nil {
			return fail(msg.RequestID, err)
		}
		return ok(msg.RequestID, out)

	case OpImportData:
		parsed, err := export.ParseImport(msg.Data)
		if err != nil {
			return fail(msg.RequestID, err)
		}
		imported, err := b.store.Replace(ctx, parsed.Highlights, msg.Merge, parsed.Settings)
		if err != nil {
			return fail(msg.RequestID, err)
		}
		return ok(msg.RequestID, map[string]int{
			"imported": imported,
			"total":    b.store.Count(),
		})

	case OpClearData:
		if err := b.store.Clear(ctx, msg.ConfirmToken); err != nil {
			return fail(msg.RequestID, err)
		}
		return ok(msg.RequestID, nil)

	default:
		b.logger.Warn("unhandled message type",
			logger.String("type", msg.Type))
		return fail(msg.RequestID, domain.NewError(domain.CodeTransport,
			"unhandled message type: %s", msg.Type))
	}
}

// HighlightCreated implements store.Notifier.
func (b *Broker) HighlightCreated(h *domain.Highlight) {
	b.broadcast(Notification{
		Type:      NoteHighlightCreated,
		Data:      h,
		Timestamp: time.Now().UnixMilli(),
	}, h.URL)
}

// HighlightUpdated implements store.Notifier.
func (b *Broker) HighlightUpdated(h *domain.Highlight) {
	b.broadcast(Notification{
		Type:      NoteHighlightUpdated,
		Data:      h,
		Timestamp: time.Now().UnixMilli(),
	}, h.URL)
}

// HighlightDeleted implements store.Notifier.
func (b *Broker) HighlightDeleted(h *domain.Highlight) {
	b.broadcast(Notification{
		Type:        NoteHighlightDeleted,
		Data:        h,
		HighlightID: h.ID,
		Timestamp:   time.Now().UnixMilli(),
	}, h.URL)
}

// broadcast delivers to every subscriber whose resource key matches.
// Delivery is best effort: a full channel drops the notification, and
// the record store stays authoritative for the next load.
func (b *Broker) broadcast(n Notification, url string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.url != "" && sub.url != url {
			continue
		}
		select {
		case sub.ch <- n:
		default:
			b.logger.Debug("dropped notification for slow subscriber",
				logger.String("type", n.Type),
				logger.String("url", sub.url))
		}
	}
}
