// Package renderer materializes highlight marks in one page context.
//
// A Renderer owns no authoritative state: it loads records through the
// sync coordinator, resolves their locators against its own document,
// and reacts to fan-out notifications for its resource.
package renderer

import (
	"context"
	"encoding/json"
	"sync"

	"golang.org/x/net/html"

	"github.com/webmark/webmark/internal/anchor"
	"github.com/webmark/webmark/internal/broker"
	"github.com/webmark/webmark/internal/domain"
	"github.com/webmark/webmark/internal/logger"
)

// ReAnchorer is the store's internal re-anchoring entry point. Only
// drift detected during resolution goes through it; the UI never
// rewrites locators.
type ReAnchorer interface {
	ReAnchor(ctx context.Context, id string, pos domain.Position) (*domain.Highlight, error)
}

// Renderer renders highlights for one resource into one document.
type Renderer struct {
	url      string
	doc      *html.Node
	broker   *broker.Broker
	reanchor ReAnchorer
	logger   logger.Logger

	mu      sync.Mutex
	applied map[string]*domain.Highlight
	orphans map[string]*domain.Highlight

	subID  int64
	notifs <-chan broker.Notification
	done   chan struct{}
}

// New builds a renderer for the given page. The document is the
// context's own parsed tree; reanchor may be nil to disable locator
// repair (read-only surfaces).
func New(url string, doc *html.Node, b *broker.Broker, reanchor ReAnchorer, log logger.Logger) *Renderer {
	return &Renderer{
		url:      url,
		doc:      doc,
		broker:   b,
		reanchor: reanchor,
		logger:   log,
		applied:  make(map[string]*domain.Highlight),
		orphans:  make(map[string]*domain.Highlight),
	}
}

// Load fetches this page's records and applies every resolvable mark.
// Unresolvable records are counted as orphans and left intact in the
// store; they may resolve on a future load.
func (r *Renderer) Load(ctx context.Context) error {
	resp := r.broker.Dispatch(ctx, broker.Message{
		Type: broker.OpGetHighlightsForURL,
		URL:  r.url,
	})
	if !resp.Success {
		return domain.NewError(domain.CodeTransport,
			"failed to load highlights: %s", resp.Error)
	}

	records, ok := resp.Data.([]*domain.Highlight)
	if !ok {
		return domain.NewError(domain.CodeTransport,
			"unexpected highlight payload shape")
	}

	for _, h := range records {
		r.apply(ctx, h)
	}

	r.logger.Info("page highlights loaded",
		logger.String("url", r.url),
		logger.Int("applied", r.AppliedCount()),
		logger.Int("orphaned", r.OrphanCount()))
	return nil
}

// Start subscribes to fan-out notifications and processes them until
// ctx is cancelled or Stop is called.
func (r *Renderer) Start(ctx context.Context) {
	r.subID, r.notifs = r.broker.Subscribe(r.url)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		for {
			select {
			case n, ok := <-r.notifs:
				if !ok {
					return
				}
				r.Handle(ctx, n)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop tears the subscription down and waits for the loop to exit.
func (r *Renderer) Stop() {
	if r.subID != 0 {
		r.broker.Unsubscribe(r.subID)
		r.subID = 0
	}
	if r.done != nil {
		<-r.done
	}
}

// Handle reacts to one notification. Records for other resources are
// ignored; the store remains authoritative when anything is missed.
func (r *Renderer) Handle(ctx context.Context, n broker.Notification) {
	if n.Data == nil || n.Data.URL != r.url {
		return
	}

	switch n.Type {
	case broker.NoteHighlightCreated:
		r.apply(ctx, n.Data)
	case broker.NoteHighlightUpdated:
		r.mu.Lock()
		if _, ok := r.applied[n.Data.ID]; ok {
			r.applied[n.Data.ID] = n.Data
			restyleMark(r.doc, n.Data.ID, string(n.Data.Color))
		}
		r.mu.Unlock()
	case broker.NoteHighlightDeleted:
		r.Remove(n.Data.ID)
	}
}

// CreateFromSelection encodes the selected range, submits a create
// request, and applies the returned canonical record locally.
func (r *Renderer) CreateFromSelection(ctx context.Context, sel anchor.Range, color domain.Color, pageTitle string) (*domain.Highlight, error) {
	pos, err := anchor.Encode(sel)
	if err != nil {
		return nil, err
	}

	draft := domain.Draft{
		URL:       r.url,
		PageTitle: pageTitle,
		Text:      pos.TextContent,
		Color:     color,
		Position:  pos,
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, domain.NewError(domain.CodeValidation,
			"failed to encode draft: %v", err)
	}

	resp := r.broker.Dispatch(ctx, broker.Message{
		Type: broker.OpCreateHighlight,
		Data: payload,
	})
	if !resp.Success {
		return nil, domain.NewError(domain.CodeOrTransport(resp.ErrorCode),
			"%s", resp.Error)
	}

	h, ok := resp.Data.(*domain.Highlight)
	if !ok {
		return nil, domain.NewError(domain.CodeTransport,
			"unexpected create response shape")
	}
	// The creating context already holds the live range; marking it
	// directly avoids a redundant resolve.
	r.mu.Lock()
	applyMark(sel, h.ID, string(h.Color))
	r.applied[h.ID] = h
	r.mu.Unlock()
	return h, nil
}

// Delete submits a delete request; the local mark is removed when the
// deletion notification loops back (or immediately by the caller).
func (r *Renderer) Delete(ctx context.Context, id string) error {
	resp := r.broker.Dispatch(ctx, broker.Message{
		Type:        broker.OpDeleteHighlight,
		HighlightID: id,
	})
	if !resp.Success {
		return domain.NewError(domain.CodeOrTransport(resp.ErrorCode), "%s", resp.Error)
	}
	return nil
}

// Remove clears the local mark for a record without touching the store.
func (r *Renderer) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removeMark(r.doc, id)
	delete(r.applied, id)
	delete(r.orphans, id)
}

// AppliedCount reports rendered marks.
func (r *Renderer) AppliedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.applied)
}

// OrphanCount reports records whose locator did not resolve this load.
func (r *Renderer) OrphanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orphans)
}

func (r *Renderer) apply(ctx context.Context, h *domain.Highlight) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.applied[h.ID]; ok {
		return
	}

	rng, drifted, err := anchor.Resolve(h.Position, r.doc)
	if err != nil {
		// Orphaned: present in the store, not renderable here.
		r.orphans[h.ID] = h
		r.logger.Debug("highlight anchor lost",
			logger.String("id", h.ID),
			logger.String("url", r.url))
		return
	}

	applyMark(rng, h.ID, string(h.Color))
	r.applied[h.ID] = h
	delete(r.orphans, h.ID)

	if drifted && r.reanchor != nil {
		if pos, encErr := anchor.Encode(rng); encErr == nil {
			if _, raErr := r.reanchor.ReAnchor(ctx, h.ID, pos); raErr != nil {
				r.logger.Warn("failed to re-anchor drifted highlight",
					logger.String("id", h.ID),
					logger.Error(raErr))
			}
		}
	}
}
