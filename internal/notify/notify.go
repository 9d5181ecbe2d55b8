package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"tablepos/backend/internal/domain"
)

const EventOrderUpdated = "order_updated"

// OrderEvent announces a committed change to a table's order.
type OrderEvent struct {
	Type    string      `json:"type"`
	TableID string      `json:"table_id"`
	Order   domain.Sale `json:"order"`
	At      time.Time   `json:"at"`
}

type Observer interface {
	Notify(ctx context.Context, event OrderEvent) error
}

// Hub fans events out to in-process subscribers of a table. Slow
// subscribers miss events instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan OrderEvent]struct{}
	buffer int
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]map[chan OrderEvent]struct{}),
		buffer: 16,
		logger: logger,
	}
}

// Subscribe registers a listener for tableID. The returned func must be
// called to release it.
func (h *Hub) Subscribe(tableID string) (<-chan OrderEvent, func()) {
	ch := make(chan OrderEvent, h.buffer)

	h.mu.Lock()
	if h.subs[tableID] == nil {
		h.subs[tableID] = make(map[chan OrderEvent]struct{})
	}
	h.subs[tableID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[tableID], ch)
			if len(h.subs[tableID]) == 0 {
				delete(h.subs, tableID)
			}
			close(ch)
		})
	}
}

func (h *Hub) Subscribers(tableID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tableID])
}

func (h *Hub) Notify(_ context.Context, event OrderEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[event.TableID] {
		select {
		case ch <- event:
		default:
			h.logger.Warn("dropping order event for slow subscriber", zap.String("table_id", event.TableID))
		}
	}
	return nil
}
