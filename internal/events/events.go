// Package events broadcasts committed cart snapshots to a message broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"RocketShoes/internal/cart"
)

const publishTimeout = 3 * time.Second

// CartUpdated carries one committed cart. Seq grows by one per commit
// forwarded from a store, so consumers can drop stale deliveries.
type CartUpdated struct {
	SessionID string       `json:"session_id"`
	Seq       uint64       `json:"seq"`
	Items     []cart.Entry `json:"items"`
	Total     float64      `json:"total"`
	Count     int          `json:"count"`
	At        time.Time    `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev CartUpdated) error
	Close() error
}

// Forward publishes every snapshot store commits. The returned func stops it.
func Forward(store *cart.Store, sessionID string, pub Publisher, log *zap.Logger) (cancel func()) {
	if log == nil {
		log = zap.NewNop()
	}
	// The store delivers snapshots one at a time, in commit order.
	var seq uint64
	return store.Subscribe(func(items []cart.Entry) {
		seq++
		ev := CartUpdated{
			SessionID: sessionID,
			Seq:       seq,
			Items:     items,
			Total:     cart.Total(items),
			Count:     len(items),
			At:        time.Now().UTC(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := pub.Publish(ctx, ev); err != nil {
			log.Error("publish cart update failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	})
}

func encode(ev CartUpdated) ([]byte, error) {
	return json.Marshal(ev)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, CartUpdated) error { return nil }
func (Nop) Close() error                               { return nil }
