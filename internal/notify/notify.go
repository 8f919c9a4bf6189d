// Package notify delivers cart notifications to the places a user or an
// operator sees them.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"RocketShoes/internal/cart"
)

// Fanout delivers each notification to every sink in order.
type Fanout []cart.Notifier

func (f Fanout) Notify(ctx context.Context, n cart.Notification) {
	for _, s := range f {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}

// Log writes notifications as warn-level entries.
func Log(log *zap.Logger) cart.Notifier {
	return cart.NotifierFunc(func(_ context.Context, n cart.Notification) {
		log.Warn("cart notification",
			zap.String("kind", string(n.Kind)),
			zap.String("message", n.Message),
			zap.Int("product_id", n.ProductID),
			zap.Error(n.Cause),
		)
	})
}

type Counter interface {
	ObserveNotification(kind string)
}

func Count(c Counter) cart.Notifier {
	return cart.NotifierFunc(func(_ context.Context, n cart.Notification) {
		c.ObserveNotification(string(n.Kind))
	})
}

type ctxKey struct{}

// Collector gathers the notifications raised while serving one request.
type Collector struct {
	mu  sync.Mutex
	got []cart.Notification
}

func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, ctxKey{}, c), c
}

func (c *Collector) Notifications() []cart.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]cart.Notification, len(c.got))
	copy(out, c.got)
	return out
}

// Request appends notifications to the Collector carried by ctx, if any.
func Request() cart.Notifier {
	return cart.NotifierFunc(func(ctx context.Context, n cart.Notification) {
		c, ok := ctx.Value(ctxKey{}).(*Collector)
		if !ok {
			return
		}
		c.mu.Lock()
		c.got = append(c.got, n)
		c.mu.Unlock()
	})
}
