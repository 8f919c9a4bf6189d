package storefront

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"RocketShoes/internal/cart"
	"RocketShoes/internal/events"
	"RocketShoes/internal/session"
)

const (
	defaultIdleTTL = 30 * time.Minute
	defaultMaxOpen = 10000
	sweepEvery     = time.Minute
)

// Registry owns one cart.Store per session. Stores are opened from their slot
// on first use and dropped after IdleTTL without requests, or when MaxOpen is
// exceeded (least recently used first). A dropped cart is reopened from its
// slot on the next request.
type Registry struct {
	catalog   cart.Catalog
	inventory cart.Inventory
	slot      cart.Slot
	prefix    string
	notifier  cart.Notifier
	metrics   cart.Metrics
	publisher events.Publisher
	log       *zap.Logger
	idleTTL   time.Duration
	maxOpen   int
	now       func() time.Time

	opening singleflight.Group

	mu     sync.Mutex
	stores map[string]*openCart
}

type openCart struct {
	store    *cart.Store
	cancel   func()
	lastUsed time.Time
}

type RegistryConfig struct {
	Catalog   cart.Catalog
	Inventory cart.Inventory
	Slot      cart.Slot
	KeyPrefix string

	Notifier  cart.Notifier
	Metrics   cart.Metrics
	Publisher events.Publisher
	Log       *zap.Logger

	IdleTTL time.Duration
	MaxOpen int
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = cart.DefaultKey
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.MaxOpen <= 0 {
		cfg.MaxOpen = defaultMaxOpen
	}
	return &Registry{
		catalog:   cfg.Catalog,
		inventory: cfg.Inventory,
		slot:      cfg.Slot,
		prefix:    cfg.KeyPrefix,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		publisher: cfg.Publisher,
		log:       cfg.Log,
		idleTTL:   cfg.IdleTTL,
		maxOpen:   cfg.MaxOpen,
		now:       time.Now,
		stores:    map[string]*openCart{},
	}
}

// Store returns the session's cart, opening it on first use. Concurrent
// first requests for one session share a single open; other sessions are
// never held up by it.
func (r *Registry) Store(ctx context.Context, sessionID string) (*cart.Store, error) {
	if s, ok := r.lookup(sessionID); ok {
		return s, nil
	}

	v, err, _ := r.opening.Do(sessionID, func() (any, error) {
		if s, ok := r.lookup(sessionID); ok {
			return s, nil
		}
		return r.open(context.WithoutCancel(ctx), sessionID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*cart.Store), nil
}

func (r *Registry) lookup(sessionID string) (*cart.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	oc, ok := r.stores[sessionID]
	if !ok {
		return nil, false
	}
	oc.lastUsed = r.now()
	return oc.store, true
}

func (r *Registry) open(ctx context.Context, sessionID string) (*cart.Store, error) {
	s, err := cart.Open(ctx, cart.Config{
		Catalog:   r.catalog,
		Inventory: r.inventory,
		Slot:      r.slot,
		Key:       session.Key(r.prefix, sessionID),
		Notifier:  r.notifier,
		Metrics:   r.metrics,
		Log:       r.log,
	})
	if err != nil {
		return nil, err
	}

	oc := &openCart{store: s, cancel: func() {}}
	if r.publisher != nil {
		oc.cancel = events.Forward(s, sessionID, r.publisher, r.log)
	}

	r.mu.Lock()
	oc.lastUsed = r.now()
	r.stores[sessionID] = oc
	evicted := r.evictOverflowLocked()
	r.mu.Unlock()

	for _, cancel := range evicted {
		cancel()
	}
	return s, nil
}

// evictOverflowLocked drops the least recently used carts above maxOpen.
func (r *Registry) evictOverflowLocked() []func() {
	var cancels []func()
	for len(r.stores) > r.maxOpen {
		var (
			oldestID string
			oldest   *openCart
		)
		for id, oc := range r.stores {
			if oldest == nil || oc.lastUsed.Before(oldest.lastUsed) {
				oldestID, oldest = id, oc
			}
		}
		delete(r.stores, oldestID)
		cancels = append(cancels, oldest.cancel)
	}
	return cancels
}

// Sweep drops carts idle for longer than IdleTTL and reports how many went.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var cancels []func()
	for id, oc := range r.stores {
		if oc.lastUsed.Before(cutoff) {
			delete(r.stores, id)
			cancels = append(cancels, oc.cancel)
		}
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return len(cancels)
}

// Run sweeps idle carts until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	t := time.NewTicker(sweepEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug("evicted idle carts", zap.Int("count", n))
			}
		}
	}
}

// Len is the number of open carts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Close detaches every store from the publisher.
func (r *Registry) Close() {
	r.mu.Lock()
	stores := r.stores
	r.stores = map[string]*openCart{}
	r.mu.Unlock()

	for _, oc := range stores {
		oc.cancel()
	}
}
