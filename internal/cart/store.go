package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultKey is the slot the cart lives under when Config.Key is empty.
const DefaultKey = "@RocketShoes:cart"

const (
	opAdd    = "add"
	opRemove = "remove"
	opUpdate = "update"
)

type Catalog interface {
	GetProduct(ctx context.Context, id int) (Product, error)
}

type Inventory interface {
	GetStock(ctx context.Context, id int) (Stock, error)
}

// Slot is a durable string key/value location. Get reports ok=false when the
// key has never been written.
type Slot interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

type Metrics interface {
	ObserveOp(op, result string)
}

type Config struct {
	Catalog   Catalog
	Inventory Inventory
	Slot      Slot
	Key       string

	Notifier Notifier
	Metrics  Metrics
	Log      *zap.Logger
}

// errNoop marks an update that is ignored without a notification.
var errNoop = errors.New("noop")

// Store holds one cart. Lookups run without any lock, so two concurrent
// operations may start from the same snapshot; the later commit wins.
// Commits write the slot and swap the in-memory snapshot under mu, which
// keeps the two equal.
type Store struct {
	catalog   Catalog
	inventory Inventory
	slot      Slot
	key       string
	notifier  Notifier
	metrics   Metrics
	log       *zap.Logger

	mu      sync.Mutex
	entries []Entry

	// seq numbers commits under mu; publish hands snapshots to subscribers
	// strictly in seq order.
	seq       uint64
	pubMu     sync.Mutex
	pubCond   *sync.Cond
	published uint64

	subMu   sync.Mutex
	subs    map[int]func([]Entry)
	nextSub int
}

// Open reads the cart from its slot. A missing or unreadable value yields an
// empty cart; only a failing slot backend is an error.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Catalog == nil || cfg.Inventory == nil || cfg.Slot == nil {
		return nil, errors.New("cart: catalog, inventory and slot are required")
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	s := &Store{
		catalog:   cfg.Catalog,
		inventory: cfg.Inventory,
		slot:      cfg.Slot,
		key:       cfg.Key,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		log:       cfg.Log.With(zap.String("cart_key", cfg.Key)),
		entries:   []Entry{},
		subs:      map[int]func([]Entry){},
	}
	s.pubCond = sync.NewCond(&s.pubMu)

	raw, ok, err := cfg.Slot.Get(ctx, cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("read cart slot %q: %w", cfg.Key, err)
	}
	if ok && raw != "" {
		entries, err := Decode(raw)
		if err != nil {
			s.log.Warn("discarding unreadable cart", zap.Error(err))
		} else {
			s.entries = entries
		}
	}

	return s, nil
}

// Cart returns a copy of the current snapshot in insertion order.
func (s *Store) Cart() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.entries)
}

// Count is the number of distinct products in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) Total() float64 {
	return Total(s.Cart())
}

// Subscribe registers fn to receive every committed snapshot, in commit
// order. fn may read the store but must not mutate it. The returned func
// removes it.
func (s *Store) Subscribe(fn func([]Entry)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) AddProduct(ctx context.Context, productID int) {
	err := s.addProduct(ctx, productID)
	s.finish(ctx, opAdd, productID, err)
}

func (s *Store) RemoveProduct(ctx context.Context, productID int) {
	err := s.removeProduct(ctx, productID)
	s.finish(ctx, opRemove, productID, err)
}

func (s *Store) UpdateProductAmount(ctx context.Context, req UpdateAmount) {
	err := s.updateProductAmount(ctx, req)
	s.finish(ctx, opUpdate, req.ProductID, err)
}

func (s *Store) addProduct(ctx context.Context, productID int) error {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: get product %d: %w", ErrUpstream, productID, err)
	}

	next := s.Cart()
	i := indexOf(next, productID)
	if i == -1 {
		return s.commit(ctx, append(next, newEntry(product)))
	}

	stock, err := s.inventory.GetStock(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: get stock %d: %w", ErrUpstream, productID, err)
	}
	if stock.Amount-next[i].Amount <= 0 {
		return fmt.Errorf("%w: product %d has %d in stock, %d in cart", ErrOutOfStock, productID, stock.Amount, next[i].Amount)
	}

	next[i].Amount++
	return s.commit(ctx, next)
}

func (s *Store) removeProduct(ctx context.Context, productID int) error {
	current := s.Cart()
	i := indexOf(current, productID)
	if i == -1 {
		return fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}

	next := make([]Entry, 0, len(current)-1)
	next = append(next, current[:i]...)
	next = append(next, current[i+1:]...)
	return s.commit(ctx, next)
}

func (s *Store) updateProductAmount(ctx context.Context, req UpdateAmount) error {
	stock, err := s.inventory.GetStock(ctx, req.ProductID)
	if err != nil {
		return fmt.Errorf("%w: get stock %d: %w", ErrUpstream, req.ProductID, err)
	}
	if req.Amount > stock.Amount {
		return fmt.Errorf("%w: product %d has %d in stock, %d requested", ErrOutOfStock, req.ProductID, stock.Amount, req.Amount)
	}
	if req.Amount < 1 {
		return errNoop
	}

	next := s.Cart()
	i := indexOf(next, req.ProductID)
	if i == -1 {
		return fmt.Errorf("%w: product %d", ErrNotFound, req.ProductID)
	}

	next[i].Amount = req.Amount
	return s.commit(ctx, next)
}

func (s *Store) commit(ctx context.Context, next []Entry) error {
	raw, err := Encode(next)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.mu.Lock()
	if err := s.slot.Set(ctx, s.key, raw); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.entries = next
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.publish(seq, next)
	return nil
}

func (s *Store) publish(seq uint64, snapshot []Entry) {
	s.pubMu.Lock()
	for s.published != seq-1 {
		s.pubCond.Wait()
	}
	s.pubMu.Unlock()

	defer func() {
		s.pubMu.Lock()
		s.published = seq
		s.pubCond.Broadcast()
		s.pubMu.Unlock()
	}()

	s.subMu.Lock()
	fns := make([]func([]Entry), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(clone(snapshot))
	}
}

func (s *Store) finish(ctx context.Context, op string, productID int, err error) {
	if errors.Is(err, errNoop) {
		s.observe(op, "noop")
		return
	}
	s.observe(op, outcome(err))
	if err == nil {
		return
	}

	n := notificationFor(op, productID, err)
	s.log.Info("cart operation dropped",
		zap.String("op", op),
		zap.Int("product_id", productID),
		zap.String("notification", string(n.Kind)),
		zap.Error(err),
	)

	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}

func (s *Store) observe(op, result string) {
	if s.metrics != nil {
		s.metrics.ObserveOp(op, result)
	}
}

// notificationFor maps a failed operation to the message the user sees.
// An update for a product missing from the cart reports the out-of-stock
// message; its Cause still says ErrNotFound.
func notificationFor(op string, productID int, err error) Notification {
	switch op {
	case opAdd:
		if errors.Is(err, ErrOutOfStock) {
			return outOfStock(productID, err)
		}
		return addFailed(productID, err)
	case opRemove:
		return removeFailed(productID, err)
	default:
		if errors.Is(err, ErrOutOfStock) || errors.Is(err, ErrNotFound) {
			return outOfStock(productID, err)
		}
		return updateFailed(productID, err)
	}
}
