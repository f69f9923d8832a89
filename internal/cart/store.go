package cart

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

// Observer is notified synchronously after every committed mutation, before
// the mutating call returns. Observers may read the store but must not
// mutate it.
type Observer interface {
	CartChanged(Snapshot)
}

type ObserverFunc func(Snapshot)

func (f ObserverFunc) CartChanged(s Snapshot) { f(s) }

// Store owns the authoritative cart. Every mutation is written to the
// record store before it becomes visible; a failed write leaves the cart
// exactly as it was.
type Store struct {
	records    storage.RecordStore
	recordName string
	logger     *zap.Logger

	mu        sync.Mutex
	items     []LineItem
	version   uint64
	observers []Observer

	// issued is guarded by mu.
	issued uint64

	// Notifications are delivered in ticket order. mu is never held while
	// waiting for a turn, so observers may read the store.
	notifyMu  sync.Mutex
	turn      *sync.Cond
	delivered uint64
}

type Option func(*Store)

func WithRecordName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.recordName = name
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// Open creates a store and restores its contents from records.
func Open(ctx context.Context, records storage.RecordStore, opts ...Option) (*Store, error) {
	if records == nil {
		return nil, errors.New("cart: record store is required")
	}
	s := &Store{
		records:    records,
		recordName: DefaultRecordName,
		logger:     zap.NewNop(),
	}
	s.turn = sync.NewCond(&s.notifyMu)
	for _, opt := range opts {
		opt(s)
	}
	s.Load(ctx)
	return s, nil
}

// Subscribe registers an observer and immediately hands it the current
// snapshot so a new surface starts consistent.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	snap := s.snapshotLocked()
	ticket := s.issueLocked()
	s.mu.Unlock()

	s.deliver(ticket, snap, []Observer{o})
}

// Load replaces the in-memory cart with the stored record. Missing,
// unreadable or malformed records yield an empty cart.
func (s *Store) Load(ctx context.Context) Snapshot {
	items := s.restore(ctx)

	s.mu.Lock()
	s.items = items
	s.version++
	return s.publishAndUnlock()
}

func (s *Store) restore(ctx context.Context) []LineItem {
	log := s.logger.With(zap.String("record", s.recordName))

	data, err := s.records.Get(ctx, s.recordName)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("cart record unreadable, starting empty", zap.Error(&PersistenceError{Op: "read", Err: err}))
		}
		return nil
	}

	items, skipped, err := decodeRecord(data)
	if err != nil {
		log.Warn("cart record corrupt, starting empty", zap.Error(err))
		return nil
	}
	for _, e := range skipped {
		log.Warn("dropped stored cart entry", zap.Error(e))
	}
	return items
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Add validates item and merges it into the cart.
func (s *Store) Add(ctx context.Context, item LineItem) (Snapshot, error) {
	s.mu.Lock()
	next, err := MergeAdd(s.items, item)
	if err != nil {
		return s.rejectLocked(err)
	}
	return s.commitLocked(ctx, "add", next)
}

// AdjustQuantity changes the quantity of key by delta. Results outside
// [MinQuantity, MaxQuantity] are rejected; removal is only ever explicit.
func (s *Store) AdjustQuantity(ctx context.Context, key IdentityKey, delta int) (Snapshot, error) {
	s.mu.Lock()
	i := indexOf(s.items, key)
	if i < 0 {
		return s.rejectLocked(ErrItemNotFound)
	}
	q := s.items[i].Quantity + delta
	if q < MinQuantity || q > MaxQuantity {
		return s.rejectLocked(QuantityRangeError(q))
	}
	next := cloneItems(s.items)
	next[i].Quantity = q
	return s.commitLocked(ctx, "adjust", next)
}

// SetQuantity sets the quantity of key directly. Out-of-range values are
// rejected and the previous quantity stays visible.
func (s *Store) SetQuantity(ctx context.Context, key IdentityKey, value int) (Snapshot, error) {
	s.mu.Lock()
	i := indexOf(s.items, key)
	if i < 0 {
		return s.rejectLocked(ErrItemNotFound)
	}
	if value < MinQuantity || value > MaxQuantity {
		return s.rejectLocked(QuantityRangeError(value))
	}
	next := cloneItems(s.items)
	next[i].Quantity = value
	return s.commitLocked(ctx, "set", next)
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Store) Remove(ctx context.Context, key IdentityKey) (Snapshot, error) {
	s.mu.Lock()
	i := indexOf(s.items, key)
	if i < 0 {
		return s.rejectLocked(nil)
	}
	next := make([]LineItem, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)
	return s.commitLocked(ctx, "remove", next)
}

// Clear empties the cart and deletes its record. It is meant for confirmed
// payment capture or an explicit user request.
func (s *Store) Clear(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if err := s.records.Delete(ctx, s.recordName); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return s.rejectLocked(&PersistenceError{Op: "clear", Err: err})
	}
	s.items = nil
	s.version++
	s.logger.Debug("cart cleared", zap.Uint64("version", s.version))
	return s.publishAndUnlock(), nil
}

// commitLocked persists next, then makes it current and notifies observers.
// s.mu must be held; it is released before returning.
func (s *Store) commitLocked(ctx context.Context, op string, next []LineItem) (Snapshot, error) {
	data, err := encodeRecord(next)
	if err == nil {
		err = s.records.Put(ctx, s.recordName, data)
	}
	if err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.logger.Error("cart write failed", zap.String("op", op), zap.Error(err))
		return snap, &PersistenceError{Op: op, Err: err}
	}

	s.items = next
	s.version++
	s.logger.Debug("cart updated",
		zap.String("op", op),
		zap.Uint64("version", s.version),
		zap.Int("lines", len(next)),
	)
	return s.publishAndUnlock(), nil
}

// publishAndUnlock releases s.mu and delivers the new snapshot to observers
// before any later mutation can deliver its own.
func (s *Store) publishAndUnlock() Snapshot {
	snap := s.snapshotLocked()
	observers := append([]Observer(nil), s.observers...)
	ticket := s.issueLocked()
	s.mu.Unlock()

	s.deliver(ticket, snap, observers)
	return snap
}

// issueLocked reserves the next delivery slot. s.mu must be held.
func (s *Store) issueLocked() uint64 {
	s.issued++
	return s.issued
}

// deliver waits until every earlier ticket has been delivered, then runs
// the observers with no store lock held.
func (s *Store) deliver(ticket uint64, snap Snapshot, observers []Observer) {
	s.notifyMu.Lock()
	for s.delivered != ticket-1 {
		s.turn.Wait()
	}
	s.notifyMu.Unlock()

	defer func() {
		s.notifyMu.Lock()
		s.delivered = ticket
		s.turn.Broadcast()
		s.notifyMu.Unlock()
	}()
	for _, o := range observers {
		o.CartChanged(snap)
	}
}

// rejectLocked releases s.mu and reports err with the unchanged cart.
func (s *Store) rejectLocked(err error) (Snapshot, error) {
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap, err
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Version: s.version, Items: cloneItems(s.items)}
}
