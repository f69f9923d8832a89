package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

// fakeRecords delegates to an in-memory store unless a hook is set.
type fakeRecords struct {
	*storage.MemoryStore
	putFn    func(name string, data []byte) error
	deleteFn func(name string) error
	getFn    func(name string) ([]byte, error)
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{MemoryStore: storage.NewMemoryStore()}
}

func (f *fakeRecords) Get(ctx context.Context, name string) ([]byte, error) {
	if f.getFn != nil {
		return f.getFn(name)
	}
	return f.MemoryStore.Get(ctx, name)
}

func (f *fakeRecords) Put(ctx context.Context, name string, data []byte) error {
	if f.putFn != nil {
		if err := f.putFn(name, data); err != nil {
			return err
		}
	}
	return f.MemoryStore.Put(ctx, name, data)
}

func (f *fakeRecords) Delete(ctx context.Context, name string) error {
	if f.deleteFn != nil {
		return f.deleteFn(name)
	}
	return f.MemoryStore.Delete(ctx, name)
}

func openStore(t *testing.T, records storage.RecordStore) *Store {
	t.Helper()
	s, err := Open(context.Background(), records)
	require.NoError(t, err)
	return s
}

func TestStore_AddPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	records := newFakeRecords()

	s := openStore(t, records)
	_, err := s.Add(ctx, stamp("Bob", 2))
	require.NoError(t, err)
	_, err = s.Add(ctx, stamp("Ann", 1))
	require.NoError(t, err)

	reopened := openStore(t, records)
	snap := reopened.Snapshot()
	require.Equal(t, 2, snap.Len())
	assert.Equal(t, "Bob", snap.Items[0].ProductName)
	assert.Equal(t, "Ann", snap.Items[1].ProductName)
}

func TestStore_CorruptRecordStartsEmpty(t *testing.T) {
	records := newFakeRecords()
	require.NoError(t, records.Put(context.Background(), DefaultRecordName, []byte("{broken")))

	s := openStore(t, records)
	assert.Zero(t, s.Snapshot().Len())
}

func TestStore_UnreadableRecordStartsEmpty(t *testing.T) {
	records := newFakeRecords()
	records.getFn = func(string) ([]byte, error) { return nil, errors.New("permission denied") }

	s := openStore(t, records)
	assert.Zero(t, s.Snapshot().Len())
}

func TestStore_MergeOnRepeatAdd(t *testing.T) {
	// Adding the same configuration twice yields one line with summed quantity.
	ctx := context.Background()
	s := openStore(t, newFakeRecords())

	_, err := s.Add(ctx, stamp("Bob", 2))
	require.NoError(t, err)
	snap, err := s.Add(ctx, stamp("Bob", 3))
	require.NoError(t, err)

	require.Equal(t, 1, snap.Len())
	assert.Equal(t, 5, snap.Items[0].Quantity)
}

func TestStore_AdjustQuantity(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newFakeRecords())
	snap, err := s.Add(ctx, stamp("Bob", 1))
	require.NoError(t, err)
	key := snap.Items[0].Key()

	snap, err = s.AdjustQuantity(ctx, key, +1)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Items[0].Quantity)

	snap, err = s.AdjustQuantity(ctx, key, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Items[0].Quantity)

	snap, err = s.AdjustQuantity(ctx, key, -1)
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, 1, snap.Len(), "decrement never removes the line")
	assert.Equal(t, 1, snap.Items[0].Quantity)

	_, err = s.AdjustQuantity(ctx, "missing", 1)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestStore_AdjustQuantityUpperBound(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newFakeRecords())
	snap, err := s.Add(ctx, stamp("Bob", MaxQuantity))
	require.NoError(t, err)

	snap, err = s.AdjustQuantity(ctx, snap.Items[0].Key(), 1)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, MaxQuantity, snap.Items[0].Quantity)
}

func TestStore_SetQuantity(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newFakeRecords())
	snap, err := s.Add(ctx, stamp("Bob", 3))
	require.NoError(t, err)
	key := snap.Items[0].Key()

	snap, err = s.SetQuantity(ctx, key, 0)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 3, snap.Items[0].Quantity)

	snap, err = s.SetQuantity(ctx, key, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, snap.Items[0].Quantity)
}

func TestStore_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	records := newFakeRecords()
	s := openStore(t, records)

	_, err := s.Add(ctx, stamp("Bob", 1))
	require.NoError(t, err)
	snap, err := s.Add(ctx, stamp("Ann", 1))
	require.NoError(t, err)

	before := snap.Version
	snap, err = s.Remove(ctx, "absent")
	require.NoError(t, err)
	assert.Equal(t, before, snap.Version, "removing an absent key changes nothing")

	snap, err = s.Remove(ctx, snap.Items[0].Key())
	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, "Ann", snap.Items[0].ProductName)

	snap, err = s.Clear(ctx)
	require.NoError(t, err)
	assert.Zero(t, snap.Len())

	_, err = records.Get(ctx, DefaultRecordName)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Clearing an already-empty cart is fine.
	_, err = s.Clear(ctx)
	require.NoError(t, err)
}

func TestStore_WriteFailureKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	records := newFakeRecords()
	s := openStore(t, records)
	before, err := s.Add(ctx, stamp("Bob", 1))
	require.NoError(t, err)

	var notified int
	s.Subscribe(ObserverFunc(func(Snapshot) { notified++ }))
	notified = 0

	records.putFn = func(string, []byte) error { return errors.New("quota exceeded") }

	after, err := s.Add(ctx, stamp("Ann", 1))
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "add", pe.Op)
	assert.Equal(t, before, after)
	assert.Equal(t, before, s.Snapshot())
	assert.Zero(t, notified, "failed writes are not published")
}

func TestStore_ClearFailureKeepsItems(t *testing.T) {
	ctx := context.Background()
	records := newFakeRecords()
	s := openStore(t, records)
	_, err := s.Add(ctx, stamp("Bob", 1))
	require.NoError(t, err)

	records.deleteFn = func(string) error { return errors.New("read-only filesystem") }

	snap, err := s.Clear(ctx)
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, snap.Len())
}

func TestStore_ObserversSeeEveryVersionInOrder(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newFakeRecords())

	var (
		mu       sync.Mutex
		versions []uint64
	)
	s.Subscribe(ObserverFunc(func(snap Snapshot) {
		mu.Lock()
		versions = append(versions, snap.Version)
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Add(ctx, stamp("Bob", 1))
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, versions, 21)
	for i := 1; i < len(versions); i++ {
		assert.Equal(t, versions[i-1]+1, versions[i])
	}
	assert.Equal(t, 20, s.Snapshot().Items[0].Quantity)
}

func TestStore_ObserverMayReadStore(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newFakeRecords())

	var seen int
	s.Subscribe(ObserverFunc(func(snap Snapshot) {
		seen = s.Snapshot().Len()
	}))

	_, err := s.Add(ctx, stamp("Bob", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestStore_ObserverReadsDuringConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newFakeRecords())

	var (
		mu       sync.Mutex
		versions []uint64
	)
	s.Subscribe(ObserverFunc(func(snap Snapshot) {
		current := s.Snapshot()
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, snap.Version)
		assert.GreaterOrEqual(t, current.Version, snap.Version)
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = s.Add(ctx, stamp("Bob", 1))
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent adds did not finish while an observer read the store")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, versions, 21)
	for i := 1; i < len(versions); i++ {
		assert.Equal(t, versions[i-1]+1, versions[i])
	}
	assert.Equal(t, 20, s.Snapshot().Items[0].Quantity)
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newFakeRecords())
	snap, err := s.Add(ctx, stamp("Bob", 1))
	require.NoError(t, err)

	snap.Items[0].Quantity = 500
	assert.Equal(t, 1, s.Snapshot().Items[0].Quantity)
}
