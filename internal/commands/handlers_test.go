package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

type fakeStore struct {
	addFn    func(cart.LineItem) (cart.Snapshot, error)
	setFn    func(cart.IdentityKey, int) (cart.Snapshot, error)
	adjustFn func(cart.IdentityKey, int) (cart.Snapshot, error)
	calls    int
}

func (f *fakeStore) Add(_ context.Context, it cart.LineItem) (cart.Snapshot, error) {
	f.calls++
	return f.addFn(it)
}

func (f *fakeStore) AdjustQuantity(_ context.Context, k cart.IdentityKey, d int) (cart.Snapshot, error) {
	f.calls++
	return f.adjustFn(k, d)
}

func (f *fakeStore) SetQuantity(_ context.Context, k cart.IdentityKey, v int) (cart.Snapshot, error) {
	f.calls++
	return f.setFn(k, v)
}

func (f *fakeStore) Remove(context.Context, cart.IdentityKey) (cart.Snapshot, error) {
	f.calls++
	return cart.Snapshot{}, nil
}

func (f *fakeStore) Clear(context.Context) (cart.Snapshot, error) {
	f.calls++
	return cart.Snapshot{}, nil
}

var price = decimal.RequireFromString("14.99")

func TestParseQuantity(t *testing.T) {
	for _, in := range []string{"1", " 42 ", "999"} {
		_, err := ParseQuantity(in)
		assert.NoError(t, err, in)
	}
	for _, in := range []string{"", "0", "-3", "1000", "2.5", "abc"} {
		_, err := ParseQuantity(in)
		assert.ErrorIs(t, err, ErrInvalidQuantityInput, in)
	}
}

func TestOnAdd_UsesConfiguredPriceAndDefaultQuantity(t *testing.T) {
	var got cart.LineItem
	fs := &fakeStore{addFn: func(it cart.LineItem) (cart.Snapshot, error) {
		got = it
		return cart.Snapshot{}, nil
	}}
	h := New(fs, price, nil)

	_, err := h.OnAdd(context.Background(), AddForm{ProductName: "Square Stamp"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
	assert.True(t, got.UnitPrice.Equal(price))
}

func TestOnAdd_BadQuantityNeverReachesStore(t *testing.T) {
	fs := &fakeStore{}
	h := New(fs, price, nil)

	_, err := h.OnAdd(context.Background(), AddForm{ProductName: "Bob", Quantity: "lots"})
	require.ErrorIs(t, err, ErrInvalidQuantityInput)
	assert.Zero(t, fs.calls)
}

func TestOnSetQuantity_BadInputNeverReachesStore(t *testing.T) {
	fs := &fakeStore{}
	h := New(fs, price, nil)

	_, err := h.OnSetQuantity(context.Background(), "k", "0")
	require.ErrorIs(t, err, ErrInvalidQuantityInput)
	assert.Equal(t, InvalidQuantityMessage, UserMessage(err))
	assert.Zero(t, fs.calls)
}

func TestOnSetQuantity_Parsed(t *testing.T) {
	var gotKey cart.IdentityKey
	var gotQty int
	fs := &fakeStore{setFn: func(k cart.IdentityKey, v int) (cart.Snapshot, error) {
		gotKey, gotQty = k, v
		return cart.Snapshot{}, nil
	}}
	h := New(fs, price, nil)

	_, err := h.OnSetQuantity(context.Background(), "k", " 12")
	require.NoError(t, err)
	assert.Equal(t, cart.IdentityKey("k"), gotKey)
	assert.Equal(t, 12, gotQty)
}

func TestHandlers_AgainstRealStore(t *testing.T) {
	ctx := context.Background()
	store, err := cart.Open(ctx, storage.NewMemoryStore())
	require.NoError(t, err)
	h := New(store, price, nil)

	snap, err := h.OnAdd(ctx, AddForm{ProductName: "Square Stamp", Quantity: "1"})
	require.NoError(t, err)
	key := snap.Items[0].Key()

	// Decrementing a single item is rejected, not a removal.
	snap, err = h.OnAdjust(ctx, key, -1)
	require.ErrorIs(t, err, cart.ErrValidation)
	assert.Equal(t, InvalidQuantityMessage, UserMessage(err))
	assert.Equal(t, 1, snap.Items[0].Quantity)

	snap, err = h.OnRemove(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, snap.Len())
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "productName: is required", UserMessage(&cart.ValidationError{Field: "productName", Reason: "is required"}))
	assert.Equal(t, "That item is no longer in your cart.", UserMessage(cart.ErrItemNotFound))
	assert.Equal(t, "Your cart could not be saved. Please try again.",
		UserMessage(&cart.PersistenceError{Op: "add", Err: errors.New("disk full")}))
}
