package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_RoundTrip(t *testing.T) {
	in := []LineItem{stamp("Bob", 2), stamp("Ann", 1)}
	in[1].Dedication = "For Ann"

	data, err := encodeRecord(in)
	require.NoError(t, err)

	out, skipped, err := decodeRecord(data)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, out, 2)
	for i := range in {
		assert.Equal(t, in[i].Key(), out[i].Key())
		assert.Equal(t, in[i].Quantity, out[i].Quantity)
		assert.True(t, in[i].UnitPrice.Equal(out[i].UnitPrice))
	}
}

func TestRecord_PriceIsJSONNumber(t *testing.T) {
	data, err := encodeRecord([]LineItem{stamp("Bob", 1)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":14.99`)
	assert.Contains(t, string(data), `"identifier":"Bob`)
}

func TestRecord_NotAnArray(t *testing.T) {
	for _, data := range []string{`{"items":[]}`, `not json`, ``} {
		_, _, err := decodeRecord([]byte(data))
		require.Error(t, err, data)
	}
}

func TestRecord_SkipsBadEntries(t *testing.T) {
	data := `[
		{"productName":"Bob","color":"Black","price":14.99,"quantity":2},
		{"productName":"","color":"Black","price":14.99,"quantity":1},
		{"productName":"Ann","color":"Black","price":"abc","quantity":1},
		{"productName":"Cat","color":"Black","price":14.99,"quantity":0},
		"garbage",
		{"productName":"Bob","color":"Black","price":14.99,"quantity":5}
	]`

	items, skipped, err := decodeRecord([]byte(data))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Bob", items[0].ProductName)
	assert.Equal(t, 2, items[0].Quantity, "first occurrence wins")
	assert.Len(t, skipped, 5)
}
