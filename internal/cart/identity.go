package cart

import "strings"

// keySeparator is the ASCII unit separator. Validate rejects control
// characters in every field, so it can never occur inside one.
const keySeparator = "\x1f"

// IdentityKey distinguishes purchasable configurations. Price and quantity
// are not part of it.
type IdentityKey string

func KeyOf(it LineItem) IdentityKey {
	return IdentityKey(strings.Join([]string{
		it.ProductName,
		it.Color,
		it.TopLine,
		it.BottomLine,
		it.Dedication,
	}, keySeparator))
}

// ParseKey splits a key back into its fields.
func ParseKey(key IdentityKey) (productName, color, top, bottom, dedication string, ok bool) {
	parts := strings.Split(string(key), keySeparator)
	if len(parts) != 5 {
		return "", "", "", "", "", false
	}
	return parts[0], parts[1], parts[2], parts[3], parts[4], true
}

// MergeAdd returns a new item list with item merged in. A matching entry has
// its quantity increased; otherwise item is appended. items is not modified,
// and nothing is returned on a validation failure.
func MergeAdd(items []LineItem, item LineItem) ([]LineItem, error) {
	item = Normalize(item)
	if err := Validate(item); err != nil {
		return nil, err
	}

	key := item.Key()
	out := cloneItems(items)
	if i := indexOf(out, key); i >= 0 {
		sum := out[i].Quantity + item.Quantity
		if sum > MaxQuantity {
			return nil, invalid("quantity", "cannot exceed %d for one item, cart already holds %d", MaxQuantity, out[i].Quantity)
		}
		out[i].Quantity = sum
		return out, nil
	}

	return append(out, item), nil
}

func indexOf(items []LineItem, key IdentityKey) int {
	for i := range items {
		if items[i].Key() == key {
			return i
		}
	}
	return -1
}
