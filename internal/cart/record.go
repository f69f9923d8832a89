package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultRecordName is the storage record the cart is mirrored to.
const DefaultRecordName = "ravioliCart"

// recordItem is the persisted shape of a LineItem. Price is written as a
// JSON number so records stay readable by non-Go clients.
type recordItem struct {
	Identifier  string      `json:"identifier"`
	ProductName string      `json:"productName"`
	Color       string      `json:"color"`
	TopLine     string      `json:"topLine"`
	BottomLine  string      `json:"bottomLine"`
	Dedication  string      `json:"dedication"`
	Price       json.Number `json:"price"`
	Quantity    int         `json:"quantity"`
}

func encodeRecord(items []LineItem) ([]byte, error) {
	out := make([]recordItem, 0, len(items))
	for _, it := range items {
		out = append(out, recordItem{
			Identifier:  string(it.Key()),
			ProductName: it.ProductName,
			Color:       it.Color,
			TopLine:     it.TopLine,
			BottomLine:  it.BottomLine,
			Dedication:  it.Dedication,
			Price:       json.Number(it.UnitPrice.String()),
			Quantity:    it.Quantity,
		})
	}
	return json.Marshal(out)
}

// decodeRecord parses a stored record. A record that is not a JSON array
// is an error; entries that fail to parse or validate are skipped and
// reported, and later duplicates of an identity are dropped.
func decodeRecord(data []byte) ([]LineItem, []error, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode cart record: %w", err)
	}

	var (
		items   = make([]LineItem, 0, len(raw))
		skipped []error
		seen    = make(map[IdentityKey]struct{}, len(raw))
	)
	for i, msg := range raw {
		var ri recordItem
		if err := json.Unmarshal(msg, &ri); err != nil {
			skipped = append(skipped, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		price, err := decimal.NewFromString(ri.Price.String())
		if err != nil {
			skipped = append(skipped, fmt.Errorf("entry %d: price: %w", i, err))
			continue
		}

		it := Normalize(LineItem{
			ProductName: ri.ProductName,
			Color:       ri.Color,
			TopLine:     ri.TopLine,
			BottomLine:  ri.BottomLine,
			Dedication:  ri.Dedication,
			UnitPrice:   price,
			Quantity:    ri.Quantity,
		})
		if err := Validate(it); err != nil {
			skipped = append(skipped, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		key := it.Key()
		if _, dup := seen[key]; dup {
			skipped = append(skipped, fmt.Errorf("entry %d: duplicate item", i))
			continue
		}
		seen[key] = struct{}{}
		items = append(items, it)
	}

	return items, skipped, nil
}
