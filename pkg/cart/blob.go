package cart

import (
	"bytes"
	"encoding/json"
)

// Item is a single cart line. Beyond the fields the cart computes with,
// product records carry arbitrary presentation fields (title, image, ...);
// those survive storage and merging untouched in Extra.
type Item struct {
	ID       string
	Quantity int
	Price    float64
	Extra    map[string]json.RawMessage
}

// Blob is the persisted representation of a cart: line items plus derived
// totals. The derived fields are recomputed from Items on every mutation and
// merge; stored values are never trusted. Top-level fields written by other
// clients ride along in Extra the same way unknown item fields do.
type Blob struct {
	Items            []Item                     `json:"items"`
	TotalItems       int                        `json:"totalItems"`
	TotalUniqueItems int                        `json:"totalUniqueItems"`
	CartTotal        float64                    `json:"cartTotal"`
	IsEmpty          bool                       `json:"isEmpty"`
	Extra            map[string]json.RawMessage `json:"-"`
}

// Recompute builds a Blob from an item list, deriving all totals. This is the
// single source of truth for the blob invariants:
//
//	TotalItems       == sum of quantities
//	CartTotal        == sum of price*quantity
//	TotalUniqueItems == len(items)
//	IsEmpty          == len(items) == 0
func Recompute(items []Item) Blob {
	blob := Blob{
		Items:            items,
		TotalUniqueItems: len(items),
		IsEmpty:          len(items) == 0,
	}
	if blob.Items == nil {
		blob.Items = []Item{}
	}
	for _, it := range items {
		blob.TotalItems += it.Quantity
		blob.CartTotal += it.Price * float64(it.Quantity)
	}
	return blob
}

// Clone returns a deep copy of the blob so callers can hand out snapshots
// without exposing internal state.
func (b Blob) Clone() Blob {
	out := b
	out.Items = make([]Item, len(b.Items))
	for i, it := range b.Items {
		out.Items[i] = it.clone()
	}
	if b.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(b.Extra))
		for k, v := range b.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

var knownBlobFields = map[string]struct{}{
	"items": {}, "totalItems": {}, "totalUniqueItems": {}, "cartTotal": {}, "isEmpty": {},
}

// UnmarshalJSON accepts blobs as they appear in storage. The derived fields
// decode leniently since they are recomputed rather than trusted, a
// malformed line is skipped instead of discarding the whole cart, and
// unrecognized top-level fields are preserved in Extra.
func (b *Blob) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*b = Blob{}

	var rawItems []json.RawMessage
	if raw, ok := fields["items"]; ok {
		_ = json.Unmarshal(raw, &rawItems)
	}
	for _, raw := range rawItems {
		var it Item
		if err := json.Unmarshal(raw, &it); err != nil {
			continue
		}
		b.Items = append(b.Items, it)
	}

	b.TotalItems = int(rawToNumber(fields["totalItems"]))
	b.TotalUniqueItems = int(rawToNumber(fields["totalUniqueItems"]))
	b.CartTotal = rawToNumber(fields["cartTotal"])
	if raw, ok := fields["isEmpty"]; ok {
		_ = json.Unmarshal(raw, &b.IsEmpty)
	}

	for key, value := range fields {
		if _, ok := knownBlobFields[key]; ok {
			continue
		}
		if b.Extra == nil {
			b.Extra = make(map[string]json.RawMessage)
		}
		b.Extra[key] = value
	}
	return nil
}

// MarshalJSON writes the known fields alongside any preserved top-level
// extras.
func (b Blob) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(b.Extra)+5)
	for key, value := range b.Extra {
		fields[key] = value
	}

	items := b.Items
	if items == nil {
		items = []Item{}
	}
	for key, value := range map[string]any{
		"items":            items,
		"totalItems":       b.TotalItems,
		"totalUniqueItems": b.TotalUniqueItems,
		"cartTotal":        b.CartTotal,
		"isEmpty":          b.IsEmpty,
	} {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = raw
	}

	return json.Marshal(fields)
}

func (it Item) clone() Item {
	out := it
	if it.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(it.Extra))
		for k, v := range it.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// itemJSON mirrors the known wire fields. Quantity and price are kept raw
// so non-numeric junk in storage degrades to zero instead of failing the
// whole blob.
type itemJSON struct {
	ID       json.RawMessage `json:"id,omitempty"`
	Quantity json.RawMessage `json:"quantity,omitempty"`
	Price    json.RawMessage `json:"price,omitempty"`
}

var knownItemFields = map[string]struct{}{"id": {}, "quantity": {}, "price": {}}

// UnmarshalJSON accepts items as they appear in storage: ids as strings or
// numbers, prices possibly malformed, and any number of extra fields.
func (it *Item) UnmarshalJSON(data []byte) error {
	var known itemJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	it.ID = rawToString(known.ID)
	it.Quantity = int(rawToNumber(known.Quantity))
	it.Price = rawToNumber(known.Price)
	it.Extra = nil
	for key, value := range fields {
		if _, ok := knownItemFields[key]; ok {
			continue
		}
		if it.Extra == nil {
			it.Extra = make(map[string]json.RawMessage)
		}
		it.Extra[key] = value
	}
	return nil
}

// MarshalJSON writes the known fields alongside any preserved extras.
func (it Item) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(it.Extra)+3)
	for key, value := range it.Extra {
		fields[key] = value
	}

	id, err := json.Marshal(it.ID)
	if err != nil {
		return nil, err
	}
	quantity, err := json.Marshal(it.Quantity)
	if err != nil {
		return nil, err
	}
	price, err := json.Marshal(it.Price)
	if err != nil {
		return nil, err
	}
	fields["id"] = id
	fields["quantity"] = quantity
	fields["price"] = price

	return json.Marshal(fields)
}

// rawToString normalizes a JSON id to its string form: strings unquoted,
// numbers kept in literal decimal form, anything else empty.
func rawToString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

// rawToNumber parses a JSON price, treating missing or non-numeric values
// as zero. Numeric strings are accepted since storage written by older
// clients quotes prices.
func rawToNumber(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		var f float64
		if err := json.Unmarshal([]byte(s), &f); err != nil {
			return 0
		}
		return f
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return f
}
