package cart

import "encoding/json"

// Merge reconciles a guest cart into a target cart and returns the result
// with all derived totals recomputed.
//
// Rules:
//   - items are matched by id; for a shared id the quantities add up and the
//     target's other fields (price, extras) win,
//   - guest-only items are inserted as-is after the target's items,
//   - items without an id are dropped, so malformed storage cannot corrupt
//     the result,
//   - unknown top-level fields of the target ride along unchanged; the
//     guest's are discarded with the rest of its blob,
//   - neither input's stored totals are trusted.
func Merge(guest, target Blob) Blob {
	index := make(map[string]int, len(target.Items))
	items := make([]Item, 0, len(target.Items)+len(guest.Items))

	for _, it := range target.Items {
		if it.ID == "" {
			continue
		}
		index[it.ID] = len(items)
		items = append(items, it.clone())
	}

	for _, it := range guest.Items {
		if it.ID == "" {
			continue
		}
		if i, ok := index[it.ID]; ok {
			items[i].Quantity += it.Quantity
			continue
		}
		index[it.ID] = len(items)
		items = append(items, it.clone())
	}

	out := Recompute(items)
	if len(target.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(target.Extra))
		for k, v := range target.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
