package pricing

import (
	"missedcall/internal/catalog"
)

// Quote is the resolved price of a requested (service, option, add-ons, quantity).
// Amounts are minor units (cents).
type Quote struct {
	UnitPriceMinor  int64 `json:"unit_price_minor"`
	Quantity        int   `json:"quantity"`
	LineTotalMinor  int64 `json:"line_total_minor"`
	AddOnTotalMinor int64 `json:"add_on_total_minor"`
	TotalMinor      int64 `json:"total_minor"`

	// AddOnIDs are the sub-options that were actually priced, ascending.
	AddOnIDs []int64 `json:"add_on_ids,omitempty"`
}

// Input is what the resolver prices.
type Input struct {
	Service catalog.Service
	// Option is nil when the customer picked no option.
	Option   *catalog.ServiceOption
	Quantity int
	// SubOptionIDs may contain ids that do not belong to Option; those are ignored here.
	SubOptionIDs []int64
}

// Resolve computes the total for in.
//
// Contract:
//   - unit price = option price if set, else service price, else 0
//   - line total = unit price * quantity
//   - add-on total = sum of the chosen option's sub-options named in SubOptionIDs;
//     unknown ids are ignored and duplicates count once
//   - pure: no lookups, identical output for identical input in any order
func Resolve(in Input) Quote {
	q := Quote{Quantity: in.Quantity}

	switch {
	case in.Option != nil && in.Option.PriceMinor != nil:
		q.UnitPriceMinor = *in.Option.PriceMinor
	case in.Service.PriceMinor != nil:
		q.UnitPriceMinor = *in.Service.PriceMinor
	}
	q.LineTotalMinor = q.UnitPriceMinor * int64(in.Quantity)

	if in.Option != nil {
		for _, id := range dedupeSorted(in.SubOptionIDs) {
			so, ok := in.Option.SubOption(id)
			if !ok {
				continue
			}
			if so.PriceMinor != nil {
				q.AddOnTotalMinor += *so.PriceMinor
			}
			q.AddOnIDs = append(q.AddOnIDs, id)
		}
	}

	q.TotalMinor = q.LineTotalMinor + q.AddOnTotalMinor
	return q
}

func dedupeSorted(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	// insertion sort; add-on lists are tiny
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
