package history

import "fmt"

// Record is the portable form of one internal record. A record with Values
// is variable; otherwise it holds Value for every frame in [Start, Finish).
type Record[T any] struct {
	Start  Frame `json:"start"`
	Finish Frame `json:"finish,omitempty"`
	Value  T     `json:"value"`
	Values []T   `json:"values,omitempty"`
}

// Export returns the records of h in frame order.
func (h *History[T]) Export() []Record[T] {
	out := make([]Record[T], 0, len(h.records))
	for _, r := range h.records {
		if r.variable {
			out = append(out, Record[T]{Start: r.start, Values: append([]T(nil), r.values...)})
			continue
		}
		out = append(out, Record[T]{Start: r.start, Finish: r.finish, Value: r.value})
	}
	return out
}

// Restore rebuilds a history from exported records.
//
// Precondition: recs are in ascending, non-overlapping frame order.
// Postcondition: Get on the result matches Get on the exporting history.
func Restore[T comparable](l Limits, recs []Record[T]) (*History[T], error) {
	h := New[T](l)
	end := Frame(0)
	for i, rec := range recs {
		if rec.Start < end {
			return nil, fmt.Errorf("record %d starts at %d before %d: %w", i, rec.Start, end, ErrMalformed)
		}
		var r record[T]
		if len(rec.Values) > 0 {
			r = record[T]{start: rec.Start, values: append([]T(nil), rec.Values...), variable: true}
		} else {
			if rec.Finish <= rec.Start {
				return nil, fmt.Errorf("record %d is empty: %w", i, ErrMalformed)
			}
			r = record[T]{start: rec.Start, finish: rec.Finish, value: rec.Value}
		}
		end = r.end()
		h.records = append(h.records, r)
	}
	return h, nil
}
