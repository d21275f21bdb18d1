// Package history provides a frame-indexed, run-length compressed time series
// used to record and replay entity state.
package history

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Frame is a simulation frame number. Frames are never negative.
type Frame int

// Limits tunes the record encoding.
type Limits struct {
	// ConversionThreshold is the length of a trailing run of equal values at
	// which a variable record spills that run into a constant record.
	ConversionThreshold int
	// MaxRecordLength caps a variable record; the next value starts a new record.
	MaxRecordLength int
}

// DefaultLimits is used for any Limits field left zero.
var DefaultLimits = Limits{ConversionThreshold: 5, MaxRecordLength: 256}

func (l Limits) withDefaults() Limits {
	if l.ConversionThreshold <= 0 {
		l.ConversionThreshold = DefaultLimits.ConversionThreshold
	}
	if l.MaxRecordLength <= 0 {
		l.MaxRecordLength = DefaultLimits.MaxRecordLength
	}
	return l
}

// ErrMalformed is returned by Restore for records that are out of order,
// overlapping or empty.
var ErrMalformed = errors.New("malformed history records")

// record is either a constant run [start, finish) of value, or a variable
// run of values starting at start.
type record[T comparable] struct {
	start    Frame
	finish   Frame
	value    T
	values   []T
	variable bool
}

func constant[T comparable](start Frame, v T) record[T] {
	return record[T]{start: start, finish: start + 1, value: v}
}

func (r *record[T]) end() Frame {
	if r.variable {
		return r.start + Frame(len(r.values))
	}
	return r.finish
}

func (r *record[T]) get(f Frame) (T, bool) {
	if f < r.start || f >= r.end() {
		var zero T
		return zero, false
	}
	if r.variable {
		return r.values[f-r.start], true
	}
	return r.value, true
}

// extend appends v at r.end(). When the value belongs in a new record that
// record is returned instead and r keeps its frames.
func (r *record[T]) extend(v T, l Limits) (record[T], bool) {
	if !r.variable {
		if r.value == v {
			r.finish++
			return record[T]{}, false
		}
		if r.finish-r.start == 1 {
			*r = record[T]{start: r.start, values: []T{r.value, v}, variable: true}
			return record[T]{}, false
		}
		return constant(r.finish, v), true
	}

	n := len(r.values)
	if n >= l.ConversionThreshold {
		run := 0
		for i := n - 1; i >= 0 && r.values[i] == v; i-- {
			run++
		}
		if run+1 >= l.ConversionThreshold {
			if run == n {
				*r = record[T]{start: r.start, finish: r.start + Frame(n) + 1, value: v}
				return record[T]{}, false
			}
			r.values = slices.Clip(r.values[:n-run])
			next := r.start + Frame(len(r.values))
			return record[T]{start: next, finish: next + Frame(run) + 1, value: v}, true
		}
	}
	if n > l.MaxRecordLength {
		return constant(r.start+Frame(n), v), true
	}
	r.values = append(r.values, v)
	return record[T]{}, false
}

// History is an append-mostly series of values keyed by frame. Runs of
// equal values are stored once; short bursts of changing values are stored
// per frame. The zero History is empty and uses DefaultLimits.
type History[T comparable] struct {
	limits  Limits
	records []record[T]
}

// New returns an empty history using l.
func New[T comparable](l Limits) *History[T] {
	return &History[T]{limits: l.withDefaults()}
}

// Get returns the value recorded at f.
//
// Postcondition: ok is false for frames that were never inserted.
func (h *History[T]) Get(f Frame) (T, bool) {
	i := sort.Search(len(h.records), func(i int) bool { return h.records[i].start > f }) - 1
	if i < 0 {
		var zero T
		return zero, false
	}
	return h.records[i].get(f)
}

// TryInsert records v at f. It fails without changing anything when f
// already holds a value.
//
// Precondition: f >= 0.
// Postcondition: on success Get(f) returns v.
func (h *History[T]) TryInsert(f Frame, v T) bool {
	if f < 0 {
		panic(fmt.Sprintf("history: negative frame %d", f))
	}
	i := sort.Search(len(h.records), func(i int) bool { return h.records[i].end() >= f })
	if i == len(h.records) {
		h.records = append(h.records, constant(f, v))
		return true
	}

	r := &h.records[i]
	switch {
	case r.start > f:
		h.records = slices.Insert(h.records, i, constant(f, v))
		return true
	case r.end() == f:
		if i+1 < len(h.records) && h.records[i+1].start <= f {
			return false
		}
		if next, split := r.extend(v, h.limits.withDefaults()); split {
			h.records = slices.Insert(h.records, i+1, next)
		}
		return true
	default:
		return false
	}
}

// Records returns the number of internal records.
func (h *History[T]) Records() int { return len(h.records) }

// Frames returns the number of frames holding a value.
func (h *History[T]) Frames() int {
	n := 0
	for i := range h.records {
		n += int(h.records[i].end() - h.records[i].start)
	}
	return n
}

// End returns one past the last recorded frame, or 0 for an empty history.
func (h *History[T]) End() Frame {
	if len(h.records) == 0 {
		return 0
	}
	return h.records[len(h.records)-1].end()
}

// Clone returns an independent copy of h.
func (h *History[T]) Clone() *History[T] {
	c := &History[T]{limits: h.limits, records: make([]record[T], len(h.records))}
	for i, r := range h.records {
		if r.variable {
			r.values = slices.Clone(r.values)
		}
		c.records[i] = r
	}
	return c
}
