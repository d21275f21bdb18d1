package entity

import "fmt"

// DefaultCapacity is the arena size used when none is configured.
const DefaultCapacity = 1024

// Arena stores entities in numbered slots. Freed slots are reused lowest
// first, so IDs stay small and iteration order is stable.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	slots    []*Entity
	live     int
	capacity int
}

// NewArena returns an empty arena holding at most capacity entities.
//
// Precondition: capacity > 0.
func NewArena(capacity int) *Arena {
	if capacity <= 0 {
		panic(fmt.Sprintf("entity: non-positive arena capacity %d", capacity))
	}
	return &Arena{capacity: capacity}
}

// Spawn stores e in the first free slot and assigns its ID.
//
// Precondition: the arena is not full.
// Postcondition: e.ID != 0 and Get(e.ID) returns e.
func (a *Arena) Spawn(e *Entity) *Entity {
	for i, s := range a.slots {
		if s == nil {
			return a.place(i, e)
		}
	}
	if len(a.slots) >= a.capacity {
		panic(fmt.Sprintf("entity: arena full at %d entities", a.capacity))
	}
	a.slots = append(a.slots, nil)
	return a.place(len(a.slots)-1, e)
}

func (a *Arena) place(i int, e *Entity) *Entity {
	e.ID = ID(i + 1)
	a.slots[i] = e
	a.live++
	return e
}

// Remove frees the slot holding id.
//
// Postcondition: returns false if id was not live.
func (a *Arena) Remove(id ID) bool {
	i, ok := a.slot(id)
	if !ok || a.slots[i] == nil {
		return false
	}
	a.slots[i] = nil
	a.live--
	return true
}

// Get returns the entity with the given ID.
func (a *Arena) Get(id ID) (*Entity, bool) {
	i, ok := a.slot(id)
	if !ok || a.slots[i] == nil {
		return nil, false
	}
	return a.slots[i], true
}

// Len returns the number of live entities.
func (a *Arena) Len() int { return a.live }

// Capacity returns the maximum number of live entities.
func (a *Arena) Capacity() int { return a.capacity }

// Entities returns the live entities in slot order.
func (a *Arena) Entities() []*Entity {
	out := make([]*Entity, 0, a.live)
	for _, e := range a.slots {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Clone deep-copies the arena. Observers are shared, not copied.
func (a *Arena) Clone() *Arena {
	c := &Arena{slots: make([]*Entity, len(a.slots)), live: a.live, capacity: a.capacity}
	for i, e := range a.slots {
		if e != nil {
			c.slots[i] = e.Clone()
		}
	}
	return c
}

// Guard returns a view of the arena that refuses access to self.
func (a *Arena) Guard(self ID) Guard {
	return Guard{arena: a, self: self}
}

func (a *Arena) slot(id ID) (int, bool) {
	i := int(id) - 1
	return i, i >= 0 && i < len(a.slots)
}

// Guard gives an updating entity access to every other entity. Reaching the
// entity being updated through its Guard is a programming error and panics.
type Guard struct {
	arena *Arena
	self  ID
}

// Self returns the protected ID.
func (g Guard) Self() ID { return g.self }

// Get returns another entity.
//
// Precondition: id != Self().
func (g Guard) Get(id ID) (*Entity, bool) {
	if id == g.self {
		panic(fmt.Sprintf("entity: slot %d is protected", id))
	}
	return g.arena.Get(id)
}

// Each calls fn for every live entity except the protected one, in slot order.
func (g Guard) Each(fn func(*Entity)) {
	for _, e := range g.arena.slots {
		if e != nil && e.ID != g.self {
			fn(e)
		}
	}
}
