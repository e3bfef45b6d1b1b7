package keyedstore

import (
	"fmt"

	"notifyledger/fault"
)

// Order selects the direction of an iteration.
type Order int

const (
	// Ascending walks from the oldest element to the newest.
	Ascending Order = iota
	// Descending walks from the newest element to the oldest.
	Descending
)

// Cursor walks a window of a sequence, reading each element from the store
// only when Next is called. The window is fixed from the length seen when the
// cursor was created; create a new cursor to re-read the sequence.
type Cursor struct {
	store     *Store
	ns        Namespace
	order     Order
	next      uint32
	remaining uint32
}

// Iterate returns a cursor over ns in the given order, skipping the first
// skip elements (in that order) and yielding at most take of them.
func (s *Store) Iterate(ns Namespace, order Order, skip, take uint32) (*Cursor, error) {
	length, err := s.Length(ns)
	if err != nil {
		return nil, err
	}
	c := &Cursor{store: s, ns: ns, order: order}
	if skip >= length {
		return c, nil
	}
	available := length - skip
	if take > available {
		take = available
	}
	c.remaining = take
	if order == Descending {
		c.next = length - 1 - skip
	} else {
		c.next = skip
	}
	return c, nil
}

// HasNext reports whether another element is available.
func (c *Cursor) HasNext() bool {
	return c.remaining > 0
}

// Next returns the index and bytes of the next element.
func (c *Cursor) Next() (uint32, []byte, error) {
	if c.remaining == 0 {
		return 0, nil, fmt.Errorf("cursor over %s is exhausted: %w", c.ns, fault.ErrOutOfRange)
	}
	index := c.next
	value, err := c.store.Get(c.ns, index)
	if err != nil {
		return 0, nil, err
	}
	c.remaining--
	if c.remaining > 0 {
		if c.order == Descending {
			c.next--
		} else {
			c.next++
		}
	}
	return index, value, nil
}
