/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package store

// collection holds the records of one kind in insertion order. It does no
// locking and no cloning; Table does both.
type collection[T entity[T]] struct {
	order []string
	rows  map[string]T
}

func newCollection[T entity[T]]() *collection[T] {
	return &collection[T]{rows: make(map[string]T)}
}

func (c *collection[T]) len() int {
	return len(c.order)
}

func (c *collection[T]) get(id string) (T, bool) {
	v, ok := c.rows[id]
	return v, ok
}

// scan calls fn for every record matching filters, in insertion order, until
// fn returns false.
func (c *collection[T]) scan(filters []Filter, fn func(T) bool) {
	// Lookups by id skip the scan.
	if len(filters) == 1 && filters[0].Key == "id" && filters[0].Op == OpEquals {
		if id, ok := filters[0].Value.(string); ok {
			if v, ok := c.rows[id]; ok {
				fn(v)
			}
			return
		}
	}

	for _, id := range c.order {
		v := c.rows[id]
		if matchAll(v, filters) && !fn(v) {
			return
		}
	}
}

func (c *collection[T]) position(id string) int {
	for i, oid := range c.order {
		if oid == id {
			return i
		}
	}
	return -1
}

// insertAt puts v at position pos of the insertion order. A pos outside the
// order appends.
func (c *collection[T]) insertAt(pos int, v T) {
	id := v.Key()
	c.rows[id] = v
	if pos < 0 || pos >= len(c.order) {
		c.order = append(c.order, id)
		return
	}
	c.order = append(c.order, "")
	copy(c.order[pos+1:], c.order[pos:])
	c.order[pos] = id
}

func (c *collection[T]) put(v T) {
	c.rows[v.Key()] = v
}

// remove deletes the record with the given id and returns it together with its
// position in the insertion order.
func (c *collection[T]) remove(id string) (T, int, bool) {
	v, ok := c.rows[id]
	if !ok {
		return v, -1, false
	}
	pos := c.position(id)
	delete(c.rows, id)
	c.order = append(c.order[:pos], c.order[pos+1:]...)
	return v, pos, true
}
