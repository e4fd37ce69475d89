/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package store is the in-memory entity store for users, posts, profiles and
// member types.
//
// Every record that leaves the store is a deep copy, and every record that
// enters it is copied too, so callers can never alias store memory. All
// operations run inside a transaction. View takes a shared lock; Update takes
// the store-wide exclusive lock and keeps an undo log, so a multi-record
// procedure (a cascading delete, a check followed by an insert) is applied
// completely or not at all.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"

	"github.com/hypermodeinc/usergraph/x"
)

// DefaultMemberTypes is the fixed member type catalog every store starts with.
var DefaultMemberTypes = []MemberType{
	{ID: "basic", Discount: 0, MonthPostsLimit: 20},
	{ID: "business", Discount: 5, MonthPostsLimit: 100},
}

// Store holds the four collections.
type Store struct {
	mu sync.RWMutex

	users       *collection[User]
	posts       *collection[Post]
	profiles    *collection[Profile]
	memberTypes *collection[MemberType]

	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the random UUID generator used for fresh ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// New returns a store holding only DefaultMemberTypes.
func New(opts ...Option) *Store {
	s := &Store{
		users:       newCollection[User](),
		posts:       newCollection[Post](),
		profiles:    newCollection[Profile](),
		memberTypes: newCollection[MemberType](),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, mt := range DefaultMemberTypes {
		s.memberTypes.insertAt(-1, mt)
	}
	return s
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(txn *Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&Txn{s: s})
}

// Update runs fn in a read-write transaction. If fn returns an error, or
// panics, every write it made is undone before Update returns.
func (s *Store) Update(fn func(txn *Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn := &Txn{s: s, update: true}
	committed := false
	defer func() {
		if !committed {
			txn.rollback()
		}
	}()

	if err := fn(txn); err != nil {
		return err
	}
	committed = true
	if len(txn.undo) > 0 {
		s.recordSizes()
	}
	return nil
}

// Counts returns the number of records of each kind.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.counts()
}

func (s *Store) counts() map[string]int {
	return map[string]int{
		KindUser:       s.users.len(),
		KindPost:       s.posts.len(),
		KindProfile:    s.profiles.len(),
		KindMemberType: s.memberTypes.len(),
	}
}

func (s *Store) recordSizes() {
	for kind, n := range s.counts() {
		stats.Record(x.WithTag(context.Background(), x.KeyKind, kind), x.NumEntities.M(int64(n)))
	}
}

func (s *Store) Users() Collection[User] {
	return Collection[User]{s: s, pick: (*Txn).Users}
}

func (s *Store) Posts() Collection[Post] {
	return Collection[Post]{s: s, pick: (*Txn).Posts}
}

func (s *Store) Profiles() Collection[Profile] {
	return Collection[Profile]{s: s, pick: (*Txn).Profiles}
}

func (s *Store) MemberTypes() Collection[MemberType] {
	return Collection[MemberType]{s: s, pick: (*Txn).MemberTypes}
}

// Txn is a transaction handed to the functions passed to View and Update.
// It must not be used after that function returns.
type Txn struct {
	s      *Store
	update bool
	undo   []func()
}

func (txn *Txn) Users() Table[User] {
	return Table[User]{txn: txn, c: txn.s.users}
}

func (txn *Txn) Posts() Table[Post] {
	return Table[Post]{txn: txn, c: txn.s.posts}
}

func (txn *Txn) Profiles() Table[Profile] {
	return Table[Profile]{txn: txn, c: txn.s.profiles}
}

func (txn *Txn) MemberTypes() Table[MemberType] {
	return Table[MemberType]{txn: txn, c: txn.s.memberTypes}
}

func (txn *Txn) rollback() {
	for i := len(txn.undo) - 1; i >= 0; i-- {
		txn.undo[i]()
	}
	txn.undo = nil
}

// Table is the view of one collection from inside a transaction.
type Table[T entity[T]] struct {
	txn *Txn
	c   *collection[T]
}

func (t Table[T]) kind() string {
	var zero T
	return zero.kind()
}

// Len returns the number of records in the collection.
func (t Table[T]) Len() int {
	return t.c.len()
}

// FindMany returns copies of all records matching every filter, in insertion
// order. The result is never nil.
func (t Table[T]) FindMany(filters ...Filter) []T {
	out := []T{}
	t.c.scan(filters, func(v T) bool {
		out = append(out, v.clone())
		return true
	})
	return out
}

// FindOne returns a copy of the first record matching every filter.
func (t Table[T]) FindOne(filters ...Filter) (T, bool) {
	var out T
	found := false
	t.c.scan(filters, func(v T) bool {
		out, found = v.clone(), true
		return false
	})
	return out, found
}

// Get returns a copy of the record with the given id, or a NotFoundError.
func (t Table[T]) Get(id string) (T, error) {
	v, ok := t.c.get(id)
	if !ok {
		return v, notFound(t.kind(), id)
	}
	return v.clone(), nil
}

// Create stores a copy of v under a fresh id and returns the stored record.
func (t Table[T]) Create(v T) (T, error) {
	var zero T
	if !t.txn.update {
		return zero, ErrReadOnlyTxn
	}
	if err := v.validate(); err != nil {
		return zero, err
	}

	v = v.clone().withKey(t.txn.s.newID())
	id := v.Key()
	if _, ok := t.c.get(id); ok {
		return zero, errors.Wrapf(ErrDuplicateKey, "%s with id %s", t.kind(), id)
	}
	t.c.insertAt(-1, v)
	t.txn.undo = append(t.txn.undo, func() { t.c.remove(id) })
	return v.clone(), nil
}

// Change merges p over the record with the given id and returns the result.
func (t Table[T]) Change(id string, p Patch[T]) (T, error) {
	var zero T
	if !t.txn.update {
		return zero, ErrReadOnlyTxn
	}
	old, ok := t.c.get(id)
	if !ok {
		return zero, notFound(t.kind(), id)
	}

	updated := p.apply(old.clone())
	t.c.put(updated)
	t.txn.undo = append(t.txn.undo, func() { t.c.put(old) })
	return updated.clone(), nil
}

// Delete removes the record with the given id and returns it.
func (t Table[T]) Delete(id string) (T, error) {
	var zero T
	if !t.txn.update {
		return zero, ErrReadOnlyTxn
	}
	old, pos, ok := t.c.remove(id)
	if !ok {
		return zero, notFound(t.kind(), id)
	}
	t.txn.undo = append(t.txn.undo, func() { t.c.insertAt(pos, old) })
	return old.clone(), nil
}

// Collection runs each operation of a Table in its own transaction.
type Collection[T entity[T]] struct {
	s    *Store
	pick func(*Txn) Table[T]
}

func (c Collection[T]) FindMany(filters ...Filter) []T {
	var out []T
	x.Ignore(c.s.View(func(txn *Txn) error {
		out = c.pick(txn).FindMany(filters...)
		return nil
	}))
	return out
}

func (c Collection[T]) FindOne(filters ...Filter) (T, bool) {
	var out T
	var found bool
	x.Ignore(c.s.View(func(txn *Txn) error {
		out, found = c.pick(txn).FindOne(filters...)
		return nil
	}))
	return out, found
}

func (c Collection[T]) Get(id string) (out T, err error) {
	err = c.s.View(func(txn *Txn) error {
		out, err = c.pick(txn).Get(id)
		return err
	})
	return
}

func (c Collection[T]) Len() (n int) {
	x.Ignore(c.s.View(func(txn *Txn) error {
		n = c.pick(txn).Len()
		return nil
	}))
	return
}

func (c Collection[T]) Create(v T) (out T, err error) {
	err = c.s.Update(func(txn *Txn) error {
		out, err = c.pick(txn).Create(v)
		return err
	})
	return
}

func (c Collection[T]) Change(id string, p Patch[T]) (out T, err error) {
	err = c.s.Update(func(txn *Txn) error {
		out, err = c.pick(txn).Change(id, p)
		return err
	})
	return
}

func (c Collection[T]) Delete(id string) (out T, err error) {
	err = c.s.Update(func(txn *Txn) error {
		out, err = c.pick(txn).Delete(id)
		return err
	})
	return
}
