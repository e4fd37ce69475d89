/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package dataloader coalesces single-key lookups into batch fetches.
//
// Load never fetches. It queues the key, deduplicated and in first-seen order,
// and returns a Thunk. Dispatch is the tick boundary: every key queued since
// the previous dispatch goes to the batch function in one call, and each Thunk
// is resolved with the value at its key's position. Results are cached per
// key for the lifetime of the Loader, which is one request.
//
// A thunk moves through PENDING (queued) to BATCHED (its batch is running) to
// RESOLVED or FAILED. Awaiting a PENDING thunk dispatches its loader, so a
// caller that blocks never waits on a batch nobody started.
package dataloader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	otrace "go.opencensus.io/trace"

	"github.com/hypermodeinc/usergraph/x"
)

// ErrBatchFetch is matched, through errors.Is, by every BatchError.
var ErrBatchFetch = errors.New("batch fetch failed")

// BatchError is delivered to every waiter of a failed batch.
type BatchError struct {
	Loader string
	Keys   int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("loader %s: batch of %d keys failed: %v", e.Loader, e.Keys, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

func (e *BatchError) Is(target error) bool { return target == ErrBatchFetch }

// State is the lifecycle state of a Thunk.
type State int32

const (
	Pending State = iota
	Batched
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Batched:
		return "BATCHED"
	case Resolved:
		return "RESOLVED"
	case Failed:
		return "FAILED"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// BatchFunc fetches values for keys. It must return exactly one value per key,
// in key order; a missing one-to-one value is the zero value, never an error.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, error)

// Stats counts the work a Loader has done.
type Stats struct {
	Batches int `json:"batches"`
	Keys    int `json:"keys"`
}

// Thunk is the future result of one Load.
type Thunk[V any] struct {
	dispatch func(context.Context)
	state    atomic.Int32
	done     chan struct{}
	val      V
	err      error
}

func newThunk[V any](dispatch func(context.Context)) *Thunk[V] {
	return &Thunk[V]{dispatch: dispatch, done: make(chan struct{})}
}

// State returns the current state of the thunk.
func (t *Thunk[V]) State() State {
	return State(t.state.Load())
}

// Get waits for the thunk's batch and returns its value. A pending thunk
// dispatches its loader first.
func (t *Thunk[V]) Get(ctx context.Context) (V, error) {
	select {
	case <-t.done:
		return t.val, t.err
	default:
	}

	if t.State() == Pending {
		t.dispatch(ctx)
	}

	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (t *Thunk[V]) resolve(v V) {
	t.val = v
	t.state.Store(int32(Resolved))
	close(t.done)
}

func (t *Thunk[V]) fail(err error) {
	t.err = err
	t.state.Store(int32(Failed))
	close(t.done)
}

// Loader batches loads of V by K.
type Loader[K comparable, V any] struct {
	name  string
	fetch BatchFunc[K, V]

	mu    sync.Mutex
	cache map[K]*Thunk[V]
	queue []K
	stats Stats
}

// New returns a Loader named name that fetches with fn.
func New[K comparable, V any](name string, fn BatchFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{
		name:  name,
		fetch: fn,
		cache: make(map[K]*Thunk[V]),
	}
}

func (l *Loader[K, V]) Name() string {
	return l.name
}

// Load returns the thunk for key. The same key returns the same thunk until
// it fails or the cache is cleared.
func (l *Loader[K, V]) Load(key K) *Thunk[V] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.cache[key]; ok {
		return t
	}
	t := newThunk[V](l.Dispatch)
	l.cache[key] = t
	l.queue = append(l.queue, key)
	return t
}

// LoadMany loads every key and returns the thunks in key order.
func (l *Loader[K, V]) LoadMany(keys []K) []*Thunk[V] {
	out := make([]*Thunk[V], len(keys))
	for i, k := range keys {
		out[i] = l.Load(k)
	}
	return out
}

// Pending returns the number of keys waiting for the next dispatch.
func (l *Loader[K, V]) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Stats returns the batches and keys fetched so far.
func (l *Loader[K, V]) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Clear drops every settled result from the cache. Keys waiting for a
// dispatch stay.
func (l *Loader[K, V]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, t := range l.cache {
		if s := t.State(); s == Resolved || s == Failed {
			delete(l.cache, k)
		}
	}
}

// Dispatch fetches every queued key in one call to the batch function. It
// returns once all thunks of the batch are settled. With nothing queued it
// does nothing.
func (l *Loader[K, V]) Dispatch(ctx context.Context) {
	l.mu.Lock()
	keys := l.queue
	l.queue = nil
	thunks := make([]*Thunk[V], len(keys))
	for i, k := range keys {
		thunks[i] = l.cache[k]
		thunks[i].state.Store(int32(Batched))
	}
	if len(keys) > 0 {
		l.stats.Batches++
		l.stats.Keys += len(keys)
	}
	l.mu.Unlock()

	if len(keys) == 0 {
		return
	}

	ctx, span := otrace.StartSpan(ctx, "loader."+l.name)
	defer span.End()
	span.AddAttributes(otrace.Int64Attribute("keys", int64(len(keys))))

	start := time.Now()
	vals, err := l.call(ctx, keys)
	if err == nil && len(vals) != len(keys) {
		err = errors.Errorf("batch function returned %d values for %d keys", len(vals), len(keys))
	}

	status := x.TagValueStatusOK
	if err != nil {
		status = x.TagValueStatusError
	}
	mctx := x.WithTag(x.WithTag(ctx, x.KeyLoader, l.name), x.KeyStatus, status)
	stats.Record(mctx, x.NumBatches.M(1), x.BatchSize.M(int64(len(keys))))

	if err != nil {
		berr := &BatchError{Loader: l.name, Keys: len(keys), Err: err}
		span.SetStatus(otrace.Status{Code: otrace.StatusCodeInternal, Message: berr.Error()})
		glog.Errorf("%v", berr)

		// Failed keys are evicted so that a later Load fetches them again.
		l.mu.Lock()
		for i, k := range keys {
			if l.cache[k] == thunks[i] {
				delete(l.cache, k)
			}
		}
		l.mu.Unlock()

		for _, t := range thunks {
			t.fail(berr)
		}
		return
	}

	for i, t := range thunks {
		t.resolve(vals[i])
	}
	if glog.V(3) {
		glog.Infof("loader %s: fetched %d keys in %.3fms", l.name, len(keys), x.SinceMs(start))
	}
}

// call runs the batch function, turning a panic into an error so that the
// waiters of the batch fail instead of hanging.
func (l *Loader[K, V]) call(ctx context.Context, keys []K) (vals []V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic in batch function: %v", r)
		}
	}()
	return l.fetch(ctx, keys)
}
