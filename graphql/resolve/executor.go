/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hypermodeinc/usergraph/dataloader"
	"github.com/hypermodeinc/usergraph/graphql/api"
	"github.com/hypermodeinc/usergraph/graphql/schema"
	"github.com/hypermodeinc/usergraph/service"
	"github.com/hypermodeinc/usergraph/store"
	"github.com/hypermodeinc/usergraph/x"
)

// The executor resolves an operation in two passes.
//
// The first pass walks the operation breadth first and builds a tree of
// map[string]interface{}, one map per object. Resolvers that depend on a
// loader return a Deferred; those are queued and run together once every
// loader has dispatched, so all the loads issued at one level of the tree go
// out as a single batch per loader. A Deferred can yield another one, which
// waits for the next dispatch.
//
// The second pass completes the tree against the schema types: it coerces
// scalars, writes JSON in field order and applies null propagation.

// failed marks a field whose error was already recorded. Completion turns it
// into null without recording a second error.
type failed struct{}

type pending struct {
	field    schema.Field
	path     []interface{}
	obj      map[string]interface{}
	deferred Deferred
}

type executor struct {
	resolvers map[string]FieldResolver
	deps      *Deps
	query     string

	queue []*pending
	errs  x.GqlErrorList
	ticks int
}

func (e *executor) resolveQuery(ctx context.Context, op schema.Operation, resp *schema.Response) {
	data := e.resolveFields(ctx, op.Fields(), nil, nil)
	e.run(ctx)

	b, errs := completeObject(make([]interface{}, 0, maxPathLength(op.Fields())), op.Fields(), data)
	resp.WithError(e.takeErrors())
	resp.WithError(errs)
	if b == nil {
		resp.SetDataNull()
		return
	}
	resp.AddData(b)
}

// resolveMutations runs the mutations of op one after the other. After the
// first mutation that fails, the rest are reported and not executed.
func (e *executor) resolveMutations(ctx context.Context, op schema.Operation, resp *schema.Response) {
	allSuccessful := true
	for _, m := range op.Fields() {
		if !allSuccessful {
			resp.WithError(x.GqlErrorf(
				"Mutation %s was not executed because of a previous error.",
				m.ResponseName()).
				WithLocations(m.Location()))
			continue
		}

		data := make(map[string]interface{}, 1)
		e.resolveField(ctx, data, m, nil, nil)
		_, mutationFailed := data[m.ResponseName()].(failed)
		e.run(ctx)

		fields := []schema.Field{m}
		b, errs := completeObject(make([]interface{}, 0, maxPathLength(fields)), fields, data)
		resp.WithError(e.takeErrors())
		resp.WithError(errs)
		resp.AddData(b)

		// The next mutation must see this one's writes.
		e.deps.Loaders.Clear()
		allSuccessful = !mutationFailed
	}
}

// run drains the queue of deferred fields, one dispatch of every loader per
// round.
func (e *executor) run(ctx context.Context) {
	for len(e.queue) > 0 {
		batch := e.queue
		e.queue = nil

		e.deps.Loaders.Dispatch(ctx)
		e.ticks++
		for _, p := range batch {
			val, err := e.callDeferred(ctx, p.deferred)
			if err != nil {
				e.fail(p.obj, p.field, p.path, err)
				continue
			}
			e.accept(ctx, p.obj, p.field, p.path, val)
		}
	}
}

func (e *executor) takeErrors() error {
	errs := e.errs
	e.errs = nil
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (e *executor) resolveFields(ctx context.Context, fields []schema.Field, source interface{},
	path []interface{}) map[string]interface{} {

	obj := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		e.resolveField(ctx, obj, f, source, path)
	}
	return obj
}

func (e *executor) resolveField(ctx context.Context, obj map[string]interface{}, f schema.Field,
	source interface{}, path []interface{}) {

	fieldPath := extendPath(path, f.ResponseName())
	switch f.Name() {
	case schema.Typename:
		obj[f.ResponseName()] = f.ParentType()
		return
	case "__schema", "__type":
		e.fail(obj, f, fieldPath, x.GqlErrorf(errIntrospection, f.Name()))
		return
	}

	resolver, ok := e.resolvers[f.ParentType()+"."+f.Name()]
	if !ok {
		resolver = defaultResolver
	}
	val, err := e.call(ctx, resolver, ResolveParams{
		Field:  f,
		Source: source,
		Args:   f.Arguments(),
		Deps:   e.deps,
	})
	if err != nil {
		e.fail(obj, f, fieldPath, err)
		return
	}
	e.accept(ctx, obj, f, fieldPath, val)
}

// accept stores val as the value of f in obj, queueing it if it's deferred and
// resolving its selection set if it's an object.
func (e *executor) accept(ctx context.Context, obj map[string]interface{}, f schema.Field,
	path []interface{}, val interface{}) {

	if d, ok := val.(Deferred); ok {
		e.queue = append(e.queue, &pending{field: f, path: path, obj: obj, deferred: d})
		return
	}
	obj[f.ResponseName()] = e.expand(ctx, f, f.Type(), path, val)
}

func (e *executor) expand(ctx context.Context, f schema.Field, typ schema.Type,
	path []interface{}, val interface{}) interface{} {

	if val == nil || !typ.IsObject() {
		return val
	}
	if typ.ListType() != nil {
		items, ok := val.([]interface{})
		if !ok {
			// Completion reports the mismatch.
			return val
		}
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = e.expand(ctx, f, typ.ListType(), extendPath(path, i), item)
		}
		return out
	}
	if _, ok := val.([]interface{}); ok {
		return val
	}
	return e.resolveFields(ctx, f.SelectionSet(), val, path)
}

func (e *executor) fail(obj map[string]interface{}, f schema.Field, path []interface{}, err error) {
	obj[f.ResponseName()] = failed{}
	e.errs = append(e.errs, fieldError(err, f, path))
}

func (e *executor) call(ctx context.Context, fn FieldResolver, p ResolveParams) (val interface{},
	err error) {

	defer api.PanicHandler(func(perr error) {
		val, err = nil, perr
	}, e.query)
	return fn(ctx, p)
}

func (e *executor) callDeferred(ctx context.Context, d Deferred) (val interface{}, err error) {
	defer api.PanicHandler(func(perr error) {
		val, err = nil, perr
	}, e.query)
	return d(ctx)
}

// extendPath returns a copy of path with elem appended. Paths are kept by
// queued fields, so they must not share a backing array.
func extendPath(path []interface{}, elem interface{}) []interface{} {
	out := make([]interface{}, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

// fieldError turns err into a GraphQL error located at f and path, with a
// code extension classifying it.
func fieldError(err error, f schema.Field, path []interface{}) *x.GqlError {
	var gqlErr *x.GqlError
	if !errors.As(err, &gqlErr) {
		gqlErr = x.GqlErrorf("%s", err.Error())
	}
	if len(gqlErr.Locations) == 0 {
		gqlErr = gqlErr.WithLocations(f.Location())
	}
	if gqlErr.Path == nil {
		gqlErr = gqlErr.WithPath(copyPath(path))
	}
	if gqlErr.Code() == "" {
		gqlErr = gqlErr.WithCode(errorCode(err))
	}
	return gqlErr
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, dataloader.ErrBatchFetch):
		return x.ErrCodeBatchFetch
	case errors.Is(err, store.ErrNotFound):
		return x.ErrCodeNotFound
	case errors.Is(err, service.ErrIntegrity):
		return x.ErrCodeIntegrity
	}
	return x.ErrCodeInternal
}
