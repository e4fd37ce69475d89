/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	otrace "go.opencensus.io/trace"

	"github.com/hypermodeinc/usergraph/dataloader"
	"github.com/hypermodeinc/usergraph/graphql/api"
	"github.com/hypermodeinc/usergraph/graphql/schema"
	"github.com/hypermodeinc/usergraph/service"
	"github.com/hypermodeinc/usergraph/store"
	"github.com/hypermodeinc/usergraph/x"
)

const (
	methodResolve = "graphql.Resolve"

	errExpectedScalar = "A scalar type was returned, but GraphQL was expecting an object. " +
		"This indicates an internal error - " +
		"probably a resolver returning the wrong shape of value. " +
		"The value was resolved as null (which may trigger GraphQL error propagation) " +
		"and as much other data as possible returned."

	errExpectedObject = "A list was returned, but GraphQL was expecting just one item. " +
		"This indicates an internal error - " +
		"probably a resolver returning the wrong shape of value. " +
		"The value was resolved as null (which may trigger GraphQL error propagation) " +
		"and as much other data as possible returned."

	errExpectedList = "An object was returned, but GraphQL was expecting a list of objects. " +
		"This indicates an internal error - " +
		"probably a resolver returning the wrong shape of value. " +
		"The value was resolved as null (which may trigger GraphQL error propagation) " +
		"and as much other data as possible returned."

	errInternal = "Internal error"

	errExpectedNonNull = "Non-nullable field '%s' (type %s) was null.  " +
		"GraphQL error propagation triggered."

	errIntrospection = "Introspection is not supported: field '%s' can't be resolved."
)

// Deps is everything a resolver may read from or write to. A fresh Loaders is
// built for every request.
type Deps struct {
	Service *service.Service
	Store   *store.Store
	Loaders *dataloader.Loaders
}

// ResolveParams is the input of a FieldResolver.
type ResolveParams struct {
	Field schema.Field
	// Source is the value of the parent object: nil for root fields, otherwise
	// the store entity or payload the parent resolved to.
	Source interface{}
	Args   map[string]interface{}
	Deps   *Deps
}

// A FieldResolver resolves one field. It returns either the value itself or
// a Deferred when the value depends on a loader.
type FieldResolver func(ctx context.Context, p ResolveParams) (interface{}, error)

// A Deferred is a field value that is available once the request's loaders
// have dispatched. It may return another Deferred, which then waits for the
// next dispatch.
type Deferred func(ctx context.Context) (interface{}, error)

// RequestResolver resolves GraphQL requests against one schema and one
// service.
type RequestResolver struct {
	schema    schema.Schema
	service   *service.Service
	resolvers map[string]FieldResolver
	debug     bool
	observe   func(*dataloader.Loaders)
}

// An Option configures a RequestResolver.
type Option func(*RequestResolver)

// WithDebug reports the request id, the depth of the operation and the work
// each loader did in the response extensions.
func WithDebug(debug bool) Option {
	return func(r *RequestResolver) {
		r.debug = debug
	}
}

// WithResolver binds fn to the field named "Type.field", replacing any
// resolver already bound to it.
func WithResolver(name string, fn FieldResolver) Option {
	return func(r *RequestResolver) {
		r.resolvers[name] = fn
	}
}

// WithLoadersHook calls fn with the loaders built for each request, before
// execution starts.
func WithLoadersHook(fn func(*dataloader.Loaders)) Option {
	return func(r *RequestResolver) {
		r.observe = fn
	}
}

// New creates a new RequestResolver.
func New(s schema.Schema, svc *service.Service, opts ...Option) *RequestResolver {
	r := &RequestResolver{
		schema:    s,
		service:   svc,
		resolvers: make(map[string]FieldResolver),
	}
	for name, fn := range queryResolvers() {
		r.resolvers[name] = fn
	}
	for name, fn := range relationResolvers() {
		r.resolvers[name] = fn
	}
	for name, fn := range mutationResolvers() {
		r.resolvers[name] = fn
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schema returns the schema requests are resolved against.
func (r *RequestResolver) Schema() schema.Schema {
	return r.schema
}

// Resolve processes gqlReq and returns a GraphQL response. Errors are recorded
// in the response; a response is always returned.
func (r *RequestResolver) Resolve(ctx context.Context, gqlReq *schema.Request) (resp *schema.Response) {
	ctx, span := otrace.StartSpan(ctx, methodResolve)
	defer span.End()

	if r == nil || r.schema == nil || r.service == nil {
		glog.Errorf("Call to Resolve with an unconfigured RequestResolver")
		return schema.ErrorResponse(errors.New(errInternal))
	}

	startTime := time.Now()
	method := "invalid"
	resp = &schema.Response{}
	defer func() {
		status := x.TagValueStatusOK
		if len(resp.Errors) > 0 {
			status = x.TagValueStatusError
		}
		mctx := x.WithMethod(ctx, method)
		stats.Record(x.WithTag(mctx, x.KeyStatus, status),
			x.NumGraphQLRequests.M(1), x.LatencyMs.M(x.SinceMs(startTime)))
		stats.Record(mctx, x.NumGraphQLErrors.M(int64(len(resp.Errors))))
	}()
	defer api.PanicHandler(func(err error) {
		resp = schema.ErrorResponse(err)
	}, gqlReq.Query)

	reqID := api.RequestID(ctx)
	op, err := r.schema.Operation(gqlReq)
	if err != nil {
		resp.WithError(err)
		return resp
	}

	if glog.V(3) {
		b, err := json.Marshal(gqlReq.Variables)
		if err != nil {
			glog.Infof("Failed to marshal variables for logging : %s", err)
		}
		glog.Infof("Resolving GQL request %s (depth %d): \n%s\nWith Variables: \n%s\n",
			reqID, op.Depth(), gqlReq.Query, string(b))
	}

	loaders := dataloader.NewLoaders(r.service.Store())
	if r.observe != nil {
		r.observe(loaders)
	}
	ex := &executor{
		resolvers: r.resolvers,
		query:     gqlReq.Query,
		deps: &Deps{
			Service: r.service,
			Store:   r.service.Store(),
			Loaders: loaders,
		},
	}

	// A single request can contain either queries or mutations - not both.
	// Subscriptions were rejected when the operation was built.
	switch {
	case op.IsQuery():
		method = "query"
		ex.resolveQuery(ctx, op, resp)
	case op.IsMutation():
		method = "mutation"
		ex.resolveMutations(ctx, op, resp)
	}

	if r.debug {
		resp.Extensions = &schema.Extensions{
			RequestID: reqID,
			Depth:     op.Depth(),
			Loaders:   loaders.Stats(),
		}
	}
	if glog.V(2) {
		glog.Infof("Resolved GQL request %s in %d ticks, loaders: %+v",
			reqID, ex.ticks, loaders.Stats())
	}
	return resp
}
