/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/hypermodeinc/usergraph/dataloader"
)

// Root query fields read the store directly. There is nothing to batch at the
// root: each field is one store call.
func queryResolvers() map[string]FieldResolver {
	return map[string]FieldResolver{
		"Query.users": func(_ context.Context, p ResolveParams) (interface{}, error) {
			return asList(p.Deps.Store.Users().FindMany()), nil
		},
		"Query.posts": func(_ context.Context, p ResolveParams) (interface{}, error) {
			return asList(p.Deps.Store.Posts().FindMany()), nil
		},
		"Query.profiles": func(_ context.Context, p ResolveParams) (interface{}, error) {
			return asList(p.Deps.Store.Profiles().FindMany()), nil
		},
		"Query.memberTypes": func(_ context.Context, p ResolveParams) (interface{}, error) {
			return asList(p.Deps.Store.MemberTypes().FindMany()), nil
		},
		"Query.user": func(_ context.Context, p ResolveParams) (interface{}, error) {
			return get(p, p.Deps.Store.Users().Get)
		},
		"Query.post": func(_ context.Context, p ResolveParams) (interface{}, error) {
			return get(p, p.Deps.Store.Posts().Get)
		},
		"Query.profile": func(_ context.Context, p ResolveParams) (interface{}, error) {
			return get(p, p.Deps.Store.Profiles().Get)
		},
		"Query.memberType": func(_ context.Context, p ResolveParams) (interface{}, error) {
			return get(p, p.Deps.Store.MemberTypes().Get)
		},
	}
}

// get looks up the record named by the id argument. An absent record is a
// NotFound error on the field.
func get[T any](p ResolveParams, lookup func(id string) (T, error)) (interface{}, error) {
	id, err := idArg(p, "id")
	if err != nil {
		return nil, err
	}
	v, err := lookup(id)
	if err != nil {
		return nil, err
	}
	return v, nil
}

type fielder interface {
	Field(name string) (interface{}, bool)
}

// defaultResolver reads the field with the same name from the parent value.
func defaultResolver(_ context.Context, p ResolveParams) (interface{}, error) {
	switch src := p.Source.(type) {
	case fielder:
		v, _ := src.Field(p.Field.Name())
		return v, nil
	case map[string]interface{}:
		return src[p.Field.Name()], nil
	}
	return nil, nil
}

func idArg(p ResolveParams, name string) (string, error) {
	id, err := cast.ToStringE(p.Args[name])
	if err != nil {
		return "", errors.Wrapf(err, "invalid value for argument %s", name)
	}
	return id, nil
}

func asList[T any](vs []T) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// orNil dereferences v, keeping a missing record an untyped nil.
func orNil[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// then returns a Deferred that waits for th and maps its value through fn.
func then[V any](th *dataloader.Thunk[V], fn func(V) (interface{}, error)) Deferred {
	return func(ctx context.Context) (interface{}, error) {
		v, err := th.Get(ctx)
		if err != nil {
			return nil, err
		}
		return fn(v)
	}
}
