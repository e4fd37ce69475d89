/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hypermodeinc/usergraph/dataloader"
	"github.com/hypermodeinc/usergraph/store"
)

// Relationship fields never touch the store. Each one queues a key on one of
// the request's loaders and returns a Deferred for the value.
func relationResolvers() map[string]FieldResolver {
	return map[string]FieldResolver{
		"User.posts": func(_ context.Context, p ResolveParams) (interface{}, error) {
			u, err := source[store.User](p)
			if err != nil {
				return nil, err
			}
			return then(p.Deps.Loaders.PostsByUserID.Load(u.ID),
				func(posts []store.Post) (interface{}, error) {
					return asList(posts), nil
				}), nil
		},
		"User.profile": func(_ context.Context, p ResolveParams) (interface{}, error) {
			u, err := source[store.User](p)
			if err != nil {
				return nil, err
			}
			return then(p.Deps.Loaders.ProfileByUserID.Load(u.ID), one[store.Profile]), nil
		},
		"User.memberType": func(_ context.Context, p ResolveParams) (interface{}, error) {
			u, err := source[store.User](p)
			if err != nil {
				return nil, err
			}
			// The member type is only known once the profile is loaded, so it
			// takes two dispatches.
			loaders := p.Deps.Loaders
			return then(loaders.ProfileByUserID.Load(u.ID),
				func(prof *store.Profile) (interface{}, error) {
					if prof == nil {
						return nil, nil
					}
					return then(loaders.MemberTypeByID.Load(prof.MemberTypeID),
						one[store.MemberType]), nil
				}), nil
		},
		"User.userSubscribedTo": func(_ context.Context, p ResolveParams) (interface{}, error) {
			u, err := source[store.User](p)
			if err != nil {
				return nil, err
			}
			return many(p.Deps.Loaders.UserByID.LoadMany(u.SubscribedToUserIDs)), nil
		},
		"User.subscribedToUser": func(_ context.Context, p ResolveParams) (interface{}, error) {
			u, err := source[store.User](p)
			if err != nil {
				return nil, err
			}
			return then(p.Deps.Loaders.SubscribersOf.Load(u.ID),
				func(users []store.User) (interface{}, error) {
					return asList(users), nil
				}), nil
		},
		"Profile.memberType": func(_ context.Context, p ResolveParams) (interface{}, error) {
			prof, err := source[store.Profile](p)
			if err != nil {
				return nil, err
			}
			return then(p.Deps.Loaders.MemberTypeByID.Load(prof.MemberTypeID),
				one[store.MemberType]), nil
		},
		"Profile.user": func(_ context.Context, p ResolveParams) (interface{}, error) {
			prof, err := source[store.Profile](p)
			if err != nil {
				return nil, err
			}
			return then(p.Deps.Loaders.UserByID.Load(prof.UserID), one[store.User]), nil
		},
		"Post.author": func(_ context.Context, p ResolveParams) (interface{}, error) {
			post, err := source[store.Post](p)
			if err != nil {
				return nil, err
			}
			return then(p.Deps.Loaders.UserByID.Load(post.UserID), one[store.User]), nil
		},
	}
}

func source[T any](p ResolveParams) (T, error) {
	v, ok := p.Source.(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("field %s.%s resolved on a %T",
			p.Field.ParentType(), p.Field.Name(), p.Source)
	}
	return v, nil
}

func one[T any](v *T) (interface{}, error) {
	return orNil(v), nil
}

// many waits for every thunk and keeps the records that exist, in key order.
func many[V any](ths []*dataloader.Thunk[*V]) Deferred {
	return func(ctx context.Context) (interface{}, error) {
		out := make([]interface{}, 0, len(ths))
		for _, th := range ths {
			v, err := th.Get(ctx)
			if err != nil {
				return nil, err
			}
			if v != nil {
				out = append(out, *v)
			}
		}
		return out, nil
	}
}
