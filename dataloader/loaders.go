/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package dataloader

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hypermodeinc/usergraph/store"
)

type dispatcher interface {
	Name() string
	Dispatch(ctx context.Context)
	Pending() int
	Clear()
	Stats() Stats
}

// Loaders is the set of loaders one request resolves its relationships with.
// It must not outlive the request.
type Loaders struct {
	// PostsByUserID loads the posts of a user.
	PostsByUserID *Loader[string, []store.Post]
	// ProfileByUserID loads the profile of a user, nil if it has none.
	ProfileByUserID *Loader[string, *store.Profile]
	// MemberTypeByID loads a member type, nil if it does not exist.
	MemberTypeByID *Loader[string, *store.MemberType]
	// UserByID loads a user, nil if it does not exist.
	UserByID *Loader[string, *store.User]
	// SubscribersOf loads the users subscribed to a user.
	SubscribersOf *Loader[string, []store.User]

	all []dispatcher
}

// NewLoaders returns a fresh loader set reading from s.
func NewLoaders(s *store.Store) *Loaders {
	ls := &Loaders{
		PostsByUserID:   New("posts_by_user", postsByUserID(s)),
		ProfileByUserID: New("profile_by_user", profileByUserID(s)),
		MemberTypeByID:  New("member_type", memberTypeByID(s)),
		UserByID:        New("user", userByID(s)),
		SubscribersOf:   New("subscribers", subscribersOf(s)),
	}
	ls.all = []dispatcher{
		ls.PostsByUserID, ls.ProfileByUserID, ls.MemberTypeByID, ls.UserByID, ls.SubscribersOf,
	}
	return ls
}

// Pending returns the number of keys queued across all loaders.
func (ls *Loaders) Pending() int {
	n := 0
	for _, l := range ls.all {
		n += l.Pending()
	}
	return n
}

// Dispatch dispatches every loader with queued keys, each in its own
// goroutine, and waits for all of them. Failures are delivered through the
// thunks of the failed batch and do not stop the other loaders.
func (ls *Loaders) Dispatch(ctx context.Context) {
	var g errgroup.Group
	for _, l := range ls.all {
		if l.Pending() == 0 {
			continue
		}
		l := l
		g.Go(func() error {
			l.Dispatch(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

// Clear drops the settled results of every loader.
func (ls *Loaders) Clear() {
	for _, l := range ls.all {
		l.Clear()
	}
}

// Stats returns the stats of every loader, by loader name.
func (ls *Loaders) Stats() map[string]Stats {
	out := make(map[string]Stats, len(ls.all))
	for _, l := range ls.all {
		out[l.Name()] = l.Stats()
	}
	return out
}

func postsByUserID(s *store.Store) BatchFunc[string, []store.Post] {
	return func(ctx context.Context, userIDs []string) ([][]store.Post, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		posts := s.Posts().FindMany(store.In("userId", userIDs))

		byUser := make(map[string][]store.Post, len(userIDs))
		for _, p := range posts {
			byUser[p.UserID] = append(byUser[p.UserID], p)
		}
		out := make([][]store.Post, len(userIDs))
		for i, id := range userIDs {
			if out[i] = byUser[id]; out[i] == nil {
				out[i] = []store.Post{}
			}
		}
		return out, nil
	}
}

func profileByUserID(s *store.Store) BatchFunc[string, *store.Profile] {
	return func(ctx context.Context, userIDs []string) ([]*store.Profile, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		profiles := s.Profiles().FindMany(store.In("userId", userIDs))
		return alignOne(userIDs, profiles, func(p store.Profile) string { return p.UserID }), nil
	}
}

func memberTypeByID(s *store.Store) BatchFunc[string, *store.MemberType] {
	return func(ctx context.Context, ids []string) ([]*store.MemberType, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mts := s.MemberTypes().FindMany(store.In("id", ids))
		return alignOne(ids, mts, store.MemberType.Key), nil
	}
}

func userByID(s *store.Store) BatchFunc[string, *store.User] {
	return func(ctx context.Context, ids []string) ([]*store.User, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		users := s.Users().FindMany(store.In("id", ids))
		return alignOne(ids, users, store.User.Key), nil
	}
}

func subscribersOf(s *store.Store) BatchFunc[string, []store.User] {
	return func(ctx context.Context, ids []string) ([][]store.User, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		users := s.Users().FindMany(store.Overlaps("subscribedToUserIds", ids))

		wanted := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			wanted[id] = struct{}{}
		}
		byTarget := make(map[string][]store.User, len(ids))
		for _, u := range users {
			for _, target := range u.SubscribedToUserIDs {
				if _, ok := wanted[target]; ok {
					byTarget[target] = append(byTarget[target], u)
				}
			}
		}
		out := make([][]store.User, len(ids))
		for i, id := range ids {
			if out[i] = byTarget[id]; out[i] == nil {
				out[i] = []store.User{}
			}
		}
		return out, nil
	}
}

// alignOne returns, for each key, a pointer to the first record whose key
// field equals it, or nil.
func alignOne[T any](keys []string, recs []T, keyOf func(T) string) []*T {
	first := make(map[string]int, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		first[keyOf(recs[i])] = i
	}
	out := make([]*T, len(keys))
	for i, k := range keys {
		if j, ok := first[k]; ok {
			rec := recs[j]
			out[i] = &rec
		}
	}
	return out
}
