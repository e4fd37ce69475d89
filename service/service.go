/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package service holds every write the GraphQL and REST surfaces can make.
// Each method runs as a single store transaction: references are checked
// before anything is written, and multi-record changes such as the cascade on
// user deletion are applied atomically.
package service

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/hypermodeinc/usergraph/store"
)

// Service performs validated writes against a store.
type Service struct {
	store *store.Store
}

// New returns a Service writing to s.
func New(s *store.Store) *Service {
	return &Service{store: s}
}

// Store returns the underlying store, for reads.
func (s *Service) Store() *store.Store {
	return s.store
}

// CreateUser stores a new user. A new user starts with no subscriptions.
func (s *Service) CreateUser(u store.User) (store.User, error) {
	u.SubscribedToUserIDs = []string{}
	return s.store.Users().Create(u)
}

// UpdateUser merges p over the user with the given id. A replacement
// subscription list must only name existing users, each at most once.
func (s *Service) UpdateUser(id string, p store.UserPatch) (out store.User, err error) {
	err = s.store.Update(func(txn *store.Txn) error {
		if p.SubscribedToUserIDs != nil {
			if err := checkSubscriptions(txn, p.SubscribedToUserIDs); err != nil {
				return err
			}
		}
		out, err = txn.Users().Change(id, p)
		return err
	})
	return
}

func checkSubscriptions(txn *store.Txn, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, sid := range ids {
		if _, dup := seen[sid]; dup {
			return integrityf("subscribedToUserIds lists user %s more than once", sid)
		}
		seen[sid] = struct{}{}
		if _, ok := txn.Users().FindOne(store.ByID(sid)); !ok {
			return integrityf("subscribedToUserIds references user %s which does not exist", sid)
		}
	}
	return nil
}

// DeleteUser deletes the user with the given id together with everything that
// refers to it: the id is removed from every other user's subscriptions, and
// the user's posts and profile are deleted. The whole cascade is planned
// before the first write and applied in one transaction.
func (s *Service) DeleteUser(id string) (out store.User, err error) {
	err = s.store.Update(func(txn *store.Txn) error {
		user, err := txn.Users().Get(id)
		if err != nil {
			return err
		}

		subscribers := txn.Users().FindMany(store.Contains("subscribedToUserIds", id))
		posts := txn.Posts().FindMany(store.Eq("userId", id))
		profiles := txn.Profiles().FindMany(store.Eq("userId", id))

		for _, sub := range subscribers {
			if sub.ID == id {
				continue
			}
			if _, err := txn.Users().Change(sub.ID, store.UserPatch{
				SubscribedToUserIDs: without(sub.SubscribedToUserIDs, id),
			}); err != nil {
				return errors.Wrapf(err, "cascade delete of user %s", id)
			}
		}
		for _, p := range posts {
			if _, err := txn.Posts().Delete(p.ID); err != nil {
				return errors.Wrapf(err, "cascade delete of user %s", id)
			}
		}
		for _, p := range profiles {
			if _, err := txn.Profiles().Delete(p.ID); err != nil {
				return errors.Wrapf(err, "cascade delete of user %s", id)
			}
		}
		if _, err := txn.Users().Delete(id); err != nil {
			return errors.Wrapf(err, "cascade delete of user %s", id)
		}

		glog.V(2).Infof("Deleted user %s: %d subscriptions removed, %d posts, %d profiles",
			id, len(subscribers), len(posts), len(profiles))
		out = user
		return nil
	})
	return
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, sid := range ids {
		if sid != id {
			out = append(out, sid)
		}
	}
	return out
}

// SubscribeTo makes the user with the given id subscribe to the user with id
// userID, and returns the subscribing user.
func (s *Service) SubscribeTo(id, userID string) (out store.User, err error) {
	err = s.store.Update(func(txn *store.Txn) error {
		subscriber, target, err := subscriptionPair(txn, id, userID)
		if err != nil {
			return err
		}
		if subscriber.SubscribedTo(target.ID) {
			return integrityf("user %s is already subscribed to user %s", id, userID)
		}

		out, err = txn.Users().Change(id, store.UserPatch{
			SubscribedToUserIDs: append(subscriber.SubscribedToUserIDs, userID),
		})
		return err
	})
	return
}

// UnsubscribeFrom removes userID from the subscriptions of the user with the
// given id, and returns that user.
func (s *Service) UnsubscribeFrom(id, userID string) (out store.User, err error) {
	err = s.store.Update(func(txn *store.Txn) error {
		subscriber, _, err := subscriptionPair(txn, id, userID)
		if err != nil {
			return err
		}
		if !subscriber.SubscribedTo(userID) {
			return store.NotFoundf("user %s is not subscribed to user %s", id, userID)
		}

		out, err = txn.Users().Change(id, store.UserPatch{
			SubscribedToUserIDs: without(subscriber.SubscribedToUserIDs, userID),
		})
		return err
	})
	return
}

func subscriptionPair(txn *store.Txn, id, userID string) (store.User, store.User, error) {
	subscriber, err := txn.Users().Get(id)
	if err != nil {
		return subscriber, store.User{}, err
	}
	target, err := txn.Users().Get(userID)
	return subscriber, target, err
}

// CreatePost stores a new post for an existing user.
func (s *Service) CreatePost(p store.Post) (out store.Post, err error) {
	err = s.store.Update(func(txn *store.Txn) error {
		if err := requireUser(txn, p.UserID); err != nil {
			return err
		}
		out, err = txn.Posts().Create(p)
		return err
	})
	return
}

func (s *Service) UpdatePost(id string, p store.PostPatch) (store.Post, error) {
	return s.store.Posts().Change(id, p)
}

func (s *Service) DeletePost(id string) (store.Post, error) {
	return s.store.Posts().Delete(id)
}

// CreateProfile stores a profile for an existing user that has none yet,
// referencing an existing member type.
func (s *Service) CreateProfile(p store.Profile) (out store.Profile, err error) {
	err = s.store.Update(func(txn *store.Txn) error {
		if err := requireUser(txn, p.UserID); err != nil {
			return err
		}
		if err := requireMemberType(txn, p.MemberTypeID); err != nil {
			return err
		}
		if _, exists := txn.Profiles().FindOne(store.Eq("userId", p.UserID)); exists {
			return integrityf("user %s already has a profile", p.UserID)
		}
		out, err = txn.Profiles().Create(p)
		return err
	})
	return
}

// UpdateProfile merges p over the profile with the given id. A changed member
// type must exist.
func (s *Service) UpdateProfile(id string, p store.ProfilePatch) (out store.Profile, err error) {
	err = s.store.Update(func(txn *store.Txn) error {
		if p.MemberTypeID != nil {
			if err := requireMemberType(txn, *p.MemberTypeID); err != nil {
				return err
			}
		}
		out, err = txn.Profiles().Change(id, p)
		return err
	})
	return
}

func (s *Service) DeleteProfile(id string) (store.Profile, error) {
	return s.store.Profiles().Delete(id)
}

// UpdateMemberType changes the discount or post limit of a member type. Member
// types are a fixed catalog; they are never created or deleted.
func (s *Service) UpdateMemberType(id string, p store.MemberTypePatch) (store.MemberType, error) {
	return s.store.MemberTypes().Change(id, p)
}

func requireUser(txn *store.Txn, id string) error {
	if _, ok := txn.Users().FindOne(store.ByID(id)); !ok {
		return integrityf("User with id %s does not exist", id)
	}
	return nil
}

func requireMemberType(txn *store.Txn, id string) error {
	if _, ok := txn.MemberTypes().FindOne(store.ByID(id)); !ok {
		return integrityf("MemberType with id %s does not exist", id)
	}
	return nil
}
