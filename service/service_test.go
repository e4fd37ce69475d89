/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hypermodeinc/usergraph/store"
)

func strp(s string) *string { return &s }

func newUser(t *testing.T, svc *Service, name string) store.User {
	u, err := svc.CreateUser(store.User{FirstName: name, LastName: name, Email: name + "@example.com"})
	require.NoError(t, err)
	return u
}

func TestCreateUserStartsWithoutSubscriptions(t *testing.T) {
	svc := New(store.New())

	u, err := svc.CreateUser(store.User{FirstName: "a", SubscribedToUserIDs: []string{"x"}})
	require.NoError(t, err)
	require.Equal(t, []string{}, u.SubscribedToUserIDs)
}

func TestDeleteUserCascades(t *testing.T) {
	svc := New(store.New())
	s := svc.Store()

	u1 := newUser(t, svc, "u1")
	u2 := newUser(t, svc, "u2")
	u3 := newUser(t, svc, "u3")

	p1, err := svc.CreatePost(store.Post{Title: "p1", UserID: u1.ID})
	require.NoError(t, err)
	p2, err := svc.CreatePost(store.Post{Title: "p2", UserID: u1.ID})
	require.NoError(t, err)
	p3, err := svc.CreatePost(store.Post{Title: "p3", UserID: u2.ID})
	require.NoError(t, err)
	pr1, err := svc.CreateProfile(store.Profile{UserID: u1.ID, MemberTypeID: "basic"})
	require.NoError(t, err)
	pr2, err := svc.CreateProfile(store.Profile{UserID: u2.ID, MemberTypeID: "business"})
	require.NoError(t, err)

	_, err = svc.SubscribeTo(u2.ID, u3.ID)
	require.NoError(t, err)
	_, err = svc.SubscribeTo(u2.ID, u1.ID)
	require.NoError(t, err)
	_, err = svc.SubscribeTo(u1.ID, u3.ID)
	require.NoError(t, err)

	deleted, err := svc.DeleteUser(u1.ID)
	require.NoError(t, err)
	require.Equal(t, u1.ID, deleted.ID)

	_, ok := s.Users().FindOne(store.ByID(u1.ID))
	require.False(t, ok)
	require.Equal(t, []store.Post{p3}, s.Posts().FindMany())
	for _, p := range s.Posts().FindMany() {
		require.NotContains(t, []string{p1.ID, p2.ID}, p.ID)
	}
	require.Equal(t, []store.Profile{pr2}, s.Profiles().FindMany())
	_, ok = s.Profiles().FindOne(store.ByID(pr1.ID))
	require.False(t, ok)

	got, err := s.Users().Get(u2.ID)
	require.NoError(t, err)
	require.Equal(t, []string{u3.ID}, got.SubscribedToUserIDs)

	_, err = svc.DeleteUser(u1.ID)
	require.True(t, errors.Is(err, store.ErrNotFound))
}

func TestProfileUniquenessPerUser(t *testing.T) {
	svc := New(store.New())
	u := newUser(t, svc, "u")

	first, err := svc.CreateProfile(store.Profile{UserID: u.ID, MemberTypeID: "basic", City: "Minsk"})
	require.NoError(t, err)
	before := svc.Store().Profiles().FindMany()

	_, err = svc.CreateProfile(store.Profile{UserID: u.ID, MemberTypeID: "business"})
	require.True(t, errors.Is(err, ErrIntegrity))
	require.EqualError(t, err, "user "+u.ID+" already has a profile")
	require.Equal(t, before, svc.Store().Profiles().FindMany())
	require.Equal(t, []store.Profile{first}, before)
}

func TestCreateChecksReferences(t *testing.T) {
	svc := New(store.New())
	u := newUser(t, svc, "u")

	_, err := svc.CreatePost(store.Post{Title: "t", UserID: "missing"})
	require.True(t, errors.Is(err, ErrIntegrity))

	_, err = svc.CreateProfile(store.Profile{UserID: "missing", MemberTypeID: "basic"})
	require.True(t, errors.Is(err, ErrIntegrity))

	_, err = svc.CreateProfile(store.Profile{UserID: u.ID, MemberTypeID: "gold"})
	require.True(t, errors.Is(err, ErrIntegrity))
	require.EqualError(t, err, "MemberType with id gold does not exist")

	require.Equal(t, 0, svc.Store().Posts().Len())
	require.Equal(t, 0, svc.Store().Profiles().Len())
}

func TestUpdateProfileChecksMemberType(t *testing.T) {
	svc := New(store.New())
	u := newUser(t, svc, "u")
	pr, err := svc.CreateProfile(store.Profile{UserID: u.ID, MemberTypeID: "basic"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(pr.ID, store.ProfilePatch{MemberTypeID: strp("gold")})
	require.True(t, errors.Is(err, ErrIntegrity))

	updated, err := svc.UpdateProfile(pr.ID, store.ProfilePatch{MemberTypeID: strp("business")})
	require.NoError(t, err)
	require.Equal(t, "business", updated.MemberTypeID)

	_, err = svc.UpdateProfile("missing", store.ProfilePatch{City: strp("x")})
	require.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSubscriptions(t *testing.T) {
	svc := New(store.New())
	a := newUser(t, svc, "a")
	b := newUser(t, svc, "b")
	c := newUser(t, svc, "c")

	got, err := svc.SubscribeTo(a.ID, b.ID)
	require.NoError(t, err)
	require.Equal(t, []string{b.ID}, got.SubscribedToUserIDs)
	got, err = svc.SubscribeTo(a.ID, c.ID)
	require.NoError(t, err)
	require.Equal(t, []string{b.ID, c.ID}, got.SubscribedToUserIDs)

	_, err = svc.SubscribeTo(a.ID, b.ID)
	require.True(t, errors.Is(err, ErrIntegrity))
	_, err = svc.SubscribeTo(a.ID, "missing")
	require.True(t, errors.Is(err, store.ErrNotFound))
	_, err = svc.SubscribeTo("missing", a.ID)
	require.True(t, errors.Is(err, store.ErrNotFound))

	got, err = svc.UnsubscribeFrom(a.ID, b.ID)
	require.NoError(t, err)
	require.Equal(t, []string{c.ID}, got.SubscribedToUserIDs)

	_, err = svc.UnsubscribeFrom(a.ID, b.ID)
	require.True(t, errors.Is(err, store.ErrNotFound))
	require.EqualError(t, err, "user "+a.ID+" is not subscribed to user "+b.ID)
}

func TestUpdateUserChecksSubscriptionList(t *testing.T) {
	svc := New(store.New())
	a := newUser(t, svc, "a")
	b := newUser(t, svc, "b")

	_, err := svc.UpdateUser(a.ID, store.UserPatch{SubscribedToUserIDs: []string{b.ID, b.ID}})
	require.True(t, errors.Is(err, ErrIntegrity))
	_, err = svc.UpdateUser(a.ID, store.UserPatch{SubscribedToUserIDs: []string{"missing"}})
	require.True(t, errors.Is(err, ErrIntegrity))

	got, err := svc.UpdateUser(a.ID, store.UserPatch{
		FirstName:           strp("A"),
		SubscribedToUserIDs: []string{b.ID},
	})
	require.NoError(t, err)
	require.Equal(t, "A", got.FirstName)
	require.Equal(t, []string{b.ID}, got.SubscribedToUserIDs)

	_, err = svc.UpdateUser("missing", store.UserPatch{FirstName: strp("x")})
	require.True(t, errors.Is(err, store.ErrNotFound))
}

func TestUpdateMemberType(t *testing.T) {
	svc := New(store.New())

	discount := 7
	mt, err := svc.UpdateMemberType("basic", store.MemberTypePatch{Discount: &discount})
	require.NoError(t, err)
	require.Equal(t, store.MemberType{ID: "basic", Discount: 7, MonthPostsLimit: 20}, mt)

	_, err = svc.UpdateMemberType("gold", store.MemberTypePatch{Discount: &discount})
	require.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSeed(t *testing.T) {
	svc := New(store.New())

	n, err := svc.Seed(context.Background(), 10, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Equal(t, 10, n)

	counts := svc.Store().Counts()
	require.Equal(t, 10, counts[store.KindUser])
	require.Equal(t, 20, counts[store.KindPost])
	require.Equal(t, 10, counts[store.KindProfile])
	for _, p := range svc.Store().Profiles().FindMany() {
		require.Contains(t, []string{"basic", "business"}, p.MemberTypeID)
	}
}

func TestSeedCancelled(t *testing.T) {
	svc := New(store.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Seed(ctx, 5, 2, rand.New(rand.NewSource(1)))
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 0, svc.Store().Users().Len())
}
