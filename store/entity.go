/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package store

import (
	"github.com/pkg/errors"
)

// Kind names, as they appear in error messages and metrics.
const (
	KindUser       = "User"
	KindPost       = "Post"
	KindProfile    = "Profile"
	KindMemberType = "MemberType"
)

// entity is implemented by the four record types. Methods have value
// receivers so a record held in a collection is never shared by pointer.
type entity[T any] interface {
	Key() string
	// Field returns the value of the field with the given GraphQL/JSON name.
	Field(name string) (interface{}, bool)

	kind() string
	withKey(id string) T
	clone() T
	validate() error
}

type User struct {
	ID                  string   `json:"id"`
	FirstName           string   `json:"firstName"`
	LastName            string   `json:"lastName"`
	Email               string   `json:"email"`
	SubscribedToUserIDs []string `json:"subscribedToUserIds"`
}

func (u User) Key() string  { return u.ID }
func (u User) kind() string { return KindUser }

func (u User) Field(name string) (interface{}, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "firstName":
		return u.FirstName, true
	case "lastName":
		return u.LastName, true
	case "email":
		return u.Email, true
	case "subscribedToUserIds":
		return u.SubscribedToUserIDs, true
	}
	return nil, false
}

func (u User) withKey(id string) User {
	u.ID = id
	return u
}

func (u User) clone() User {
	ids := make([]string, len(u.SubscribedToUserIDs))
	copy(ids, u.SubscribedToUserIDs)
	u.SubscribedToUserIDs = ids
	return u
}

func (u User) validate() error { return nil }

// SubscribedTo reports whether u is subscribed to the user with the given id.
func (u User) SubscribedTo(id string) bool {
	for _, sid := range u.SubscribedToUserIDs {
		if sid == id {
			return true
		}
	}
	return false
}

type Post struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  string `json:"userId"`
}

func (p Post) Key() string  { return p.ID }
func (p Post) kind() string { return KindPost }

func (p Post) Field(name string) (interface{}, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "title":
		return p.Title, true
	case "content":
		return p.Content, true
	case "userId":
		return p.UserID, true
	}
	return nil, false
}

func (p Post) withKey(id string) Post {
	p.ID = id
	return p
}

func (p Post) clone() Post { return p }

func (p Post) validate() error {
	if p.UserID == "" {
		return errors.Errorf("%s requires a userId", KindPost)
	}
	return nil
}

type Profile struct {
	ID           string  `json:"id"`
	Avatar       string  `json:"avatar"`
	Sex          string  `json:"sex"`
	Birthday     float64 `json:"birthday"`
	Country      string  `json:"country"`
	Street       string  `json:"street"`
	City         string  `json:"city"`
	MemberTypeID string  `json:"memberTypeId"`
	UserID       string  `json:"userId"`
}

func (p Profile) Key() string  { return p.ID }
func (p Profile) kind() string { return KindProfile }

func (p Profile) Field(name string) (interface{}, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "avatar":
		return p.Avatar, true
	case "sex":
		return p.Sex, true
	case "birthday":
		return p.Birthday, true
	case "country":
		return p.Country, true
	case "street":
		return p.Street, true
	case "city":
		return p.City, true
	case "memberTypeId":
		return p.MemberTypeID, true
	case "userId":
		return p.UserID, true
	}
	return nil, false
}

func (p Profile) withKey(id string) Profile {
	p.ID = id
	return p
}

func (p Profile) clone() Profile { return p }

func (p Profile) validate() error {
	switch {
	case p.UserID == "":
		return errors.Errorf("%s requires a userId", KindProfile)
	case p.MemberTypeID == "":
		return errors.Errorf("%s requires a memberTypeId", KindProfile)
	}
	return nil
}

type MemberType struct {
	ID              string `json:"id"`
	Discount        int    `json:"discount"`
	MonthPostsLimit int    `json:"monthPostsLimit"`
}

func (m MemberType) Key() string  { return m.ID }
func (m MemberType) kind() string { return KindMemberType }

func (m MemberType) Field(name string) (interface{}, bool) {
	switch name {
	case "id":
		return m.ID, true
	case "discount":
		return m.Discount, true
	case "monthPostsLimit":
		return m.MonthPostsLimit, true
	}
	return nil, false
}

// Member types keep the id they are created with.
func (m MemberType) withKey(id string) MemberType {
	if m.ID == "" {
		m.ID = id
	}
	return m
}

func (m MemberType) clone() MemberType { return m }

func (m MemberType) validate() error { return nil }
