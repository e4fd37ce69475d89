/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package rest

import (
	"fmt"
	"strings"

	"github.com/hypermodeinc/usergraph/store"
)

// requestError is a malformed or incomplete request body.
type requestError struct {
	msg string
}

func badRequestf(format string, args ...interface{}) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func (e *requestError) Error() string {
	return e.msg
}

// A request is the body of a create route. Fields are pointers so that a
// missing field can be told apart from an empty one.
type request[T any] interface {
	entity() (T, error)
}

type createUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
}

func (r createUserRequest) entity() (store.User, error) {
	err := required(store.KindUser,
		field{"firstName", r.FirstName != nil},
		field{"lastName", r.LastName != nil},
		field{"email", r.Email != nil})
	if err != nil {
		return store.User{}, err
	}
	return store.User{FirstName: *r.FirstName, LastName: *r.LastName, Email: *r.Email}, nil
}

type createPostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	UserID  *string `json:"userId"`
}

func (r createPostRequest) entity() (store.Post, error) {
	err := required(store.KindPost,
		field{"title", r.Title != nil},
		field{"content", r.Content != nil},
		field{"userId", r.UserID != nil})
	if err != nil {
		return store.Post{}, err
	}
	return store.Post{Title: *r.Title, Content: *r.Content, UserID: *r.UserID}, nil
}

type createProfileRequest struct {
	Avatar       *string  `json:"avatar"`
	Sex          *string  `json:"sex"`
	Birthday     *float64 `json:"birthday"`
	Country      *string  `json:"country"`
	Street       *string  `json:"street"`
	City         *string  `json:"city"`
	MemberTypeID *string  `json:"memberTypeId"`
	UserID       *string  `json:"userId"`
}

func (r createProfileRequest) entity() (store.Profile, error) {
	err := required(store.KindProfile,
		field{"avatar", r.Avatar != nil},
		field{"sex", r.Sex != nil},
		field{"birthday", r.Birthday != nil},
		field{"country", r.Country != nil},
		field{"street", r.Street != nil},
		field{"city", r.City != nil},
		field{"memberTypeId", r.MemberTypeID != nil},
		field{"userId", r.UserID != nil})
	if err != nil {
		return store.Profile{}, err
	}
	return store.Profile{
		Avatar:       *r.Avatar,
		Sex:          *r.Sex,
		Birthday:     *r.Birthday,
		Country:      *r.Country,
		Street:       *r.Street,
		City:         *r.City,
		MemberTypeID: *r.MemberTypeID,
		UserID:       *r.UserID,
	}, nil
}

type subscriptionRequest struct {
	UserID string `json:"userId"`
}

type field struct {
	name string
	set  bool
}

func required(kind string, fields ...field) error {
	var missing []string
	for _, f := range fields {
		if !f.set {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return badRequestf("%s requires %s", kind, strings.Join(missing, ", "))
	}
	return nil
}
