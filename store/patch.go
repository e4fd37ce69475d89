/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package store

// A Patch is a partial record merged over an existing one by Change. Nil
// fields leave the stored value as it is; a non-nil slice replaces the stored
// slice wholesale.
type Patch[T any] interface {
	apply(T) T
}

type UserPatch struct {
	FirstName           *string  `json:"firstName"`
	LastName            *string  `json:"lastName"`
	Email               *string  `json:"email"`
	SubscribedToUserIDs []string `json:"subscribedToUserIds"`
}

func (p UserPatch) apply(u User) User {
	setString(&u.FirstName, p.FirstName)
	setString(&u.LastName, p.LastName)
	setString(&u.Email, p.Email)
	if p.SubscribedToUserIDs != nil {
		u.SubscribedToUserIDs = append([]string{}, p.SubscribedToUserIDs...)
	}
	return u
}

type PostPatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (p PostPatch) apply(post Post) Post {
	setString(&post.Title, p.Title)
	setString(&post.Content, p.Content)
	return post
}

type ProfilePatch struct {
	Avatar       *string  `json:"avatar"`
	Sex          *string  `json:"sex"`
	Birthday     *float64 `json:"birthday"`
	Country      *string  `json:"country"`
	Street       *string  `json:"street"`
	City         *string  `json:"city"`
	MemberTypeID *string  `json:"memberTypeId"`
}

func (p ProfilePatch) apply(pr Profile) Profile {
	setString(&pr.Avatar, p.Avatar)
	setString(&pr.Sex, p.Sex)
	if p.Birthday != nil {
		pr.Birthday = *p.Birthday
	}
	setString(&pr.Country, p.Country)
	setString(&pr.Street, p.Street)
	setString(&pr.City, p.City)
	setString(&pr.MemberTypeID, p.MemberTypeID)
	return pr
}

type MemberTypePatch struct {
	Discount        *int `json:"discount"`
	MonthPostsLimit *int `json:"monthPostsLimit"`
}

func (p MemberTypePatch) apply(m MemberType) MemberType {
	if p.Discount != nil {
		m.Discount = *p.Discount
	}
	if p.MonthPostsLimit != nil {
		m.MonthPostsLimit = *p.MonthPostsLimit
	}
	return m
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
