/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/hypermodeinc/usergraph/store"
)

// Mutations go straight to the service, never through loaders. Each returns a
// payload object keyed by the payload type's single field.
func mutationResolvers() map[string]FieldResolver {
	return map[string]FieldResolver{
		"Mutation.userCreate": func(_ context.Context, p ResolveParams) (interface{}, error) {
			in := input(p)
			u := store.User{
				FirstName: cast.ToString(in["firstName"]),
				LastName:  cast.ToString(in["lastName"]),
				Email:     cast.ToString(in["email"]),
			}
			return payload[store.User]("user")(p.Deps.Service.CreateUser(u))
		},
		"Mutation.userUpdate": func(_ context.Context, p ResolveParams) (interface{}, error) {
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			var patch store.UserPatch
			if err := coerceInput(input(p), fieldCoercions{
				"firstName":           optString(&patch.FirstName),
				"lastName":            optString(&patch.LastName),
				"email":               optString(&patch.Email),
				"subscribedToUserIds": optStrings(&patch.SubscribedToUserIDs),
			}); err != nil {
				return nil, err
			}
			return payload[store.User]("user")(p.Deps.Service.UpdateUser(id, patch))
		},
		"Mutation.userDelete": func(_ context.Context, p ResolveParams) (interface{}, error) {
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			return payload[store.User]("user")(p.Deps.Service.DeleteUser(id))
		},

		"Mutation.postCreate": func(_ context.Context, p ResolveParams) (interface{}, error) {
			in := input(p)
			post := store.Post{
				Title:   cast.ToString(in["title"]),
				Content: cast.ToString(in["content"]),
				UserID:  cast.ToString(in["userId"]),
			}
			return payload[store.Post]("post")(p.Deps.Service.CreatePost(post))
		},
		"Mutation.postUpdate": func(_ context.Context, p ResolveParams) (interface{}, error) {
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			var patch store.PostPatch
			if err := coerceInput(input(p), fieldCoercions{
				"title":   optString(&patch.Title),
				"content": optString(&patch.Content),
			}); err != nil {
				return nil, err
			}
			return payload[store.Post]("post")(p.Deps.Service.UpdatePost(id, patch))
		},
		"Mutation.postDelete": func(_ context.Context, p ResolveParams) (interface{}, error) {
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			return payload[store.Post]("post")(p.Deps.Service.DeletePost(id))
		},

		"Mutation.profileCreate": func(_ context.Context, p ResolveParams) (interface{}, error) {
			in := input(p)
			birthday, err := cast.ToFloat64E(in["birthday"])
			if err != nil {
				return nil, errors.Wrap(err, "invalid value for birthday")
			}
			prof := store.Profile{
				Avatar:       cast.ToString(in["avatar"]),
				Sex:          cast.ToString(in["sex"]),
				Birthday:     birthday,
				Country:      cast.ToString(in["country"]),
				Street:       cast.ToString(in["street"]),
				City:         cast.ToString(in["city"]),
				MemberTypeID: cast.ToString(in["memberTypeId"]),
				UserID:       cast.ToString(in["userId"]),
			}
			return payload[store.Profile]("profile")(p.Deps.Service.CreateProfile(prof))
		},
		"Mutation.profileUpdate": func(_ context.Context, p ResolveParams) (interface{}, error) {
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			var patch store.ProfilePatch
			if err := coerceInput(input(p), fieldCoercions{
				"avatar":       optString(&patch.Avatar),
				"sex":          optString(&patch.Sex),
				"birthday":     optFloat(&patch.Birthday),
				"country":      optString(&patch.Country),
				"street":       optString(&patch.Street),
				"city":         optString(&patch.City),
				"memberTypeId": optString(&patch.MemberTypeID),
			}); err != nil {
				return nil, err
			}
			return payload[store.Profile]("profile")(p.Deps.Service.UpdateProfile(id, patch))
		},
		"Mutation.profileDelete": func(_ context.Context, p ResolveParams) (interface{}, error) {
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			return payload[store.Profile]("profile")(p.Deps.Service.DeleteProfile(id))
		},

		"Mutation.memberTypeUpdate": func(_ context.Context, p ResolveParams) (interface{}, error) {
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			var patch store.MemberTypePatch
			if err := coerceInput(input(p), fieldCoercions{
				"discount":        optInt(&patch.Discount),
				"monthPostsLimit": optInt(&patch.MonthPostsLimit),
			}); err != nil {
				return nil, err
			}
			return payload[store.MemberType]("memberType")(p.Deps.Service.UpdateMemberType(id, patch))
		},

		"Mutation.subscribeTo": func(_ context.Context, p ResolveParams) (interface{}, error) {
			id, userID, err := subscriptionArgs(p)
			if err != nil {
				return nil, err
			}
			return payload[store.User]("subscribeTo")(p.Deps.Service.SubscribeTo(id, userID))
		},
		"Mutation.unsubscribeFrom": func(_ context.Context, p ResolveParams) (interface{}, error) {
			id, userID, err := subscriptionArgs(p)
			if err != nil {
				return nil, err
			}
			return payload[store.User]("unsubscribeFrom")(p.Deps.Service.UnsubscribeFrom(id, userID))
		},
	}
}

// payload wraps the result of a service call into the payload object of a
// mutation.
func payload[T any](name string) func(T, error) (interface{}, error) {
	return func(v T, err error) (interface{}, error) {
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{name: v}, nil
	}
}

func input(p ResolveParams) map[string]interface{} {
	in, _ := p.Args["input"].(map[string]interface{})
	return in
}

func subscriptionArgs(p ResolveParams) (string, string, error) {
	id, err := idArg(p, "id")
	if err != nil {
		return "", "", err
	}
	userID, err := cast.ToStringE(input(p)["userId"])
	if err != nil {
		return "", "", errors.Wrap(err, "invalid value for userId")
	}
	return id, userID, nil
}

// fieldCoercions maps an input field to the function storing its value in a
// patch. Fields that are absent or null leave the patch untouched.
type fieldCoercions map[string]func(v interface{}) error

func coerceInput(in map[string]interface{}, fields fieldCoercions) error {
	for name, set := range fields {
		v, ok := in[name]
		if !ok || v == nil {
			continue
		}
		if err := set(v); err != nil {
			return errors.Wrapf(err, "invalid value for %s", name)
		}
	}
	return nil
}

func optString(dst **string) func(interface{}) error {
	return func(v interface{}) error {
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		*dst = &s
		return nil
	}
}

func optInt(dst **int) func(interface{}) error {
	return func(v interface{}) error {
		i, err := cast.ToIntE(v)
		if err != nil {
			return err
		}
		*dst = &i
		return nil
	}
}

func optFloat(dst **float64) func(interface{}) error {
	return func(v interface{}) error {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		*dst = &f
		return nil
	}
}

func optStrings(dst *[]string) func(interface{}) error {
	return func(v interface{}) error {
		ss, err := cast.ToStringSliceE(v)
		if err != nil {
			return err
		}
		if ss == nil {
			ss = []string{}
		}
		*dst = ss
		return nil
	}
}
