/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package rest

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/hypermodeinc/usergraph/service"
	"github.com/hypermodeinc/usergraph/store"
)

// newApp serves a store holding Ann (id1) with a post (id3) and a basic
// profile (id4), and Bob (id2) with nothing. Fresh ids continue from id5.
func newApp(t *testing.T) *fiber.App {
	n := 0
	s := store.New(store.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}))
	svc := service.New(s)

	ann, err := svc.CreateUser(store.User{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"})
	require.NoError(t, err)
	_, err = svc.CreateUser(store.User{FirstName: "Bob", LastName: "Ray", Email: "bob@example.com"})
	require.NoError(t, err)
	_, err = svc.CreatePost(store.Post{Title: "Hello", Content: "first", UserID: ann.ID})
	require.NoError(t, err)
	_, err = svc.CreateProfile(store.Profile{City: "Auckland", MemberTypeID: "basic", UserID: ann.ID})
	require.NoError(t, err)

	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, string) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(b)
}

func TestRoutes(t *testing.T) {
	tcases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		resp   string
	}{
		{
			name: "list users", method: "GET", path: "/users", status: 200,
			resp: `[
				{"id": "id1", "firstName": "Ann", "lastName": "Lee", "email": "ann@example.com", "subscribedToUserIds": []},
				{"id": "id2", "firstName": "Bob", "lastName": "Ray", "email": "bob@example.com", "subscribedToUserIds": []}]`,
		},
		{
			name: "get missing user", method: "GET", path: "/users/nope", status: 404,
			resp: `{"message": "User with id nope does not exist"}`,
		},
		{
			name: "create user", method: "POST", path: "/users", status: 200,
			body: `{"firstName": "Cid", "lastName": "Ox", "email": "cid@example.com"}`,
			resp: `{"id": "id5", "firstName": "Cid", "lastName": "Ox", "email": "cid@example.com", "subscribedToUserIds": []}`,
		},
		{
			name: "create user with missing fields", method: "POST", path: "/users", status: 400,
			body: `{"firstName": "Cid"}`,
			resp: `{"message": "User requires lastName, email"}`,
		},
		{
			name: "patch user", method: "PATCH", path: "/users/id2", status: 200,
			body: `{"lastName": "Roe", "subscribedToUserIds": ["id1"]}`,
			resp: `{"id": "id2", "firstName": "Bob", "lastName": "Roe", "email": "bob@example.com", "subscribedToUserIds": ["id1"]}`,
		},
		{
			name: "patch user with unknown subscription", method: "PATCH", path: "/users/id2", status: 400,
			body: `{"subscribedToUserIds": ["nope"]}`,
			resp: `{"message": "subscribedToUserIds references user nope which does not exist"}`,
		},
		{
			name: "patch missing user", method: "PATCH", path: "/users/nope", status: 404,
			body: `{"lastName": "Roe"}`,
			resp: `{"message": "User with id nope does not exist"}`,
		},
		{
			name: "delete missing user", method: "DELETE", path: "/users/nope", status: 404,
			resp: `{"message": "User with id nope does not exist"}`,
		},
		{
			name: "subscribe", method: "POST", path: "/users/id2/subscribeTo", status: 200,
			body: `{"userId": "id1"}`,
			resp: `{"id": "id2", "firstName": "Bob", "lastName": "Ray", "email": "bob@example.com", "subscribedToUserIds": ["id1"]}`,
		},
		{
			name: "subscribe to missing user", method: "POST", path: "/users/id2/subscribeTo", status: 404,
			body: `{"userId": "nope"}`,
			resp: `{"message": "User with id nope does not exist"}`,
		},
		{
			name: "subscribe without user", method: "POST", path: "/users/id2/subscribeTo", status: 400,
			body: `{}`,
			resp: `{"message": "subscription requires userId"}`,
		},
		{
			name: "unsubscribe when not subscribed", method: "POST", path: "/users/id2/unsubscribeFrom", status: 404,
			body: `{"userId": "id1"}`,
			resp: `{"message": "user id2 is not subscribed to user id1"}`,
		},
		{
			name: "get post", method: "GET", path: "/posts/id3", status: 200,
			resp: `{"id": "id3", "title": "Hello", "content": "first", "userId": "id1"}`,
		},
		{
			name: "create post for missing user", method: "POST", path: "/posts", status: 400,
			body: `{"title": "t", "content": "c", "userId": "nope"}`,
			resp: `{"message": "User with id nope does not exist"}`,
		},
		{
			name: "patch post", method: "PATCH", path: "/posts/id3", status: 200,
			body: `{"title": "Changed"}`,
			resp: `{"id": "id3", "title": "Changed", "content": "first", "userId": "id1"}`,
		},
		{
			name: "delete post", method: "DELETE", path: "/posts/id3", status: 200,
			resp: `{"id": "id3", "title": "Hello", "content": "first", "userId": "id1"}`,
		},
		{
			name: "create profile", method: "POST", path: "/profiles", status: 200,
			body: `{"avatar": "b.png", "sex": "m", "birthday": 1000, "country": "DE", "street": "Main",
				"city": "Berlin", "memberTypeId": "business", "userId": "id2"}`,
			resp: `{"id": "id5", "avatar": "b.png", "sex": "m", "birthday": 1000, "country": "DE", "street": "Main",
				"city": "Berlin", "memberTypeId": "business", "userId": "id2"}`,
		},
		{
			name: "second profile for a user", method: "POST", path: "/profiles", status: 400,
			body: `{"avatar": "a", "sex": "f", "birthday": 1, "country": "NZ", "street": "x",
				"city": "y", "memberTypeId": "basic", "userId": "id1"}`,
			resp: `{"message": "user id1 already has a profile"}`,
		},
		{
			name: "profile with unknown member type", method: "PATCH", path: "/profiles/id4", status: 400,
			body: `{"memberTypeId": "gold"}`,
			resp: `{"message": "MemberType with id gold does not exist"}`,
		},
		{
			name: "delete missing profile", method: "DELETE", path: "/profiles/nope", status: 404,
			resp: `{"message": "Profile with id nope does not exist"}`,
		},
		{
			name: "list member types", method: "GET", path: "/member-types", status: 200,
			resp: `[{"id": "basic", "discount": 0, "monthPostsLimit": 20},
				{"id": "business", "discount": 5, "monthPostsLimit": 100}]`,
		},
		{
			name: "patch member type", method: "PATCH", path: "/member-types/basic", status: 200,
			body: `{"discount": 3}`,
			resp: `{"id": "basic", "discount": 3, "monthPostsLimit": 20}`,
		},
		{
			name: "get missing member type", method: "GET", path: "/member-types/gold", status: 404,
			resp: `{"message": "MemberType with id gold does not exist"}`,
		},
	}

	for _, tcase := range tcases {
		t.Run(tcase.name, func(t *testing.T) {
			status, body := do(t, newApp(t), tcase.method, tcase.path, tcase.body)
			require.Equal(t, tcase.status, status, body)
			require.JSONEq(t, tcase.resp, body)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	status, body := do(t, newApp(t), "POST", "/users", `{"firstName": `)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Contains(t, body, "Not a valid request body")
}

func TestDeleteUserCascades(t *testing.T) {
	app := newApp(t)

	status, _ := do(t, app, "POST", "/users/id2/subscribeTo", `{"userId": "id1"}`)
	require.Equal(t, fiber.StatusOK, status)

	status, body := do(t, app, "DELETE", "/users/id1", "")
	require.Equal(t, fiber.StatusOK, status, body)
	require.JSONEq(t, `{"id": "id1", "firstName": "Ann", "lastName": "Lee",
		"email": "ann@example.com", "subscribedToUserIds": []}`, body)

	for path, want := range map[string]string{
		"/posts":     `[]`,
		"/profiles":  `[]`,
		"/users/id2": `{"id": "id2", "firstName": "Bob", "lastName": "Ray", "email": "bob@example.com", "subscribedToUserIds": []}`,
	} {
		status, body := do(t, app, "GET", path, "")
		require.Equal(t, fiber.StatusOK, status, path)
		require.JSONEq(t, want, body, path)
	}

	status, _ = do(t, app, "DELETE", "/users/id1", "")
	require.Equal(t, fiber.StatusNotFound, status)
}
