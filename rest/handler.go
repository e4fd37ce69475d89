/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package rest serves the users, posts, profiles and member types over plain
// JSON routes. Every write goes through the same service as the GraphQL
// mutations.
package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/hypermodeinc/usergraph/service"
	"github.com/hypermodeinc/usergraph/store"
)

// Handler delegates every route to a service.
type Handler struct {
	service *service.Service
}

func NewHandler(s *service.Service) *Handler {
	return &Handler{service: s}
}

// RegisterRoutes adds the routes of all four collections to r.
func (h *Handler) RegisterRoutes(r fiber.Router) {
	s := h.service.Store()

	users := r.Group("/users")
	users.Get("/", list(s.Users().FindMany))
	users.Get("/:id", byID(s.Users().Get))
	users.Post("/", create[createUserRequest](h.service.CreateUser))
	users.Patch("/:id", change(h.service.UpdateUser))
	users.Delete("/:id", h.deleteUser)
	users.Post("/:id/subscribeTo", subscription(h.service.SubscribeTo))
	users.Post("/:id/unsubscribeFrom", subscription(h.service.UnsubscribeFrom))

	posts := r.Group("/posts")
	posts.Get("/", list(s.Posts().FindMany))
	posts.Get("/:id", byID(s.Posts().Get))
	posts.Post("/", create[createPostRequest](h.service.CreatePost))
	posts.Patch("/:id", change(h.service.UpdatePost))
	posts.Delete("/:id", byID(h.service.DeletePost))

	profiles := r.Group("/profiles")
	profiles.Get("/", list(s.Profiles().FindMany))
	profiles.Get("/:id", byID(s.Profiles().Get))
	profiles.Post("/", create[createProfileRequest](h.service.CreateProfile))
	profiles.Patch("/:id", change(h.service.UpdateProfile))
	profiles.Delete("/:id", byID(h.service.DeleteProfile))

	memberTypes := r.Group("/member-types")
	memberTypes.Get("/", list(s.MemberTypes().FindMany))
	memberTypes.Get("/:id", byID(s.MemberTypes().Get))
	memberTypes.Patch("/:id", change(h.service.UpdateMemberType))
}

// deleteUser answers 400 for any failure other than a missing user.
func (h *Handler) deleteUser(c *fiber.Ctx) error {
	u, err := h.service.DeleteUser(c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, err)
		}
		glog.Errorf("Delete of user %s failed: %v", c.Params("id"), err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(u)
}

func list[T any](find func(...store.Filter) []T) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(find())
	}
}

// byID serves gets as well as deletes.
func byID[T any](fn func(id string) (T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := fn(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

func create[R request[T], T any](fn func(T) (T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req R
		if err := parse(c, &req); err != nil {
			return fail(c, err)
		}
		v, err := req.entity()
		if err != nil {
			return fail(c, err)
		}
		if v, err = fn(v); err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

func change[P, T any](fn func(id string, p P) (T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p P
		if err := parse(c, &p); err != nil {
			return fail(c, err)
		}
		v, err := fn(c.Params("id"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

func subscription(fn func(id, userID string) (store.User, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req subscriptionRequest
		if err := parse(c, &req); err != nil {
			return fail(c, err)
		}
		if req.UserID == "" {
			return fail(c, badRequestf("subscription requires userId"))
		}
		u, err := fn(c.Params("id"), req.UserID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}

func parse(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		return badRequestf("Not a valid request body: %v", err)
	}
	return nil
}

func status(err error) int {
	var reqErr *requestError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrIntegrity), errors.As(err, &reqErr):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	code := status(err)
	if code == fiber.StatusInternalServerError {
		glog.Errorf("%s %s failed: %v", c.Method(), c.Path(), err)
	} else if glog.V(2) {
		glog.Infof("%s %s: %d %v", c.Method(), c.Path(), code, err)
	}
	return c.Status(code).JSON(fiber.Map{"message": err.Error()})
}
