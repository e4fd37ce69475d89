/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package serve

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/hypermodeinc/usergraph/service"
	"github.com/hypermodeinc/usergraph/store"
)

func newConf(t *testing.T, values map[string]string) {
	conf := viper.New()
	require.NoError(t, conf.BindPFlags(Serve.Cmd.Flags()))
	for k, v := range values {
		conf.Set(k, v)
	}
	old := Serve.Conf
	Serve.Conf = conf
	t.Cleanup(func() { Serve.Conf = old })
}

func get(t *testing.T, app *fiber.App, method, path, body string) (int, string) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(b)
}

func TestParseOptions(t *testing.T) {
	newConf(t, map[string]string{
		"graphql":    "max-depth=3; debug=true",
		"body_limit": "1KB",
	})
	opts, err := parseOptions()
	require.NoError(t, err)
	require.Equal(t, options{maxDepth: 3, playground: true, debug: true, bodyLimit: 1000}, opts)
}

func TestParseOptionsDefaults(t *testing.T) {
	newConf(t, nil)
	opts, err := parseOptions()
	require.NoError(t, err)
	require.Equal(t, options{maxDepth: 6, playground: true, bodyLimit: 4000000}, opts)
}

func TestParseOptionsErrors(t *testing.T) {
	newConf(t, map[string]string{"body_limit": "lots"})
	_, err := parseOptions()
	require.Error(t, err)
	require.Contains(t, err.Error(), "while parsing --body_limit")

	newConf(t, map[string]string{"graphql": "max-depth=0"})
	_, err = parseOptions()
	require.EqualError(t, err, "max-depth must be positive, got 0")
}

func TestSeed(t *testing.T) {
	newConf(t, map[string]string{"seed": "users=4; posts=3; rand-seed=7"})
	svc := service.New(store.New())
	require.NoError(t, seed(context.Background(), svc))
	require.Equal(t, 4, svc.Store().Users().Len())
	require.Equal(t, 12, svc.Store().Posts().Len())
	require.Equal(t, 4, svc.Store().Profiles().Len())
}

func TestSeedDisabledByDefault(t *testing.T) {
	newConf(t, nil)
	svc := service.New(store.New())
	require.NoError(t, seed(context.Background(), svc))
	require.Zero(t, svc.Store().Users().Len())
}

func TestRoutes(t *testing.T) {
	svc := service.New(store.New())
	_, err := svc.CreateUser(store.User{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"})
	require.NoError(t, err)

	app, err := newApp(svc, options{maxDepth: 1, playground: true, bodyLimit: 1 << 20})
	require.NoError(t, err)

	status, body := get(t, app, "POST", "/graphql", `{"query": "{ users { firstName } }"}`)
	require.Equal(t, fiber.StatusOK, status)
	require.JSONEq(t, `{"data": {"users": [{"firstName": "Ann"}]}}`, body)

	status, body = get(t, app, "POST", "/graphql", `{"query": "{ users { posts { title } } }"}`)
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, body, "exceeds maximum operation depth of 1")

	status, body = get(t, app, "GET", "/users", "")
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, body, `"firstName":"Ann"`)

	status, body = get(t, app, "GET", "/playground", "")
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, body, "usergraph")

	status, body = get(t, app, "GET", "/debug/prometheus_metrics", "")
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, body, "go_goroutines")
}

func TestPlaygroundCanBeDisabled(t *testing.T) {
	app, err := newApp(service.New(store.New()), options{maxDepth: 6})
	require.NoError(t, err)

	status, _ := get(t, app, "GET", "/playground", "")
	require.Equal(t, fiber.StatusNotFound, status)
}
