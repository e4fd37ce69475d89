/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package api

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestPanicHandler(t *testing.T) {
	var trapped error
	func() {
		defer PanicHandler(func(err error) { trapped = err }, "{ users { id } }")
		panic("resolver exploded")
	}()

	require.Error(t, trapped)
	require.True(t, errors.Is(trapped, ErrPanic))
	require.Contains(t, trapped.Error(), "resolver exploded")
}

func TestPanicHandlerWithoutPanic(t *testing.T) {
	called := false
	func() {
		defer PanicHandler(func(error) { called = true }, "")
	}()
	require.False(t, called)
}

func TestRequestID(t *testing.T) {
	require.Empty(t, RequestID(context.Background()))

	ctx := WithRequestID(context.Background(), "r1")
	require.Equal(t, "r1", RequestID(ctx))

	ctx = WithRequestID(context.Background(), "")
	_, err := uuid.Parse(RequestID(ctx))
	require.NoError(t, err)
}
