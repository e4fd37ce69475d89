/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGqlErrorJSON(t *testing.T) {
	gqlErr := GqlErrorf("User with id %s does not exist", "u9").
		WithLocations(Location{Line: 2, Column: 3}).
		WithPath([]interface{}{"users", 0, "profile"}).
		WithCode(ErrCodeNotFound)

	b, err := json.Marshal(gqlErr)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"message": "User with id u9 does not exist",
		"locations": [{"line": 2, "column": 3}],
		"path": ["users", 0, "profile"],
		"extensions": {"code": "NOT_FOUND"}
	}`, string(b))
	require.Equal(t, ErrCodeNotFound, gqlErr.Code())
}

func TestGqlErrorWithoutCode(t *testing.T) {
	gqlErr := GqlErrorf("plain").WithCode("")
	require.Nil(t, gqlErr.Extensions)
	require.Equal(t, "", gqlErr.Code())

	b, err := json.Marshal(gqlErr)
	require.NoError(t, err)
	require.JSONEq(t, `{"message": "plain"}`, string(b))
}

func TestNilGqlError(t *testing.T) {
	var gqlErr *GqlError
	require.Nil(t, gqlErr.WithLocations(Location{Line: 1}))
	require.Nil(t, gqlErr.WithPath([]interface{}{"a"}))
	require.Nil(t, gqlErr.WithCode(ErrCodeInternal))
	require.Equal(t, "", gqlErr.Code())
	require.Equal(t, "", gqlErr.Error())
}

func TestGqlErrorListError(t *testing.T) {
	errs := GqlErrorList{
		GqlErrorf("first").WithLocations(Location{Line: 1, Column: 2}, Location{Line: 3, Column: 4}),
		GqlErrorf("second"),
	}
	require.Equal(t,
		"first (Locations: [{Line: 1, Column: 2}, {Line: 3, Column: 4}])\nsecond",
		errs.Error())
}
