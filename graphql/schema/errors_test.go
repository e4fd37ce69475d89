/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"encoding/json"
	"testing"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/gqlerror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hypermodeinc/usergraph/x"
)

func TestAsGQLErrors(t *testing.T) {
	tests := map[string]struct {
		err  error
		resp string
	}{
		"plain error": {
			err:  errors.New("store is closed"),
			resp: `[{"message": "store is closed"}]`},
		"wrapped plain error": {
			err:  errors.Wrap(errors.New("store is closed"), "while deleting user u1"),
			resp: `[{"message": "while deleting user u1: store is closed"}]`},
		"x.GqlError": {
			err: x.GqlErrorf("User with id u1 does not exist").
				WithPath([]interface{}{"user"}).WithCode(x.ErrCodeNotFound),
			resp: `[{
				"message": "User with id u1 does not exist",
				"path": ["user"],
				"extensions": {"code": "NOT_FOUND"}}]`},
		"wrapped x.GqlError keeps location and code": {
			err: errors.Wrapf(x.GqlErrorf("'Deep' exceeds maximum operation depth of 6").
				WithLocations(x.Location{Line: 1, Column: 79}).
				WithCode(x.ErrCodeDepthExceeded), "while reading query"),
			resp: `[{
				"message": "while reading query: 'Deep' exceeds maximum operation depth of 6",
				"locations": [{"line": 1, "column": 79}],
				"extensions": {"code": "DEPTH_EXCEEDED"}}]`},
		"x.GqlErrorList": {
			err: x.GqlErrorList{
				x.GqlErrorf("first"),
				x.GqlErrorf("second").WithLocations(x.Location{Line: 2, Column: 3})},
			resp: `[
				{"message": "first"},
				{"message": "second", "locations": [{"line": 2, "column": 3}]}]`},
		"parser error": {
			err: &gqlerror.Error{
				Message:   `Cannot query field "nope" on type "User".`,
				Locations: []gqlerror.Location{{Line: 1, Column: 11}}},
			resp: `[{
				"message": "Cannot query field \"nope\" on type \"User\".",
				"locations": [{"line": 1, "column": 11}]}]`},
		"parser error with a path": {
			err: &gqlerror.Error{
				Message: "must be defined",
				Path:    ast.Path{ast.PathName("variable"), ast.PathName("id")}},
			resp: `[{"message": "must be defined", "path": ["variable", "id"]}]`},
		"wrapped parser error": {
			err: errors.Wrap(&gqlerror.Error{
				Message:   "Unexpected }",
				Locations: []gqlerror.Location{{Line: 1, Column: 3}}}, "while parsing"),
			resp: `[{
				"message": "while parsing: Unexpected }",
				"locations": [{"line": 1, "column": 3}]}]`},
		"parser error list": {
			err: gqlerror.List{
				gqlerror.Errorf("first"), gqlerror.Errorf("second")},
			resp: `[{"message": "first"}, {"message": "second"}]`},
	}

	for name, tcase := range tests {
		t.Run(name, func(t *testing.T) {
			b, err := json.Marshal(AsGQLErrors(tcase.err))
			require.NoError(t, err)
			require.JSONEq(t, tcase.resp, string(b))
		})
	}
}

func TestAsGQLErrorsLeavesTheCauseAlone(t *testing.T) {
	cause := x.GqlErrorf("User with id u1 does not exist")
	gqlErrs := AsGQLErrors(errors.Wrap(cause, "while resolving user"))

	require.Len(t, gqlErrs, 1)
	require.Equal(t, "while resolving user: User with id u1 does not exist", gqlErrs[0].Message)
	require.Equal(t, "User with id u1 does not exist", cause.Message)
}

func TestAsGQLErrorsNil(t *testing.T) {
	require.Nil(t, AsGQLErrors(nil))
}
