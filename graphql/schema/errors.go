/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"strings"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/gqlerror"
	"github.com/pkg/errors"

	"github.com/hypermodeinc/usergraph/x"
)

// AsGQLErrors formats err as the errors of a response. A nil err gives nil.
//
// GraphQL errors from gqlparser or x are found anywhere in the chain of err,
// so wrapping one with errors.Wrap keeps its locations, path and code. The
// wrapping context is prefixed to the message. Anything else becomes a single
// error carrying only err.Error().
func AsGQLErrors(err error) x.GqlErrorList {
	if err == nil {
		return nil
	}

	var (
		list       x.GqlErrorList
		parserList gqlerror.List
		gqlErr     *x.GqlError
		parserErr  *gqlerror.Error
	)
	switch {
	case errors.As(err, &list):
		return list
	case errors.As(err, &parserList):
		result := make(x.GqlErrorList, 0, len(parserList))
		for _, e := range parserList {
			result = append(result, fromParser(e))
		}
		return result
	case errors.As(err, &gqlErr):
		return x.GqlErrorList{withContext(err, gqlErr, gqlErr)}
	case errors.As(err, &parserErr):
		return x.GqlErrorList{withContext(err, parserErr, fromParser(parserErr))}
	}
	return x.GqlErrorList{{Message: err.Error()}}
}

// withContext returns gqlErr with the text err adds around cause put in front
// of its message. gqlErr is returned untouched when err is cause itself.
func withContext(err, cause error, gqlErr *x.GqlError) *x.GqlError {
	if err == cause {
		return gqlErr
	}
	prefix, ok := strings.CutSuffix(err.Error(), cause.Error())
	if !ok || prefix == "" {
		return gqlErr
	}
	out := *gqlErr
	out.Message = prefix + gqlErr.Message
	return &out
}

func fromParser(err *gqlerror.Error) *x.GqlError {
	gqlErr := &x.GqlError{Message: err.Message, Path: pathOf(err.Path)}
	for _, loc := range err.Locations {
		gqlErr.Locations = append(gqlErr.Locations, x.Location{Line: loc.Line, Column: loc.Column})
	}
	return gqlErr
}

func pathOf(path ast.Path) []interface{} {
	if len(path) == 0 {
		return nil
	}
	result := make([]interface{}, 0, len(path))
	for _, p := range path {
		result = append(result, p)
	}
	return result
}
