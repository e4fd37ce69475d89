/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package api

import (
	"fmt"
	"runtime/debug"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ErrPanic is matched, through errors.Is, by the error PanicHandler reports.
var ErrPanic = errors.New("a panic was trapped")

// PanicHandler catches panics to make sure that we recover from panics during
// GraphQL request execution and return an appropriate error.
//
// If PanicHandler recovers from a panic, it logs a stack trace, creates an error
// and applies fn to the error. It must be deferred directly.
func PanicHandler(fn func(error), query string) {
	if err := recover(); err != nil {
		// Log the panic along with query which caused it.
		glog.Errorf("panic: %s.\n query: %s\n trace: %s", err, query, string(debug.Stack()))

		fn(errors.Wrap(ErrPanic, fmt.Sprintf("Internal Server Error - %v. "+
			"This indicates a bug in the GraphQL server.  A stack trace was logged", err)))
	}
}
