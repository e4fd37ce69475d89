/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package store

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is matched, through errors.Is, by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrReadOnlyTxn is returned by writes attempted inside View.
	ErrReadOnlyTxn = errors.New("no writes allowed in a read-only transaction")
	// ErrDuplicateKey is returned by Create when the id is already taken.
	ErrDuplicateKey = errors.New("duplicate key")
)

// NotFoundError reports a record, or a reference, that does not exist.
type NotFoundError struct {
	Kind string
	ID   string

	msg string
}

// NotFoundf returns a NotFoundError carrying a custom message.
func NotFoundf(format string, args ...interface{}) error {
	return &NotFoundError{msg: fmt.Sprintf(format, args...)}
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("%s with id %s does not exist", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
