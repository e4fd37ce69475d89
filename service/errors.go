/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package service

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrIntegrity is matched, through errors.Is, by every IntegrityError.
var ErrIntegrity = errors.New("referential integrity violation")

// IntegrityError reports a write that would leave a dangling or duplicate
// reference. It is always returned before anything is written.
type IntegrityError struct {
	msg string
}

func integrityf(format string, args ...interface{}) error {
	return &IntegrityError{msg: fmt.Sprintf(format, args...)}
}

func (e *IntegrityError) Error() string {
	return e.msg
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}
