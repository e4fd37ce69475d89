/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"bytes"
	"fmt"
)

// Error codes reported in the "code" extension of a GqlError.
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeIntegrity     = "REFERENTIAL_INTEGRITY"
	ErrCodeDepthExceeded = "DEPTH_EXCEEDED"
	ErrCodeBatchFetch    = "BATCH_FETCH_FAILED"
	ErrCodeInternal      = "INTERNAL"
)

// GqlError is an error in the shape the GraphQL spec lays out for responses.
// https://graphql.github.io/graphql-spec/June2018/#sec-Errors
type GqlError struct {
	Message    string                 `json:"message"`
	Locations  []Location             `json:"locations,omitempty"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// A Location is the line and column in a query document that an error refers to.
type Location struct {
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// GqlErrorList is a list of GraphQL errors as would be found in a response.
type GqlErrorList []*GqlError

// GqlErrorf returns a new GqlError with the message and args Sprintf'ed together.
func GqlErrorf(message string, args ...interface{}) *GqlError {
	return &GqlError{
		Message: fmt.Sprintf(message, args...),
	}
}

// WithLocations adds a list of locations to a GqlError and returns the same
// GqlError (fluent style).
func (gqlErr *GqlError) WithLocations(locs ...Location) *GqlError {
	if gqlErr == nil {
		return nil
	}

	gqlErr.Locations = append(gqlErr.Locations, locs...)
	return gqlErr
}

// WithPath adds a path to a GqlError and returns the same GqlError (fluent style).
func (gqlErr *GqlError) WithPath(path []interface{}) *GqlError {
	if gqlErr == nil {
		return nil
	}

	gqlErr.Path = path
	return gqlErr
}

// WithCode sets the "code" extension.
func (gqlErr *GqlError) WithCode(code string) *GqlError {
	if gqlErr == nil || code == "" {
		return gqlErr
	}

	if gqlErr.Extensions == nil {
		gqlErr.Extensions = make(map[string]interface{})
	}
	gqlErr.Extensions["code"] = code
	return gqlErr
}

// Code returns the "code" extension, or "" if none is set.
func (gqlErr *GqlError) Code() string {
	if gqlErr == nil {
		return ""
	}
	code, _ := gqlErr.Extensions["code"].(string)
	return code
}

func (gqlErr *GqlError) Error() string {
	var buf bytes.Buffer
	if gqlErr == nil {
		return ""
	}

	buf.WriteString(gqlErr.Message)

	if len(gqlErr.Locations) > 0 {
		buf.WriteString(" (Locations: [")
		for i, loc := range gqlErr.Locations {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(fmt.Sprintf("{Line: %v, Column: %v}", loc.Line, loc.Column))
		}
		buf.WriteString("])")
	}

	return buf.String()
}

func (errList GqlErrorList) Error() string {
	var buf bytes.Buffer
	for i, gqlErr := range errList {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(gqlErr.Error())
	}
	return buf.String()
}
