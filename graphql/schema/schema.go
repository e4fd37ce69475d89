/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package schema holds the GraphQL schema of the service and wraps the
// gqlparser AST so that resolvers see fields, arguments and types with the
// operation's variables already applied.
package schema

import (
	_ "embed"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/parser"
	"github.com/dgraph-io/gqlparser/v2/validator"
	"github.com/pkg/errors"

	// Registers the standard validation rules with the validator.
	_ "github.com/dgraph-io/gqlparser/v2/validator/rules"
)

//go:embed schema.graphql
var sdl string

const (
	// DefaultMaxDepth is the operation depth allowed when none is configured.
	DefaultMaxDepth = 6

	// Typename is the meta field every object type answers.
	Typename = "__typename"
)

// Schema represents a valid GraphQL schema
type Schema interface {
	Operation(r *Request) (Operation, error)
	MaxDepth() int
}

type schema struct {
	schema   *ast.Schema
	maxDepth int
}

// An Option configures a Schema.
type Option func(*schema)

// WithMaxDepth sets the deepest selection an operation may contain. Values
// below zero are ignored.
func WithMaxDepth(depth int) Option {
	return func(s *schema) {
		if depth >= 0 {
			s.maxDepth = depth
		}
	}
}

// SDL returns the schema definition served by the service.
func SDL() string {
	return sdl
}

// Default returns the service schema.
func Default(opts ...Option) (Schema, error) {
	return FromString(sdl, opts...)
}

// FromString builds a GraphQL Schema from input string, or returns any parsing
// or validation errors.
func FromString(input string, opts ...Option) (Schema, error) {
	// validator.Prelude includes the built in scalars and directives.
	doc, gqlErr := parser.ParseSchemas(validator.Prelude, &ast.Source{Input: input})
	if gqlErr != nil {
		return nil, errors.Wrap(gqlErr, "while parsing GraphQL schema")
	}

	gqlSchema, gqlErr := validator.ValidateSchemaDocument(doc)
	if gqlErr != nil {
		return nil, errors.Wrap(gqlErr, "while validating GraphQL schema")
	}

	return AsSchema(gqlSchema, opts...), nil
}

// AsSchema wraps a GraphQL schema that has already been validated.
func AsSchema(s *ast.Schema, opts ...Option) Schema {
	sch := &schema{schema: s, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(sch)
	}
	return sch
}

func (s *schema) MaxDepth() int {
	return s.maxDepth
}
