/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/gqlparser/v2/ast"

	"github.com/hypermodeinc/usergraph/x"
)

// Wrap the gqlparser AST so that resolvers work against an interface. Getting
// argument values needs the operation's variable map; the wrappers carry it so
// resolvers never do.

// An Operation is a single valid GraphQL operation. It contains either queries
// or mutations, but not both.
type Operation interface {
	Name() string
	Fields() []Field
	IsQuery() bool
	IsMutation() bool
	IsSubscription() bool
	Schema() Schema
	// Depth is the depth of the deepest field in the operation.
	Depth() int
}

// A Field is one field from an Operation, with fragments already expanded into
// its selection set.
type Field interface {
	Name() string
	Alias() string
	ResponseName() string
	ArgValue(name string) interface{}
	Arguments() map[string]interface{}
	Type() Type
	SelectionSet() []Field
	Location() x.Location
	// ParentType is the name of the object type the field was selected on.
	ParentType() string
	Operation() Operation
}

// A Type is a GraphQL type like: Float, T, T! and [T!]!. If it's not a list,
// then ListType is nil.
type Type interface {
	Name() string
	Nullable() bool
	ListType() Type
	IsObject() bool
	fmt.Stringer
}

type operation struct {
	op       *ast.OperationDefinition
	vars     map[string]interface{}
	doc      *ast.QueryDocument
	inSchema *schema

	fields []*ast.Field
	depth  int
}

type field struct {
	field *ast.Field
	op    *operation
	// arguments contains the computed values for arguments taking into account
	// the values for the GraphQL variables supplied in the query.
	arguments map[string]interface{}
}

type astType struct {
	typ      *ast.Type
	inSchema *ast.Schema
}

func (o *operation) Name() string {
	return o.op.Name
}

func (o *operation) IsQuery() bool {
	return o.op.Operation == ast.Query
}

func (o *operation) IsMutation() bool {
	return o.op.Operation == ast.Mutation
}

func (o *operation) IsSubscription() bool {
	return o.op.Operation == ast.Subscription
}

func (o *operation) Schema() Schema {
	return o.inSchema
}

func (o *operation) Depth() int {
	return o.depth
}

func (o *operation) Fields() []Field {
	flds := make([]Field, 0, len(o.fields))
	for _, f := range o.fields {
		flds = append(flds, &field{field: f, op: o})
	}
	return flds
}

func responseName(f *ast.Field) string {
	if f.Alias == "" {
		return f.Name
	}
	return f.Alias
}

func (f *field) Name() string {
	return f.field.Name
}

func (f *field) Alias() string {
	return f.field.Alias
}

func (f *field) ResponseName() string {
	return responseName(f.field)
}

func (f *field) Arguments() map[string]interface{} {
	if f.arguments == nil {
		if f.field.Definition == nil {
			return map[string]interface{}{}
		}
		// Compute and cache the map first time this function is called for a field.
		f.arguments = f.field.ArgumentMap(f.op.vars)
	}
	return f.arguments
}

func (f *field) ArgValue(name string) interface{} {
	return f.Arguments()[name]
}

func (f *field) Type() Type {
	if f.field.Definition == nil {
		return &astType{typ: ast.NamedType("String", nil), inSchema: f.op.inSchema.schema}
	}
	return &astType{typ: f.field.Definition.Type, inSchema: f.op.inSchema.schema}
}

func (f *field) SelectionSet() []Field {
	flds := make([]Field, 0, len(f.field.SelectionSet))
	for _, s := range f.field.SelectionSet {
		if fld, ok := s.(*ast.Field); ok {
			flds = append(flds, &field{field: fld, op: f.op})
		}
	}
	return flds
}

func (f *field) Location() x.Location {
	return x.Location{
		Line:   f.field.Position.Line,
		Column: f.field.Position.Column}
}

func (f *field) ParentType() string {
	if f.field.ObjectDefinition == nil {
		return ""
	}
	return f.field.ObjectDefinition.Name
}

func (f *field) Operation() Operation {
	return f.op
}

func (t *astType) Name() string {
	return t.typ.Name()
}

func (t *astType) Nullable() bool {
	return !t.typ.NonNull
}

func (t *astType) ListType() Type {
	if t.typ.Elem == nil {
		return nil
	}
	return &astType{typ: t.typ.Elem, inSchema: t.inSchema}
}

func (t *astType) IsObject() bool {
	if t.inSchema == nil {
		return false
	}
	def := t.inSchema.Types[t.Name()]
	return def != nil && def.Kind == ast.Object
}

func (t *astType) String() string {
	if t == nil {
		return ""
	}

	var sb strings.Builder
	// give it enough space in case it happens to be `[t.Name()!]!`
	sb.Grow(len(t.Name()) + 4)

	if t.ListType() == nil {
		sb.WriteString(t.Name())
	} else {
		// There's no lists of lists, so this needn't be recursive
		sb.WriteRune('[')
		sb.WriteString(t.Name())
		if !t.ListType().Nullable() {
			sb.WriteRune('!')
		}
		sb.WriteRune(']')
	}

	if !t.Nullable() {
		sb.WriteRune('!')
	}

	return sb.String()
}
