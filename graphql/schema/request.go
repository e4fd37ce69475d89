/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"net/http"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/parser"
	"github.com/dgraph-io/gqlparser/v2/validator"
	"github.com/pkg/errors"
)

// A Request represents a GraphQL request.  It makes no guarantees that the
// request is valid.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
	Header        http.Header            `json:"-"`
}

// Operation finds the operation in req, if it is a valid request for GraphQL
// schema s. The document is parsed and its depth checked before it is
// validated, so an over deep document is rejected without further work. If
// the request is GraphQL valid, it must contain a single valid Operation. If
// either the request is malformed or doesn't contain a valid operation, all
// GraphQL errors encountered are returned.
func (s *schema) Operation(req *Request) (Operation, error) {
	if req == nil || req.Query == "" {
		return nil, errors.New("no query string supplied in request")
	}

	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: req.Query})
	if gqlErr != nil {
		return nil, gqlErr
	}

	for _, op := range doc.Operations {
		if err := CheckDepth(doc, op, s.maxDepth); err != nil {
			return nil, err
		}
	}

	listErr := validator.Validate(s.schema, doc, req.Variables)
	if len(listErr) != 0 {
		return nil, listErr
	}

	if len(doc.Operations) == 1 && doc.Operations[0].Operation == ast.Subscription &&
		s.schema.Subscription == nil {
		return nil, errors.Errorf("Not resolving subscription because schema doesn't have any " +
			"fields defined for subscription operation.")
	}

	if len(doc.Operations) > 1 && req.OperationName == "" {
		return nil, errors.Errorf("Operation name must by supplied when query has more " +
			"than 1 operation.")
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return nil, errors.Errorf("Supplied operation name %s isn't present in the request.",
			req.OperationName)
	}

	vars, gqlErr := validator.VariableValues(s.schema, op, req.Variables)
	if gqlErr != nil {
		return nil, gqlErr
	}

	operation := &operation{
		op:       op,
		vars:     vars,
		doc:      doc,
		inSchema: s,
		depth:    MaxDepth(doc, op),
	}
	operation.fields = operation.expand(op.SelectionSet, rootTypeName(s.schema, op.Operation))

	return operation, nil
}

func rootTypeName(s *ast.Schema, op ast.Operation) string {
	switch {
	case op == ast.Mutation && s.Mutation != nil:
		return s.Mutation.Name
	case op == ast.Subscription && s.Subscription != nil:
		return s.Subscription.Name
	case s.Query != nil:
		return s.Query.Name
	}
	return ""
}

// expand collects the fields of set as selected on typeName and returns them
// with every fragment inlined, all the way down. Fields that share a response
// name are merged into one field whose selection set is the union of theirs.
// The returned fields are copies, so a fragment used in several places is
// expanded independently in each.
func (o *operation) expand(set ast.SelectionSet, typeName string) []*ast.Field {
	collected := o.collectFields(set, typeName)

	result := make([]*ast.Field, 0, len(collected))
	for _, cf := range collected {
		f := *cf.field
		if f.Definition != nil && len(cf.selections) > 0 {
			sels := o.expand(cf.selections, f.Definition.Type.Name())
			f.SelectionSet = make(ast.SelectionSet, 0, len(sels))
			for _, s := range sels {
				f.SelectionSet = append(f.SelectionSet, s)
			}
		}
		result = append(result, &f)
	}
	return result
}

type collectedField struct {
	field      *ast.Field
	selections ast.SelectionSet
}

// collectFields implements CollectFields from the GraphQL spec.
// https://spec.graphql.org/June2018/#CollectFields()
func (o *operation) collectFields(set ast.SelectionSet, typeName string) []*collectedField {
	var groups []*collectedField
	byName := make(map[string]*collectedField)
	visited := make(map[string]bool)

	var collect func(set ast.SelectionSet)
	collect = func(set ast.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *ast.Field:
				if !o.include(sel.Directives) {
					continue
				}
				name := responseName(sel)
				cf, ok := byName[name]
				if !ok {
					cf = &collectedField{field: sel}
					byName[name] = cf
					groups = append(groups, cf)
				}
				cf.selections = append(cf.selections, sel.SelectionSet...)
			case *ast.InlineFragment:
				if !o.include(sel.Directives) || !fragmentMatches(sel.TypeCondition, typeName) {
					continue
				}
				collect(sel.SelectionSet)
			case *ast.FragmentSpread:
				if !o.include(sel.Directives) || visited[sel.Name] {
					continue
				}
				visited[sel.Name] = true
				def := sel.Definition
				if def == nil {
					def = o.doc.Fragments.ForName(sel.Name)
				}
				if def == nil || !fragmentMatches(def.TypeCondition, typeName) {
					continue
				}
				collect(def.SelectionSet)
			}
		}
	}
	collect(set)

	return groups
}

// There are no interfaces or unions in the schema, so a fragment applies
// exactly when its type condition names the object type, or is absent.
func fragmentMatches(typeCondition, typeName string) bool {
	return typeCondition == "" || typeCondition == typeName
}

// include evaluates @skip and @include.
func (o *operation) include(dirs ast.DirectiveList) bool {
	if d := dirs.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(o.vars)["if"].(bool); skip {
			return false
		}
	}
	if d := dirs.ForName("include"); d != nil {
		if inc, _ := d.ArgumentMap(o.vars)["if"].(bool); !inc {
			return false
		}
	}
	return true
}
