/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"strings"

	"github.com/dgraph-io/gqlparser/v2/ast"

	"github.com/hypermodeinc/usergraph/x"
)

// Depth is counted on the document as written. Root fields of an operation sit
// at depth 0 and the selections of a field one deeper. Fragment spreads and
// inline fragments add no depth of their own: their fields sit where the
// fragment is used. Meta fields (__typename, __schema, ...) are not counted.

// CheckDepth returns an error for the first field of op, in document order,
// that sits deeper than limit, or nil if there is none.
func CheckDepth(doc *ast.QueryDocument, op *ast.OperationDefinition, limit int) *x.GqlError {
	w := &depthWalker{doc: doc, limit: limit, onPath: map[string]bool{}}
	w.walk(op.SelectionSet, 0)
	if w.tooDeep == nil {
		return nil
	}

	name := "Operation"
	if op.Name != "" {
		name = "'" + op.Name + "'"
	}
	return x.GqlErrorf("%s exceeds maximum operation depth of %d", name, limit).
		WithLocations(x.Location{Line: w.tooDeep.Position.Line, Column: w.tooDeep.Position.Column}).
		WithCode(x.ErrCodeDepthExceeded)
}

// MaxDepth returns the depth of the deepest field of op.
func MaxDepth(doc *ast.QueryDocument, op *ast.OperationDefinition) int {
	w := &depthWalker{doc: doc, limit: -1, onPath: map[string]bool{}}
	if d := w.walk(op.SelectionSet, 0); d > 0 {
		return d
	}
	return 0
}

type depthWalker struct {
	doc   *ast.QueryDocument
	limit int
	// onPath holds the fragments being expanded on the current path, which
	// stops a fragment cycle from recursing forever.
	onPath  map[string]bool
	tooDeep *ast.Field
}

// walk returns the depth of the deepest field in set, which sits at depth.
// An empty set returns depth-1. With a limit set, walking stops at the first
// field deeper than it.
func (w *depthWalker) walk(set ast.SelectionSet, depth int) int {
	deepest := depth - 1
	for _, sel := range set {
		if w.tooDeep != nil {
			break
		}

		d := depth - 1
		switch sel := sel.(type) {
		case *ast.Field:
			if strings.HasPrefix(sel.Name, "__") {
				continue
			}
			if w.limit >= 0 && depth > w.limit {
				w.tooDeep = sel
				return depth
			}
			d = depth
			if len(sel.SelectionSet) > 0 {
				if child := w.walk(sel.SelectionSet, depth+1); child > d {
					d = child
				}
			}
		case *ast.InlineFragment:
			d = w.walk(sel.SelectionSet, depth)
		case *ast.FragmentSpread:
			def := w.doc.Fragments.ForName(sel.Name)
			if def == nil || w.onPath[sel.Name] {
				continue
			}
			w.onPath[sel.Name] = true
			d = w.walk(def.SelectionSet, depth)
			delete(w.onPath, sel.Name)
		}

		if d > deepest {
			deepest = d
		}
	}
	return deepest
}
