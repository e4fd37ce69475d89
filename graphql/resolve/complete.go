/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/golang/glog"

	"github.com/hypermodeinc/usergraph/graphql/schema"
	"github.com/hypermodeinc/usergraph/x"
)

// Once the executor has built the result tree, it needs to be worked through
// against the schema:
//
// 1) (null insertion)
//    A field that resolved to nothing is written as null, and scalars are
//    coerced to the type the schema declares.
//
// 2) (error propagation)
//    The schema is a contract with consumers.  So if there's an `f: T!` in the
//    schema, that says: "this API never returns a null f".  If f turned out null
//    in the results, then returning null would break the contract.  GraphQL specifies
//    that the null propagates to the nearest enclosing nullable field, with an
//    error recording why.
//    https://graphql.github.io/graphql-spec/June2018/#sec-Errors-and-Non-Nullability
//
// A field whose resolver failed is marked with failed{}; its error is already
// recorded, so it is nulled without another error.

// completeObject builds a json GraphQL result object for the current query level.
// It returns a bracketed json object like { f1:..., f2:..., ... }.
//
// fields are the fields from this level of the GraphQL query and res holds
// the values the executor resolved for them, keyed by response name.
//
// If a non-nullable field completes to null, the whole object is nil and the
// null propagates to the enclosing level.
func completeObject(
	path []interface{},
	fields []schema.Field,
	res map[string]interface{}) ([]byte, x.GqlErrorList) {

	var errs x.GqlErrorList
	var buf bytes.Buffer
	comma := ""

	x.Check2(buf.WriteRune('{'))
	for _, f := range fields {
		x.Check2(buf.WriteString(comma))
		x.Check2(buf.WriteRune('"'))
		x.Check2(buf.WriteString(f.ResponseName()))
		x.Check2(buf.WriteString(`": `))

		completed, err := completeValue(append(path, f.ResponseName()), f, f.Type(),
			res[f.ResponseName()])
		errs = append(errs, err...)
		if completed == nil {
			if !f.Type().Nullable() {
				return nil, errs
			}
			completed = schema.JsonNull
		}
		x.Check2(buf.Write(completed))
		comma = ", "
	}
	x.Check2(buf.WriteRune('}'))

	return buf.Bytes(), errs
}

// completeValue applies the value completion algorithm to a single value of
// type typ, which could turn out to be a list or object or scalar value.
// typ is field's type, or its element type when completing a list item.
func completeValue(
	path []interface{},
	field schema.Field,
	typ schema.Type,
	val interface{}) ([]byte, x.GqlErrorList) {

	switch val := val.(type) {
	case failed:
		return nil, nil
	case map[string]interface{}:
		if !typ.IsObject() {
			return nil, x.GqlErrorList{&x.GqlError{
				Message:   errExpectedScalar,
				Locations: []x.Location{field.Location()},
				Path:      copyPath(path),
			}}
		}
		if typ.ListType() != nil {
			return nil, x.GqlErrorList{&x.GqlError{
				Message:   errExpectedList,
				Locations: []x.Location{field.Location()},
				Path:      copyPath(path),
			}}
		}
		return completeObject(path, field.SelectionSet(), val)
	case []interface{}:
		return completeList(path, field, typ, val)
	case []string:
		listVal := make([]interface{}, 0, len(val))
		for _, v := range val {
			listVal = append(listVal, v)
		}
		return completeList(path, field, typ, listVal)
	default:
		if val == nil {
			if typ.Nullable() {
				return schema.JsonNull, nil
			}

			gqlErr := x.GqlErrorf(errExpectedNonNull, field.Name(), field.Type()).
				WithLocations(field.Location())
			gqlErr.Path = copyPath(path)
			return nil, x.GqlErrorList{gqlErr}
		}

		if typ.ListType() != nil {
			return nil, x.GqlErrorList{&x.GqlError{
				Message:   errExpectedList,
				Locations: []x.Location{field.Location()},
				Path:      copyPath(path),
			}}
		}

		// val is a scalar
		val, gqlErr := coerceScalar(val, field, typ, path)
		if len(gqlErr) != 0 {
			return nil, gqlErr
		}

		b, err := json.Marshal(val)
		if err != nil {
			gqlErr := x.GqlErrorf(
				"Error marshalling value for field '%s' (type %s).  "+
					"Resolved as null (which may trigger GraphQL error propagation) ",
				field.Name(), field.Type()).
				WithLocations(field.Location())
			gqlErr.Path = copyPath(path)

			if typ.Nullable() {
				return schema.JsonNull, x.GqlErrorList{gqlErr}
			}

			return nil, x.GqlErrorList{gqlErr}
		}

		return b, nil
	}
}

// coerceScalar coerces a scalar value to typ if possible according to the coercion rules
// defined in the GraphQL spec. If this is not possible, then it returns an error.
func coerceScalar(val interface{}, field schema.Field, typ schema.Type,
	path []interface{}) (interface{}, x.GqlErrorList) {

	valueCoercionError := func(val interface{}) x.GqlErrorList {
		gqlErr := x.GqlErrorf(
			"Error coercing value '%+v' for field '%s' to type %s.",
			val, field.Name(), typ.Name()).
			WithLocations(field.Location())
		gqlErr.Path = copyPath(path)
		return x.GqlErrorList{gqlErr}
	}

	if typ.IsObject() {
		// An object that was never expanded by the executor.
		return nil, x.GqlErrorList{&x.GqlError{
			Message:   errExpectedScalar,
			Locations: []x.Location{field.Location()},
			Path:      copyPath(path),
		}}
	}

	switch typ.Name() {
	case "String", "ID":
		switch v := val.(type) {
		case float64:
			val = strconv.FormatFloat(v, 'f', -1, 64)
		case int64:
			val = strconv.FormatInt(v, 10)
		case int:
			val = strconv.Itoa(v)
		case bool:
			val = strconv.FormatBool(v)
		case string:
		case json.Number:
			val = v.String()
		default:
			return nil, valueCoercionError(v)
		}
	case "Boolean":
		switch v := val.(type) {
		case string:
			val = len(v) > 0
		case bool:
		case json.Number:
			valFloat, _ := v.Float64()
			val = valFloat != 0
		default:
			return nil, valueCoercionError(v)
		}
	case "Int":
		switch v := val.(type) {
		case float64:
			// The spec says that we can coerce a Float value to Int, if we don't lose information.
			// See: https: //spec.graphql.org/June2018/#sec-Float
			i32Val := int32(v)
			if v == float64(i32Val) {
				val = i32Val
			} else {
				return nil, valueCoercionError(v)
			}
		case bool:
			if v {
				val = 1
			} else {
				val = 0
			}
		case int64:
			if v > math.MaxInt32 || v < math.MinInt32 {
				return nil, valueCoercionError(v)
			}
		case int:
			if v > math.MaxInt32 || v < math.MinInt32 {
				return nil, valueCoercionError(v)
			}
		case json.Number:
			i, err := strconv.ParseFloat(v.String(), 64)
			if err != nil {
				return nil, valueCoercionError(v)
			}
			i32Val := int32(i)
			if i == float64(i32Val) {
				val = i32Val
			} else {
				return nil, valueCoercionError(v)
			}
		default:
			return nil, valueCoercionError(v)
		}
	case "Float":
		switch v := val.(type) {
		case bool:
			if v {
				val = 1.0
			} else {
				val = 0.0
			}
		case int:
			val = float64(v)
		case int64:
			val = float64(v)
		case json.Number:
			i, err := strconv.ParseFloat(v.String(), 64)
			if err != nil {
				return nil, valueCoercionError(v)
			}
			val = i
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, valueCoercionError(v)
			}
		default:
			return nil, valueCoercionError(v)
		}
	default:
		return nil, valueCoercionError(val)
	}
	return val, nil
}

// completeList applies the completion algorithm to a list field and result.
//
// typ is the list type, values the items the executor resolved. completeValue
// is applied to every item against the element type.
//
// If the list has non-nullable elements (a type like [T!]) and any of those
// elements resolve to null, then the whole list is crushed to null.
func completeList(
	path []interface{},
	field schema.Field,
	typ schema.Type,
	values []interface{}) ([]byte, x.GqlErrorList) {

	var buf bytes.Buffer
	var errs x.GqlErrorList
	comma := ""

	if typ.ListType() == nil {
		// A resolver returned a list for a field that isn't one. Crush it to
		// null so we still get something from the rest of the query and log
		// the error.
		return mismatched(path, field, typ)
	}

	x.Check2(buf.WriteRune('['))
	for i, b := range values {
		r, err := completeValue(append(path, i), field, typ.ListType(), b)
		errs = append(errs, err...)
		x.Check2(buf.WriteString(comma))
		if r == nil {
			if !typ.ListType().Nullable() {
				// "If a List type wraps a Non-Null type, and one of the
				// elements of that list resolves to null, then the entire list
				// must resolve to null."
				// The error recording that is already in errs.
				return nil, errs
			}
			x.Check2(buf.Write(schema.JsonNull))
		} else {
			x.Check2(buf.Write(r))
		}
		comma = ", "
	}
	x.Check2(buf.WriteRune(']'))

	return buf.Bytes(), errs
}

func mismatched(
	path []interface{},
	field schema.Field,
	typ schema.Type) ([]byte, x.GqlErrorList) {

	glog.Errorf("completeList() called in resolving %s (Line: %v, Column: %v), "+
		"but its type is %s.",
		field.Name(), field.Location().Line, field.Location().Column, typ.Name())

	gqlErr := &x.GqlError{
		Message:   errExpectedObject,
		Locations: []x.Location{field.Location()},
		Path:      copyPath(path),
	}

	val, errs := completeValue(path, field, typ, nil)
	return val, append(errs, gqlErr)
}

func copyPath(path []interface{}) []interface{} {
	result := make([]interface{}, len(path))
	copy(result, path)
	return result
}

// maxPathLength finds the max length (including list indexes) of any path
// through fields. Used to pre-allocate a path buffer of the correct size before
// running completeObject at the top level.
func maxPathLength(fields []schema.Field) int {
	childMax := 0
	for _, f := range fields {
		d := maxPathLength(f.SelectionSet())
		if f.Type().ListType() != nil {
			d++
		}
		if d > childMax {
			childMax = d
		}
	}
	if len(fields) == 0 {
		return 0
	}
	return 1 + childMax
}
