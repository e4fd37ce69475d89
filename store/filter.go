/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package store

import "fmt"

// Op is the comparison a Filter performs.
type Op int

const (
	// OpEquals matches records whose scalar field equals Value.
	OpEquals Op = iota
	// OpContains matches records whose array field contains Value.
	OpContains
	// OpIn matches records whose scalar field is one of Values.
	OpIn
	// OpOverlaps matches records whose array field shares an element with Values.
	OpOverlaps
)

func (op Op) String() string {
	switch op {
	case OpEquals:
		return "equals"
	case OpContains:
		return "contains"
	case OpIn:
		return "in"
	case OpOverlaps:
		return "overlaps"
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// A Filter selects records by one field. Filters passed together to
// FindMany or FindOne must all match.
type Filter struct {
	Key    string
	Op     Op
	Value  interface{}
	Values []string

	set map[string]struct{}
}

// Eq matches records where field key equals v.
func Eq(key string, v interface{}) Filter {
	return Filter{Key: key, Op: OpEquals, Value: v}
}

// ByID matches the record with the given id.
func ByID(id string) Filter {
	return Eq("id", id)
}

// Contains matches records where the array field key contains v.
func Contains(key, v string) Filter {
	return Filter{Key: key, Op: OpContains, Value: v}
}

// In matches records where field key is one of vs.
func In(key string, vs []string) Filter {
	return Filter{Key: key, Op: OpIn, Values: vs, set: toSet(vs)}
}

// Overlaps matches records where the array field key holds any of vs.
func Overlaps(key string, vs []string) Filter {
	return Filter{Key: key, Op: OpOverlaps, Values: vs, set: toSet(vs)}
}

func toSet(vs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		set[v] = struct{}{}
	}
	return set
}

func (f Filter) has(v string) bool {
	if f.set != nil {
		_, ok := f.set[v]
		return ok
	}
	for _, want := range f.Values {
		if v == want {
			return true
		}
	}
	return false
}

func (f Filter) String() string {
	if f.Op == OpIn || f.Op == OpOverlaps {
		return fmt.Sprintf("%s %s %v", f.Key, f.Op, f.Values)
	}
	return fmt.Sprintf("%s %s %v", f.Key, f.Op, f.Value)
}

type fielder interface {
	Field(name string) (interface{}, bool)
}

func (f Filter) match(rec fielder) bool {
	v, ok := rec.Field(f.Key)
	if !ok {
		return false
	}

	switch f.Op {
	case OpEquals:
		if _, isList := v.([]string); isList {
			return false
		}
		return v == f.Value
	case OpContains:
		list, isList := v.([]string)
		if !isList {
			return false
		}
		for _, e := range list {
			if e == f.Value {
				return true
			}
		}
	case OpIn:
		s, isString := v.(string)
		return isString && f.has(s)
	case OpOverlaps:
		list, isList := v.([]string)
		if !isList {
			return false
		}
		for _, e := range list {
			if f.has(e) {
				return true
			}
		}
	}
	return false
}

func matchAll(rec fielder, filters []Filter) bool {
	for _, f := range filters {
		if !f.match(rec) {
			return false
		}
	}
	return true
}
