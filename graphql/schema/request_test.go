/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func responseNames(flds []Field) []string {
	var names []string
	for _, f := range flds {
		names = append(names, f.ResponseName())
	}
	return names
}

func mustOperation(t *testing.T, req *Request) Operation {
	sch, err := Default()
	require.NoError(t, err)
	op, err := sch.Operation(req)
	require.NoError(t, err)
	return op
}

func TestSchemaBuilds(t *testing.T) {
	_, err := Default()
	require.NoError(t, err)
	require.Contains(t, SDL(), "type User {")

	_, err = FromString(`type Query { broken: Nope }`)
	require.Error(t, err)
}

func TestFragmentsAreExpanded(t *testing.T) {
	op := mustOperation(t, &Request{
		Query: `query Q($skip: Boolean!) {
			users {
				id
				... on User { firstName }
				...names
				posts @skip(if: $skip) { id }
				email @include(if: false)
			}
		}
		fragment names on User { firstName lastName }`,
		Variables: map[string]interface{}{"skip": true},
	})

	require.True(t, op.IsQuery())
	require.Equal(t, "Q", op.Name())
	roots := op.Fields()
	require.Equal(t, []string{"users"}, responseNames(roots))
	require.Equal(t, []string{"id", "firstName", "lastName"}, responseNames(roots[0].SelectionSet()))
	for _, f := range roots[0].SelectionSet() {
		require.Equal(t, "User", f.ParentType())
	}
}

func TestFieldsWithTheSameResponseNameMerge(t *testing.T) {
	op := mustOperation(t, &Request{Query: `{ users { posts { id } posts { title } } }`})

	users := op.Fields()[0].SelectionSet()
	require.Len(t, users, 1)
	require.Equal(t, []string{"id", "title"}, responseNames(users[0].SelectionSet()))
}

func TestFragmentUsedTwiceExpandsIndependently(t *testing.T) {
	op := mustOperation(t, &Request{Query: `{
		a: users { ...p posts { title } }
		b: users { ...p }
	}
	fragment p on User { posts { id } }`})

	roots := op.Fields()
	require.Equal(t, []string{"a", "b"}, responseNames(roots))
	require.Equal(t, []string{"id", "title"},
		responseNames(roots[0].SelectionSet()[0].SelectionSet()))
	require.Equal(t, []string{"id"},
		responseNames(roots[1].SelectionSet()[0].SelectionSet()))
}

func TestArguments(t *testing.T) {
	op := mustOperation(t, &Request{
		Query:     `query ($id: ID!) { a: user(id: $id) { id } b: memberType(id: "basic") { id } }`,
		Variables: map[string]interface{}{"id": "u1"},
	})

	roots := op.Fields()
	require.Equal(t, "a", roots[0].ResponseName())
	require.Equal(t, "a", roots[0].Alias())
	require.Equal(t, "user", roots[0].Name())
	require.Equal(t, "u1", roots[0].ArgValue("id"))
	require.Equal(t, "basic", roots[1].ArgValue("id"))
	require.Nil(t, roots[1].ArgValue("missing"))
}

func TestTypes(t *testing.T) {
	op := mustOperation(t, &Request{Query: `{ users { id profile { birthday } } }`})

	users := op.Fields()[0]
	require.Equal(t, "[User!]!", users.Type().String())
	require.Equal(t, "User", users.Type().Name())
	require.False(t, users.Type().Nullable())
	require.NotNil(t, users.Type().ListType())
	require.False(t, users.Type().ListType().Nullable())
	require.True(t, users.Type().IsObject())

	profile := users.SelectionSet()[1]
	require.Equal(t, "Profile", profile.Type().String())
	require.True(t, profile.Type().Nullable())
	require.Nil(t, profile.Type().ListType())

	birthday := profile.SelectionSet()[0]
	require.Equal(t, "Float!", birthday.Type().String())
	require.False(t, birthday.Type().IsObject())
}

func TestMutationOperation(t *testing.T) {
	op := mustOperation(t, &Request{Query: `mutation {
		userCreate(input: {firstName: "a", lastName: "b", email: "c"}) { user { id } }
	}`})

	require.True(t, op.IsMutation())
	require.False(t, op.IsQuery())
	m := op.Fields()[0]
	require.Equal(t, "Mutation", m.ParentType())
	require.Equal(t, map[string]interface{}{"firstName": "a", "lastName": "b", "email": "c"},
		m.ArgValue("input"))
}

func TestOperationErrors(t *testing.T) {
	sch, err := Default()
	require.NoError(t, err)

	tcases := map[string]struct {
		req *Request
		msg string
	}{
		"no query": {
			req: &Request{},
			msg: "no query string supplied in request"},
		"syntax": {
			req: &Request{Query: `{ users {`},
			msg: "Expected"},
		"unknown field": {
			req: &Request{Query: `{ users { nope } }`},
			msg: `Cannot query field "nope" on type "User".`},
		"many operations": {
			req: &Request{Query: `query A { users { id } } query B { posts { id } }`},
			msg: "Operation name must by supplied when query has more than 1 operation."},
		"unknown operation": {
			req: &Request{Query: `query A { users { id } }`, OperationName: "B"},
			msg: "Supplied operation name B isn't present in the request."},
		"missing variable": {
			req: &Request{Query: `query ($id: ID!) { user(id: $id) { id } }`},
			msg: "must be defined"},
	}

	for name, tcase := range tcases {
		t.Run(name, func(t *testing.T) {
			_, err := sch.Operation(tcase.req)
			require.Error(t, err)
			require.Contains(t, AsGQLErrors(err).Error(), tcase.msg)
		})
	}
}

func TestOperationByName(t *testing.T) {
	op := mustOperation(t, &Request{
		Query:         `query A { users { id } } query B { posts { id } }`,
		OperationName: "B",
	})
	require.Equal(t, []string{"posts"}, responseNames(op.Fields()))
}
