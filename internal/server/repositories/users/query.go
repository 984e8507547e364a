package users

import (
	"fmt"
	"strings"
)

type condition struct {
	expr string
	arg  any
}

// Query is a conjunction of filters over the users table. The zero value
// matches every user.
type Query struct {
	conds []condition
}

func NewQuery() *Query {
	return &Query{}
}

// ByID restricts the result to the user with the given id.
func (q *Query) ByID(id int64) *Query {
	q.conds = append(q.conds, condition{expr: "id = %s", arg: id})
	return q
}

// UsernameContains restricts the result to usernames containing s.
// LIKE wildcards in s are matched literally.
func (q *Query) UsernameContains(s string) *Query {
	q.conds = append(q.conds, condition{expr: "username LIKE %s", arg: "%" + escapeLike(s) + "%"})
	return q
}

// Empty reports whether q has no conditions.
func (q *Query) Empty() bool {
	return q == nil || len(q.conds) == 0
}

// Where renders the WHERE clause with positional placeholders starting at $1,
// or "" when there are no conditions.
func (q *Query) Where() (string, []any) {
	if q.Empty() {
		return "", nil
	}

	parts := make([]string, 0, len(q.conds))
	args := make([]any, 0, len(q.conds))
	for i, c := range q.conds {
		parts = append(parts, fmt.Sprintf(c.expr, fmt.Sprintf("$%d", i+1)))
		args = append(args, c.arg)
	}
	return "WHERE " + strings.Join(parts, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
