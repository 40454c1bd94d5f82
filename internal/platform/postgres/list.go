package postgres

import (
	"fmt"
	"strings"

	"github.com/corvid-labs/postboard/internal/query"
	"github.com/jackc/pgx/v5"
)

// listQuery describes a list over one table before a query.Spec is applied.
// conditions are fixed predicates written with $n placeholders numbered from 1
// and bound to args in order.
type listQuery struct {
	table      string
	columns    []string
	conditions []string
	args       []any
}

// renderedList holds the page query and the matching count query. Both use
// the same WHERE clause; the count query carries no ORDER, LIMIT or OFFSET.
type renderedList struct {
	selectSQL  string
	selectArgs []any
	countSQL   string
	countArgs  []any
}

// renderList applies spec to q. Identifiers are quoted; user text only ever
// reaches the database as a bind parameter.
func renderList(q listQuery, spec query.Spec) (renderedList, error) {
	args := append([]any(nil), q.args...)
	conditions := append([]string(nil), q.conditions...)

	if spec.Filter != nil {
		args = append(args, spec.Filter.Pattern())
		conditions = append(conditions, fmt.Sprintf(
			`%s ILIKE $%d ESCAPE '\'`, quoteIdent(spec.Filter.Column), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy, err := renderOrder(spec.Sort)
	if err != nil {
		return renderedList{}, err
	}

	quoted := make([]string, len(q.columns))
	for i, c := range q.columns {
		quoted[i] = quoteIdent(c)
	}

	table := quoteIdent(q.table)
	out := renderedList{
		countSQL:  "SELECT COUNT(*) FROM " + table + where,
		countArgs: append([]any(nil), args...),
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(" FROM ")
	b.WriteString(table)
	b.WriteString(where)
	b.WriteString(orderBy)

	if spec.Page != nil {
		args = append(args, spec.Page.Limit, spec.Page.Offset)
		fmt.Fprintf(&b, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	out.selectSQL = b.String()
	out.selectArgs = args
	return out, nil
}

func renderOrder(orders []query.Order) (string, error) {
	if len(orders) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		switch o.Direction {
		case query.Asc, query.Desc:
		default:
			return "", fmt.Errorf("unsupported sort direction %q", o.Direction)
		}
		parts = append(parts, quoteIdent(o.Column)+" "+string(o.Direction))
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
