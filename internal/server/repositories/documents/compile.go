package documents

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/query"
)

// compiled is the SQL form of a query list. where and args are shared by the
// page query and the count query.
type compiled struct {
	where  string
	args   []any
	order  string
	limit  int
	offset int
}

type compiler struct {
	args []any
}

func (c *compiler) arg(v any) string {
	c.args = append(c.args, v)
	return "$" + strconv.Itoa(len(c.args))
}

// compile translates qs for collection. Attributes are validated by
// query.ValidAttribute before being inlined, values always travel as args.
func compile(collection, readAs string, qs []query.Query) (*compiled, error) {
	c := &compiler{}
	out := &compiled{limit: -1}

	conds := []string{"collection = " + c.arg(collection)}
	if readAs != "" {
		conds = append(conds, "permissions @> "+c.arg(jsonArray(readAs))+"::jsonb")
	}

	var orders []string
	for _, q := range qs {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidQuery, err)
		}

		switch q.Method {
		case query.MethodOrderAsc:
			orders = append(orders, orderExpr(q.Attribute)+" ASC")
		case query.MethodOrderDesc:
			orders = append(orders, orderExpr(q.Attribute)+" DESC")
		case query.MethodLimit:
			out.limit = q.N
		case query.MethodOffset:
			out.offset = q.N
		default:
			cond, err := c.filter(q)
			if err != nil {
				return nil, err
			}
			conds = append(conds, cond)
		}
	}

	if len(orders) == 0 {
		orders = append(orders, "created_at ASC")
	}
	orders = append(orders, "id ASC")

	out.where = strings.Join(conds, " AND ")
	out.args = c.args
	out.order = strings.Join(orders, ", ")
	return out, nil
}

func (c *compiler) filter(q query.Query) (string, error) {
	switch q.Method {
	case query.MethodEqual:
		col, err := textExpr(q.Attribute)
		if err != nil {
			return "", err
		}
		ph := make([]string, len(q.Values))
		for i, v := range q.Values {
			ph[i] = c.arg(v)
		}
		return col + " IN (" + strings.Join(ph, ", ") + ")", nil

	case query.MethodContains:
		if isSystem(q.Attribute) {
			return "", fmt.Errorf("%w: contains on %s", common.ErrInvalidQuery, q.Attribute)
		}
		parts := make([]string, len(q.Values))
		for i, v := range q.Values {
			parts[i] = fmt.Sprintf("data->'%s' @> %s::jsonb", q.Attribute, c.arg(jsonArray(v)))
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil

	case query.MethodSearch:
		col, err := textExpr(q.Attribute)
		if err != nil {
			return "", err
		}
		return col + " ILIKE " + c.arg("%"+escapeLike(q.Values[0])+"%"), nil

	case query.MethodOr, query.MethodAnd:
		sep := " OR "
		if q.Method == query.MethodAnd {
			sep = " AND "
		}
		parts := make([]string, len(q.Queries))
		for i, nested := range q.Queries {
			p, err := c.filter(nested)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return "(" + strings.Join(parts, sep) + ")", nil
	}

	return "", fmt.Errorf("%w: %s is not a filter", common.ErrInvalidQuery, q.Method)
}

func isSystem(attr string) bool {
	return strings.HasPrefix(attr, "$")
}

func textExpr(attr string) (string, error) {
	switch attr {
	case query.AttrID:
		return "id::text", nil
	case query.AttrCreatedAt, query.AttrUpdatedAt:
		return "", fmt.Errorf("%w: cannot filter on %s", common.ErrInvalidQuery, attr)
	}
	return fmt.Sprintf("data->>'%s'", attr), nil
}

// orderExpr sorts on the jsonb value so numbers compare numerically.
func orderExpr(attr string) string {
	switch attr {
	case query.AttrID:
		return "id"
	case query.AttrCreatedAt:
		return "created_at"
	case query.AttrUpdatedAt:
		return "updated_at"
	}
	return fmt.Sprintf("data->'%s'", attr)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func jsonArray(v string) string {
	b, _ := json.Marshal([]string{v})
	return string(b)
}
