// Package query builds filter, sort and paging expressions for the document
// store. Queries are plain values; the store compiles them to its own dialect.
package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Method names a query operation.
type Method string

const (
	MethodEqual     Method = "equal"
	MethodContains  Method = "contains"
	MethodSearch    Method = "search"
	MethodOr        Method = "or"
	MethodAnd       Method = "and"
	MethodOrderAsc  Method = "orderAsc"
	MethodOrderDesc Method = "orderDesc"
	MethodLimit     Method = "limit"
	MethodOffset    Method = "offset"
)

// System attributes maintained by the store itself.
const (
	AttrID        = "$id"
	AttrCreatedAt = "$createdAt"
	AttrUpdatedAt = "$updatedAt"
)

// Query is a single operation. Filters may nest through Or/And.
type Query struct {
	Method    Method   `json:"method"`
	Attribute string   `json:"attribute,omitempty"`
	Values    []string `json:"values,omitempty"`
	Queries   []Query  `json:"queries,omitempty"`
	N         int      `json:"n,omitempty"`
}

// Equal matches documents whose attribute equals any of values.
func Equal(attr string, values ...string) Query {
	return Query{Method: MethodEqual, Attribute: attr, Values: values}
}

// Contains matches documents whose array attribute holds any of values.
func Contains(attr string, values ...string) Query {
	return Query{Method: MethodContains, Attribute: attr, Values: values}
}

// Search matches documents whose string attribute contains text,
// case-insensitively.
func Search(attr, text string) Query {
	return Query{Method: MethodSearch, Attribute: attr, Values: []string{text}}
}

// Or matches documents satisfying at least one of qs.
func Or(qs ...Query) Query {
	return Query{Method: MethodOr, Queries: qs}
}

// And matches documents satisfying all of qs.
func And(qs ...Query) Query {
	return Query{Method: MethodAnd, Queries: qs}
}

func OrderAsc(attr string) Query {
	return Query{Method: MethodOrderAsc, Attribute: attr}
}

func OrderDesc(attr string) Query {
	return Query{Method: MethodOrderDesc, Attribute: attr}
}

func Limit(n int) Query {
	return Query{Method: MethodLimit, N: n}
}

func Offset(n int) Query {
	return Query{Method: MethodOffset, N: n}
}

var attrPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidAttribute reports whether attr can be used in a query.
func ValidAttribute(attr string) bool {
	switch attr {
	case AttrID, AttrCreatedAt, AttrUpdatedAt:
		return true
	}
	return attrPattern.MatchString(attr)
}

// IsFilter reports whether q restricts the result set.
func (q Query) IsFilter() bool {
	switch q.Method {
	case MethodEqual, MethodContains, MethodSearch, MethodOr, MethodAnd:
		return true
	}
	return false
}

// Validate checks q and everything nested in it.
func (q Query) Validate() error {
	switch q.Method {
	case MethodEqual, MethodContains:
		if !ValidAttribute(q.Attribute) {
			return fmt.Errorf("%s: invalid attribute %q", q.Method, q.Attribute)
		}
		if len(q.Values) == 0 {
			return fmt.Errorf("%s(%s): no values", q.Method, q.Attribute)
		}
	case MethodSearch:
		if !ValidAttribute(q.Attribute) {
			return fmt.Errorf("search: invalid attribute %q", q.Attribute)
		}
		if len(q.Values) != 1 {
			return fmt.Errorf("search(%s): exactly one value expected", q.Attribute)
		}
	case MethodOr, MethodAnd:
		if len(q.Queries) == 0 {
			return fmt.Errorf("%s: no nested queries", q.Method)
		}
		for _, nested := range q.Queries {
			if !nested.IsFilter() {
				return fmt.Errorf("%s: %s is not a filter", q.Method, nested.Method)
			}
			if err := nested.Validate(); err != nil {
				return err
			}
		}
	case MethodOrderAsc, MethodOrderDesc:
		if !ValidAttribute(q.Attribute) {
			return fmt.Errorf("%s: invalid attribute %q", q.Method, q.Attribute)
		}
	case MethodLimit, MethodOffset:
		if q.N < 0 {
			return fmt.Errorf("%s: negative value %d", q.Method, q.N)
		}
	default:
		return fmt.Errorf("unknown query method %q", q.Method)
	}
	return nil
}

// String renders q in a compact, log-friendly form.
func (q Query) String() string {
	switch q.Method {
	case MethodOr, MethodAnd:
		parts := make([]string, len(q.Queries))
		for i, nested := range q.Queries {
			parts[i] = nested.String()
		}
		return fmt.Sprintf("%s(%s)", q.Method, strings.Join(parts, ", "))
	case MethodLimit, MethodOffset:
		return fmt.Sprintf("%s(%d)", q.Method, q.N)
	case MethodOrderAsc, MethodOrderDesc:
		return fmt.Sprintf("%s(%s)", q.Method, q.Attribute)
	default:
		return fmt.Sprintf("%s(%s, %q)", q.Method, q.Attribute, q.Values)
	}
}
