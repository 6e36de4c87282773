package database

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

type Op string

const (
	OpEq       Op = "eq"
	OpContains Op = "contains" // case-insensitive substring
	OpHas      Op = "has"      // array membership
)

// Condition tests one top-level JSON field of a record.
type Condition struct {
	Field string
	Op    Op
	Value interface{}
}

func Eq(field string, v interface{}) Condition { return Condition{Field: field, Op: OpEq, Value: v} }
func Contains(field string, v string) Condition { return Condition{Field: field, Op: OpContains, Value: v} }
func Has(field string, v interface{}) Condition { return Condition{Field: field, Op: OpHas, Value: v} }

// Query selects records. Where is an AND of OR-groups: a record matches when
// every group has at least one matching condition. Without OrderBy records come
// back in insertion order.
type Query struct {
	Where      [][]Condition
	OrderBy    string
	Descending bool
	Limit      int
	Offset     int
}

// Match adds an OR-group to the query.
func (q Query) Match(conds ...Condition) Query {
	if len(conds) == 0 {
		return q
	}
	where := make([][]Condition, len(q.Where), len(q.Where)+1)
	copy(where, q.Where)
	q.Where = append(where, conds)
	return q
}

func (q Query) Sort(field string, desc bool) Query {
	q.OrderBy = field
	q.Descending = desc
	return q
}

func (q Query) Page(limit, offset int) Query {
	q.Limit = limit
	q.Offset = offset
	return q
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func (q Query) validate() error {
	for _, group := range q.Where {
		for _, c := range group {
			if !fieldPattern.MatchString(c.Field) {
				return fmt.Errorf("database: invalid field %q", c.Field)
			}
			switch c.Op {
			case OpEq, OpContains, OpHas:
			default:
				return fmt.Errorf("database: unknown operator %q", c.Op)
			}
		}
	}
	if q.OrderBy != "" && !fieldPattern.MatchString(q.OrderBy) {
		return fmt.Errorf("database: invalid order field %q", q.OrderBy)
	}
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("database: negative limit or offset")
	}
	return nil
}

func valueText(v interface{}) string {
	return fmt.Sprint(v)
}

func (c Condition) matches(doc []byte) bool {
	r := gjson.GetBytes(doc, c.Field)
	switch c.Op {
	case OpEq:
		return r.Exists() && r.String() == valueText(c.Value)
	case OpContains:
		return strings.Contains(strings.ToLower(r.String()), strings.ToLower(valueText(c.Value)))
	case OpHas:
		if !r.IsArray() {
			return false
		}
		want := valueText(c.Value)
		found := false
		r.ForEach(func(_, el gjson.Result) bool {
			if el.String() == want {
				found = true
				return false
			}
			return true
		})
		return found
	}
	return false
}

func (q Query) matches(doc []byte) bool {
	for _, group := range q.Where {
		ok := false
		for _, c := range group {
			if c.matches(doc) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func lessResult(a, b gjson.Result) bool {
	if a.Type == gjson.Number && b.Type == gjson.Number {
		return a.Num < b.Num
	}
	return a.String() < b.String()
}

// apply filters, sorts and pages documents that are already in insertion order.
func (q Query) apply(docs [][]byte) [][]byte {
	out := make([][]byte, 0, len(docs))
	for _, d := range docs {
		if q.matches(d) {
			out = append(out, d)
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a := gjson.GetBytes(out[i], q.OrderBy)
			b := gjson.GetBytes(out[j], q.OrderBy)
			if q.Descending {
				return lessResult(b, a)
			}
			return lessResult(a, b)
		})
	}
	return page(out, q.Limit, q.Offset)
}

func page(docs [][]byte, limit, offset int) [][]byte {
	if offset >= len(docs) {
		return [][]byte{}
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}
