// Package query turns list-endpoint query strings into MongoDB filters.
//
// Only fields declared in a Schema and operators in the operator table are
// accepted; everything else is rejected with a validation error, so callers
// can never smuggle raw "$where"-style operators into the store.
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Kind tells Parse how to convert a raw query value.
type Kind int

const (
	// KindSelectOnly fields may be projected but not filtered or sorted.
	KindSelectOnly Kind = iota
	KindString
	KindInt
	KindTime
	KindObjectID
	KindEnum
)

// Field maps an API field name onto its stored key.
type Field struct {
	Key  string
	Kind Kind
	Enum []string // allowed values for KindEnum
}

// Schema is the allow-list of API field names for one resource.
type Schema map[string]Field

// operators is the complete set of comparison operators clients may use.
var operators = map[string]string{
	"eq":  "$eq",
	"ne":  "$ne",
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
	"in":  "$in",
}

var reserved = map[string]bool{"select": true, "sort": true, "page": true, "limit": true}

type Condition struct {
	Key   string
	Op    string
	Value any
}

type SortKey struct {
	Key  string
	Desc bool
}

// ListQuery is a parsed, store-ready list request.
type ListQuery struct {
	Conditions []Condition
	Sort       []SortKey
	Fields     []string
	Page       int
	Limit      int
}

type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination describes neighbouring pages; nil entries are omitted.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// Parse reads select/sort/page/limit and field filters from values.
// Filters use either "field=value" or "field[op]=value".
func Parse(values url.Values, schema Schema) (ListQuery, error) {
	q := ListQuery{
		Page:  positiveInt(values.Get("page"), DefaultPage),
		Limit: positiveInt(values.Get("limit"), DefaultLimit),
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	// Keeps Skip and the next-page offset well inside int64 and Mongo's skip.
	if q.Page > math.MaxInt32/q.Limit {
		return ListQuery{}, invalid("page", "page must be at most %d", math.MaxInt32/q.Limit)
	}

	if sel := strings.TrimSpace(values.Get("select")); sel != "" {
		for _, name := range splitList(sel) {
			f, ok := schema[name]
			if !ok {
				return ListQuery{}, invalid("select", "unknown field %q", name)
			}
			q.Fields = append(q.Fields, f.Key)
		}
	}

	if sort := strings.TrimSpace(values.Get("sort")); sort != "" {
		for _, name := range splitList(sort) {
			desc := strings.HasPrefix(name, "-")
			name = strings.TrimPrefix(name, "-")
			f, ok := schema[name]
			if !ok || f.Kind == KindSelectOnly {
				return ListQuery{}, invalid("sort", "cannot sort by %q", name)
			}
			q.Sort = append(q.Sort, SortKey{Key: f.Key, Desc: desc})
		}
	} else {
		q.Sort = []SortKey{{Key: "created_at", Desc: true}}
	}

	for param, raw := range values {
		if reserved[param] {
			continue
		}
		name, op, err := splitParam(param)
		if err != nil {
			return ListQuery{}, err
		}
		f, ok := schema[name]
		if !ok || f.Kind == KindSelectOnly {
			return ListQuery{}, invalid(name, "cannot filter by %q", name)
		}
		mongoOp, ok := operators[op]
		if !ok {
			return ListQuery{}, invalid(name, "unsupported operator %q", op)
		}

		var value any
		if op == "in" {
			var items []any
			for _, r := range raw {
				for _, item := range splitList(r) {
					v, err := convert(name, f, item)
					if err != nil {
						return ListQuery{}, err
					}
					items = append(items, v)
				}
			}
			if len(items) == 0 {
				return ListQuery{}, invalid(name, "%s[in] needs at least one value", name)
			}
			value = items
		} else {
			if len(raw) != 1 {
				return ListQuery{}, invalid(name, "%s given more than once", param)
			}
			v, err := convert(name, f, raw[0])
			if err != nil {
				return ListQuery{}, err
			}
			value = v
		}
		q.Conditions = append(q.Conditions, Condition{Key: f.Key, Op: mongoOp, Value: value})
	}

	return q, nil
}

// Filter merges conditions into a filter document; several operators on one
// key ("gte" and "lte") form a range.
func (q ListQuery) Filter() bson.M {
	filter := bson.M{}
	for _, c := range q.Conditions {
		ops, ok := filter[c.Key].(bson.M)
		if !ok {
			ops = bson.M{}
			filter[c.Key] = ops
		}
		ops[c.Op] = c.Value
	}
	return filter
}

// SortDoc returns the sort document with _id as a stable tie-breaker.
func (q ListQuery) SortDoc() bson.D {
	doc := bson.D{}
	hasID := false
	for _, s := range q.Sort {
		dir := 1
		if s.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: s.Key, Value: dir})
		if s.Key == "_id" {
			hasID = true
		}
	}
	if !hasID {
		doc = append(doc, bson.E{Key: "_id", Value: -1})
	}
	return doc
}

// Projection returns nil when every field should be returned.
func (q ListQuery) Projection() bson.D {
	if len(q.Fields) == 0 {
		return nil
	}
	doc := bson.D{}
	for _, key := range q.Fields {
		doc = append(doc, bson.E{Key: key, Value: 1})
	}
	return doc
}

// Skip is the number of documents before the requested page.
func (q ListQuery) Skip() int64 {
	return int64((q.Page - 1) * q.Limit)
}

// Paginate computes next/prev descriptors from the matching total.
func (q ListQuery) Paginate(total int64) Pagination {
	var p Pagination
	start := q.Skip()
	end := int64(q.Page * q.Limit)
	if end < total {
		p.Next = &PageRef{Page: q.Page + 1, Limit: q.Limit}
	}
	if start > 0 {
		p.Prev = &PageRef{Page: q.Page - 1, Limit: q.Limit}
	}
	return p
}

func splitParam(param string) (string, string, error) {
	open := strings.Index(param, "[")
	if open == -1 {
		return param, "eq", nil
	}
	if !strings.HasSuffix(param, "]") || open == 0 {
		return "", "", invalid(param, "malformed filter %q", param)
	}
	return param[:open], param[open+1 : len(param)-1], nil
}

func convert(name string, f Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case KindString:
		return raw, nil
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, invalid(name, "%s must be a number", name)
		}
		return n, nil
	case KindTime:
		t, err := ParseTime(raw)
		if err != nil {
			return nil, invalid(name, "%s must be a date", name)
		}
		return t, nil
	case KindObjectID:
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, invalid(name, "%s must be an id", name)
		}
		return id, nil
	case KindEnum:
		for _, allowed := range f.Enum {
			if raw == allowed {
				return raw, nil
			}
		}
		return nil, invalid(name, "%s must be one of %s", name, strings.Join(f.Enum, ", "))
	}
	return nil, invalid(name, "cannot filter by %q", name)
}

// ParseTime accepts RFC 3339 timestamps and plain dates.
func ParseTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func invalid(field, format string, args ...any) error {
	return utils.NewValidationError(field, fmt.Sprintf(format, args...))
}
