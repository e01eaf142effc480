package provider

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
)

var ErrInvalidQuery = errors.New("invalid list query")

// Fields lists the provider attributes that may be filtered, sorted or selected.
var Fields = []string{"name", "address", "tel", "createdAt", "updatedAt"}

var timeFields = map[string]bool{"createdAt": true, "updatedAt": true}

type Filter struct {
	Field  string
	Op     Op
	Values []string
}

// Args returns the filter values typed for the underlying column.
func (f Filter) Args() []any {
	out := make([]any, 0, len(f.Values))
	for _, v := range f.Values {
		if timeFields[f.Field] {
			t, _ := time.Parse(time.RFC3339, v)
			out = append(out, t)
			continue
		}
		out = append(out, v)
	}
	return out
}

type SortField struct {
	Field string
	Desc  bool
}

type ListQuery struct {
	Filters []Filter
	Select  []string
	Sort    []SortField
	Page    int
	Limit   int
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ParseListQuery reads filters of the form field=value or field[op]=value,
// plus select, sort, page and limit.
func ParseListQuery(values url.Values) (ListQuery, error) {
	q := ListQuery{
		Page:  DefaultPage,
		Limit: DefaultLimit,
		Sort:  []SortField{{Field: "createdAt", Desc: true}},
	}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		raw := vals[len(vals)-1]

		switch key {
		case "select":
			fields, err := parseFieldList(raw)
			if err != nil {
				return ListQuery{}, err
			}
			q.Select = fields
			continue
		case "sort":
			sorts, err := parseSort(raw)
			if err != nil {
				return ListQuery{}, err
			}
			q.Sort = sorts
			continue
		case "page":
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return ListQuery{}, fmt.Errorf("%w: page must be a positive integer", ErrInvalidQuery)
			}
			q.Page = n
			continue
		case "limit":
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return ListQuery{}, fmt.Errorf("%w: limit must be a positive integer", ErrInvalidQuery)
			}
			q.Limit = min(n, MaxLimit)
			continue
		}

		f, err := parseFilter(key, raw)
		if err != nil {
			return ListQuery{}, err
		}
		q.Filters = append(q.Filters, f)
	}

	if q.Page > math.MaxInt/q.Limit {
		return ListQuery{}, fmt.Errorf("%w: page is out of range", ErrInvalidQuery)
	}

	// map iteration order is random; keep SQL generation stable
	slices.SortFunc(q.Filters, func(a, b Filter) int {
		return strings.Compare(a.Field+string(a.Op), b.Field+string(b.Op))
	})

	return q, nil
}

func parseFilter(key, raw string) (Filter, error) {
	field, op := key, OpEq

	if i := strings.IndexByte(key, '['); i > 0 && strings.HasSuffix(key, "]") {
		field = key[:i]
		op = Op(key[i+1 : len(key)-1])
	}

	if !slices.Contains(Fields, field) {
		return Filter{}, fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, field)
	}

	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn:
	default:
		return Filter{}, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, op)
	}

	values := []string{raw}
	if op == OpIn {
		values = splitNonEmpty(raw)
		if len(values) == 0 {
			return Filter{}, fmt.Errorf("%w: %s[in] needs at least one value", ErrInvalidQuery, field)
		}
	}

	if timeFields[field] {
		for _, v := range values {
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				return Filter{}, fmt.Errorf("%w: %s must be RFC3339", ErrInvalidQuery, field)
			}
		}
	}

	return Filter{Field: field, Op: op, Values: values}, nil
}

func parseFieldList(raw string) ([]string, error) {
	fields := splitNonEmpty(raw)
	for _, f := range fields {
		if !slices.Contains(Fields, f) {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, f)
		}
	}
	return fields, nil
}

func parseSort(raw string) ([]SortField, error) {
	var out []SortField
	for _, part := range splitNonEmpty(raw) {
		sf := SortField{Field: part}
		if strings.HasPrefix(part, "-") {
			sf = SortField{Field: part[1:], Desc: true}
		}
		if !slices.Contains(Fields, sf.Field) {
			return nil, fmt.Errorf("%w: unknown sort field %q", ErrInvalidQuery, sf.Field)
		}
		out = append(out, sf)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty sort", ErrInvalidQuery)
	}
	return out, nil
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
