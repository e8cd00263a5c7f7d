package apifeatures

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"catalog/internal/apperrors"

	"github.com/shopspring/decimal"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Op is a comparison operator of a filter predicate.
type Op string

const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpContains Op = "contains"
	OpIn       Op = "in"
)

var reservedKeys = map[string]struct{}{
	"page":     {},
	"limit":    {},
	"pageSize": {},
	"sort":     {},
	"fields":   {},
}

var operatorKey = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)\[([a-z]+)\]$`)

// Predicate is a single typed filter condition on a whitelisted column.
type Predicate struct {
	Column string
	Op     Op
	Value  interface{}
}

// Order is a single sort key.
type Order struct {
	Column string
	Desc   bool
}

// Spec is the structured query produced from a query-string mapping.
// An empty Where matches every row.
type Spec struct {
	Where   []Predicate
	OrderBy []Order
	Skip    int
	Take    int
	Select  []string
}

// Builder translates an untyped query-string mapping into a Spec.
// Stages read only the raw parameters, so their outputs never depend on each other.
type Builder struct {
	params map[string]string
	fields FieldSet
	spec   Spec
	err    error
}

// New starts a builder over params restricted to fields.
func New(params map[string]string, fields FieldSet) *Builder {
	if params == nil {
		params = map[string]string{}
	}
	return &Builder{
		params: params,
		fields: fields,
		spec:   Spec{Where: []Predicate{}, Skip: 0, Take: DefaultLimit},
	}
}

func (b *Builder) fail(format string, args ...interface{}) {
	if b.err == nil {
		b.err = apperrors.New(apperrors.InvalidArgument, format, args...)
	}
}

// Filter parses `field=value` and `field[op]=value` keys into predicates.
// Unknown field names are ignored.
func (b *Builder) Filter() *Builder {
	keys := make([]string, 0, len(b.params))
	for k := range b.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		name, op := key, OpEq
		if m := operatorKey.FindStringSubmatch(key); m != nil {
			name, op = m[1], Op(m[2])
		}
		field, ok := b.fields[name]
		if !ok {
			continue
		}
		pred, err := buildPredicate(field, op, b.params[key])
		if err != nil {
			b.fail("invalid filter %q: %v", key, err)
			continue
		}
		b.spec.Where = append(b.spec.Where, pred)
	}
	return b
}

func buildPredicate(field Field, op Op, raw string) (Predicate, error) {
	switch op {
	case OpEq, OpNe:
	case OpGt, OpGte, OpLt, OpLte:
		if field.Kind == KindBool {
			return Predicate{}, fmt.Errorf("operator %s is not supported on boolean fields", op)
		}
	case OpContains:
		if field.Kind != KindString {
			return Predicate{}, fmt.Errorf("operator contains is only supported on text fields")
		}
		return Predicate{Column: field.Column, Op: op, Value: raw}, nil
	case OpIn:
		parts := strings.Split(raw, ",")
		values := make([]interface{}, 0, len(parts))
		for _, p := range parts {
			v, err := Coerce(field.Kind, strings.TrimSpace(p))
			if err != nil {
				return Predicate{}, err
			}
			values = append(values, v)
		}
		return Predicate{Column: field.Column, Op: op, Value: values}, nil
	default:
		return Predicate{}, fmt.Errorf("unknown operator %q", op)
	}

	v, err := Coerce(field.Kind, strings.TrimSpace(raw))
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{Column: field.Column, Op: op, Value: v}, nil
}

// Sort parses `sort=-price,name`; a leading minus sorts descending.
func (b *Builder) Sort() *Builder {
	raw := strings.TrimSpace(b.params["sort"])
	if raw == "" {
		return b
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		field, ok := b.fields[name]
		if !ok {
			b.fail("cannot sort by unknown field %q", name)
			continue
		}
		b.spec.OrderBy = append(b.spec.OrderBy, Order{Column: field.Column, Desc: desc})
	}
	return b
}

// LimitFields restricts the selected columns. The id column is always selected.
func (b *Builder) LimitFields() *Builder {
	raw := strings.TrimSpace(b.params["fields"])
	if raw == "" {
		return b
	}
	selected := []string{b.idColumn()}
	seen := map[string]struct{}{selected[0]: {}}
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		field, ok := b.fields[name]
		if !ok {
			b.fail("cannot select unknown field %q", name)
			continue
		}
		if _, dup := seen[field.Column]; dup {
			continue
		}
		seen[field.Column] = struct{}{}
		selected = append(selected, field.Column)
	}
	b.spec.Select = selected
	return b
}

func (b *Builder) idColumn() string {
	if f, ok := b.fields["id"]; ok {
		return f.Column
	}
	return "id"
}

// Paginate computes skip and take from page and limit (alias pageSize).
// Pages below 1 clamp to 1 and limits clamp to [1, MaxLimit]. Pages are
// capped so the skip cannot overflow.
func (b *Builder) Paginate() *Builder {
	page := DefaultPage
	if raw := strings.TrimSpace(b.params["page"]); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			b.fail("page must be an integer, got %q", raw)
		} else {
			page = n
		}
	}

	limit := DefaultLimit
	rawLimit := strings.TrimSpace(b.params["limit"])
	if rawLimit == "" {
		rawLimit = strings.TrimSpace(b.params["pageSize"])
	}
	if rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil {
			b.fail("limit must be an integer, got %q", rawLimit)
		} else {
			limit = n
		}
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	b.spec.Take = limit
	b.spec.Skip = (page - 1) * limit
	return b
}

// Build finalizes the spec or returns the first stage error.
func (b *Builder) Build() (Spec, error) {
	if b.err != nil {
		return Spec{}, b.err
	}
	return b.spec, nil
}

// Coerce converts a raw query-string value to the Go type of kind.
func Coerce(kind Kind, raw string) (interface{}, error) {
	switch kind {
	case KindDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a decimal number", raw)
		}
		return d, nil
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	case KindBool:
		return ParseBool(raw)
	case KindTime:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not an RFC3339 timestamp or a date", raw)
		}
		return t, nil
	default:
		return raw, nil
	}
}

// ParseBool accepts true/false, 1/0, yes/no, y/n and t/f in any case.
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "1", "yes", "y":
		return true, nil
	case "false", "f", "0", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", raw)
}
