package domain

import "strings"

type Op string

const (
	OpEq     Op = "eq"
	OpGte    Op = "gte"
	OpLte    Op = "lte"
	OpSearch Op = "search" // case-insensitive substring, OR across Columns
)

// Predicate is one conjunct of a property read.
type Predicate struct {
	Op      Op
	Column  string
	Columns []string
	Value   any
}

// PropertyQuery is an ordered conjunction of predicates. Results are always
// ordered by published_at descending.
type PropertyQuery struct {
	Predicates []Predicate
	Limit      int // 0 means no limit
}

// Match evaluates the predicate against an in-memory property.
func (p Predicate) Match(prop Property) bool {
	switch p.Op {
	case OpSearch:
		term, _ := p.Value.(string)
		term = strings.ToLower(term)
		for _, c := range p.Columns {
			if s, ok := stringColumn(prop, c); ok && strings.Contains(strings.ToLower(s), term) {
				return true
			}
		}
		return false
	case OpEq:
		if s, ok := stringColumn(prop, p.Column); ok {
			return s == toString(p.Value)
		}
		v, ok := numberColumn(prop, p.Column)
		return ok && v == toFloat(p.Value)
	case OpGte:
		v, ok := numberColumn(prop, p.Column)
		return ok && v >= toFloat(p.Value)
	case OpLte:
		v, ok := numberColumn(prop, p.Column)
		return ok && v <= toFloat(p.Value)
	}
	return false
}

func (q PropertyQuery) Match(prop Property) bool {
	for _, p := range q.Predicates {
		if !p.Match(prop) {
			return false
		}
	}
	return true
}

func stringColumn(p Property, col string) (string, bool) {
	switch col {
	case "title":
		return p.Title, true
	case "description":
		return p.Description, true
	case "address":
		return p.Address, true
	case "type":
		return string(p.Type), true
	case "status":
		return string(p.Status), true
	}
	return "", false
}

// numberColumn reports false for NULL columns so range and equality
// predicates never match them, mirroring SQL semantics.
func numberColumn(p Property, col string) (float64, bool) {
	switch col {
	case "price":
		return p.Price, true
	case "bedrooms":
		if p.Bedrooms == nil {
			return 0, false
		}
		return float64(*p.Bedrooms), true
	case "bathrooms":
		if p.Bathrooms == nil {
			return 0, false
		}
		return float64(*p.Bathrooms), true
	case "area_size":
		if p.AreaSize == nil {
			return 0, false
		}
		return *p.AreaSize, true
	}
	return 0, false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case PropertyType:
		return string(t)
	case PropertyStatus:
		return string(t)
	}
	return ""
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return 0
}
