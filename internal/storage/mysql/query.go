package mysql

import (
	"fmt"
	"strings"

	"inmobiliaria/internal/domain"
)

// filterColumns whitelists the property columns a predicate may reference.
var filterColumns = map[string]string{
	"title":       "p.title",
	"description": "p.description",
	"address":     "p.address",
	"type":        "p.type",
	"status":      "p.status",
	"price":       "p.price",
	"bedrooms":    "p.bedrooms",
	"bathrooms":   "p.bathrooms",
	"area_size":   "p.area_size",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildSearch renders q as a complete SELECT in predicate order.
func buildSearch(q domain.PropertyQuery) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	for _, p := range q.Predicates {
		clause, a, err := renderPredicate(p)
		if err != nil {
			return "", nil, err
		}
		where = append(where, clause)
		args = append(args, a...)
	}

	var b strings.Builder
	b.WriteString(searchPropertiesSQL)
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, "\n  AND "))
	}
	b.WriteString("\nORDER BY p.published_at DESC, p.id DESC")
	if q.Limit > 0 {
		b.WriteString("\nLIMIT ?")
		args = append(args, q.Limit)
	}
	return b.String(), args, nil
}

func renderPredicate(p domain.Predicate) (string, []any, error) {
	if p.Op == domain.OpSearch {
		term, ok := p.Value.(string)
		if !ok || len(p.Columns) == 0 {
			return "", nil, fmt.Errorf("mysql: malformed search predicate")
		}
		pattern := "%" + likeEscaper.Replace(term) + "%"
		parts := make([]string, 0, len(p.Columns))
		args := make([]any, 0, len(p.Columns))
		for _, c := range p.Columns {
			col, ok := filterColumns[c]
			if !ok {
				return "", nil, fmt.Errorf("mysql: unsupported filter column %q", c)
			}
			parts = append(parts, "LOWER("+col+") LIKE LOWER(?)")
			args = append(args, pattern)
		}
		return "(" + strings.Join(parts, " OR ") + ")", args, nil
	}

	col, ok := filterColumns[p.Column]
	if !ok {
		return "", nil, fmt.Errorf("mysql: unsupported filter column %q", p.Column)
	}
	var op string
	switch p.Op {
	case domain.OpEq:
		op = "="
	case domain.OpGte:
		op = ">="
	case domain.OpLte:
		op = "<="
	default:
		return "", nil, fmt.Errorf("mysql: unsupported operator %q", p.Op)
	}
	return col + " " + op + " ?", []any{p.Value}, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
