package app

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"inmobiliaria/internal/domain"
)

// filterInput mirrors the query string after type coercion; the validator
// tags carry the per-field constraints.
type filterInput struct {
	Type      *string  `json:"type" validate:"omitnil,oneof=casa departamento terreno local oficina"`
	Status    *string  `json:"status" validate:"omitnil,oneof=disponible vendida alquilada reservada"`
	MinPrice  *float64 `json:"min_price" validate:"omitnil,gt=0"`
	MaxPrice  *float64 `json:"max_price" validate:"omitnil,gt=0"`
	Bedrooms  *int     `json:"bedrooms" validate:"omitnil,min=0"`
	Bathrooms *int     `json:"bathrooms" validate:"omitnil,min=0"`
	MinArea   *float64 `json:"min_area" validate:"omitnil,gt=0"`
	MaxArea   *float64 `json:"max_area" validate:"omitnil,gt=0"`
}

// ParsePropertyFilters turns raw query parameters into PropertyFilters.
// Empty values count as absent. Every invalid parameter is reported in the
// returned *domain.ValidationError. min > max is not rejected.
func ParsePropertyFilters(q url.Values) (domain.PropertyFilters, error) {
	ve := domain.NewValidationError("invalid filter parameters")
	var in filterInput

	in.Type = optString(q, "type")
	in.Status = optString(q, "status")
	in.MinPrice = optFloat(ve, q, "min_price")
	in.MaxPrice = optFloat(ve, q, "max_price")
	in.Bedrooms = optInt(ve, q, "bedrooms")
	in.Bathrooms = optInt(ve, q, "bathrooms")
	in.MinArea = optFloat(ve, q, "min_area")
	in.MaxArea = optFloat(ve, q, "max_area")

	validateInput(ve, in)
	if ve.HasErrors() {
		return domain.PropertyFilters{}, ve
	}

	f := domain.PropertyFilters{
		MinPrice:  in.MinPrice,
		MaxPrice:  in.MaxPrice,
		Bedrooms:  in.Bedrooms,
		Bathrooms: in.Bathrooms,
		MinArea:   in.MinArea,
		MaxArea:   in.MaxArea,
		Search:    optString(q, "search"),
	}
	if in.Type != nil {
		t := domain.PropertyType(*in.Type)
		f.Type = &t
	}
	if in.Status != nil {
		s := domain.PropertyStatus(*in.Status)
		f.Status = &s
	}
	return f, nil
}

// BuildPropertyQuery composes the predicates in their fixed order:
// type, status, price bounds, bedrooms, bathrooms, area bounds, search.
func BuildPropertyQuery(f domain.PropertyFilters, opts domain.SearchOptions) domain.PropertyQuery {
	var q domain.PropertyQuery
	add := func(op domain.Op, col string, v any) {
		q.Predicates = append(q.Predicates, domain.Predicate{Op: op, Column: col, Value: v})
	}

	if f.Type != nil {
		add(domain.OpEq, "type", string(*f.Type))
	}
	switch {
	case f.Status != nil:
		add(domain.OpEq, "status", string(*f.Status))
	case !opts.IncludeAllStatuses:
		add(domain.OpEq, "status", string(domain.StatusDisponible))
	}
	if f.MinPrice != nil {
		add(domain.OpGte, "price", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add(domain.OpLte, "price", *f.MaxPrice)
	}
	if f.Bedrooms != nil {
		add(domain.OpEq, "bedrooms", *f.Bedrooms)
	}
	if f.Bathrooms != nil {
		add(domain.OpEq, "bathrooms", *f.Bathrooms)
	}
	if f.MinArea != nil {
		add(domain.OpGte, "area_size", *f.MinArea)
	}
	if f.MaxArea != nil {
		add(domain.OpLte, "area_size", *f.MaxArea)
	}
	if f.Search != nil {
		q.Predicates = append(q.Predicates, domain.Predicate{
			Op:      domain.OpSearch,
			Columns: []string{"title", "description", "address"},
			Value:   *f.Search,
		})
	}
	return q
}

// FeaturedQuery is the home page read: available listings only, newest six.
func FeaturedQuery() domain.PropertyQuery {
	q := BuildPropertyQuery(domain.PropertyFilters{}, domain.SearchOptions{})
	q.Limit = domain.FeaturedLimit
	return q
}

func optString(q url.Values, key string) *string {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil
	}
	return &v
}

func optFloat(ve *domain.ValidationError, q url.Values, key string) *float64 {
	s := optString(q, key)
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		ve.Add(key, "must be a number")
		return nil
	}
	return &f
}

func optInt(ve *domain.ValidationError, q url.Values, key string) *int {
	s := optString(q, key)
	if s == nil {
		return nil
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		ve.Add(key, "must be an integer")
		return nil
	}
	return &n
}
