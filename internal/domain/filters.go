package domain

// PropertyFilters is the validated, request-scoped search input.
// Nil means "no constraint on this dimension".
type PropertyFilters struct {
	Type      *PropertyType
	Status    *PropertyStatus
	MinPrice  *float64
	MaxPrice  *float64
	Bedrooms  *int
	Bathrooms *int
	MinArea   *float64
	MaxArea   *float64
	Search    *string
}

type SearchOptions struct {
	// IncludeAllStatuses disables the disponible default applied when
	// Status is nil. The public listing leaves it false; the dashboard sets it.
	IncludeAllStatuses bool
}

const FeaturedLimit = 6
