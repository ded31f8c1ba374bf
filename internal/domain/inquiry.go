package domain

import "time"

type PropertyInquiry struct {
	ID         string       `json:"id"`
	PropertyID string       `json:"property_id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Phone      *string      `json:"phone"`
	Message    string       `json:"message"`
	Read       bool         `json:"read"`
	CreatedAt  time.Time    `json:"created_at"`
	Property   *PropertyRef `json:"property,omitempty"`
}

// PropertyRef is the slim property projection embedded in inquiry listings.
type PropertyRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type InquiryQuery struct {
	PropertyID *string
	UnreadOnly bool
}
