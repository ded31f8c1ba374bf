package domain

import "time"

type Agent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	Bio       *string   `json:"bio"`
	PhotoURL  *string   `json:"photo_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the authenticated caller resolved from a session token.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

const RoleAdmin = "admin"

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
