package domain

import (
	"io"
	"time"
)

type PropertyImage struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	URL         string    `json:"url"`
	StoragePath string    `json:"storage_path"`
	IsMain      bool      `json:"is_main"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Upload is an image file received from a client, not yet stored.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
