package domain

import (
	"context"
	"io"
	"time"
)

type PropertyRepository interface {
	// Read paths. Search applies q.Predicates in order and sorts by
	// published_at desc; images are attached to every row.
	Search(ctx context.Context, q PropertyQuery) ([]Property, error)
	GetProperty(ctx context.Context, id string) (Property, error)
	PropertyExists(ctx context.Context, id string) (bool, error)
	ListPropertyIDs(ctx context.Context) ([]string, error)

	// Write paths
	CreateProperty(ctx context.Context, p Property) error
	UpdateProperty(ctx context.Context, id string, patch PropertyPatch, at time.Time) (Property, error)
	DeleteProperty(ctx context.Context, id string) error
}

type ImageRepository interface {
	ListImages(ctx context.Context, propertyID string) ([]PropertyImage, error)
	GetImage(ctx context.Context, propertyID, imageID string) (PropertyImage, error)
	InsertImage(ctx context.Context, img PropertyImage) error
	// PromoteImage flags imageID main and clears every other image of the
	// property in a single statement.
	PromoteImage(ctx context.Context, propertyID, imageID string) error
	// PromoteIfNoMain flags imageID main only when the property has no main
	// image yet, in a single statement. It reports whether it did.
	PromoteIfNoMain(ctx context.Context, propertyID, imageID string) (bool, error)
	// DeleteImageAndPromote removes the row and, when it was main, promotes
	// the most recently created remaining image, in one transaction.
	// It returns the promoted image id, or "" when none was promoted.
	DeleteImageAndPromote(ctx context.Context, propertyID, imageID string) (string, error)
}

type InquiryRepository interface {
	CreateInquiry(ctx context.Context, in PropertyInquiry) error
	ListInquiries(ctx context.Context, q InquiryQuery) ([]PropertyInquiry, error)
	GetInquiry(ctx context.Context, id string) (PropertyInquiry, error)
	SetInquiryRead(ctx context.Context, id string, read bool) (PropertyInquiry, error)
	DeleteInquiry(ctx context.Context, id string) error
}

type AgentRepository interface {
	ListAgents(ctx context.Context) ([]Agent, error)
	GetAgent(ctx context.Context, id string) (Agent, error)
	CreateAgent(ctx context.Context, a Agent) error
	UpdateAgent(ctx context.Context, a Agent) error
	// AgentPropertyIDs lists the properties that embed the agent.
	AgentPropertyIDs(ctx context.Context, agentID string) ([]string, error)
}

type BlobStore interface {
	Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) (publicURL string, err error)
	Delete(ctx context.Context, path string) error
	EnsureBucket(ctx context.Context) error
}

// Locker provides a mutual-exclusion scope keyed by an arbitrary string.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	// Del removes every given key; missing keys are not an error.
	Del(ctx context.Context, keys ...string) error
}
