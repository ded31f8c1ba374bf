package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"inmobiliaria/internal/domain"
)

type CreatePropertyInput struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"min=10"`
	Price        float64  `json:"price" validate:"gt=0"`
	Address      string   `json:"address" validate:"required"`
	Type         string   `json:"type" validate:"required,oneof=casa departamento terreno local oficina"`
	Status       string   `json:"status" validate:"omitempty,oneof=disponible vendida alquilada reservada"`
	Bedrooms     *int     `json:"bedrooms" validate:"omitnil,min=0"`
	Bathrooms    *int     `json:"bathrooms" validate:"omitnil,min=0"`
	AreaSize     *float64 `json:"area_size" validate:"omitnil,gt=0"`
	ContactEmail string   `json:"contact_email" validate:"required,email"`
	ContactPhone *string  `json:"contact_phone"`
}

// UpdatePropertyInput is a partial update; absent (or null) fields are kept.
type UpdatePropertyInput struct {
	Title        *string  `json:"title" validate:"omitnil,min=1"`
	Description  *string  `json:"description" validate:"omitnil,min=10"`
	Price        *float64 `json:"price" validate:"omitnil,gt=0"`
	Address      *string  `json:"address" validate:"omitnil,min=1"`
	Type         *string  `json:"type" validate:"omitnil,oneof=casa departamento terreno local oficina"`
	Status       *string  `json:"status" validate:"omitnil,oneof=disponible vendida alquilada reservada"`
	Bedrooms     *int     `json:"bedrooms" validate:"omitnil,min=0"`
	Bathrooms    *int     `json:"bathrooms" validate:"omitnil,min=0"`
	AreaSize     *float64 `json:"area_size" validate:"omitnil,gt=0"`
	ContactEmail *string  `json:"contact_email" validate:"omitnil,email"`
	ContactPhone *string  `json:"contact_phone"`
}

// CatalogService owns property writes.
type CatalogService struct {
	props  domain.PropertyRepository
	images domain.ImageRepository
	blobs  domain.BlobStore
	locks  domain.Locker
	cache  domain.Cache
	now    func() time.Time
}

func NewCatalogService(p domain.PropertyRepository, i domain.ImageRepository, b domain.BlobStore, l domain.Locker, c domain.Cache) *CatalogService {
	return &CatalogService{props: p, images: i, blobs: b, locks: l, cache: c, now: func() time.Time { return time.Now().UTC() }}
}

func (s *CatalogService) CreateProperty(ctx context.Context, agentID string, in CreatePropertyInput) (domain.Property, error) {
	ve := domain.NewValidationError("invalid property data")
	validateInput(ve, in)
	if ve.HasErrors() {
		return domain.Property{}, ve
	}

	status := domain.StatusDisponible
	if in.Status != "" {
		status = domain.PropertyStatus(in.Status)
	}
	now := s.now()
	p := domain.Property{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Price:        in.Price,
		Address:      strings.TrimSpace(in.Address),
		Type:         domain.PropertyType(in.Type),
		Status:       status,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		AreaSize:     in.AreaSize,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		PublishedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
		Images:       []domain.PropertyImage{},
	}
	if agentID != "" {
		p.AgentID = &agentID
	}
	if err := s.props.CreateProperty(ctx, p); err != nil {
		return domain.Property{}, domain.Dependency("create property", err)
	}
	invalidateProperty(ctx, s.cache, "")
	return p, nil
}

func (s *CatalogService) UpdateProperty(ctx context.Context, id string, in UpdatePropertyInput) (domain.Property, error) {
	ve := domain.NewValidationError("invalid property data")
	validateInput(ve, in)
	if ve.HasErrors() {
		return domain.Property{}, ve
	}

	patch := domain.PropertyPatch{
		Title:        in.Title,
		Description:  in.Description,
		Price:        in.Price,
		Address:      in.Address,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		AreaSize:     in.AreaSize,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
	}
	if in.Type != nil {
		t := domain.PropertyType(*in.Type)
		patch.Type = &t
	}
	if in.Status != nil {
		st := domain.PropertyStatus(*in.Status)
		patch.Status = &st
	}

	p, err := s.props.UpdateProperty(ctx, id, patch, s.now())
	if err != nil {
		return domain.Property{}, domain.Dependency("update property", err)
	}
	invalidateProperty(ctx, s.cache, id)
	return p, nil
}

// DeleteProperty removes the listing; image and inquiry rows cascade. Blobs
// are removed first on a best-effort basis since the rows are going away
// regardless.
func (s *CatalogService) DeleteProperty(ctx context.Context, id string) error {
	ok, err := s.props.PropertyExists(ctx, id)
	if err != nil {
		return domain.Dependency("check property", err)
	}
	if !ok {
		return domain.NotFound("property")
	}

	unlock, err := lockProperty(ctx, s.locks, id)
	if err != nil {
		return err
	}
	defer unlock()

	imgs, err := s.images.ListImages(ctx, id)
	if err != nil {
		return domain.Dependency("list images", err)
	}
	for _, img := range imgs {
		if err := s.blobs.Delete(ctx, img.StoragePath); err != nil {
			log.Warn().Err(err).Str("path", img.StoragePath).Msg("blob delete failed during property delete")
		}
	}

	if err := s.props.DeleteProperty(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("property")
		}
		return domain.Dependency("delete property", err)
	}
	invalidateProperty(ctx, s.cache, id)
	return nil
}
