package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"inmobiliaria/internal/domain"
)

type CreateInquiryInput struct {
	PropertyID string  `json:"property_id" validate:"required,uuid"`
	Name       string  `json:"name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      *string `json:"phone"`
	Message    string  `json:"message" validate:"min=10"`
}

type InquiryService struct {
	props     domain.PropertyRepository
	inquiries domain.InquiryRepository
	now       func() time.Time
}

func NewInquiryService(p domain.PropertyRepository, i domain.InquiryRepository) *InquiryService {
	return &InquiryService{props: p, inquiries: i, now: func() time.Time { return time.Now().UTC() }}
}

func (s *InquiryService) CreateInquiry(ctx context.Context, in CreateInquiryInput) (domain.PropertyInquiry, error) {
	ve := domain.NewValidationError("invalid inquiry data")
	validateInput(ve, in)
	if ve.HasErrors() {
		return domain.PropertyInquiry{}, ve
	}

	ok, err := s.props.PropertyExists(ctx, in.PropertyID)
	if err != nil {
		return domain.PropertyInquiry{}, domain.Dependency("check property", err)
	}
	if !ok {
		return domain.PropertyInquiry{}, domain.NotFound("property")
	}

	inq := domain.PropertyInquiry{
		ID:         uuid.NewString(),
		PropertyID: in.PropertyID,
		Name:       strings.TrimSpace(in.Name),
		Email:      in.Email,
		Phone:      in.Phone,
		Message:    in.Message,
		CreatedAt:  s.now(),
	}
	if err := s.inquiries.CreateInquiry(ctx, inq); err != nil {
		return domain.PropertyInquiry{}, domain.Dependency("create inquiry", err)
	}
	return inq, nil
}

// ListInquiries returns newest first.
func (s *InquiryService) ListInquiries(ctx context.Context, q domain.InquiryQuery) ([]domain.PropertyInquiry, error) {
	out, err := s.inquiries.ListInquiries(ctx, q)
	if err != nil {
		return nil, domain.Dependency("list inquiries", err)
	}
	return out, nil
}

// ToggleRead flips the read flag and returns the updated inquiry.
func (s *InquiryService) ToggleRead(ctx context.Context, id string) (domain.PropertyInquiry, error) {
	cur, err := s.inquiries.GetInquiry(ctx, id)
	if err != nil {
		return domain.PropertyInquiry{}, domain.Dependency("get inquiry", err)
	}
	out, err := s.inquiries.SetInquiryRead(ctx, id, !cur.Read)
	if err != nil {
		return domain.PropertyInquiry{}, domain.Dependency("update inquiry", err)
	}
	return out, nil
}

func (s *InquiryService) DeleteInquiry(ctx context.Context, id string) error {
	if _, err := s.inquiries.GetInquiry(ctx, id); err != nil {
		return domain.Dependency("get inquiry", err)
	}
	if err := s.inquiries.DeleteInquiry(ctx, id); err != nil {
		return domain.Dependency("delete inquiry", err)
	}
	return nil
}
