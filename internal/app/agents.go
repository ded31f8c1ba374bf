package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"inmobiliaria/internal/domain"
)

type UpsertAgentInput struct {
	Name     string  `json:"name" validate:"required"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Phone    *string `json:"phone"`
	Bio      *string `json:"bio"`
	PhotoURL *string `json:"photo_url" validate:"omitnil,url"`
}

type AgentService struct {
	agents domain.AgentRepository
	cache  domain.Cache
	now    func() time.Time
}

func NewAgentService(r domain.AgentRepository, c domain.Cache) *AgentService {
	return &AgentService{agents: r, cache: c, now: func() time.Time { return time.Now().UTC() }}
}

func (s *AgentService) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	out, err := s.agents.ListAgents(ctx)
	if err != nil {
		return nil, domain.Dependency("list agents", err)
	}
	return out, nil
}

// IsAgent reports whether the principal has an agent profile.
func (s *AgentService) IsAgent(ctx context.Context, userID string) (bool, error) {
	_, err := s.agents.GetAgent(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	}
	return false, domain.Dependency("get agent", err)
}

// CreateAgent registers the caller as an agent. The email defaults to the
// one carried by the session.
func (s *AgentService) CreateAgent(ctx context.Context, p domain.Principal, in UpsertAgentInput) (domain.Agent, error) {
	exists, err := s.IsAgent(ctx, p.UserID)
	if err != nil {
		return domain.Agent{}, err
	}
	if exists {
		return domain.Agent{}, domain.NewValidationError("user is already an agent")
	}

	ve := domain.NewValidationError("invalid agent data")
	validateInput(ve, in)
	if ve.HasErrors() {
		return domain.Agent{}, ve
	}

	now := s.now()
	a := domain.Agent{
		ID:        p.UserID,
		Name:      strings.TrimSpace(in.Name),
		Email:     p.Email,
		Phone:     in.Phone,
		Bio:       in.Bio,
		PhotoURL:  in.PhotoURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Email != nil {
		a.Email = *in.Email
	}
	if err := s.agents.CreateAgent(ctx, a); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return domain.Agent{}, domain.NewValidationError("user is already an agent")
		}
		return domain.Agent{}, domain.Dependency("create agent", err)
	}
	return a, nil
}

func (s *AgentService) GetProfile(ctx context.Context, userID string) (domain.Agent, error) {
	a, err := s.agents.GetAgent(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Agent{}, domain.NotFound("agent profile")
		}
		return domain.Agent{}, domain.Dependency("get agent", err)
	}
	return a, nil
}

func (s *AgentService) UpdateProfile(ctx context.Context, userID string, in UpsertAgentInput) (domain.Agent, error) {
	a, err := s.GetProfile(ctx, userID)
	if err != nil {
		return domain.Agent{}, err
	}

	ve := domain.NewValidationError("invalid profile data")
	validateInput(ve, in)
	if ve.HasErrors() {
		return domain.Agent{}, ve
	}

	a.Name = strings.TrimSpace(in.Name)
	if in.Email != nil {
		a.Email = *in.Email
	}
	a.Phone = in.Phone
	a.Bio = in.Bio
	a.PhotoURL = in.PhotoURL
	a.UpdatedAt = s.now()
	if err := s.agents.UpdateAgent(ctx, a); err != nil {
		return domain.Agent{}, domain.Dependency("update agent", err)
	}
	s.invalidateListings(ctx, a.ID)
	return a, nil
}

// invalidateListings drops cached properties that embed the agent profile.
func (s *AgentService) invalidateListings(ctx context.Context, agentID string) {
	if s.cache == nil {
		return
	}
	ids, err := s.agents.AgentPropertyIDs(ctx, agentID)
	if err != nil {
		log.Warn().Err(err).Str("agent_id", agentID).Msg("could not list agent properties for cache invalidation")
		return
	}
	invalidateProperty(ctx, s.cache, ids...)
}
