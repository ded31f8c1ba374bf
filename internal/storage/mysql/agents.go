package mysql

import (
	"context"
	"database/sql"
	"errors"

	"inmobiliaria/internal/domain"
)

func scanAgent(s scanner) (domain.Agent, error) {
	var (
		a                 domain.Agent
		phone, bio, photo sql.NullString
	)
	if err := s.Scan(&a.ID, &a.Name, &a.Email, &phone, &bio, &photo, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return domain.Agent{}, err
	}
	a.Phone = strPtr(phone)
	a.Bio = strPtr(bio)
	a.PhotoURL = strPtr(photo)
	a.CreatedAt = utc(a.CreatedAt)
	a.UpdatedAt = utc(a.UpdatedAt)
	return a, nil
}

func (r *Repo) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	rows, err := r.db.QueryContext(ctx, agentSelect+"\nORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) GetAgent(ctx context.Context, id string) (domain.Agent, error) {
	a, err := scanAgent(r.db.QueryRowContext(ctx, agentSelect+"\nWHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Agent{}, domain.NotFound("agent")
		}
		return domain.Agent{}, err
	}
	return a, nil
}

func (r *Repo) CreateAgent(ctx context.Context, a domain.Agent) error {
	_, err := r.db.ExecContext(ctx, insertAgentSQL,
		a.ID, a.Name, a.Email, valStr(a.Phone), valStr(a.Bio), valStr(a.PhotoURL), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return mapErr(err, "agent")
	}
	return nil
}

func (r *Repo) UpdateAgent(ctx context.Context, a domain.Agent) error {
	_, err := r.db.ExecContext(ctx, updateAgentSQL,
		a.Name, a.Email, valStr(a.Phone), valStr(a.Bio), valStr(a.PhotoURL), a.UpdatedAt, a.ID)
	return err
}

func (r *Repo) AgentPropertyIDs(ctx context.Context, agentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, agentPropertyIDsSQL, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
