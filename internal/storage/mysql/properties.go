package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"inmobiliaria/internal/domain"
)

func scanProperty(s scanner, extra ...any) (domain.Property, error) {
	var (
		p                             domain.Property
		typ, status                   string
		bedrooms, bathrooms           sql.NullInt64
		area                          sql.NullFloat64
		contactPhone, agentID         sql.NullString
		publishedAt, created, updated time.Time
	)
	dest := []any{
		&p.ID, &p.Title, &p.Description, &p.Price, &p.Address, &typ, &status,
		&bedrooms, &bathrooms, &area, &p.ContactEmail, &contactPhone, &agentID,
		&publishedAt, &created, &updated,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return domain.Property{}, err
	}
	p.Type = domain.PropertyType(typ)
	p.Status = domain.PropertyStatus(status)
	p.Bedrooms = intPtr(bedrooms)
	p.Bathrooms = intPtr(bathrooms)
	p.AreaSize = f64Ptr(area)
	p.ContactPhone = strPtr(contactPhone)
	p.AgentID = strPtr(agentID)
	p.PublishedAt = utc(publishedAt)
	p.CreatedAt = utc(created)
	p.UpdatedAt = utc(updated)
	p.Images = []domain.PropertyImage{}
	return p, nil
}

func (r *Repo) Search(ctx context.Context, q domain.PropertyQuery) ([]domain.Property, error) {
	query, args, err := buildSearch(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachImages(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachImages loads the images of every property in one round trip.
func (r *Repo) attachImages(ctx context.Context, props []domain.Property) error {
	if len(props) == 0 {
		return nil
	}
	idx := make(map[string]int, len(props))
	args := make([]any, 0, len(props))
	for i, p := range props {
		idx[p.ID] = i
		args = append(args, p.ID)
	}

	rows, err := r.db.QueryContext(ctx, listImagesForPrefix+placeholders(len(args))+listImagesForSuffix, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return err
		}
		if i, ok := idx[img.PropertyID]; ok {
			props[i].Images = append(props[i].Images, img)
		}
	}
	return rows.Err()
}

func (r *Repo) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	var (
		aID, aName, aEmail, aPhone, aBio, aPhoto sql.NullString
		aCreated, aUpdated                       sql.NullTime
	)
	row := r.db.QueryRowContext(ctx, getPropertySQL, id)
	p, err := scanProperty(row, &aID, &aName, &aEmail, &aPhone, &aBio, &aPhoto, &aCreated, &aUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Property{}, domain.NotFound("property")
		}
		return domain.Property{}, err
	}
	if aID.Valid {
		p.Agent = &domain.Agent{
			ID:        aID.String,
			Name:      aName.String,
			Email:     aEmail.String,
			Phone:     strPtr(aPhone),
			Bio:       strPtr(aBio),
			PhotoURL:  strPtr(aPhoto),
			CreatedAt: utc(aCreated.Time),
			UpdatedAt: utc(aUpdated.Time),
		}
	}

	imgs, err := r.ListImages(ctx, id)
	if err != nil {
		return domain.Property{}, err
	}
	p.Images = imgs
	return p, nil
}

func (r *Repo) PropertyExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, propertyExistsSQL, id).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	}
	return false, err
}

func (r *Repo) ListPropertyIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listPropertyIDsSQL)
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

func (r *Repo) CreateProperty(ctx context.Context, p domain.Property) error {
	_, err := r.db.ExecContext(ctx, insertPropertySQL,
		p.ID,
		p.Title,
		p.Description,
		p.Price,
		p.Address,
		string(p.Type),
		string(p.Status),
		valInt(p.Bedrooms),
		valInt(p.Bathrooms),
		valF64(p.AreaSize),
		p.ContactEmail,
		valStr(p.ContactPhone),
		valStr(p.AgentID),
		p.PublishedAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return mapErr(err, "agent")
	}
	return nil
}

// UpdateProperty writes the non-nil patch fields and returns the fresh row.
func (r *Repo) UpdateProperty(ctx context.Context, id string, patch domain.PropertyPatch, at time.Time) (domain.Property, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.Address != nil {
		set("address", *patch.Address)
	}
	if patch.Type != nil {
		set("type", string(*patch.Type))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Bedrooms != nil {
		set("bedrooms", *patch.Bedrooms)
	}
	if patch.Bathrooms != nil {
		set("bathrooms", *patch.Bathrooms)
	}
	if patch.AreaSize != nil {
		set("area_size", *patch.AreaSize)
	}
	if patch.ContactEmail != nil {
		set("contact_email", *patch.ContactEmail)
	}
	if patch.ContactPhone != nil {
		set("contact_phone", *patch.ContactPhone)
	}
	set("updated_at", at)
	args = append(args, id)

	q := "UPDATE properties SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return domain.Property{}, err
	}
	// RowsAffected does not distinguish "missing" from "unchanged" without
	// clientFoundRows, so the read decides.
	return r.GetProperty(ctx, id)
}

func (r *Repo) DeleteProperty(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deletePropertySQL, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("property")
	}
	return nil
}
