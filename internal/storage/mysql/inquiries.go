package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"inmobiliaria/internal/domain"
)

func scanInquiry(s scanner) (domain.PropertyInquiry, error) {
	var (
		in    domain.PropertyInquiry
		phone sql.NullString
		title string
	)
	if err := s.Scan(&in.ID, &in.PropertyID, &in.Name, &in.Email, &phone, &in.Message, &in.Read, &in.CreatedAt, &title); err != nil {
		return domain.PropertyInquiry{}, err
	}
	in.Phone = strPtr(phone)
	in.CreatedAt = utc(in.CreatedAt)
	in.Property = &domain.PropertyRef{ID: in.PropertyID, Title: title}
	return in, nil
}

func (r *Repo) CreateInquiry(ctx context.Context, in domain.PropertyInquiry) error {
	_, err := r.db.ExecContext(ctx, insertInquirySQL,
		in.ID, in.PropertyID, in.Name, in.Email, valStr(in.Phone), in.Message, in.Read, in.CreatedAt)
	if err != nil {
		return mapErr(err, "property")
	}
	return nil
}

func (r *Repo) ListInquiries(ctx context.Context, q domain.InquiryQuery) ([]domain.PropertyInquiry, error) {
	var (
		where []string
		args  []any
	)
	if q.PropertyID != nil {
		where = append(where, "i.property_id = ?")
		args = append(args, *q.PropertyID)
	}
	if q.UnreadOnly {
		where = append(where, "i.is_read = FALSE")
	}
	query := inquirySelect
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY i.created_at DESC, i.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PropertyInquiry{}
	for rows.Next() {
		in, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *Repo) GetInquiry(ctx context.Context, id string) (domain.PropertyInquiry, error) {
	in, err := scanInquiry(r.db.QueryRowContext(ctx, inquirySelect+"\nWHERE i.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PropertyInquiry{}, domain.NotFound("inquiry")
		}
		return domain.PropertyInquiry{}, err
	}
	return in, nil
}

func (r *Repo) SetInquiryRead(ctx context.Context, id string, read bool) (domain.PropertyInquiry, error) {
	if _, err := r.db.ExecContext(ctx, setInquiryReadSQL, read, id); err != nil {
		return domain.PropertyInquiry{}, err
	}
	return r.GetInquiry(ctx, id)
}

func (r *Repo) DeleteInquiry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteInquirySQL, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.NotFound("inquiry")
	}
	return nil
}
