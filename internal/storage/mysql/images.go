package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inmobiliaria/internal/domain"
)

func scanImage(s scanner) (domain.PropertyImage, error) {
	var img domain.PropertyImage
	if err := s.Scan(&img.ID, &img.PropertyID, &img.URL, &img.StoragePath, &img.IsMain, &img.CreatedAt, &img.UpdatedAt); err != nil {
		return domain.PropertyImage{}, err
	}
	img.CreatedAt = utc(img.CreatedAt)
	img.UpdatedAt = utc(img.UpdatedAt)
	return img, nil
}

func (r *Repo) ListImages(ctx context.Context, propertyID string) ([]domain.PropertyImage, error) {
	rows, err := r.db.QueryContext(ctx, listImagesSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PropertyImage{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *Repo) GetImage(ctx context.Context, propertyID, imageID string) (domain.PropertyImage, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, getImageSQL, imageID, propertyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PropertyImage{}, domain.NotFound("image")
		}
		return domain.PropertyImage{}, err
	}
	return img, nil
}

func (r *Repo) InsertImage(ctx context.Context, img domain.PropertyImage) error {
	_, err := r.db.ExecContext(ctx, insertImageSQL,
		img.ID, img.PropertyID, img.URL, img.StoragePath, img.IsMain, img.CreatedAt, img.UpdatedAt)
	if err != nil {
		return mapErr(err, "property")
	}
	return nil
}

func (r *Repo) PromoteImage(ctx context.Context, propertyID, imageID string) error {
	_, err := r.db.ExecContext(ctx, promoteImageSQL, imageID, imageID, propertyID)
	return err
}

func (r *Repo) PromoteIfNoMain(ctx context.Context, propertyID, imageID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, promoteIfNoMainSQL, imageID, propertyID, propertyID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteImageAndPromote locks the parent property row so concurrent deletes
// of the same property serialize on it.
func (r *Repo) DeleteImageAndPromote(ctx context.Context, propertyID, imageID string) (promoted string, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var pid string
	if err = tx.QueryRowContext(ctx, lockPropertySQL, propertyID).Scan(&pid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.NotFound("property")
		}
		return "", err
	}

	var wasMain bool
	if err = tx.QueryRowContext(ctx, imageIsMainSQL, imageID, propertyID).Scan(&wasMain); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.NotFound("image")
		}
		return "", err
	}

	if _, err = tx.ExecContext(ctx, deleteImageSQL, imageID, propertyID); err != nil {
		return "", fmt.Errorf("delete image row: %w", err)
	}

	if wasMain {
		var next string
		switch err = tx.QueryRowContext(ctx, newestImageSQL, propertyID).Scan(&next); {
		case errors.Is(err, sql.ErrNoRows):
			err = nil
		case err != nil:
			return "", err
		default:
			if _, err = tx.ExecContext(ctx, promoteImageSQL, next, next, propertyID); err != nil {
				return "", fmt.Errorf("promote image: %w", err)
			}
			promoted = next
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return promoted, nil
}
