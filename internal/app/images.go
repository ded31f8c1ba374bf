package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"inmobiliaria/internal/domain"
)

const MaxImageSize = 10 << 20 // 10 MiB

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var allowedExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// ImageService keeps the image set of a property consistent: whenever a
// property has images, exactly one of them is main.
//
// Every mutating sequence runs under a per-property lock. Promotion itself is
// a single statement in the store, so no reader ever observes two mains.
type ImageService struct {
	props  domain.PropertyRepository
	images domain.ImageRepository
	blobs  domain.BlobStore
	locks  domain.Locker
	cache  domain.Cache
	now    func() time.Time
	newID  func() string
}

func NewImageService(p domain.PropertyRepository, i domain.ImageRepository, b domain.BlobStore, l domain.Locker, c domain.Cache) *ImageService {
	return &ImageService{
		props:  p,
		images: i,
		blobs:  b,
		locks:  l,
		cache:  c,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// WithClock replaces the time source; tests use it to order created_at.
func (s *ImageService) WithClock(now func() time.Time) *ImageService {
	s.now = now
	return s
}

func (s *ImageService) ListImages(ctx context.Context, propertyID string) ([]domain.PropertyImage, error) {
	if err := s.requireProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	imgs, err := s.images.ListImages(ctx, propertyID)
	if err != nil {
		return nil, domain.Dependency("list images", err)
	}
	return imgs, nil
}

// AddImage stores the file and records it. The first image of a property is
// always main; otherwise isMain promotes the new image and clears the rest.
// The upload runs before the property lock is taken, so a slow blob store
// cannot outlive the lock.
func (s *ImageService) AddImage(ctx context.Context, propertyID string, up domain.Upload, isMain bool) (domain.PropertyImage, error) {
	if err := ValidateUpload(up); err != nil {
		return domain.PropertyImage{}, err
	}
	if err := s.requireProperty(ctx, propertyID); err != nil {
		return domain.PropertyImage{}, err
	}

	id := s.newID()
	path := propertyID + "/" + id + imageExt(up)
	url, err := s.blobs.Put(ctx, path, up.Body, up.Size, up.ContentType)
	if err != nil {
		return domain.PropertyImage{}, domain.Dependency("upload image", err)
	}

	img, err := s.recordImage(ctx, propertyID, id, url, path, isMain)
	if err != nil {
		if derr := s.blobs.Delete(ctx, path); derr != nil {
			log.Warn().Err(derr).Str("path", path).Msg("orphaned blob after failed image insert")
		}
		return domain.PropertyImage{}, err
	}

	invalidateProperty(ctx, s.cache, propertyID)
	return img, nil
}

// recordImage inserts the row as non-main, then settles the main flag in one
// statement: either an explicit promotion or "main if there is none yet".
func (s *ImageService) recordImage(ctx context.Context, propertyID, id, url, path string, isMain bool) (domain.PropertyImage, error) {
	unlock, err := s.lock(ctx, propertyID)
	if err != nil {
		return domain.PropertyImage{}, err
	}
	defer unlock()

	now := s.now()
	img := domain.PropertyImage{
		ID:          id,
		PropertyID:  propertyID,
		URL:         url,
		StoragePath: path,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.images.InsertImage(ctx, img); err != nil {
		return domain.PropertyImage{}, domain.Dependency("record image", err)
	}

	if isMain {
		if err := s.images.PromoteImage(ctx, propertyID, id); err != nil {
			return domain.PropertyImage{}, domain.Dependency("promote image", err)
		}
		img.IsMain = true
		return img, nil
	}
	first, err := s.images.PromoteIfNoMain(ctx, propertyID, id)
	if err != nil {
		return domain.PropertyImage{}, domain.Dependency("promote image", err)
	}
	img.IsMain = first
	return img, nil
}

// DeleteImage removes the blob, then the row. A failed blob delete keeps the
// row. When the deleted image was main, the newest remaining one is promoted.
func (s *ImageService) DeleteImage(ctx context.Context, propertyID, imageID string) error {
	if err := s.requireProperty(ctx, propertyID); err != nil {
		return err
	}

	unlock, err := s.lock(ctx, propertyID)
	if err != nil {
		return err
	}
	defer unlock()

	img, err := s.images.GetImage(ctx, propertyID, imageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("image")
		}
		return domain.Dependency("get image", err)
	}

	if err := s.blobs.Delete(ctx, img.StoragePath); err != nil {
		return domain.Dependency("delete image blob", err)
	}

	promoted, err := s.images.DeleteImageAndPromote(ctx, propertyID, imageID)
	if err != nil {
		log.Error().Err(err).Str("property", propertyID).Str("image", imageID).
			Msg("image blob deleted but row delete failed")
		return domain.Dependency("delete image", err)
	}
	if promoted != "" {
		log.Info().Str("property", propertyID).Str("image", promoted).Msg("promoted replacement main image")
	}

	invalidateProperty(ctx, s.cache, propertyID)
	return nil
}

// SetMainImage is idempotent.
func (s *ImageService) SetMainImage(ctx context.Context, propertyID, imageID string) error {
	if err := s.requireProperty(ctx, propertyID); err != nil {
		return err
	}

	unlock, err := s.lock(ctx, propertyID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.images.GetImage(ctx, propertyID, imageID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("image")
		}
		return domain.Dependency("get image", err)
	}
	if err := s.images.PromoteImage(ctx, propertyID, imageID); err != nil {
		return domain.Dependency("promote image", err)
	}

	invalidateProperty(ctx, s.cache, propertyID)
	return nil
}

// RepairMainImages restores the invariant for rows written outside this
// service. With no main it promotes the newest image; with several it keeps
// the newest main. It reports whether anything changed.
func (s *ImageService) RepairMainImages(ctx context.Context, propertyID string) (bool, error) {
	unlock, err := s.lock(ctx, propertyID)
	if err != nil {
		return false, err
	}
	defer unlock()

	imgs, err := s.images.ListImages(ctx, propertyID)
	if err != nil {
		return false, domain.Dependency("list images", err)
	}
	if len(imgs) == 0 {
		return false, nil
	}

	sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].CreatedAt.After(imgs[j].CreatedAt) })
	var mains []domain.PropertyImage
	for _, im := range imgs {
		if im.IsMain {
			mains = append(mains, im)
		}
	}
	if len(mains) == 1 {
		return false, nil
	}

	target := imgs[0]
	if len(mains) > 1 {
		target = mains[0]
	}
	if err := s.images.PromoteImage(ctx, propertyID, target.ID); err != nil {
		return false, domain.Dependency("promote image", err)
	}
	invalidateProperty(ctx, s.cache, propertyID)
	return true, nil
}

// ValidateUpload checks media type and size before anything is written.
func ValidateUpload(up domain.Upload) error {
	ve := domain.NewValidationError("invalid image file")
	if _, ok := imageExtensions[up.ContentType]; !ok {
		ve.Add("file", "content type must be one of: image/jpeg, image/png, image/webp")
	}
	switch {
	case up.Size <= 0:
		ve.Add("file", "file is empty")
	case up.Size > MaxImageSize:
		ve.Add("file", fmt.Sprintf("file exceeds the maximum size of %d MiB", MaxImageSize>>20))
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// imageExt keeps the client's extension when it names an image format we
// serve, falling back to the media type.
func imageExt(up domain.Upload) string {
	if ext := strings.ToLower(filepath.Ext(filepath.Base(up.Filename))); allowedExtensions[ext] {
		return ext
	}
	return imageExtensions[up.ContentType]
}

func (s *ImageService) requireProperty(ctx context.Context, id string) error {
	ok, err := s.props.PropertyExists(ctx, id)
	if err != nil {
		return domain.Dependency("check property", err)
	}
	if !ok {
		return domain.NotFound("property")
	}
	return nil
}

func (s *ImageService) lock(ctx context.Context, propertyID string) (func(), error) {
	return lockProperty(ctx, s.locks, propertyID)
}

// lockProperty enters the per-property mutual-exclusion scope.
func lockProperty(ctx context.Context, l domain.Locker, propertyID string) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	unlock, err := l.Lock(ctx, "lock:property:"+propertyID)
	if err != nil {
		return nil, domain.Dependency("lock property", err)
	}
	return unlock, nil
}
