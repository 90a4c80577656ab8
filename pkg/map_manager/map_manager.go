// Package mapmanager owns the campus-map lifecycle: CRUD over map records,
// image replacement against blob storage, and the exclusive-activation state
// transition that keeps at most one map active.
package mapmanager

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vinceerrol/vuefrontend/internal/db"
	errorz "github.com/vinceerrol/vuefrontend/internal/errors"
	"github.com/vinceerrol/vuefrontend/internal/models"
	"github.com/vinceerrol/vuefrontend/pkg/imagemeta"
)

// BlobStore is the slice of internal/storage the manager needs. DeleteQuietly
// implements the best-effort cleanup policy: log and continue.
type BlobStore interface {
	Save(prefix, filename string, r io.Reader) (string, error)
	Delete(rel string) error
	DeleteQuietly(rel string)
}

const blobPrefix = "maps"

type MapManager struct {
	db         *gorm.DB
	blobs      BlobStore
	baseURL    string
	logger     *zap.Logger
	otelTracer trace.Tracer
}

func NewMapManager(db *gorm.DB, blobs BlobStore, baseURL string, logger *zap.Logger, otelTracer trace.Tracer) *MapManager {
	return &MapManager{db: db, blobs: blobs, baseURL: baseURL, logger: logger, otelTracer: otelTracer}
}

// Upload is an image payload received from a multipart form.
type Upload struct {
	Filename string
	Data     []byte
}

type CreateParams struct {
	Name        string
	Width       int
	Height      int
	IsPublished bool
	Image       *Upload
}

// UpdateParams carries a partial update; nil fields are left untouched.
type UpdateParams struct {
	Name        *string
	Width       *int
	Height      *int
	IsActive    *bool
	IsPublished *bool
	Image       *Upload
}

func (m *MapManager) List(ctx context.Context) ([]models.Map, error) {
	ctx, span := m.otelTracer.Start(ctx, "MapManager.List")
	defer span.End()

	var maps []models.Map
	if err := m.db.WithContext(ctx).Preload("Buildings").Order("created_at").Find(&maps).Error; err != nil {
		return nil, errors.Join(errorz.ErrDatabaseError, err)
	}
	for i := range maps {
		m.resolveURL(&maps[i])
	}
	return maps, nil
}

// Create stores the image blob before touching the record so a storage
// failure leaves no orphan row; conversely, if the insert fails the stored
// blob is removed best-effort.
func (m *MapManager) Create(ctx context.Context, p CreateParams) (models.Map, error) {
	ctx, span := m.otelTracer.Start(ctx, "MapManager.Create")
	defer span.End()

	var imagePath *string
	if p.Image != nil {
		path, err := m.blobs.Save(blobPrefix, p.Image.Filename, bytes.NewReader(p.Image.Data))
		if err != nil {
			return models.Map{}, errors.Join(errorz.ErrImageStoreFailed, err)
		}
		imagePath = &path
	}

	record := models.Map{
		Name:        p.Name,
		ImagePath:   imagePath,
		Width:       p.Width,
		Height:      p.Height,
		IsActive:    false, // new maps are never active
		IsPublished: p.IsPublished,
		Buildings:   []models.Building{},
	}
	if err := m.db.WithContext(ctx).Create(&record).Error; err != nil {
		if imagePath != nil {
			m.blobs.DeleteQuietly(*imagePath)
		}
		return models.Map{}, errors.Join(errorz.ErrDatabaseError, err)
	}

	m.resolveURL(&record)
	return record, nil
}

func (m *MapManager) Get(ctx context.Context, id uuid.UUID) (models.Map, error) {
	ctx, span := m.otelTracer.Start(ctx, "MapManager.Get")
	defer span.End()

	var record models.Map
	err := m.db.WithContext(ctx).Preload("Buildings").First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Map{}, errorz.ErrMapNotFound
	}
	if err != nil {
		return models.Map{}, errors.Join(errorz.ErrDatabaseError, err)
	}
	m.resolveURL(&record)
	return record, nil
}

// Update applies a partial update. A replacement image is stored first and
// the prior blob removed only after the record write commits; if the
// transaction fails the fresh blob is removed instead. The row is locked so
// racing replacements each delete the path that is actually current.
func (m *MapManager) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (models.Map, error) {
	ctx, span := m.otelTracer.Start(ctx, "MapManager.Update")
	defer span.End()

	var record models.Map
	var oldPath, newPath string
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := db.LockForUpdate(tx).First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errorz.ErrMapNotFound
			}
			return errors.Join(errorz.ErrDatabaseError, err)
		}

		fields := map[string]any{}
		if p.Name != nil {
			fields["name"] = *p.Name
		}
		if p.Width != nil {
			fields["width"] = *p.Width
		}
		if p.Height != nil {
			fields["height"] = *p.Height
		}
		if p.IsActive != nil {
			fields["is_active"] = *p.IsActive
		}
		if p.IsPublished != nil {
			fields["is_published"] = *p.IsPublished
		}

		if p.Image != nil {
			path, err := m.blobs.Save(blobPrefix, p.Image.Filename, bytes.NewReader(p.Image.Data))
			if err != nil {
				return errors.Join(errorz.ErrImageStoreFailed, err)
			}
			newPath = path
			fields["image_path"] = path
			if record.ImagePath != nil {
				oldPath = *record.ImagePath
			}
		}

		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&record).Updates(fields).Error; err != nil {
			return errors.Join(errorz.ErrDatabaseError, err)
		}
		return nil
	})
	if err != nil {
		if newPath != "" {
			m.blobs.DeleteQuietly(newPath)
		}
		return models.Map{}, err
	}
	if oldPath != "" {
		m.blobs.DeleteQuietly(oldPath)
	}

	m.resolveURL(&record)
	return record, nil
}

// Delete removes the record and, best-effort, its blob. Dependent buildings
// go with it via the store's cascade.
func (m *MapManager) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := m.otelTracer.Start(ctx, "MapManager.Delete")
	defer span.End()

	var record models.Map
	err := m.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorz.ErrMapNotFound
	}
	if err != nil {
		return errors.Join(errorz.ErrDatabaseError, err)
	}

	if err := m.db.WithContext(ctx).Select("Buildings").Delete(&record).Error; err != nil {
		return errors.Join(errorz.ErrDatabaseError, err)
	}
	if record.ImagePath != nil {
		m.blobs.DeleteQuietly(*record.ImagePath)
	}

	m.logger.Info("map deleted", zap.String("map_id", id.String()), zap.String("name", record.Name))
	return nil
}

// Activate makes id the only active map. Both writes run in one transaction;
// the partial unique index created by db.Migrate rejects the loser if two
// activations race on separate connections.
func (m *MapManager) Activate(ctx context.Context, id uuid.UUID) (models.Map, error) {
	ctx, span := m.otelTracer.Start(ctx, "MapManager.Activate")
	defer span.End()

	var record models.Map
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errorz.ErrMapNotFound
			}
			return errors.Join(errorz.ErrDatabaseError, err)
		}
		// Deactivate before activate so the unique index never sees two
		// active rows inside the transaction.
		if err := tx.Model(&models.Map{}).Where("id <> ? AND is_active = ?", id, true).Update("is_active", false).Error; err != nil {
			return errors.Join(errorz.ErrDatabaseError, err)
		}
		if err := tx.Model(&record).Update("is_active", true).Error; err != nil {
			return errors.Join(errorz.ErrDatabaseError, err)
		}
		return nil
	})
	if err != nil {
		return models.Map{}, err
	}

	m.logger.Info("map activated", zap.String("map_id", id.String()), zap.String("name", record.Name))

	m.resolveURL(&record)
	return record, nil
}

func (m *MapManager) Active(ctx context.Context) (models.Map, error) {
	ctx, span := m.otelTracer.Start(ctx, "MapManager.Active")
	defer span.End()

	var record models.Map
	err := m.db.WithContext(ctx).Preload("Buildings").Where("is_active = ?", true).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Map{}, errorz.ErrNoActiveMap
	}
	if err != nil {
		return models.Map{}, errors.Join(errorz.ErrDatabaseError, err)
	}
	m.resolveURL(&record)
	return record, nil
}

// UploadActiveImage replaces the active map's image. Width and height come
// from the decoded pixel data, not from the caller.
func (m *MapManager) UploadActiveImage(ctx context.Context, img Upload) (models.Map, error) {
	ctx, span := m.otelTracer.Start(ctx, "MapManager.UploadActiveImage")
	defer span.End()

	info, err := imagemeta.Probe(img.Data)
	if err != nil {
		return models.Map{}, err
	}

	var record models.Map
	var oldPath, newPath string
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := db.LockForUpdate(tx).Where("is_active = ?", true).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errorz.ErrNoActiveMap
			}
			return errors.Join(errorz.ErrDatabaseError, err)
		}
		if record.ImagePath != nil {
			oldPath = *record.ImagePath
		}

		path, err := m.blobs.Save(blobPrefix, img.Filename, bytes.NewReader(img.Data))
		if err != nil {
			return errors.Join(errorz.ErrImageStoreFailed, err)
		}
		newPath = path

		if err := tx.Model(&record).Updates(map[string]any{
			"image_path": path,
			"width":      info.Width,
			"height":     info.Height,
		}).Error; err != nil {
			return errors.Join(errorz.ErrDatabaseError, err)
		}
		return nil
	})
	if err != nil {
		if newPath != "" {
			m.blobs.DeleteQuietly(newPath)
		}
		return models.Map{}, err
	}
	if oldPath != "" {
		m.blobs.DeleteQuietly(oldPath)
	}

	m.resolveURL(&record)
	return record, nil
}

func (m *MapManager) resolveURL(record *models.Map) {
	if record.ImagePath == nil {
		return
	}
	url := m.baseURL + "/storage/" + *record.ImagePath
	record.ImageURL = &url
}
