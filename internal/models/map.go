package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Map is the campus floor plan a client renders buildings onto. At most one
// map may be active at a time; activation is handled by mapmanager and backed
// by a partial unique index on is_active.
type Map struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	ImagePath   *string    `gorm:"size:512" json:"image_path"`
	Width       int        `gorm:"not null" json:"width"`
	Height      int        `gorm:"not null" json:"height"`
	IsActive    bool       `gorm:"not null;default:false" json:"is_active"`
	IsPublished bool       `gorm:"not null;default:false" json:"is_published"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Buildings   []Building `gorm:"foreignKey:MapID;constraint:OnDelete:CASCADE" json:"buildings"`

	// ImageURL is derived from ImagePath and the configured public base.
	ImageURL *string `gorm:"-" json:"image_url"`
}

func (Map) TableName() string { return "maps" }

func (m *Map) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
