package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Building is placed on its owning map at pixel coordinates (X, Y).
type Building struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MapID       uuid.UUID `gorm:"type:uuid;not null;index" json:"map_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"size:1024" json:"description"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Faculty     []Faculty `gorm:"foreignKey:BuildingID;constraint:OnDelete:CASCADE" json:"faculty,omitempty"`
}

func (Building) TableName() string { return "buildings" }

func (b *Building) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
