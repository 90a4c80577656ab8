package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Faculty struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BuildingID uuid.UUID `gorm:"type:uuid;not null;index" json:"building_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Position   string    `gorm:"size:255" json:"position"`
	Email      string    `gorm:"size:255" json:"email"`
	Office     string    `gorm:"size:255" json:"office"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Faculty) TableName() string { return "faculty" }

func (f *Faculty) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
