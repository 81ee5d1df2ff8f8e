package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a WGS84 point stored as two columns.
type Location struct {
	Longitude float64 `json:"longitude" gorm:"not null"`
	Latitude  float64 `json:"latitude" gorm:"not null"`
}

// Valid reports whether the coordinates are within range.
func (l Location) Valid() bool {
	return l.Longitude >= -180 && l.Longitude <= 180 && l.Latitude >= -90 && l.Latitude <= 90
}

// CartPod is a physical cluster of food carts.
type CartPod struct {
	ID               uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Name             string     `json:"name" gorm:"size:255;not null"`
	Location         Location   `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	ArrangementImage string     `json:"arrangement_image,omitempty" gorm:"size:1024"`
	FoodCarts        []FoodCart `json:"food_carts" gorm:"foreignKey:CartPodID"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (p *CartPod) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
