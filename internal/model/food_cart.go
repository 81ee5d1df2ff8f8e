package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FoodCart is an individual vendor inside a cart pod.
type FoodCart struct {
	ID               uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Name             string          `json:"name" gorm:"size:255;not null"`
	Location         Location        `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	CartPodID        uuid.UUID       `json:"cart_pod_id" gorm:"type:char(36);not null;index"`
	OwnerID          uuid.UUID       `json:"owner_id" gorm:"type:char(36);not null;index"`
	PodLocationImage string          `json:"pod_location_image" gorm:"size:1024"`
	CartImage        string          `json:"cart_image" gorm:"size:1024"`
	MenuImages       []string        `json:"menu_images" gorm:"serializer:json;type:json"`
	AverageRating    decimal.Decimal `json:"average_rating" gorm:"type:decimal(3,2);not null;default:0"`
	Reviews          []Review        `json:"reviews,omitempty" gorm:"foreignKey:FoodCartID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Relations
	Owner *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (f *FoodCart) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether userID owns the cart.
func (f *FoodCart) OwnedBy(userID uuid.UUID) bool {
	return f.OwnerID == userID
}

// Review is a rating left on a food cart.
type Review struct {
	ID         uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	FoodCartID uuid.UUID `json:"food_cart_id" gorm:"type:char(36);not null;index"`
	Rating     int       `json:"rating" gorm:"not null"`
	Comment    string    `json:"comment" gorm:"type:text;not null"`
	Author     string    `json:"user" gorm:"size:255;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// AverageRating returns the mean rating rounded to two places.
func AverageRating(reviews []Review) decimal.Decimal {
	if len(reviews) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(2)
}

// DefaultImageURL is shown for any cart image that was never uploaded.
const DefaultImageURL = "https://via.placeholder.com/200x200?text=No+Image"

// ApplyImageDefaults fills empty image fields with DefaultImageURL.
func (f *FoodCart) ApplyImageDefaults() {
	if f.PodLocationImage == "" {
		f.PodLocationImage = DefaultImageURL
	}
	if f.CartImage == "" {
		f.CartImage = DefaultImageURL
	}
	if len(f.MenuImages) == 0 {
		f.MenuImages = []string{DefaultImageURL}
	}
}
