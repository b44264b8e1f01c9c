package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is an item a seller stocks in the machine.
// Name is unique per seller.
type Product struct {
	ID              uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	SellerID        uuid.UUID `json:"seller_id" gorm:"type:char(36);not null;uniqueIndex:idx_seller_product_name,priority:1"`
	ProductName     string    `json:"product_name" gorm:"size:255;not null;uniqueIndex:idx_seller_product_name,priority:2"`
	Cost            int64     `json:"cost" gorm:"not null"`
	AmountAvailable int64     `json:"amount_available" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relations
	Seller User `json:"-" gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
