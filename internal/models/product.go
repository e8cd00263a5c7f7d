package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product represents a product in the store. It is the aggregate root for its
// attribute assignments and stock history.
type Product struct {
	ID           string                      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string                      `json:"name" gorm:"type:varchar(200);not null"`
	Slug         string                      `json:"slug" gorm:"type:varchar(220);not null;uniqueIndex"`
	Description  *string                     `json:"description,omitempty" gorm:"type:text"`
	Price        decimal.Decimal             `json:"price" gorm:"type:decimal(12,2);not null"`
	Discount     float64                     `json:"discount" gorm:"not null;default:0"`
	Stock        int                         `json:"stock" gorm:"not null;default:0"`
	IsNew        bool                        `json:"isNew" gorm:"not null;default:false"`
	IsTrending   bool                        `json:"isTrending" gorm:"not null;default:false"`
	IsBestSeller bool                        `json:"isBestSeller" gorm:"not null;default:false"`
	IsFeatured   bool                        `json:"isFeatured" gorm:"not null;default:false"`
	CategoryID   *string                     `json:"categoryId,omitempty" gorm:"type:varchar(36);index"`
	Category     *Category                   `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Images       datatypes.JSONSlice[string] `json:"images"`
	Attributes   []ProductAttribute          `json:"attributes,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt    time.Time                   `json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Images == nil {
		p.Images = datatypes.JSONSlice[string]{}
	}
	return nil
}
