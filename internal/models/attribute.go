package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attribute is a named axis products can vary on, e.g. "Color".
type Attribute struct {
	ID        string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string           `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	Values    []AttributeValue `json:"values,omitempty" gorm:"foreignKey:AttributeID"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// AttributeValue is one permissible value of an Attribute.
type AttributeValue struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AttributeID string `json:"attributeId" gorm:"type:varchar(36);not null;index"`
	Value       string `json:"value" gorm:"type:varchar(100);not null"`
}

// ProductAttribute links a product to an attribute and either one of its
// values or a free-text custom value.
type ProductAttribute struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID   string          `json:"productId" gorm:"type:varchar(36);not null;index"`
	AttributeID string          `json:"attributeId" gorm:"type:varchar(36);not null;index"`
	ValueID     *string         `json:"valueId,omitempty" gorm:"type:varchar(36)"`
	CustomValue *string         `json:"customValue,omitempty" gorm:"type:varchar(255)"`
	Attribute   *Attribute      `json:"attribute,omitempty" gorm:"foreignKey:AttributeID"`
	Value       *AttributeValue `json:"value,omitempty" gorm:"foreignKey:ValueID"`
}

func (a *Attribute) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (v *AttributeValue) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

func (pa *ProductAttribute) BeforeCreate(tx *gorm.DB) error {
	if pa.ID == "" {
		pa.ID = uuid.New().String()
	}
	return nil
}
