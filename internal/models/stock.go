package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockReasonRestock is the movement reason recorded by a restock.
const StockReasonRestock = "restock"

// Restock records a single inbound delivery. Rows are never mutated.
type Restock struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Notes     *string   `json:"notes,omitempty" gorm:"type:text"`
	UserID    *string   `json:"userId,omitempty" gorm:"type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt"`
}

// StockMovement is an append-only audit entry for a stock change.
// Quantity is signed: positive for inbound, negative for outbound.
type StockMovement struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Reason    string    `json:"reason" gorm:"type:varchar(50);not null"`
	UserID    *string   `json:"userId,omitempty" gorm:"type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Restock) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// All lists every model owned by the catalog schema, in migration order.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Attribute{},
		&AttributeValue{},
		&Product{},
		&ProductAttribute{},
		&Restock{},
		&StockMovement{},
	}
}
