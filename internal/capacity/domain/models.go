// Package domain mirrors the per-client warehouse capacity snapshot.
// Receive/ship operations elsewhere mutate it; the billing core only reads.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type WarehouseCapacity struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	ClientID     snowflake.ID    `gorm:"not null;uniqueIndex" json:"client_id"`
	UsedCbm      decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"used_cbm"`
	BaseLimitCbm decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"base_limit_cbm"`
	BufferCbm    decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"buffer_cbm"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (WarehouseCapacity) TableName() string { return "warehouse_capacities" }

// EffectiveLimit is the base subscription limit plus the free buffer.
func (c WarehouseCapacity) EffectiveLimit() decimal.Decimal {
	return c.BaseLimitCbm.Add(c.BufferCbm)
}
