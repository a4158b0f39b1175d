// Package domain contains the monthly charge ledger and the contracts for
// the two components that write it: the over-capacity engine and the
// one-off service-charge recorder.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// MonthlyChargeLedger is the per-(client, month, year) accounting row.
//
// OverSpaceAmount is authoritative for the currently open over-capacity
// period and is overwritten on every recompute; AdditionalServicesAmount
// only ever accumulates. TotalAmount = OverSpaceAmount +
// AdditionalServicesAmount must hold after either writer runs, including
// under concurrent calls; both writers compose totals in SQL for that
// reason.
//
// OverSpaceChargedAt marks the start of the current continuous over-capacity
// period: non-nil exactly while usage sits above the effective limit, and
// stable across recomputes until usage drops back under it.
type MonthlyChargeLedger struct {
	ID                       snowflake.ID    `gorm:"primaryKey" json:"id"`
	ClientID                 snowflake.ID    `gorm:"not null;uniqueIndex:ux_charge_ledgers_client_period,priority:1" json:"client_id"`
	Month                    int             `gorm:"not null;uniqueIndex:ux_charge_ledgers_client_period,priority:2" json:"month"`
	Year                     int             `gorm:"not null;uniqueIndex:ux_charge_ledgers_client_period,priority:3" json:"year"`
	OverSpaceAmount          decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"over_space_amount"`
	AdditionalServicesAmount decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"additional_services_amount"`
	TotalAmount              decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"total_amount"`
	OverSpaceChargedAt       *time.Time      `json:"over_space_charged_at,omitempty"`
	CreatedAt                time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt                time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (MonthlyChargeLedger) TableName() string { return "monthly_charge_ledgers" }
