// Package domain contains the client account model the billing core reads
// and annotates. Client rows are created by the signup workflow; this core
// only fills in the account code and the sales owner.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Client struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Country      string            `gorm:"type:text;not null;index" json:"country"`
	SalesOwnerID *snowflake.ID     `gorm:"index" json:"sales_owner_id,omitempty"`
	AccountCode  string            `gorm:"type:text;not null;uniqueIndex" json:"account_code"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }
