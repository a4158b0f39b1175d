// Package domain mirrors the user rows owned by the identity provider.
// The billing core reads them to build the sales-representative candidate
// pool; it never writes this table.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RoleMember     = "member"
)

// AdminRoles is the candidate pool filter for sales-rep assignment.
var AdminRoles = []string{RoleAdmin, RoleSuperAdmin}

type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Email     string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Role      string       `gorm:"type:text;not null;index" json:"role"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
