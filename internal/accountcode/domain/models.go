// Package domain defines the account-code allocation contract. Codes have
// the form {REP}-{CC}-{NNN}: sales-rep prefix, ISO 3166-1 alpha-2 country,
// zero-padded three-digit suffix.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// CodeSequence backs suffix allocation per (rep prefix, country). The row is
// seeded from the highest existing client code on first use, then bumped
// in-place so concurrent allocations cannot hand out the same suffix.
type CodeSequence struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	RepPrefix string       `gorm:"type:text;not null;uniqueIndex:ux_code_sequences_prefix_country,priority:1"`
	Country   string       `gorm:"type:text;not null;uniqueIndex:ux_code_sequences_prefix_country,priority:2"`
	LastValue int64        `gorm:"not null"`
}

// TableName sets the database table name.
func (CodeSequence) TableName() string { return "code_sequences" }

type Service interface {
	// Allocate returns the next free account code for the prefix/country
	// pair. A store failure degrades to a random suffix instead of failing
	// the caller.
	Allocate(ctx context.Context, repPrefix, country string) (string, error)
}

var (
	ErrInvalidPrefix  = errors.New("invalid_rep_prefix")
	ErrInvalidCountry = errors.New("invalid_country")
)
