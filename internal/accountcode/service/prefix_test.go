package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepPrefix(t *testing.T) {
	cases := []struct {
		name  string
		email string
		want  string
	}{
		{"John Doe", "john.doe@stackfreight.io", "JD"},
		{"Mary Jane Watson Parker", "", "MJW"},
		{"anna bauer", "", "AB"},
		// Single-word names yield one initial, so the email local part wins.
		{"Plato", "plato@stackfreight.io", "PLA"},
		{"", "ops-team@stackfreight.io", "OPS"},
		{"", "mw@stackfreight.io", "MW"},
		// Nothing usable anywhere.
		{"", "a@stackfreight.io", "OPS"},
		{"", "", "OPS"},
		{"X", "", "OPS"},
		// Non-letter tokens are skipped.
		{"- John - Ringo Paul George", "", "JRP"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, RepPrefix(tc.name, tc.email), "name=%q email=%q", tc.name, tc.email)
	}
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "TBD-DE-TEMP", Placeholder("de"))
	assert.Equal(t, "TBD-SG-TEMP", Placeholder(" SG "))
}
