package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in    string
		want  Role
		valid bool
	}{
		{"owner", RoleOwner, true},
		{" Admin ", RoleAdmin, true},
		{"user", Role("user"), false},
		{"", Role(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestUser_HasPendingReset(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token := "tok"
	later := now.Add(time.Minute)
	earlier := now.Add(-time.Minute)

	assert.False(t, (&User{}).HasPendingReset(now))
	assert.True(t, (&User{ResetToken: &token, ResetTokenExpiry: &later}).HasPendingReset(now))
	assert.False(t, (&User{ResetToken: &token, ResetTokenExpiry: &earlier}).HasPendingReset(now))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
}

func TestAverageRating(t *testing.T) {
	assert.True(t, AverageRating(nil).IsZero())

	avg := AverageRating([]Review{{Rating: 5}, {Rating: 4}, {Rating: 4}})
	assert.Equal(t, "4.33", avg.StringFixed(2))
}

func TestLocation_Valid(t *testing.T) {
	assert.True(t, Location{Longitude: -122.68, Latitude: 45.52}.Valid())
	assert.False(t, Location{Longitude: 190, Latitude: 0}.Valid())
	assert.False(t, Location{Longitude: 0, Latitude: -91}.Valid())
}
