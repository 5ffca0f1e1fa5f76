package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchFilters_IsZero(t *testing.T) {
	assert.True(t, SearchFilters{}.IsZero())
	assert.False(t, SearchFilters{Cuisine: "Italian"}.IsZero())
	assert.False(t, SearchFilters{MaxMinutes: 30}.IsZero())
	assert.False(t, SearchFilters{MaxCalories: 500}.IsZero())
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		name       string
		similarity float64
		matchScore float64
		expected   ConfidenceLevel
	}{
		{"both high", 0.9, 0.8, ConfidenceHigh},
		{"boundary above high", 0.71, 0.71, ConfidenceHigh},
		{"medium", 0.6, 0.4, ConfidenceMedium},
		{"boundary at high is medium", 0.7, 0.7, ConfidenceMedium},
		{"low", 0.2, 0.1, ConfidenceLow},
		{"boundary at medium is low", 0.4, 0.4, ConfidenceLow},
		{"zero", 0, 0, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConfidenceFor(tt.similarity, tt.matchScore))
		})
	}
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "created", ChangeCreated.String())
	assert.Equal(t, "modified", ChangeModified.String())
	assert.Equal(t, "deleted", ChangeDeleted.String())
	assert.Equal(t, "unknown", ChangeType(99).String())
}
