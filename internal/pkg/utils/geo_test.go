package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// Denver -> Colorado Springs, ~99 km
	d := HaversineDistance(39.7392, -104.9903, 38.8339, -104.8214)
	assert.InDelta(t, 101.5, d, 2.0)

	assert.Zero(t, HaversineDistance(39.1, -105.2, 39.1, -105.2))
}

func TestMilesToKm(t *testing.T) {
	assert.InDelta(t, 32.18688, MilesToKm(20), 1e-9)
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, ValidateCoordinates(39.1, -105.2))
	assert.True(t, ValidateCoordinates(-90, 180))
	assert.False(t, ValidateCoordinates(91, 0))
	assert.False(t, ValidateCoordinates(0, -181))
	assert.False(t, ValidateCoordinates(math.NaN(), 0))
}

func TestValidateRadius(t *testing.T) {
	assert.True(t, ValidateRadius(32))
	assert.False(t, ValidateRadius(0))
	assert.False(t, ValidateRadius(1000))
}
