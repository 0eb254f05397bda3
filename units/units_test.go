package units

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		from  Internal
		to    Ontology
		want  float64
	}{
		{"feet to meters", 10, Feet, M, 3.048},
		{"millimeters to meters", 250, Millimeters, M, 0.25},
		{"square feet to square meters", 100, SquareFeet, M2, 9.290304},
		{"internal power to watts", 1, InternalPower, W, 0.09290304},
		{"kilowatts to watts", 2.5, Kilowatts, W, 2500},
		{"cubic feet per second to liters", 1, CubicFeetPerSecond, LPerSec, 28.316846592},
		{"cubic meters per hour to liters", 360, CubicMetersPerHour, LPerSec, 100},
		{"kelvin to celsius", 343.15, Kelvin, DegC, 70},
		{"radians to degrees", 3.141592653589793, Radians, Deg, 180},
		{"internal pressure to pascal", 0.3048, InternalPressure, Pa, 1},
		{"friction gradient", 0.09290304, InternalPressureGradient, PaPerM, 1},
		{"identity watts", 500, Watts, W, 500},
		{"dimensionless", 0.85, Unitless, None, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.value, tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestConvertUnsupported(t *testing.T) {
	_, err := Convert(1, Feet, W)
	require.Error(t, err)

	var unitErr *UnsupportedUnitError
	require.True(t, errors.As(err, &unitErr))
	assert.Equal(t, Feet, unitErr.From)
	assert.Equal(t, W, unitErr.To)
	assert.Contains(t, err.Error(), "unsupported unit conversion")

	assert.False(t, Supported(Internal("furlong"), M))
	assert.True(t, Supported(Kelvin, DegC))
}

func TestConvertIsPure(t *testing.T) {
	a, err := Convert(12.5, Feet, M)
	require.NoError(t, err)
	b, err := Convert(12.5, Feet, M)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
