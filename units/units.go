// Package units converts host model quantities to the QUDT units written
// to the graph.
package units

import (
	"fmt"
	"math"
)

// Internal identifies the unit a host quantity is stored in.
type Internal string

// Host internal storage units.
const (
	Feet                     Internal = "ft"
	SquareFeet               Internal = "ft2"
	CubicFeetPerSecond       Internal = "ft3/s"
	Kelvin                   Internal = "K"
	Radians                  Internal = "rad"
	InternalPower            Internal = "kg.ft2/s3"
	InternalPressure         Internal = "kg/(ft.s2)"
	InternalPressureGradient Internal = "kg/(ft2.s2)"
)

// SI units a snapshot may already carry.
const (
	Meters               Internal = "m"
	Millimeters          Internal = "mm"
	SquareMeters         Internal = "m2"
	Watts                Internal = "W"
	Kilowatts            Internal = "kW"
	LitersPerSecond      Internal = "L/s"
	CubicMetersPerSecond Internal = "m3/s"
	CubicMetersPerHour   Internal = "m3/h"
	Celsius              Internal = "degC"
	Degrees              Internal = "deg"
	Pascals              Internal = "Pa"
	KilogramsPerSecond   Internal = "kg/s"
	PascalsPerMeter      Internal = "Pa/m"
	Unitless             Internal = "1"
)

// Ontology is a QUDT unit tag as written in the graph.
type Ontology string

// Ontology unit tags.
const (
	None     Ontology = ""
	M        Ontology = "unit:M"
	M2       Ontology = "unit:M2"
	W        Ontology = "unit:W"
	LPerSec  Ontology = "unit:L-PER-SEC"
	DegC     Ontology = "unit:DEG_C"
	Deg      Ontology = "unit:DEG"
	Pa       Ontology = "unit:PA"
	KgPerSec Ontology = "unit:KiloGM-PER-SEC"
	PaPerM   Ontology = "unit:PA-PER-M"
)

// UnsupportedUnitError is returned when no conversion exists between two units.
type UnsupportedUnitError struct {
	From Internal
	To   Ontology
}

func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unsupported unit conversion: %q to %q", e.From, e.To)
}

type pair struct {
	from Internal
	to   Ontology
}

// linear converts as value*scale + offset.
type linear struct {
	scale  float64
	offset float64
}

const (
	foot       = 0.3048
	squareFoot = foot * foot
	cubicFoot  = squareFoot * foot
)

var table = map[pair]linear{
	{Feet, M}:        {foot, 0},
	{Meters, M}:      {1, 0},
	{Millimeters, M}: {0.001, 0},

	{SquareFeet, M2}:   {squareFoot, 0},
	{SquareMeters, M2}: {1, 0},

	// kg·ft²/s³ is the host's power unit.
	{InternalPower, W}: {squareFoot, 0},
	{Watts, W}:         {1, 0},
	{Kilowatts, W}:     {1000, 0},

	{CubicFeetPerSecond, LPerSec}:   {cubicFoot * 1000, 0},
	{LitersPerSecond, LPerSec}:      {1, 0},
	{CubicMetersPerSecond, LPerSec}: {1000, 0},
	{CubicMetersPerHour, LPerSec}:   {1000.0 / 3600.0, 0},

	{Kelvin, DegC}:  {1, -273.15},
	{Celsius, DegC}: {1, 0},

	{Radians, Deg}: {180 / math.Pi, 0},
	{Degrees, Deg}: {1, 0},

	{InternalPressure, Pa}: {1 / foot, 0},
	{Pascals, Pa}:          {1, 0},

	{KilogramsPerSecond, KgPerSec}: {1, 0},

	{InternalPressureGradient, PaPerM}: {1 / squareFoot, 0},
	{PascalsPerMeter, PaPerM}:          {1, 0},

	{Unitless, None}: {1, 0},
}

// Convert converts value stored in from to the ontology unit to.
func Convert(value float64, from Internal, to Ontology) (float64, error) {
	conv, ok := table[pair{from, to}]
	if !ok {
		return 0, &UnsupportedUnitError{From: from, To: to}
	}
	return value*conv.scale + conv.offset, nil
}

// Supported reports whether a conversion from one unit to the other exists.
func Supported(from Internal, to Ontology) bool {
	_, ok := table[pair{from, to}]
	return ok
}
