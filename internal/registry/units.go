// ABOUTME: Pure unit conversion table for normalization.
// ABOUTME: Linear/affine formulas only: distance, mass, volume, temperature, time, energy.
package registry

import "fmt"

// unitPair keys the conversion table by source and target unit.
type unitPair struct {
	From string
	To   string
}

// conversion is an affine transform: value*Scale + Offset.
type conversion struct {
	Scale  float64
	Offset float64
}

// conversions holds one direction per pair; the inverse is derived.
var conversions = map[unitPair]conversion{
	// Mass
	{"lb", "kg"}: {Scale: 0.45359237},
	{"st", "kg"}: {Scale: 6.35029318},
	{"g", "kg"}:  {Scale: 0.001},
	{"oz", "g"}:  {Scale: 28.349523125},
	{"mg", "g"}:  {Scale: 0.001},

	// Distance
	{"mi", "km"}: {Scale: 1.609344},
	{"m", "km"}:  {Scale: 0.001},
	{"ft", "m"}:  {Scale: 0.3048},
	{"yd", "m"}:  {Scale: 0.9144},

	// Volume
	{"l", "ml"}:     {Scale: 1000},
	{"fl_oz", "ml"}: {Scale: 29.5735295625},
	{"cup", "ml"}:   {Scale: 236.5882365},

	// Temperature (affine)
	{"F", "C"}: {Scale: 5.0 / 9.0, Offset: -160.0 / 9.0},

	// Time
	{"min", "hours"}: {Scale: 1.0 / 60.0},
	{"s", "hours"}:   {Scale: 1.0 / 3600.0},
	{"s", "min"}:     {Scale: 1.0 / 60.0},

	// Energy
	{"kJ", "kcal"}: {Scale: 1.0 / 4.184},
	{"cal", "kcal"}: {Scale: 0.001},
}

// ConversionError indicates a unit pair with no known conversion. This is a
// correctness-critical failure: the caller must drop the record rather than
// store an unconverted value.
type ConversionError struct {
	FromUnit string
	ToUnit   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("no conversion from %q to %q", e.FromUnit, e.ToUnit)
}

// lookupConversion resolves a pair directly or via the inverse direction.
func lookupConversion(from, to string) (conversion, bool) {
	if c, ok := conversions[unitPair{from, to}]; ok {
		return c, true
	}
	if c, ok := conversions[unitPair{to, from}]; ok {
		// Invert value*s + o  =>  (value - o) / s
		return conversion{Scale: 1 / c.Scale, Offset: -c.Offset / c.Scale}, true
	}
	return conversion{}, false
}

// CanConvert reports whether a conversion from one unit to another exists.
// Identical units always convert.
func CanConvert(from, to string) bool {
	if from == to {
		return true
	}
	_, ok := lookupConversion(from, to)
	return ok
}

// Convert transforms a value between units. All conversions are
// double-precision; no rounding is applied here.
func Convert(value float64, from, to string) (float64, error) {
	if from == to {
		return value, nil
	}
	c, ok := lookupConversion(from, to)
	if !ok {
		return 0, &ConversionError{FromUnit: from, ToUnit: to}
	}
	return value*c.Scale + c.Offset, nil
}
