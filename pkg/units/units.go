// Package units holds the conversion table shared by every unit calculator.
//
// Each unit type has one base unit. A unit is described by the factor that
// converts one of it into the base unit, plus an optional offset for affine
// scales such as temperature:
//
//	base = value*Factor + Offset
//
// Converting between two units of the same type goes through the base unit.
package units

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iwvelando/calcsite/pkg/constants"
	"github.com/iwvelando/calcsite/pkg/mathutil"
)

// Type is the category of physical quantity a unit measures.
type Type string

// Supported unit types.
const (
	Length      Type = "length"
	Area        Type = "area"
	Volume      Type = "volume"
	Mass        Type = "mass"
	Speed       Type = "speed"
	Temperature Type = "temperature"
	Data        Type = "data"
	Time        Type = "time"
	Energy      Type = "energy"
	Pressure    Type = "pressure"
)

var (
	// ErrUnknownType is returned for a unit type missing from the table.
	ErrUnknownType = errors.New("unknown unit type")

	// ErrUnknownUnit is returned for a unit id missing from its type.
	ErrUnknownUnit = errors.New("unknown unit")
)

// Unit describes one entry of the conversion table.
type Unit struct {
	ID     string
	Type   Type
	Symbol string
	Factor float64
	Offset float64
}

// ToBase converts a value expressed in this unit into the base unit.
func (u Unit) ToBase(value float64) float64 {
	return value*u.Factor + u.Offset
}

// FromBase converts a value expressed in the base unit into this unit.
func (u Unit) FromBase(value float64) float64 {
	return (value - u.Offset) / u.Factor
}

func unit(t Type, id, symbol string, factor float64) Unit {
	return Unit{ID: id, Type: t, Symbol: symbol, Factor: factor}
}

// table is keyed by type then unit id. Base units: m, m2, l, kg, kmh, c, b,
// s, j, pa.
var table = map[Type]map[string]Unit{
	Length: index(
		unit(Length, "mm", "mm", 0.001),
		unit(Length, "cm", "cm", 0.01),
		unit(Length, "m", "m", 1),
		unit(Length, "km", "km", 1000),
		unit(Length, "in", "in", constants.InchToM),
		unit(Length, "ft", "ft", constants.FootToM),
		unit(Length, "yd", "yd", constants.YardToM),
		unit(Length, "mi", "mi", constants.MileToKm*1000),
		unit(Length, "nmi", "nmi", 1852),
	),
	Area: index(
		unit(Area, "m2", "m²", 1),
		unit(Area, "km2", "km²", 1e6),
		unit(Area, "ha", "ha", constants.HectareToM2),
		unit(Area, "ac", "ac", constants.AcreToM2),
		unit(Area, "fan", "fan", constants.FanegadaToM2),
		unit(Area, "ft2", "ft²", constants.FootToM*constants.FootToM),
		unit(Area, "yd2", "yd²", constants.YardToM*constants.YardToM),
	),
	Volume: index(
		unit(Volume, "ml", "mL", 0.001),
		unit(Volume, "l", "L", 1),
		unit(Volume, "m3", "m³", 1000),
		unit(Volume, "gal_us", "gal", constants.USGallonToLiter),
		unit(Volume, "gal_uk", "gal (UK)", constants.ImperialGallonToLiter),
		unit(Volume, "qt_us", "qt", constants.USGallonToLiter/4),
		unit(Volume, "cup_us", "cup", constants.USGallonToLiter/16),
		unit(Volume, "floz_us", "fl oz", constants.USGallonToLiter/128),
	),
	Mass: index(
		unit(Mass, "g", "g", 0.001),
		unit(Mass, "kg", "kg", 1),
		unit(Mass, "t", "t", 1000),
		unit(Mass, "lb", "lb", constants.PoundToKg),
		unit(Mass, "oz", "oz", constants.OunceToKg),
		unit(Mass, "st", "st", constants.PoundToKg*14),
	),
	Speed: index(
		unit(Speed, "kmh", "km/h", 1),
		unit(Speed, "mph", "mph", constants.MileToKm),
		unit(Speed, "mps", "m/s", constants.MpsToKmh),
		unit(Speed, "kn", "kn", constants.KnotToKmh),
		unit(Speed, "fps", "ft/s", constants.FootToM*constants.MpsToKmh),
	),
	Temperature: index(
		Unit{ID: "c", Type: Temperature, Symbol: "°C", Factor: 1},
		Unit{ID: "f", Type: Temperature, Symbol: "°F", Factor: 5.0 / 9.0, Offset: -32 * 5.0 / 9.0},
		Unit{ID: "k", Type: Temperature, Symbol: "K", Factor: 1, Offset: -273.15},
	),
	Data: index(
		unit(Data, "b", "B", 1),
		unit(Data, "kb", "kB", 1e3),
		unit(Data, "mb", "MB", 1e6),
		unit(Data, "gb", "GB", 1e9),
		unit(Data, "tb", "TB", 1e12),
		unit(Data, "kib", "KiB", 1<<10),
		unit(Data, "mib", "MiB", 1<<20),
		unit(Data, "gib", "GiB", 1<<30),
	),
	Time: index(
		unit(Time, "s", "s", 1),
		unit(Time, "min", "min", 60),
		unit(Time, "h", "h", 3600),
		unit(Time, "d", "d", 86400),
		unit(Time, "wk", "wk", 604800),
	),
	Energy: index(
		unit(Energy, "j", "J", 1),
		unit(Energy, "kj", "kJ", 1000),
		unit(Energy, "cal", "cal", 4.184),
		unit(Energy, "kcal", "kcal", 4184),
		unit(Energy, "kwh", "kWh", 3.6e6),
	),
	Pressure: index(
		unit(Pressure, "pa", "Pa", 1),
		unit(Pressure, "kpa", "kPa", 1000),
		unit(Pressure, "bar", "bar", 1e5),
		unit(Pressure, "atm", "atm", 101325),
		unit(Pressure, "psi", "psi", 6894.757293168),
	),
}

// minBase holds the lowest attainable value of a type in its base unit.
var minBase = map[Type]float64{
	Temperature: constants.AbsoluteZeroC,
}

// baseTolerance absorbs rounding from affine conversions, so that -459.67 °F
// still counts as absolute zero.
const baseTolerance = 1e-9

// Attainable reports whether a value expressed in the base unit of t can
// exist, e.g. no temperature lies below absolute zero. Types without a
// physical floor accept every value.
func Attainable(t Type, base float64) bool {
	floor, ok := minBase[t]
	if !ok || base >= floor {
		return true
	}
	return mathutil.WithinTolerance(base, floor, baseTolerance)
}

func index(list ...Unit) map[string]Unit {
	m := make(map[string]Unit, len(list))
	for _, u := range list {
		m[u.ID] = u
	}
	return m
}

// Lookup returns the unit with the given id within a unit type.
func Lookup(t Type, id string) (Unit, error) {
	byID, ok := table[t]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	u, ok := byID[id]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %s (%s)", ErrUnknownUnit, id, t)
	}
	return u, nil
}

// Convert converts value from one unit to another of the same type.
func Convert(value float64, t Type, from, to string) (float64, error) {
	src, err := Lookup(t, from)
	if err != nil {
		return 0, err
	}
	dst, err := Lookup(t, to)
	if err != nil {
		return 0, err
	}
	if src.ID == dst.ID {
		return value, nil
	}
	return dst.FromBase(src.ToBase(value)), nil
}

// ToBase converts value in the named unit into the base unit of its type.
func ToBase(value float64, t Type, from string) (float64, error) {
	u, err := Lookup(t, from)
	if err != nil {
		return 0, err
	}
	return u.ToBase(value), nil
}

// FromBase converts value in the base unit of a type into the named unit.
func FromBase(value float64, t Type, to string) (float64, error) {
	u, err := Lookup(t, to)
	if err != nil {
		return 0, err
	}
	return u.FromBase(value), nil
}

// Units lists the units of a type sorted by their size in base units.
func Units(t Type) []Unit {
	byID := table[t]
	list := make([]Unit, 0, len(byID))
	for _, u := range byID {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Factor == list[j].Factor {
			return list[i].ID < list[j].ID
		}
		return list[i].Factor < list[j].Factor
	})
	return list
}

// Types lists all unit types in alphabetical order.
func Types() []Type {
	types := make([]Type, 0, len(table))
	for t := range table {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
