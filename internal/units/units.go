// Package units holds the unit vocabulary shared by the classifier, the
// parameter extractor and the unit converter kernel. Units are identified by
// UCUM codes; user-facing aliases resolve to those codes.
package units

import (
	"fmt"
	"math"
	"sort"
	"strings"

	structerrors "github.com/mrz1836/structure/internal/errors"
)

// Dimension names.
const (
	Mass           = "mass"
	Force          = "force"
	Length         = "length"
	Time           = "time"
	Pressure       = "pressure"
	Energy         = "energy"
	Power          = "power"
	Temperature    = "temperature"
	Velocity       = "velocity"
	Density        = "density"
	SpecificWeight = "specific_weight"
	SurfaceTension = "surface_tension"
	Volume         = "volume"
)

// Unit is a UCUM unit with its conversion to the SI base of its dimension:
// si = value*Factor + Offset.
type Unit struct {
	Code      string
	Dimension string
	Factor    float64
	Offset    float64
}

const (
	lbAv  = 0.45359237
	lbfAv = 4.4482216152605
	ftI   = 0.3048
)

//nolint:gochecknoglobals // Read-only unit table
var table = map[string]Unit{
	"kg":        {Code: "kg", Dimension: Mass, Factor: 1},
	"g":         {Code: "g", Dimension: Mass, Factor: 1e-3},
	"mg":        {Code: "mg", Dimension: Mass, Factor: 1e-6},
	"[lb_av]":   {Code: "[lb_av]", Dimension: Mass, Factor: lbAv},
	"[oz_av]":   {Code: "[oz_av]", Dimension: Mass, Factor: 0.028349523125},
	"slug":      {Code: "slug", Dimension: Mass, Factor: 14.593902937206364},
	"t":         {Code: "t", Dimension: Mass, Factor: 1e3},
	"[ston_av]": {Code: "[ston_av]", Dimension: Mass, Factor: 2000 * lbAv},
	"[lton_av]": {Code: "[lton_av]", Dimension: Mass, Factor: 2240 * lbAv},

	"N":        {Code: "N", Dimension: Force, Factor: 1},
	"kN":       {Code: "kN", Dimension: Force, Factor: 1e3},
	"dyn":      {Code: "dyn", Dimension: Force, Factor: 1e-5},
	"[lbf_av]": {Code: "[lbf_av]", Dimension: Force, Factor: lbfAv},

	"m":      {Code: "m", Dimension: Length, Factor: 1},
	"cm":     {Code: "cm", Dimension: Length, Factor: 1e-2},
	"mm":     {Code: "mm", Dimension: Length, Factor: 1e-3},
	"km":     {Code: "km", Dimension: Length, Factor: 1e3},
	"[ft_i]": {Code: "[ft_i]", Dimension: Length, Factor: ftI},
	"[in_i]": {Code: "[in_i]", Dimension: Length, Factor: 0.0254},
	"[mi_i]": {Code: "[mi_i]", Dimension: Length, Factor: 1609.344},

	"s":   {Code: "s", Dimension: Time, Factor: 1},
	"min": {Code: "min", Dimension: Time, Factor: 60},
	"h":   {Code: "h", Dimension: Time, Factor: 3600},

	"Pa":    {Code: "Pa", Dimension: Pressure, Factor: 1},
	"kPa":   {Code: "kPa", Dimension: Pressure, Factor: 1e3},
	"MPa":   {Code: "MPa", Dimension: Pressure, Factor: 1e6},
	"bar":   {Code: "bar", Dimension: Pressure, Factor: 1e5},
	"atm":   {Code: "atm", Dimension: Pressure, Factor: 101325},
	"[psi]": {Code: "[psi]", Dimension: Pressure, Factor: 6894.757293168361},

	"J":        {Code: "J", Dimension: Energy, Factor: 1},
	"kJ":       {Code: "kJ", Dimension: Energy, Factor: 1e3},
	"MJ":       {Code: "MJ", Dimension: Energy, Factor: 1e6},
	"cal":      {Code: "cal", Dimension: Energy, Factor: 4.184},
	"kcal":     {Code: "kcal", Dimension: Energy, Factor: 4184},
	"[Btu_IT]": {Code: "[Btu_IT]", Dimension: Energy, Factor: 1055.05585262},
	"eV":       {Code: "eV", Dimension: Energy, Factor: 1.602176634e-19},

	"W":    {Code: "W", Dimension: Power, Factor: 1},
	"kW":   {Code: "kW", Dimension: Power, Factor: 1e3},
	"MW":   {Code: "MW", Dimension: Power, Factor: 1e6},
	"[HP]": {Code: "[HP]", Dimension: Power, Factor: 745.6998715822702},

	"K":      {Code: "K", Dimension: Temperature, Factor: 1},
	"Cel":    {Code: "Cel", Dimension: Temperature, Factor: 1, Offset: 273.15},
	"[degF]": {Code: "[degF]", Dimension: Temperature, Factor: 5.0 / 9.0, Offset: 459.67 * 5.0 / 9.0},

	"m/s":              {Code: "m/s", Dimension: Velocity, Factor: 1},
	"km/h":             {Code: "km/h", Dimension: Velocity, Factor: 1 / 3.6},
	"[mi_i]/h":         {Code: "[mi_i]/h", Dimension: Velocity, Factor: 0.44704},
	"[ft_i]/s":         {Code: "[ft_i]/s", Dimension: Velocity, Factor: ftI},
	"kg/m3":            {Code: "kg/m3", Dimension: Density, Factor: 1},
	"g/cm3":            {Code: "g/cm3", Dimension: Density, Factor: 1e3},
	"N/m3":             {Code: "N/m3", Dimension: SpecificWeight, Factor: 1},
	"[lbf_av]/[ft_i]3": {Code: "[lbf_av]/[ft_i]3", Dimension: SpecificWeight, Factor: lbfAv / (ftI * ftI * ftI)},
	"N/m":              {Code: "N/m", Dimension: SurfaceTension, Factor: 1},
	"L":                {Code: "L", Dimension: Volume, Factor: 1e-3},
	"mL":               {Code: "mL", Dimension: Volume, Factor: 1e-6},
	"m3":               {Code: "m3", Dimension: Volume, Factor: 1},
}

// aliases maps what users type to UCUM codes. "lb", "pound" and "ton" are
// absent on purpose: they are ambiguous and must be clarified first.
//
//nolint:gochecknoglobals // Read-only alias table
var aliases = map[string]string{
	"kg": "kg", "kilogram": "kg", "kilograms": "kg",
	"g": "g", "gram": "g", "grams": "g",
	"mg": "mg", "milligram": "mg", "milligrams": "mg",
	"lbm": "[lb_av]", "[lb_av]": "[lb_av]",
	"oz": "[oz_av]", "ounce": "[oz_av]", "ounces": "[oz_av]",
	"slug": "slug", "slugs": "slug",
	"tonne": "t", "tonnes": "t", "short ton": "[ston_av]", "long ton": "[lton_av]",
	"N": "N", "newton": "N", "newtons": "N",
	"kN": "kN", "dyn": "dyn",
	"lbf": "[lbf_av]", "[lbf_av]": "[lbf_av]",
	"m": "m", "meter": "m", "meters": "m", "metre": "m", "metres": "m",
	"cm": "cm", "mm": "mm", "km": "km", "kilometers": "km", "kilometres": "km",
	"ft": "[ft_i]", "foot": "[ft_i]", "feet": "[ft_i]",
	"inch": "[in_i]", "inches": "[in_i]",
	"mi": "[mi_i]", "mile": "[mi_i]", "miles": "[mi_i]",
	"s": "s", "sec": "s", "second": "s", "seconds": "s",
	"min": "min", "minute": "min", "minutes": "min",
	"h": "h", "hr": "h", "hour": "h", "hours": "h",
	"Pa": "Pa", "kPa": "kPa", "MPa": "MPa", "bar": "bar", "atm": "atm", "psi": "[psi]",
	"J": "J", "kJ": "kJ", "MJ": "MJ", "cal": "cal", "kcal": "kcal", "BTU": "[Btu_IT]", "eV": "eV",
	"W": "W", "kW": "kW", "MW": "MW", "hp": "[HP]", "horsepower": "[HP]",
	"K": "K", "kelvin": "K",
	"°C": "Cel", "degC": "Cel", "celsius": "Cel", "Cel": "Cel",
	"°F": "[degF]", "degF": "[degF]", "fahrenheit": "[degF]",
	"m/s": "m/s", "km/h": "km/h", "mph": "[mi_i]/h", "ft/s": "[ft_i]/s",
	"kg/m3": "kg/m3", "kg/m³": "kg/m3", "g/cm3": "g/cm3", "g/cm³": "g/cm3",
	"N/m3": "N/m3", "N/m³": "N/m3", "lbf/ft3": "[lbf_av]/[ft_i]3", "lbf/ft³": "[lbf_av]/[ft_i]3",
	"N/m": "N/m",
	"L":   "L", "liter": "L", "liters": "L", "litre": "L", "litres": "L",
	"mL": "mL", "milliliter": "mL", "milliliters": "mL",
}

//nolint:gochecknoglobals // Built once from aliases
var lowerAliases = func() map[string]string {
	out := make(map[string]string, len(aliases))
	for a, code := range aliases {
		out[strings.ToLower(a)] = code
	}
	return out
}()

// Lookup resolves a UCUM code or a user alias to a Unit.
func Lookup(raw string) (Unit, bool) {
	if u, ok := table[raw]; ok {
		return u, true
	}
	code, ok := aliases[raw]
	if !ok {
		code, ok = lowerAliases[strings.ToLower(raw)]
	}
	if !ok {
		return Unit{}, false
	}
	u, ok := table[code]
	return u, ok
}

// Aliases returns every alias, longest first, for building token regexes.
func Aliases() []string {
	out := make([]string, 0, len(aliases))
	for a := range aliases {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Codes returns every UCUM code in sorted order.
func Codes() []string {
	out := make([]string, 0, len(table))
	for c := range table {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Convert converts value between two units of the same dimension.
func Convert(value float64, from, to string) (float64, error) {
	src, ok := Lookup(from)
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", structerrors.ErrInvalidArgs, from)
	}
	dst, ok := Lookup(to)
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", structerrors.ErrInvalidArgs, to)
	}
	if src.Dimension != dst.Dimension {
		return 0, fmt.Errorf("%w: cannot convert %s (%s) to %s (%s)",
			structerrors.ErrInvalidArgs, src.Code, src.Dimension, dst.Code, dst.Dimension)
	}
	si := value*src.Factor + src.Offset
	out := (si - dst.Offset) / dst.Factor
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("%w: conversion overflow", structerrors.ErrInvalidArgs)
	}
	return out, nil
}

//nolint:gochecknoglobals // Read-only dimension -> SI code table
var siBase = map[string]string{
	Mass:           "kg",
	Force:          "N",
	Length:         "m",
	Time:           "s",
	Pressure:       "Pa",
	Energy:         "J",
	Power:          "W",
	Temperature:    "K",
	Velocity:       "m/s",
	Density:        "kg/m3",
	SpecificWeight: "N/m3",
	SurfaceTension: "N/m",
	Volume:         "m3",
}

// SIBase returns the SI code of a dimension, or "" when unknown.
func SIBase(dimension string) string {
	return siBase[dimension]
}
