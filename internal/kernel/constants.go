package kernel

import (
	"context"
	"sort"
	"strings"

	"github.com/mrz1836/structure/internal/clock"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
)

const constantsSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"constant_id": {"type": "string", "minLength": 1},
		"search": {"type": "string", "minLength": 1},
		"specific_weight_disambiguation": {"type": "string"}
	},
	"anyOf": [
		{"required": ["name"]},
		{"required": ["constant_id"]},
		{"required": ["search"]}
	]
}`

// PhysicalConstant is one entry of the constants table.
type PhysicalConstant struct {
	ID          string   `json:"constant_id"`
	Value       float64  `json:"value"`
	Unit        string   `json:"unit"`
	Uncertainty float64  `json:"uncertainty"`
	Source      string   `json:"source"`
	Symbol      string   `json:"symbol"`
	Aliases     []string `json:"aliases,omitempty"`
	Note        string   `json:"note,omitempty"`
}

// physicalConstants is the authoritative table (CODATA 2018 and standard
// references). Water properties are at 20 °C and 1 atm.
//
//nolint:gochecknoglobals // Read-only lookup table
var physicalConstants = []PhysicalConstant{
	{ID: "speed_of_light", Value: 299792458.0, Unit: "m/s", Source: "CODATA 2018 (exact)", Symbol: "c", Aliases: []string{"c", "speed of light"}},
	{ID: "gravitational_constant", Value: 6.67430e-11, Unit: "m3/(kg.s2)", Uncertainty: 0.00015e-11, Source: "CODATA 2018", Symbol: "G", Aliases: []string{"big g"}},
	{ID: "planck_constant", Value: 6.62607015e-34, Unit: "J.s", Source: "CODATA 2018 (exact)", Symbol: "h", Aliases: []string{"planck"}},
	{ID: "boltzmann_constant", Value: 1.380649e-23, Unit: "J/K", Source: "CODATA 2018 (exact)", Symbol: "k", Aliases: []string{"boltzmann"}},
	{ID: "avogadro_number", Value: 6.02214076e23, Unit: "1/mol", Source: "CODATA 2018 (exact)", Symbol: "N_A", Aliases: []string{"avogadro"}},
	{ID: "standard_gravity", Value: 9.80665, Unit: "m/s2", Source: "ISO 80000-3 (exact by definition)", Symbol: "g_n", Aliases: []string{"g", "gravity", "gravitational acceleration"}},
	{ID: "standard_atmosphere", Value: 101325.0, Unit: "Pa", Source: "ISO 2533 (exact by definition)", Symbol: "atm", Aliases: []string{"atm", "atmospheric pressure"}},
	{ID: "water_density_20C", Value: 998.2, Unit: "kg/m3", Uncertainty: 0.1, Source: "CRC Handbook", Symbol: "rho_water", Aliases: []string{"water_density", "density of water", "water density"}, Note: "At 20 °C and 1 atm"},
	{ID: "water_specific_weight_20C", Value: 9789.0, Unit: "N/m3", Uncertainty: 1.0, Source: "Derived: rho * g", Symbol: "gamma_water", Aliases: []string{"water_specific_weight", "specific weight of water"}, Note: "Weight density (N/m3), not surface tension. gamma = rho * g"},
	{ID: "water_surface_tension_20C", Value: 0.0728, Unit: "N/m", Uncertainty: 0.0001, Source: "CRC Handbook", Symbol: "sigma_water", Aliases: []string{"surface tension of water"}, Note: "At 20 °C against air"},
	{ID: "air_density_20C", Value: 1.204, Unit: "kg/m3", Uncertainty: 0.001, Source: "Ideal gas law at STP", Symbol: "rho_air", Aliases: []string{"density of air", "air density"}, Note: "At 20 °C and 1 atm, dry air"},
	{ID: "universal_gas_constant", Value: 8.314462618, Unit: "J/(mol.K)", Source: "CODATA 2018 (exact)", Symbol: "R", Aliases: []string{"gas_constant", "gas constant", "ideal gas constant"}},
	{ID: "specific_gas_constant_air", Value: 287.05, Unit: "J/(kg.K)", Uncertainty: 0.01, Source: "R/M_air", Symbol: "R_air", Note: "For dry air"},
	{ID: "pi", Value: 3.141592653589793, Unit: "1", Source: "Mathematical constant", Symbol: "pi", Aliases: []string{"pi"}},
	{ID: "euler_number", Value: 2.718281828459045, Unit: "1", Source: "Mathematical constant", Symbol: "e", Aliases: []string{"e", "euler"}},
}

// waterSpecificGravity answers "specific weight of water" read as specific
// gravity: water is the reference, so the ratio is exactly 1.
//
//nolint:gochecknoglobals // Read-only table entry
var waterSpecificGravity = PhysicalConstant{
	ID: "water_specific_gravity", Value: 1.0, Unit: "1", Source: "Definition (reference substance)",
	Symbol: "SG_water", Note: "Dimensionless ratio of density to water density",
}

// Constants looks up physical and mathematical constants with provenance.
type Constants struct {
	base
	byKey map[string]PhysicalConstant
}

// NewConstants returns the constants_v1 kernel.
func NewConstants(c clock.Clock) *Constants {
	k := &Constants{
		base:  newBase(constants.KernelConstants, "1.0.0", constants.DeterminismD2, constantsSchema, c),
		byKey: make(map[string]PhysicalConstant),
	}
	for _, pc := range physicalConstants {
		k.byKey[pc.ID] = pc
		for _, a := range pc.Aliases {
			if _, taken := k.byKey[a]; !taken {
				k.byKey[a] = pc
			}
		}
	}
	return k
}

// Available returns the constant ids in sorted order.
func (k *Constants) Available() []string {
	ids := make([]string, 0, len(physicalConstants))
	for _, pc := range physicalConstants {
		ids = append(ids, pc.ID)
	}
	sort.Strings(ids)
	return ids
}

// Execute resolves args["constant_id"], args["name"] or args["search"], in
// that order. A search matching several constants fails with the
// candidates so the caller can disambiguate.
func (k *Constants) Execute(_ context.Context, in domain.KernelInput) domain.KernelOutput {
	if err := k.ValidateArgs(in.Args); err != nil {
		return k.invalid(in, err)
	}

	key := stringArg(in.Args, "constant_id")
	if key == "" {
		key = stringArg(in.Args, "name")
	}
	if key != "" {
		pc, ok := k.byKey[key]
		if !ok {
			return k.fail(in, "unknown constant: %s", key)
		}
		if pc.ID == "water_specific_weight_20C" &&
			stringArg(in.Args, "specific_weight_disambiguation") == "specific_gravity" {
			pc = waterSpecificGravity
		}
		return k.ok(in, pc)
	}

	term := strings.ToLower(stringArg(in.Args, "search"))
	var matches []PhysicalConstant
	for _, pc := range physicalConstants {
		if strings.Contains(strings.ToLower(pc.ID), term) || containsAlias(pc.Aliases, term) {
			matches = append(matches, pc)
		}
	}
	switch len(matches) {
	case 0:
		return k.fail(in, "no constants found matching: %s", term)
	case 1:
		return k.ok(in, matches[0])
	default:
		out := k.fail(in, "multiple constants match %q; disambiguation required", term)
		out.Result = map[string]any{"candidates": matches}
		return out
	}
}

func containsAlias(aliases []string, term string) bool {
	for _, a := range aliases {
		if strings.Contains(strings.ToLower(a), term) {
			return true
		}
	}
	return false
}
