package kernel

import (
	"context"

	"github.com/mrz1836/structure/internal/clock"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	"github.com/mrz1836/structure/internal/units"
)

const unitConverterSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["value", "from_unit"],
	"properties": {
		"value": {"type": "number"},
		"from_unit": {"type": "string", "minLength": 1},
		"to_unit": {"type": "string"}
	}
}`

// UnitConverter converts a value between two units of the same dimension.
// Without a target unit the value is converted to the SI unit of its
// dimension.
type UnitConverter struct {
	base
}

// NewUnitConverter returns the unit_converter_v1 kernel.
func NewUnitConverter(c clock.Clock) *UnitConverter {
	return &UnitConverter{base: newBase(constants.KernelUnitConverter, "1.0.0", constants.DeterminismD1, unitConverterSchema, c)}
}

// Execute performs the conversion.
func (k *UnitConverter) Execute(_ context.Context, in domain.KernelInput) domain.KernelOutput {
	if err := k.ValidateArgs(in.Args); err != nil {
		return k.invalid(in, err)
	}
	value := floatArg(in.Args, "value", 0)
	from := stringArg(in.Args, "from_unit")
	to := stringArg(in.Args, "to_unit")

	src, ok := units.Lookup(from)
	if !ok {
		return k.fail(in, "unknown source unit: %s", from)
	}
	if to == "" {
		to = units.SIBase(src.Dimension)
	}

	converted, err := units.Convert(value, from, to)
	if err != nil {
		return k.fail(in, "%v", err)
	}
	si, err := units.Convert(value, from, units.SIBase(src.Dimension))
	if err != nil {
		return k.fail(in, "%v", err)
	}
	dst, _ := units.Lookup(to)

	return k.ok(in, map[string]any{
		"original_value":  value,
		"original_unit":   src.Code,
		"converted_value": converted,
		"converted_unit":  dst.Code,
		"si_value":        si,
		"dimension":       src.Dimension,
	})
}
