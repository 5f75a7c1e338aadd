package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	structerrors "github.com/mrz1836/structure/internal/errors"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		from, to string
		expected float64
	}{
		{"kg to pound mass", 10, "kg", "[lb_av]", 22.0462262},
		{"lbm alias", 1, "lbm", "kg", 0.45359237},
		{"pound force to newton", 1, "lbf", "N", 4.4482216152605},
		{"feet to meters", 10, "ft", "m", 3.048},
		{"celsius to fahrenheit", 100, "°C", "[degF]", 212},
		{"fahrenheit to kelvin", 32, "degF", "K", 273.15},
		{"atm to kPa", 1, "atm", "kPa", 101.325},
		{"mph to m/s", 1, "mph", "m/s", 0.44704},
		{"identity", 5, "m", "m", 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(tc.value, tc.from, tc.to)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, got, 1e-6)
		})
	}
}

func TestConvert_Errors(t *testing.T) {
	_, err := Convert(1, "lb", "kg")
	require.ErrorIs(t, err, structerrors.ErrInvalidArgs)

	_, err = Convert(1, "kg", "m")
	require.ErrorIs(t, err, structerrors.ErrInvalidArgs)
	assert.Contains(t, err.Error(), "mass")
}

func TestLookup(t *testing.T) {
	u, ok := Lookup("Kilograms")
	require.True(t, ok)
	assert.Equal(t, "kg", u.Code)

	u, ok = Lookup("[lbf_av]")
	require.True(t, ok)
	assert.Equal(t, Force, u.Dimension)

	_, ok = Lookup("pound")
	assert.False(t, ok)
}

func TestAliases_LongestFirst(t *testing.T) {
	all := Aliases()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, len(all[i-1]), len(all[i]))
	}
	assert.NotContains(t, all, "lb")
}
