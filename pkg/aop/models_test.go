package aop

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeTarget(t *testing.T) {
	tests := []struct {
		name   string
		py     string
		growth decimal.NullDecimal
		want   string
	}{
		{"ten percent", "100", decimal.NewNullDecimal(decimal.NewFromInt(10)), "110"},
		{"missing growth", "100", decimal.NullDecimal{}, "100"},
		{"negative growth", "200", decimal.NewNullDecimal(decimal.NewFromFloat(-2.5)), "195"},
		{"fractional", "33.33", decimal.NewNullDecimal(decimal.NewFromInt(3)), "34.3299"},
		{"zero actuals", "0", decimal.NewNullDecimal(decimal.NewFromInt(50)), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTarget(decimal.RequireFromString(tt.py), tt.growth)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseGrowth(t *testing.T) {
	for _, in := range []string{"", "  ", "NaN", "nan"} {
		g, err := parseGrowth(in)
		assert.NoError(t, err)
		assert.False(t, g.Valid, "input %q", in)
	}

	g, err := parseGrowth("10%")
	assert.NoError(t, err)
	assert.True(t, g.Valid)
	assert.Equal(t, "10", g.Decimal.String())

	_, err = parseGrowth("ten")
	assert.Error(t, err)
}
