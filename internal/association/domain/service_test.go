package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategyKind(t *testing.T) {
	kind, err := ParseStrategyKind("")
	require.NoError(t, err)
	assert.Equal(t, StrategyKind(""), kind)

	kind, err = ParseStrategyKind("incremental")
	require.NoError(t, err)
	assert.Equal(t, StrategyIncremental, kind)

	_, err = ParseStrategyKind("bogus")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParams_WithDefaults(t *testing.T) {
	want := DefaultParams()
	// A zero bool is indistinguishable from "unset", so RecencyWeight is
	// not defaulted; callers start from DefaultParams.
	want.RecencyWeight = false
	assert.Equal(t, want, Params{}.WithDefaults())

	weighted := DefaultParams()
	weighted.MaxPairs = 0
	assert.True(t, weighted.WithDefaults().RecencyWeight, "explicit true survives defaulting")

	custom := Params{MinSupport: 5, WindowDays: 30}.WithDefaults()
	assert.Equal(t, 5, custom.MinSupport)
	assert.Equal(t, 30, custom.WindowDays)
	assert.Equal(t, DefaultParams().PerProductCap, custom.PerProductCap)
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative min support", func(p *Params) { p.MinSupport = -1 }},
		{"zero window", func(p *Params) { p.WindowDays = -1 }},
		{"zero cap", func(p *Params) { p.PerProductCap = -1 }},
		{"non-positive boost", func(p *Params) { p.CrossCategoryBoost = -0.5 }},
		{"non-positive penalty", func(p *Params) { p.SameBrandPenalty = -0.5 }},
		{"unordered thresholds", func(p *Params) { p.SinglePassMaxItems = p.DirectMaxItems }},
		{"negative retries", func(p *Params) { p.BatchRetries = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParams()
			tc.mutate(&params)
			assert.ErrorIs(t, params.Validate(), ErrInvalidConfig)
		})
	}
}
