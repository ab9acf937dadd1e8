package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEngineTuning(t *testing.T) {
	assert.NoError(t, validateEngineTuning(DefaultEngineTuning()))

	bad := DefaultEngineTuning()
	bad.MinSupport = 0
	assert.Error(t, validateEngineTuning(bad))

	bad = DefaultEngineTuning()
	bad.SameBrandPenalty = 0
	assert.Error(t, validateEngineTuning(bad))
}

func TestEngineTuningHolder_Defaults(t *testing.T) {
	holder, err := NewEngineTuningHolder()
	require.NoError(t, err)

	assert.Equal(t, DefaultEngineTuning(), holder.Get())
}
