package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloatRoundOffWithPrecision(t *testing.T) {
	assert.Equal(t, 62.5, FloatRoundOffWithPrecision(62.5, 1))
	assert.Equal(t, 66.7, FloatRoundOffWithPrecision(66.66666, 1))
	assert.Equal(t, 0.375, FloatRoundOffWithPrecision(0.375, 4))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 80.0, Percent(80, 100))
	assert.Equal(t, 62.5, Percent(50, 80))
	assert.Equal(t, 66.7, Percent(2, 3))
	assert.Equal(t, 0.0, Percent(0, 10))
}
