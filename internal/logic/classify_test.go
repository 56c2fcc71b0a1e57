package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		temp float64
		want Level
	}{
		{-5, LevelNormal},
		{45, LevelNormal},
		{79.9, LevelNormal},
		{80.0, LevelElevated},
		{89.99, LevelElevated},
		{90.0, LevelCritical},
		{120, LevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.temp), "temp %.2f", tt.temp)
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "NORMAL", LevelNormal.String())
	assert.Equal(t, "ELEVATED", LevelElevated.String())
	assert.Equal(t, "CRITICAL", LevelCritical.String())
	assert.Equal(t, "UNKNOWN", Level(7).String())
}
