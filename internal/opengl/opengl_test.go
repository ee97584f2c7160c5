package opengl

import (
	"math"
	"testing"
)

func TestPrefilterLevels(t *testing.T) {
	tests := []struct {
		height, want, expected int
	}{
		{512, 6, 6},
		{4, 6, 3},
		{1, 6, 1},
		{0, 6, 1},
		{512, 0, 1},
	}
	for _, tt := range tests {
		if got := PrefilterLevels(tt.height, tt.want); got != tt.expected {
			t.Errorf("PrefilterLevels(%d, %d): expected %d, got %d", tt.height, tt.want, tt.expected, got)
		}
	}
}

func TestBloomFactor(t *testing.T) {
	tests := []struct {
		factor, radius, expected float32
	}{
		{1.0, 0, 1.0},
		{1.0, 1, 0.2},
		{0.2, 1, 1.0},
		{0.6, 0.8, 0.6},
		{0.8, 0.5, 0.6},
	}
	for _, tt := range tests {
		got := BloomFactor(tt.factor, tt.radius)
		if math.Abs(float64(got-tt.expected)) > 1e-6 {
			t.Errorf("BloomFactor(%v, %v): expected %v, got %v", tt.factor, tt.radius, tt.expected, got)
		}
	}
}

func TestBloomTables(t *testing.T) {
	for i := 1; i < bloomMips; i++ {
		if bloomKernels[i] <= bloomKernels[i-1] {
			t.Errorf("kernel %d not wider than kernel %d", i, i-1)
		}
		if bloomFactors[i] >= bloomFactors[i-1] {
			t.Errorf("factor %d not smaller than factor %d", i, i-1)
		}
	}
}
