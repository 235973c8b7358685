package model

import (
	"math"
	"testing"
)

func TestHourlyStat_Merge(t *testing.T) {
	tests := []struct {
		name     string
		current  HourlyStat
		delta    HourlyStat
		expected HourlyStat
	}{
		{
			name:    "weighted latency",
			current: HourlyStat{RequestCount: 2, AvgLatency: 100, Tokens: 10},
			delta:   HourlyStat{RequestCount: 3, AvgLatency: 200, Tokens: 5},
			expected: HourlyStat{
				RequestCount: 5,
				AvgLatency:   160, // (100*2 + 200*3) / 5
				Tokens:       15,
			},
		},
		{
			name:     "merge into empty bucket",
			current:  HourlyStat{},
			delta:    HourlyStat{RequestCount: 4, AvgLatency: 250, Tokens: 100, Quota: 1.5, ErrorCount: 1},
			expected: HourlyStat{RequestCount: 4, AvgLatency: 250, Tokens: 100, Quota: 1.5, ErrorCount: 1},
		},
		{
			name:     "zero delta keeps averages",
			current:  HourlyStat{RequestCount: 10, AvgLatency: 80},
			delta:    HourlyStat{},
			expected: HourlyStat{RequestCount: 10, AvgLatency: 80},
		},
		{
			name:     "both empty",
			current:  HourlyStat{},
			delta:    HourlyStat{},
			expected: HourlyStat{},
		},
		{
			name:     "error counts add up",
			current:  HourlyStat{RequestCount: 5, ErrorCount: 2, AvgLatency: 100},
			delta:    HourlyStat{RequestCount: 5, ErrorCount: 3, AvgLatency: 100},
			expected: HourlyStat{RequestCount: 10, ErrorCount: 5, AvgLatency: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.current
			got.Merge(tt.delta)
			if got.Tokens != tt.expected.Tokens {
				t.Errorf("tokens: expected %d, got %d", tt.expected.Tokens, got.Tokens)
			}
			if got.RequestCount != tt.expected.RequestCount {
				t.Errorf("request count: expected %d, got %d", tt.expected.RequestCount, got.RequestCount)
			}
			if got.ErrorCount != tt.expected.ErrorCount {
				t.Errorf("error count: expected %d, got %d", tt.expected.ErrorCount, got.ErrorCount)
			}
			if math.Abs(got.AvgLatency-tt.expected.AvgLatency) > 1e-9 {
				t.Errorf("avg latency: expected %v, got %v", tt.expected.AvgLatency, got.AvgLatency)
			}
			if math.Abs(got.Quota-tt.expected.Quota) > 1e-9 {
				t.Errorf("quota: expected %v, got %v", tt.expected.Quota, got.Quota)
			}
		})
	}
}

func TestHourlyStat_MergeCommutativeTotal(t *testing.T) {
	// Folding the same contributions in either order must end at the same
	// weighted mean.
	a := HourlyStat{RequestCount: 2, AvgLatency: 100}
	b := HourlyStat{RequestCount: 8, AvgLatency: 300}

	left := HourlyStat{}
	left.Merge(a)
	left.Merge(b)

	right := HourlyStat{}
	right.Merge(b)
	right.Merge(a)

	if math.Abs(left.AvgLatency-right.AvgLatency) > 1e-9 {
		t.Errorf("merge order changed the mean: %v vs %v", left.AvgLatency, right.AvgLatency)
	}
	if left.AvgLatency != 260 {
		t.Errorf("expected 260, got %v", left.AvgLatency)
	}
}
