package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		lat1     float64
		lon1     float64
		lat2     float64
		lon2     float64
		expected float64
		delta    float64
	}{
		{
			name:     "Zero distance",
			lat1:     55.611087,
			lon1:     37.20829,
			lat2:     55.611087,
			lon2:     37.20829,
			expected: 0,
			delta:    0.001,
		},
		{
			name:     "Neighboring stops",
			lat1:     55.611087,
			lon1:     37.20829,
			lat2:     55.595884,
			lon2:     37.209755,
			expected: 1692.99,
			delta:    1.0,
		},
		{
			name:     "Symmetric",
			lat1:     55.595884,
			lon1:     37.209755,
			lat2:     55.611087,
			lon2:     37.20829,
			expected: 1692.99,
			delta:    1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, result, tt.delta)
		})
	}
}
