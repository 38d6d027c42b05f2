package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDs(t *testing.T) {
	tests := []struct {
		name     string
		input    []int64
		expected []int64
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []int64{},
			expected: []int64{},
		},
		{
			name:     "single element",
			input:    []int64{7},
			expected: []int64{7},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []int64{3, 7, 3, 9, 7},
			expected: []int64{3, 7, 9},
		},
		{
			name:     "drops zero and negative values",
			input:    []int64{0, 3, -1, 7},
			expected: []int64{3, 7},
		},
		{
			name:     "all invalid",
			input:    []int64{0, -5, 0},
			expected: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IDs(tt.input))
		})
	}
}

func TestContains(t *testing.T) {
	ids := []int64{3, 7, 9}
	assert.True(t, Contains(ids, 7))
	assert.False(t, Contains(ids, 4))
	assert.False(t, Contains(nil, 4))
}
