package vouch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStarLine(t *testing.T) {
	tests := []struct {
		stars        int
		filled       int
		placeholders int
	}{
		{stars: 1, filled: 1, placeholders: 4},
		{stars: 3, filled: 3, placeholders: 2},
		{stars: 5, filled: 5, placeholders: 0},
	}

	for _, tt := range tests {
		line := StarLine(tt.stars)
		assert.Equal(t, tt.filled, strings.Count(line, filledStar))
		assert.Equal(t, tt.placeholders, strings.Count(line, placeholder))
	}
}
