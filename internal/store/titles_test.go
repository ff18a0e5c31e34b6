package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundRating(t *testing.T) {
	mean := func(scores ...int) float64 {
		sum := 0
		for _, s := range scores {
			sum += s
		}
		return float64(sum) / float64(len(scores))
	}

	tests := []struct {
		name   string
		scores []int
		want   float64
	}{
		{"exact mean", []int{8, 10, 6}, 8.0},
		{"one review", []int{7}, 7.0},
		{"repeating third", []int{10, 9, 9}, 9.3},
		{"half rounds away from zero", []int{7, 8, 7, 7}, 7.3}, // 7.25
		{"another half", []int{8, 9}, 8.5},
		{"low scores stay distinguishable from unrated", []int{1, 1}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RoundRating(mean(tt.scores...)), 1e-9)
		})
	}
}
