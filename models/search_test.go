package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampedTopK(t *testing.T) {
	cases := []struct {
		name string
		in   int
		want int
	}{
		{"zero becomes the minimum", 0, 1},
		{"negative becomes the minimum", -5, 1},
		{"minimum passes through", 1, 1},
		{"middle passes through", 10, 10},
		{"maximum passes through", 50, 50},
		{"oversized is capped", 1000, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SearchRequest{TopK: tc.in}.ClampedTopK())
		})
	}
}
