package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunks(t *testing.T) {
	tts := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{
			name:  "even split",
			items: []int{1, 2, 3, 4},
			size:  2,
			want:  [][]int{{1, 2}, {3, 4}},
		},
		{
			name:  "remainder in final chunk",
			items: []int{1, 2, 3, 4, 5},
			size:  2,
			want:  [][]int{{1, 2}, {3, 4}, {5}},
		},
		{
			name:  "size larger than input",
			items: []int{1, 2},
			size:  10,
			want:  [][]int{{1, 2}},
		},
		{
			name:  "empty input",
			items: []int{},
			size:  2,
			want:  [][]int{},
		},
		{
			name:  "non-positive size returns single chunk",
			items: []int{1, 2, 3},
			size:  0,
			want:  [][]int{{1, 2, 3}},
		},
	}

	for _, tt := range tts {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunks(tt.items, tt.size))
		})
	}
}
