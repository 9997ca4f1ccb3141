package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sib struct{ pos int }

func posOf(s sib) int { return s.pos }

func TestNext(t *testing.T) {
	t.Parallel()

	t.Run("empty group starts at 1", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 1, Next(nil, posOf))
		assert.Equal(t, 1, Next([]sib{}, posOf))
	})

	t.Run("dense group appends", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 4, Next([]sib{{1}, {2}, {3}}, posOf))
	})

	t.Run("gapped group never reuses a held position", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 4, Next([]sib{{1}, {3}}, posOf))
	})

	t.Run("unordered input", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 8, Next([]sib{{7}, {2}, {5}}, posOf))
	})
}

func TestIsDense(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDense(nil))
	assert.True(t, IsDense([]int{1}))
	assert.True(t, IsDense([]int{3, 1, 2}))
	assert.False(t, IsDense([]int{1, 3}))
	assert.False(t, IsDense([]int{1, 2, 2}))
	assert.False(t, IsDense([]int{0, 1}))
}

func TestDuplicates(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Duplicates([]int{1, 2, 3}))
	assert.Equal(t, []int{2}, Duplicates([]int{1, 2, 2, 3}))
	assert.Equal(t, []int{5, 1}, Duplicates([]int{5, 1, 5, 1, 5}))
}
