package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestionType(t *testing.T) {
	t.Parallel()

	t.Run("known variants", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{"ordinal_single", "multi_select", "numeric_scale"} {
			qt, err := ParseQuestionType(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, string(qt))
			assert.True(t, qt.Valid())
		}
	})

	t.Run("unknown variant rejected", func(t *testing.T) {
		t.Parallel()
		_, err := ParseQuestionType("free_text")
		assert.Error(t, err)
		assert.False(t, QuestionType("free_text").Valid())
	})
}

func TestEditState(t *testing.T) {
	t.Parallel()

	t.Run("zero value is idle", func(t *testing.T) {
		t.Parallel()
		var s EditState
		assert.True(t, s.IsIdle())
		assert.Equal(t, EditIdle, s.Kind())
		assert.Empty(t, s.EntityID())
	})

	t.Run("editing question carries id", func(t *testing.T) {
		t.Parallel()
		s := EditingQuestion("q-1")
		assert.False(t, s.IsIdle())
		assert.Equal(t, EditQuestion, s.Kind())
		assert.Equal(t, "q-1", s.EntityID())
	})

	t.Run("kind strings", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "idle", Idle().Kind().String())
		assert.Equal(t, "factor", EditingFactor("f").Kind().String())
		assert.Equal(t, "answer", EditingAnswer("a").Kind().String())
	})
}
