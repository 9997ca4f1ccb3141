package fault

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidation("text", "must not be empty")
	assert.Equal(t, "invalid text: must not be empty", err.Error())
	assert.True(t, IsValidation(err))
	assert.True(t, IsValidation(eris.Wrap(err, "workflow: create question")))
	assert.False(t, IsValidation(eris.New("other")))
}

func TestRemoteRejection(t *testing.T) {
	t.Parallel()

	inner := eris.New("duplicate position 3")
	err := NewRejection("create-question", inner)
	assert.True(t, IsRejection(err))
	assert.True(t, IsRejection(eris.Wrap(err, "session")))
	assert.ErrorIs(t, err, inner)
	assert.False(t, IsRejection(inner))
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	t.Run("nil is not transient", func(t *testing.T) {
		t.Parallel()
		assert.False(t, IsTransient(nil))
	})

	t.Run("explicit wrap", func(t *testing.T) {
		t.Parallel()
		err := NewTransient(eris.New("gateway unavailable"), 503)
		assert.True(t, IsTransient(err))
		assert.True(t, IsTransient(eris.Wrap(err, "matchsvc: list candidates")))
	})

	t.Run("string heuristics", func(t *testing.T) {
		t.Parallel()
		assert.True(t, IsTransient(eris.New("read tcp: connection reset by peer")))
		assert.True(t, IsTransient(eris.New("dial tcp: i/o timeout")))
	})

	t.Run("rejections are not transient", func(t *testing.T) {
		t.Parallel()
		assert.False(t, IsTransient(NewRejection("delete-factor", eris.New("unknown id"))))
		assert.False(t, IsTransient(context.Canceled))
	})
}

func TestIsTransientHTTPStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 201, 400, 404, 409, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

func TestInconsistentRead(t *testing.T) {
	t.Parallel()

	err := &InconsistentRead{TestID: "t-1", Findings: []string{"questions: duplicate position 2"}}
	assert.True(t, IsInconsistentRead(err))
	assert.Contains(t, err.Error(), "t-1")
	assert.Contains(t, err.Error(), "duplicate position 2")
}
