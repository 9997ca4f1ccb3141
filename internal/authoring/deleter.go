package authoring

import (
	"context"

	"go.uber.org/zap"
)

// Deletion policies, one per entity kind:
//   - question: cascades to its answers, applied remotely in one operation
//   - answer: row only, sibling renumbering arrives with the next reload
//   - factor: row only, referencing subfactors are detached, never deleted
//   - subfactor: row only, referencing questions are detached
// The coordinator never nulls references locally; the remote store upholds
// the detach contract and the reload makes it visible.

// DeleteQuestion removes a question and all of its answers. Irreversible;
// callers must obtain operator confirmation before invoking.
func (s *Session) DeleteQuestion(ctx context.Context, id string) error {
	err := s.mutate(ctx, "delete-question", func(ctx context.Context) error {
		return s.remote.DeleteQuestion(ctx, id)
	})
	if err == nil {
		zap.L().Info("question deleted", zap.String("test_id", s.testID), zap.String("question_id", id))
	}
	return err
}

// DeleteAnswer removes a single answer. Sibling positions are left alone
// until the next reload returns the renumbered group.
func (s *Session) DeleteAnswer(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete-answer", func(ctx context.Context) error {
		return s.remote.DeleteAnswer(ctx, id)
	})
}

// DeleteFactor removes the factor row only; its subfactors survive with
// the factor reference cleared on the next reload.
func (s *Session) DeleteFactor(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete-factor", func(ctx context.Context) error {
		return s.remote.DeleteFactor(ctx, id)
	})
}

// DeleteSubfactor removes the subfactor row only; questions tagged with it
// survive with the subfactor reference cleared on the next reload.
func (s *Session) DeleteSubfactor(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete-subfactor", func(ctx context.Context) error {
		return s.remote.DeleteSubfactor(ctx, id)
	})
}
