package authoring

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/orientavida/assess-cli/internal/fault"
	"github.com/orientavida/assess-cli/internal/model"
	"github.com/orientavida/assess-cli/internal/store"
)

// CreateQuestion authors a question together with its standard 5-answer
// scale as one unit. The question position is allocated from the current
// view; question and answers go to the remote store in a single atomic
// call. On success the structure is reloaded; on failure nothing is
// retained locally and the whole unit is reported as one rejection — the
// operator never sees a question without its answers.
func (s *Session) CreateQuestion(ctx context.Context, text string, subfactorID *string) (*model.Question, error) {
	if text == "" {
		return nil, fault.NewValidation("text", "must not be empty")
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	in := store.QuestionInput{
		Text:        text,
		Type:        model.QuestionOrdinalSingle,
		Position:    nextQuestionPosition(s.view),
		SubfactorID: subfactorID,
		Answers:     StandardScale(),
	}

	q, err := s.remote.CreateQuestion(ctx, s.testID, in)
	if err != nil {
		return nil, classify("create-question", err)
	}

	zap.L().Info("question created",
		zap.String("test_id", s.testID),
		zap.String("question_id", q.ID),
		zap.Int("position", q.Position),
		zap.Int("answers", len(q.Answers)),
	)

	if err := s.sync.Reload(ctx, s.testID); err != nil {
		return q, eris.Wrap(err, "create-question: applied remotely but reload failed")
	}
	return q, nil
}
