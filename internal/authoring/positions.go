package authoring

import (
	"github.com/orientavida/assess-cli/internal/model"
	"github.com/orientavida/assess-cli/internal/position"
	"github.com/orientavida/assess-cli/internal/structure"
)

// Position allocation always works from the latest loaded view. Two
// sessions racing from stale views can allocate the same number; the
// remote store rejects the loser and the operator resubmits after the
// reload.

func nextFactorPosition(view *structure.Store) int {
	return position.Next(view.SortedFactors(), func(f model.Factor) int { return f.Position })
}

func nextSubfactorPosition(view *structure.Store) int {
	return position.Next(view.SortedSubfactors(nil), func(sf model.Subfactor) int { return sf.Position })
}

func nextQuestionPosition(view *structure.Store) int {
	return position.Next(view.SortedQuestions(), func(q model.Question) int { return q.Position })
}

func nextAnswerPosition(view *structure.Store, questionID string) int {
	return position.Next(view.SortedAnswers(questionID), func(a model.Answer) int { return a.Position })
}
