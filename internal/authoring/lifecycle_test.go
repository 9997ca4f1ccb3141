package authoring

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientavida/assess-cli/internal/store"
)

// These tests run the session against a real SQLite-backed store, so the
// cascade/detach policies and the reload-driven renumbering are exercised
// end to end.

func newLifecycleSession(t *testing.T) *Session {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "authoring.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))
	test, err := st.CreateTest(ctx, store.TestInput{Code: "VOC", Title: "Orientación vocacional"})
	require.NoError(t, err)

	s := NewSession(st, test.ID)
	require.NoError(t, s.Refresh(ctx))
	return s
}

func TestQuestionDeleteCascadesAnswers(t *testing.T) {
	t.Parallel()
	s := newLifecycleSession(t)
	ctx := context.Background()

	q1, err := s.CreateQuestion(ctx, "Primera", nil)
	require.NoError(t, err)
	_, err = s.CreateQuestion(ctx, "Segunda", nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteQuestion(ctx, q1.ID))

	qs := s.View().SortedQuestions()
	require.Len(t, qs, 1)
	assert.Equal(t, "Segunda", qs[0].Text)
	// Survivor was renumbered to a dense run by the authoritative source.
	assert.Equal(t, 1, qs[0].Position)
	// No orphaned answers remain visible anywhere.
	assert.Nil(t, s.View().SortedAnswers(q1.ID))
}

func TestFactorDeleteDetachesSubfactors(t *testing.T) {
	t.Parallel()
	s := newLifecycleSession(t)
	ctx := context.Background()

	require.NoError(t, s.CreateFactor(ctx, FactorDraft{Code: "COG", Name: "Cognitivo"}))
	factor := s.View().SortedFactors()[0]

	require.NoError(t, s.CreateSubfactor(ctx, SubfactorDraft{Code: "MEM", Name: "Memoria", FactorID: &factor.ID}))
	sub := s.View().SortedSubfactors(nil)[0]

	_, err := s.CreateQuestion(ctx, "¿Recuerdas nombres con facilidad?", &sub.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteFactor(ctx, factor.ID))

	// Subfactor survives, detached; its question survives, still tagged.
	subs := s.View().SortedSubfactors(nil)
	require.Len(t, subs, 1)
	assert.Nil(t, subs[0].FactorID)

	qs := s.View().SortedQuestions()
	require.Len(t, qs, 1)
	require.NotNil(t, qs[0].SubfactorID)
	assert.Equal(t, sub.ID, *qs[0].SubfactorID)

	label := s.View().ResolveLabel(qs[0].ID)
	assert.Equal(t, "MEM", label.SubfactorCode)
	assert.Empty(t, label.FactorCode)
}

func TestSubfactorDeleteDetachesQuestions(t *testing.T) {
	t.Parallel()
	s := newLifecycleSession(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSubfactor(ctx, SubfactorDraft{Code: "EMP", Name: "Empatía"}))
	sub := s.View().SortedSubfactors(nil)[0]

	q, err := s.CreateQuestion(ctx, "¿Escuchas antes de opinar?", &sub.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteSubfactor(ctx, sub.ID))

	qs := s.View().SortedQuestions()
	require.Len(t, qs, 1)
	assert.Equal(t, q.ID, qs[0].ID)
	assert.Nil(t, qs[0].SubfactorID)
	assert.Empty(t, s.View().ResolveLabel(q.ID).SubfactorCode)
	// Its answers are untouched by the detach.
	assert.Len(t, s.View().SortedAnswers(q.ID), 5)
}

func TestAnswerDeleteRenumbersOnReload(t *testing.T) {
	t.Parallel()
	s := newLifecycleSession(t)
	ctx := context.Background()

	q, err := s.CreateQuestion(ctx, "Primera", nil)
	require.NoError(t, err)

	answers := s.View().SortedAnswers(q.ID)
	require.Len(t, answers, 5)
	require.NoError(t, s.DeleteAnswer(ctx, answers[2].ID))

	after := s.View().SortedAnswers(q.ID)
	require.Len(t, after, 4)
	for i, a := range after {
		assert.Equal(t, i+1, a.Position)
	}
	assert.Equal(t, []string{"Siempre", "Casi siempre", "Alguna vez", "Nunca"},
		[]string{after[0].Text, after[1].Text, after[2].Text, after[3].Text})
}

func TestDensePositionsAfterMixedSequence(t *testing.T) {
	t.Parallel()
	s := newLifecycleSession(t)
	ctx := context.Background()

	var ids []string
	for _, text := range []string{"Uno", "Dos", "Tres", "Cuatro"} {
		q, err := s.CreateQuestion(ctx, text, nil)
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}
	require.NoError(t, s.DeleteQuestion(ctx, ids[1]))
	require.NoError(t, s.DeleteQuestion(ctx, ids[3]))
	_, err := s.CreateQuestion(ctx, "Cinco", nil)
	require.NoError(t, err)

	qs := s.View().SortedQuestions()
	require.Len(t, qs, 3)
	for i, q := range qs {
		assert.Equal(t, i+1, q.Position, "positions must settle dense after reload")
	}
	assert.Empty(t, s.View().Findings())
}
