package authoring

import (
	"context"
	"strconv"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientavida/assess-cli/internal/fault"
	"github.com/orientavida/assess-cli/internal/model"
	"github.com/orientavida/assess-cli/internal/store"
)

// fakeRemote implements the subset of store.Store the session exercises.
// Unused methods come from the embedded nil interface and panic if called.
type fakeRemote struct {
	store.Store

	tree *model.Structure

	createQuestionErr error
	lastQuestion      *store.QuestionInput
	fetchCalls        int
}

func (f *fakeRemote) FetchStructure(_ context.Context, _ string) (*model.Structure, error) {
	f.fetchCalls++
	return f.tree, nil
}

func (f *fakeRemote) CreateQuestion(_ context.Context, testID string, in store.QuestionInput) (*model.Question, error) {
	if f.createQuestionErr != nil {
		return nil, f.createQuestionErr
	}
	f.lastQuestion = &in
	q := &model.Question{
		ID:          "q-new",
		TestID:      testID,
		SubfactorID: in.SubfactorID,
		Text:        in.Text,
		Type:        in.Type,
		Position:    in.Position,
	}
	for i, a := range in.Answers {
		q.Answers = append(q.Answers, model.Answer{
			ID: "a-new-" + strconv.Itoa(i+1), QuestionID: q.ID,
			Text: a.Text, Value: a.Value, Position: a.Position,
		})
	}
	// Keep the fake's authoritative tree in step so the reload sees it.
	f.tree.Questions = append(f.tree.Questions, *q)
	return q, nil
}

func newSessionWithTree(t *testing.T, tree *model.Structure) (*Session, *fakeRemote) {
	t.Helper()
	remote := &fakeRemote{tree: tree}
	s := NewSession(remote, tree.Test.ID)
	require.NoError(t, s.Refresh(context.Background()))
	return s, remote
}

func baseTree() *model.Structure {
	return &model.Structure{
		Test: model.Test{ID: "t-1", Code: "VOC", Title: "Vocacional", Active: true},
		Questions: []model.Question{
			{ID: "q-1", TestID: "t-1", Text: "Primera", Type: model.QuestionOrdinalSingle, Position: 1},
		},
	}
}

func TestCreateQuestionStandardScale(t *testing.T) {
	t.Parallel()
	s, remote := newSessionWithTree(t, baseTree())

	q, err := s.CreateQuestion(context.Background(), "¿Cómo te sientes hoy?", nil)
	require.NoError(t, err)

	require.Len(t, q.Answers, 5)
	wantTexts := []string{"Siempre", "Casi siempre", "A veces", "Alguna vez", "Nunca"}
	wantValues := []int{5, 4, 3, 2, 1}
	for i, a := range q.Answers {
		assert.Equal(t, i+1, a.Position)
		assert.Equal(t, wantTexts[i], a.Text)
		assert.Equal(t, wantValues[i], a.Value)
	}
	assert.Equal(t, model.QuestionOrdinalSingle, q.Type)
	assert.Equal(t, 2, q.Position)
	assert.Nil(t, q.SubfactorID)

	// Question and answers went out as one request.
	require.NotNil(t, remote.lastQuestion)
	assert.Len(t, remote.lastQuestion.Answers, 5)

	// Structure was reloaded after the mutation.
	assert.Equal(t, 2, remote.fetchCalls)
	assert.Len(t, s.View().SortedQuestions(), 2)
}

func TestCreateQuestionValidation(t *testing.T) {
	t.Parallel()
	s, remote := newSessionWithTree(t, baseTree())

	_, err := s.CreateQuestion(context.Background(), "", nil)
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))

	var ve *fault.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "text", ve.Field)

	// Nothing was submitted and nothing reloaded.
	assert.Nil(t, remote.lastQuestion)
	assert.Equal(t, 1, remote.fetchCalls)
}

func TestCreateQuestionRemoteRejection(t *testing.T) {
	t.Parallel()
	tree := baseTree()
	s, remote := newSessionWithTree(t, tree)
	remote.createQuestionErr = fault.NewRejection("create-question", eris.New("duplicate position 2"))

	before := s.View().SortedQuestions()
	_, err := s.CreateQuestion(context.Background(), "Segunda", nil)
	require.Error(t, err)
	assert.True(t, fault.IsRejection(err))

	// One failure for the whole unit: no phantom question, no partial
	// answer set, no reload.
	after := s.View().SortedQuestions()
	assert.Equal(t, before, after)
	assert.Equal(t, 1, remote.fetchCalls)
}

func TestCreateQuestionTransientFailure(t *testing.T) {
	t.Parallel()
	s, remote := newSessionWithTree(t, baseTree())
	remote.createQuestionErr = fault.NewTransient(eris.New("i/o timeout"), 0)

	_, err := s.CreateQuestion(context.Background(), "Segunda", nil)
	require.Error(t, err)
	assert.True(t, fault.IsTransient(err))
	assert.False(t, fault.IsRejection(err))
	assert.Len(t, s.View().SortedQuestions(), 1)
}

func TestCreateQuestionPositionFromGappedView(t *testing.T) {
	t.Parallel()
	tree := baseTree()
	tree.Questions = append(tree.Questions, model.Question{
		ID: "q-3", TestID: "t-1", Text: "Tercera", Type: model.QuestionOrdinalSingle, Position: 3,
	})
	s, remote := newSessionWithTree(t, tree)

	_, err := s.CreateQuestion(context.Background(), "Nueva", nil)
	require.NoError(t, err)
	// A gap (1,3) must not be reused; the next number is past the max.
	assert.Equal(t, 4, remote.lastQuestion.Position)
}

func TestInFlightGuard(t *testing.T) {
	t.Parallel()
	s, _ := newSessionWithTree(t, baseTree())

	require.NoError(t, s.begin())
	assert.True(t, s.InFlight())

	_, err := s.CreateQuestion(context.Background(), "Otra", nil)
	assert.ErrorIs(t, err, ErrMutationInFlight)

	s.end()
	assert.False(t, s.InFlight())
	_, err = s.CreateQuestion(context.Background(), "Otra", nil)
	assert.NoError(t, err)
}

func TestEditStateExclusivity(t *testing.T) {
	t.Parallel()
	s, _ := newSessionWithTree(t, baseTree())

	require.NoError(t, s.StartEdit(model.EditingQuestion("q-1")))
	assert.Equal(t, model.EditQuestion, s.CurrentEdit().Kind())

	err := s.StartEdit(model.EditingFactor("f-1"))
	assert.ErrorIs(t, err, ErrEditActive)

	s.EndEdit()
	assert.True(t, s.CurrentEdit().IsIdle())
	assert.NoError(t, s.StartEdit(model.EditingFactor("f-1")))
}

func TestDraftValidation(t *testing.T) {
	t.Parallel()
	s, _ := newSessionWithTree(t, baseTree())
	ctx := context.Background()

	assert.True(t, fault.IsValidation(s.CreateFactor(ctx, FactorDraft{Name: "Cognitivo"})))
	assert.True(t, fault.IsValidation(s.CreateFactor(ctx, FactorDraft{Code: "COG"})))
	assert.True(t, fault.IsValidation(s.CreateSubfactor(ctx, SubfactorDraft{Code: "MEM"})))
	assert.True(t, fault.IsValidation(s.UpdateQuestionText(ctx, "q-1", "")))
	assert.True(t, fault.IsValidation(s.CreateAnswer(ctx, "q-1", "", 3)))
}
