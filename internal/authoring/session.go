// Package authoring orchestrates mutations against the persistence
// collaborator for one operator session: the compound question workflow,
// the cascade/detach deletion policies, and the reload that follows every
// successful mutation. The session never patches local state; correctness
// comes from the full reload.
package authoring

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/orientavida/assess-cli/internal/fault"
	"github.com/orientavida/assess-cli/internal/model"
	"github.com/orientavida/assess-cli/internal/structure"

	"github.com/orientavida/assess-cli/internal/store"
)

// ErrMutationInFlight means another mutation from this session has not yet
// resolved. Advisory protection against double submission; the remote
// store remains the arbiter of real conflicts.
var ErrMutationInFlight = eris.New("authoring: a mutation is already in flight")

// ErrEditActive means an editing form is already open for another entity.
var ErrEditActive = eris.New("authoring: another edit is already active")

// Session is a single-operator authoring session over one Test. All
// mutations flow out through the remote store and back in through a full
// structure reload.
type Session struct {
	remote store.Store
	view   *structure.Store
	sync   *structure.SyncAgent
	testID string

	mu       sync.Mutex
	inFlight bool
	edit     model.EditState
}

// NewSession creates a session for the given test. Call Refresh before
// reading the view.
func NewSession(remote store.Store, testID string) *Session {
	view := structure.NewStore()
	return &Session{
		remote: remote,
		view:   view,
		sync:   structure.NewSyncAgent(remote, view),
		testID: testID,
	}
}

// View returns the session's read-only structure view.
func (s *Session) View() *structure.Store { return s.view }

// TestID returns the test this session authors.
func (s *Session) TestID() string { return s.testID }

// Refresh reloads the authoritative structure without a prior mutation.
func (s *Session) Refresh(ctx context.Context) error {
	return s.sync.Reload(ctx, s.testID)
}

// begin marks a mutation in flight; it fails if one is already pending.
func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrMutationInFlight
	}
	s.inFlight = true
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// InFlight reports whether a mutation is currently pending.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// StartEdit opens an editing form. Only one edit may be active; starting a
// second returns ErrEditActive.
func (s *Session) StartEdit(state model.EditState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.edit.IsIdle() && !state.IsIdle() {
		return ErrEditActive
	}
	s.edit = state
	return nil
}

// EndEdit returns the session to the idle editing state.
func (s *Session) EndEdit() {
	s.mu.Lock()
	s.edit = model.Idle()
	s.mu.Unlock()
}

// CurrentEdit returns the active editing state.
func (s *Session) CurrentEdit() model.EditState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edit
}

// classify maps a remote failure to its error kind: transient failures and
// explicit rejections pass through, anything else the collaborator refused
// becomes a RemoteRejection. Local state is unchanged in every case.
func classify(op string, err error) error {
	switch {
	case fault.IsTransient(err):
		return eris.Wrap(err, op)
	case fault.IsRejection(err):
		return eris.Wrap(err, op)
	default:
		return fault.NewRejection(op, err)
	}
}

// mutate runs one remote mutation under the in-flight guard and, on
// success, reloads the structure. A reload failure is surfaced but the
// mutation itself has been applied remotely.
func (s *Session) mutate(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := fn(ctx); err != nil {
		return classify(op, err)
	}
	if err := s.sync.Reload(ctx, s.testID); err != nil {
		return eris.Wrapf(err, "%s: applied remotely but reload failed", op)
	}
	return nil
}

// FactorDraft carries operator input for a new factor.
type FactorDraft struct {
	Code        string
	Name        string
	Description string
}

// CreateFactor validates the draft, allocates the next factor position and
// submits the create.
func (s *Session) CreateFactor(ctx context.Context, draft FactorDraft) error {
	if draft.Code == "" {
		return fault.NewValidation("code", "must not be empty")
	}
	if draft.Name == "" {
		return fault.NewValidation("name", "must not be empty")
	}
	pos := nextFactorPosition(s.view)
	return s.mutate(ctx, "create-factor", func(ctx context.Context) error {
		_, err := s.remote.CreateFactor(ctx, s.testID, store.FactorInput{
			Code:        draft.Code,
			Name:        draft.Name,
			Description: draft.Description,
			Position:    pos,
		})
		return err
	})
}

// SubfactorDraft carries operator input for a new subfactor. FactorID nil
// creates it unattached.
type SubfactorDraft struct {
	Code        string
	Name        string
	Description string
	FactorID    *string
}

// CreateSubfactor validates the draft, allocates the next position among
// all subfactors of the test and submits the create.
func (s *Session) CreateSubfactor(ctx context.Context, draft SubfactorDraft) error {
	if draft.Code == "" {
		return fault.NewValidation("code", "must not be empty")
	}
	if draft.Name == "" {
		return fault.NewValidation("name", "must not be empty")
	}
	pos := nextSubfactorPosition(s.view)
	return s.mutate(ctx, "create-subfactor", func(ctx context.Context) error {
		_, err := s.remote.CreateSubfactor(ctx, s.testID, store.SubfactorInput{
			Code:        draft.Code,
			Name:        draft.Name,
			Description: draft.Description,
			FactorID:    draft.FactorID,
			Position:    pos,
		})
		return err
	})
}

// UpdateQuestionText changes a question's text.
func (s *Session) UpdateQuestionText(ctx context.Context, id, text string) error {
	if text == "" {
		return fault.NewValidation("text", "must not be empty")
	}
	return s.mutate(ctx, "update-question", func(ctx context.Context) error {
		return s.remote.UpdateQuestion(ctx, id, store.QuestionUpdate{Text: &text})
	})
}

// SetQuestionSubfactor rebinds or clears a question's subfactor tag.
func (s *Session) SetQuestionSubfactor(ctx context.Context, id string, subfactorID *string) error {
	return s.mutate(ctx, "set-question-subfactor", func(ctx context.Context) error {
		return s.remote.SetQuestionSubfactor(ctx, id, subfactorID)
	})
}

// CreateAnswer adds a single answer to an existing question, at the next
// position among that question's answers.
func (s *Session) CreateAnswer(ctx context.Context, questionID, text string, value int) error {
	if text == "" {
		return fault.NewValidation("text", "must not be empty")
	}
	pos := nextAnswerPosition(s.view, questionID)
	return s.mutate(ctx, "create-answer", func(ctx context.Context) error {
		_, err := s.remote.CreateAnswer(ctx, questionID, store.AnswerInput{
			Text:     text,
			Value:    value,
			Position: pos,
		})
		return err
	})
}

// UpdateAnswer changes an answer's text and/or value.
func (s *Session) UpdateAnswer(ctx context.Context, id string, text *string, value *int) error {
	if text != nil && *text == "" {
		return fault.NewValidation("text", "must not be empty")
	}
	return s.mutate(ctx, "update-answer", func(ctx context.Context) error {
		return s.remote.UpdateAnswer(ctx, id, store.AnswerUpdate{Text: text, Value: value})
	})
}
