// Package store is the persistence collaborator boundary for the authoring
// core. The Store interface carries the logical operations the engine
// consumes; SQLite and Postgres implementations back local and shared
// deployments. Both uphold the structural contract: positions are unique
// per sibling group, question creation is all-or-nothing with its answers,
// question deletion cascades to answers, factor/subfactor deletion detaches
// references, and every delete renumbers the surviving sibling group so
// fetch-structure always returns a dense 1..n run.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/orientavida/assess-cli/internal/model"
)

// ErrNotFound is returned when the target row does not exist.
var ErrNotFound = eris.New("store: not found")

// TestInput carries the fields for creating a Test.
type TestInput struct {
	Code        string
	Title       string
	Description string
}

// FactorInput carries the fields for creating a Factor.
type FactorInput struct {
	Code        string
	Name        string
	Description string
	Position    int
}

// SubfactorInput carries the fields for creating a Subfactor. FactorID nil
// creates it unattached.
type SubfactorInput struct {
	Code        string
	Name        string
	Description string
	FactorID    *string
	Position    int
}

// AnswerInput carries one answer row for creation.
type AnswerInput struct {
	Text     string
	Value    int
	Position int
}

// QuestionInput carries a question plus its answer rows. The backend
// applies question and answers in one transaction; a failure anywhere
// leaves nothing behind.
type QuestionInput struct {
	Text        string
	Type        model.QuestionType
	Position    int
	SubfactorID *string
	Answers     []AnswerInput
}

// QuestionUpdate holds optional field changes; nil means leave unchanged.
type QuestionUpdate struct {
	Text *string
}

// AnswerUpdate holds optional field changes; nil means leave unchanged.
type AnswerUpdate struct {
	Text  *string
	Value *int
}

// Store defines the persistence operations consumed by the authoring core.
type Store interface {
	// Tests
	CreateTest(ctx context.Context, in TestInput) (*model.Test, error)
	GetTest(ctx context.Context, id string) (*model.Test, error)
	ListTests(ctx context.Context) ([]model.Test, error)

	// Structure
	FetchStructure(ctx context.Context, testID string) (*model.Structure, error)

	// Factors and subfactors
	CreateFactor(ctx context.Context, testID string, in FactorInput) (*model.Factor, error)
	CreateSubfactor(ctx context.Context, testID string, in SubfactorInput) (*model.Subfactor, error)
	DeleteFactor(ctx context.Context, id string) error
	DeleteSubfactor(ctx context.Context, id string) error

	// Questions
	CreateQuestion(ctx context.Context, testID string, in QuestionInput) (*model.Question, error)
	UpdateQuestion(ctx context.Context, id string, upd QuestionUpdate) error
	SetQuestionSubfactor(ctx context.Context, id string, subfactorID *string) error
	DeleteQuestion(ctx context.Context, id string) error

	// Answers
	CreateAnswer(ctx context.Context, questionID string, in AnswerInput) (*model.Answer, error)
	UpdateAnswer(ctx context.Context, id string, upd AnswerUpdate) error
	DeleteAnswer(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
