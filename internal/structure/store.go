// Package structure holds the in-session authoritative view of one Test's
// Factor/Subfactor/Question/Answer tree. The Store is written only by Load
// (a full replace fed from the persistence collaborator) and is read-only
// to every other consumer; all mutations go out through the collaborator
// and come back through a reload.
package structure

import (
	"fmt"
	"sort"
	"sync"

	"github.com/orientavida/assess-cli/internal/model"
	"github.com/orientavida/assess-cli/internal/position"
)

// Label is a Question's resolved (subfactor, factor) display pair. Fields
// are empty when the corresponding link is missing; resolution never
// errors.
type Label struct {
	SubfactorCode string `json:"subfactor_code,omitempty"`
	SubfactorName string `json:"subfactor_name,omitempty"`
	FactorCode    string `json:"factor_code,omitempty"`
	FactorName    string `json:"factor_name,omitempty"`
}

// Finding describes one invariant violation observed in the last loaded
// tree. Findings are informational; the data is still served as-is.
type Finding struct {
	Group  string `json:"group"`
	Detail string `json:"detail"`
}

func (f Finding) String() string { return f.Group + ": " + f.Detail }

// Store is the in-memory view for the Test currently being authored.
type Store struct {
	mu         sync.RWMutex
	loaded     bool
	test       model.Test
	factors    []model.Factor
	subfactors []model.Subfactor
	questions  []model.Question
	findings   []Finding
}

// NewStore returns an empty, not-yet-loaded Store.
func NewStore() *Store {
	return &Store{}
}

// Load atomically replaces the entire held state with the given tree. A
// tree with no factors or questions still marks the store loaded, so
// consumers can tell "loaded and empty" from "never loaded". The tree is
// scanned for invariant violations, which are recorded as findings rather
// than rejected.
func (s *Store) Load(tree *model.Structure) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	s.test = tree.Test
	s.factors = append([]model.Factor(nil), tree.Factors...)
	s.subfactors = append([]model.Subfactor(nil), tree.Subfactors...)
	s.questions = make([]model.Question, len(tree.Questions))
	for i, q := range tree.Questions {
		q.Answers = append([]model.Answer(nil), q.Answers...)
		s.questions[i] = q
	}
	s.findings = inspect(tree)
}

// Loaded reports whether a tree has been loaded at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Test returns the loaded Test header; ok is false before the first load.
func (s *Store) Test() (model.Test, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.test, s.loaded
}

// Findings returns the invariant violations observed in the last load.
func (s *Store) Findings() []Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Finding(nil), s.findings...)
}

// SortedFactors returns the Test's factors ordered by position ascending.
/// The sort is stable: duplicate positions (a transient inconsistency) keep
// arrival order.
func (s *Store) SortedFactors() []model.Factor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]model.Factor(nil), s.factors...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// SortedSubfactors returns subfactors ordered by position. factorID nil
// returns all subfactors of the Test; otherwise only those attached to the
// given factor.
func (s *Store) SortedSubfactors(factorID *string) []model.Subfactor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Subfactor
	for _, sf := range s.subfactors {
		if factorID == nil || (sf.FactorID != nil && *sf.FactorID == *factorID) {
			out = append(out, sf)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// SortedQuestions returns the Test's questions ordered by position.
func (s *Store) SortedQuestions() []model.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]model.Question(nil), s.questions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// SortedAnswers returns a question's answers ordered by position, or nil
// for an unknown question id.
func (s *Store) SortedAnswers(questionID string) []model.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.questions {
		if q.ID == questionID {
			out := append([]model.Answer(nil), q.Answers...)
			sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
			return out
		}
	}
	return nil
}

// ResolveLabel looks up a question's subfactor and, through it, the
// factor. Missing links yield empty fields, never an error.
func (s *Store) ResolveLabel(questionID string) Label {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var label Label
	var q *model.Question
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			q = &s.questions[i]
			break
		}
	}
	if q == nil || q.SubfactorID == nil {
		return label
	}
	for _, sf := range s.subfactors {
		if sf.ID != *q.SubfactorID {
			continue
		}
		label.SubfactorCode = sf.Code
		label.SubfactorName = sf.Name
		if sf.FactorID == nil {
			return label
		}
		for _, f := range s.factors {
			if f.ID == *sf.FactorID {
				label.FactorCode = f.Code
				label.FactorName = f.Name
				break
			}
		}
		return label
	}
	return label
}

// Incomplete returns ordinal questions with zero answers, in position
// order. The state is advisory: such questions save fine but are unusable
// by downstream scoring until answers exist.
func (s *Store) Incomplete() []model.Question {
	var out []model.Question
	for _, q := range s.SortedQuestions() {
		if q.Type == model.QuestionOrdinalSingle && len(q.Answers) == 0 {
			out = append(out, q)
		}
	}
	return out
}

// inspect scans a freshly loaded tree for invariant violations: duplicate
// positions within a sibling group and dangling parent references.
func inspect(tree *model.Structure) []Finding {
	var findings []Finding

	report := func(group string, positions []int) {
		for _, p := range position.Duplicates(positions) {
			findings = append(findings, Finding{Group: group, Detail: fmt.Sprintf("duplicate position %d", p)})
		}
	}

	fpos := make([]int, len(tree.Factors))
	factorIDs := make(map[string]bool, len(tree.Factors))
	for i, f := range tree.Factors {
		fpos[i] = f.Position
		factorIDs[f.ID] = true
	}
	report("factors", fpos)

	spos := make([]int, len(tree.Subfactors))
	subfactorIDs := make(map[string]bool, len(tree.Subfactors))
	for i, sf := range tree.Subfactors {
		spos[i] = sf.Position
		subfactorIDs[sf.ID] = true
		if sf.FactorID != nil && !factorIDs[*sf.FactorID] {
			findings = append(findings, Finding{
				Group:  "subfactors",
				Detail: fmt.Sprintf("subfactor %s references missing factor %s", sf.ID, *sf.FactorID),
			})
		}
	}
	report("subfactors", spos)

	qpos := make([]int, len(tree.Questions))
	for i, q := range tree.Questions {
		qpos[i] = q.Position
		if q.SubfactorID != nil && !subfactorIDs[*q.SubfactorID] {
			findings = append(findings, Finding{
				Group:  "questions",
				Detail: fmt.Sprintf("question %s references missing subfactor %s", q.ID, *q.SubfactorID),
			})
		}
		apos := make([]int, len(q.Answers))
		for j, a := range q.Answers {
			apos[j] = a.Position
		}
		report("answers of question "+q.ID, apos)
	}
	report("questions", qpos)

	return findings
}
