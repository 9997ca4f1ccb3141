package model

// Test is a psychometric assessment instrument. It owns the Factors,
// Subfactors and Questions that make up its structure.
type Test struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// Factor is a top-level psychometric dimension within a Test. Position
// orders Factors among their Test siblings; after every reload positions
// form a dense 1..n run.
type Factor struct {
	ID          string `json:"id"`
	TestID      string `json:"test_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

// Subfactor is a finer-grained trait. FactorID is nil for an unattached
// Subfactor. Position orders Subfactors among all Subfactors of the Test,
// not per Factor.
type Subfactor struct {
	ID          string  `json:"id"`
	TestID      string  `json:"test_id"`
	FactorID    *string `json:"factor_id,omitempty"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Position    int     `json:"position"`
}

// Question is a single assessment item. SubfactorID is nil when untagged.
// A Question never references a Factor directly; its effective Factor is
// derived through the Subfactor.
type Question struct {
	ID          string       `json:"id"`
	TestID      string       `json:"test_id"`
	SubfactorID *string      `json:"subfactor_id,omitempty"`
	Text        string       `json:"text"`
	Type        QuestionType `json:"type"`
	Position    int          `json:"position"`
	Answers     []Answer     `json:"answers"`
}

// Answer is a selectable option for a Question. Value is the score
// contributed when the option is chosen.
type Answer struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	Value      int    `json:"value"`
	Position   int    `json:"position"`
}

// Structure is the full authoritative tree for one Test as returned by
// fetch-structure. Answers arrive nested inside their Questions.
type Structure struct {
	Test       Test        `json:"test"`
	Factors    []Factor    `json:"factors"`
	Subfactors []Subfactor `json:"subfactors"`
	Questions  []Question  `json:"questions"`
}

// Candidate is a counselor record from the matching collaborator,
// consumed read-only. AverageRating is nil when the counselor has no
// ratings yet.
type Candidate struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	MatchPercentage float64  `json:"match_percentage"`
	AverageRating   *float64 `json:"average_rating,omitempty"`
	TotalRatings    int      `json:"total_ratings"`
}
