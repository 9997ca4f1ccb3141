package model

import "fmt"

// QuestionType tags how a question is answered. Only OrdinalSingle is
// produced by the authoring workflow; the other variants exist for read
// compatibility with legacy data and must round-trip untouched.
type QuestionType string

const (
	QuestionOrdinalSingle QuestionType = "ordinal_single"
	QuestionMultiSelect   QuestionType = "multi_select"
	QuestionNumericScale  QuestionType = "numeric_scale"
)

// ParseQuestionType validates a raw type tag read from storage.
func ParseQuestionType(raw string) (QuestionType, error) {
	switch QuestionType(raw) {
	case QuestionOrdinalSingle, QuestionMultiSelect, QuestionNumericScale:
		return QuestionType(raw), nil
	default:
		return "", fmt.Errorf("unknown question type %q", raw)
	}
}

func (t QuestionType) Valid() bool {
	_, err := ParseQuestionType(string(t))
	return err == nil
}
