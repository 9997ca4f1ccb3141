package authoring

import "github.com/orientavida/assess-cli/internal/store"

// The fixed 5-point agreement scale generated for every authored question.
// Position ascends as agreement descends; value is the score contributed.
var likertScale = []store.AnswerInput{
	{Position: 1, Text: "Siempre", Value: 5},
	{Position: 2, Text: "Casi siempre", Value: 4},
	{Position: 3, Text: "A veces", Value: 3},
	{Position: 4, Text: "Alguna vez", Value: 2},
	{Position: 5, Text: "Nunca", Value: 1},
}

// StandardScale returns a copy of the fixed answer set applied to every
// question created through the workflow.
func StandardScale() []store.AnswerInput {
	return append([]store.AnswerInput(nil), likertScale...)
}
