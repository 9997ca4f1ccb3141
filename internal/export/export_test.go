package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/orientavida/assess-cli/internal/model"
	"github.com/orientavida/assess-cli/internal/structure"
)

func exportView(t *testing.T) *structure.Store {
	t.Helper()

	factorID := "f1"
	sfAttached := "sf1"
	sfLoose := "sf2"

	view := structure.NewStore()
	view.Load(&model.Structure{
		Test: model.Test{ID: "t1", Title: "Clima laboral"},
		Factors: []model.Factor{
			{ID: factorID, TestID: "t1", Code: "LID", Name: "Liderazgo", Position: 1},
		},
		Subfactors: []model.Subfactor{
			{ID: sfAttached, TestID: "t1", FactorID: &factorID, Code: "COM", Name: "Comunicación", Position: 1},
			{ID: sfLoose, TestID: "t1", Code: "PEN", Name: "Pendiente", Position: 2},
		},
		Questions: []model.Question{
			{
				ID: "q1", TestID: "t1", SubfactorID: &sfAttached,
				Text: "¿Recibe retroalimentación clara?", Type: model.QuestionOrdinalSingle, Position: 1,
				Answers: []model.Answer{
					{ID: "a2", QuestionID: "q1", Text: "Casi siempre", Value: 4, Position: 2},
					{ID: "a1", QuestionID: "q1", Text: "Siempre", Value: 5, Position: 1},
				},
			},
			{
				ID: "q2", TestID: "t1",
				Text: "Pregunta sin clasificar", Type: model.QuestionOrdinalSingle, Position: 2,
			},
		},
	})
	return view
}

func TestBuildGroupsByFactor(t *testing.T) {
	t.Parallel()

	doc, err := Build(exportView(t))
	require.NoError(t, err)

	require.Len(t, doc.Factors, 2)
	assert.Equal(t, "LID", doc.Factors[0].Code)
	require.Len(t, doc.Factors[0].Subfactors, 1)
	require.Len(t, doc.Factors[0].Subfactors[0].Questions, 1)

	q := doc.Factors[0].Subfactors[0].Questions[0]
	require.Len(t, q.Answers, 2)
	assert.Equal(t, "Siempre", q.Answers[0].Text, "answers sorted by position")
	assert.False(t, q.Incomplete)

	// The unattached subfactor ends up under the factorless group.
	assert.Equal(t, "SIN_FACTOR", doc.Factors[1].Code)
	require.Len(t, doc.Factors[1].Subfactors, 1)
	assert.Equal(t, "PEN", doc.Factors[1].Subfactors[0].Code)

	require.Len(t, doc.Ungrouped, 1)
	assert.True(t, doc.Ungrouped[0].Incomplete, "ordinal question without answers")
}

func TestBuildRequiresLoadedStructure(t *testing.T) {
	t.Parallel()

	_, err := Build(structure.NewStore())
	assert.Error(t, err)
}

func TestWriteYAMLRoundTrips(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, exportView(t)))

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Clima laboral", doc.Test.Title)
	require.Len(t, doc.Factors, 2)
	assert.Equal(t, "LID", doc.Factors[0].Code)
}

func TestWriteXLSXSheetPerFactor(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "estructura.xlsx")
	require.NoError(t, WriteXLSX(path, exportView(t)))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	names := make([]string, 0, len(file.Sheets))
	for _, sheet := range file.Sheets {
		names = append(names, sheet.Name)
	}
	assert.Contains(t, names, "LID")
	assert.Contains(t, names, "SIN_FACTOR")
	assert.Contains(t, names, "Sin subfactor")

	lid := file.Sheet["LID"]
	require.NotNil(t, lid)
	// Header plus one row per answer of the single question.
	assert.Len(t, lid.Rows, 3)
	assert.Equal(t, "Siempre", lid.Rows[1].Cells[3].String())
}
