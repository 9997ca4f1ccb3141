// Package export renders a loaded test structure for reviewer sign-off,
// as YAML for diff-friendly review and as XLSX with one sheet per factor.
package export

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/orientavida/assess-cli/internal/model"
	"github.com/orientavida/assess-cli/internal/structure"
)

// Document is the YAML export shape.
type Document struct {
	Test      model.Test    `yaml:"test"`
	Factors   []FactorDoc   `yaml:"factors"`
	Ungrouped []QuestionDoc `yaml:"ungrouped_questions,omitempty"`
}

// FactorDoc groups a factor with its subfactors and their questions.
type FactorDoc struct {
	Code       string         `yaml:"code"`
	Name       string         `yaml:"name"`
	Position   int            `yaml:"position"`
	Subfactors []SubfactorDoc `yaml:"subfactors,omitempty"`
}

// SubfactorDoc groups a subfactor with its questions.
type SubfactorDoc struct {
	Code      string        `yaml:"code"`
	Name      string        `yaml:"name"`
	Position  int           `yaml:"position"`
	Questions []QuestionDoc `yaml:"questions,omitempty"`
}

// QuestionDoc is one question with its answers.
type QuestionDoc struct {
	Text       string      `yaml:"text"`
	Position   int         `yaml:"position"`
	Type       string      `yaml:"type"`
	Incomplete bool        `yaml:"incomplete,omitempty"`
	Answers    []AnswerDoc `yaml:"answers,omitempty"`
}

// AnswerDoc is one answer option.
type AnswerDoc struct {
	Text     string `yaml:"text"`
	Value    int    `yaml:"value"`
	Position int    `yaml:"position"`
}

// Build assembles the export document from the loaded view.
func Build(view *structure.Store) (*Document, error) {
	test, ok := view.Test()
	if !ok {
		return nil, eris.New("export: structure not loaded")
	}
	doc := &Document{Test: test}

	known := map[string]bool{}
	for _, sf := range view.SortedSubfactors(nil) {
		known[sf.ID] = true
	}

	// Bucket questions by subfactor id. Questions whose subfactor reference
	// dangles export as ungrouped rather than disappearing.
	bySubfactor := map[string][]QuestionDoc{}
	for _, q := range view.SortedQuestions() {
		qd := questionDoc(view, q)
		if q.SubfactorID == nil || !known[*q.SubfactorID] {
			doc.Ungrouped = append(doc.Ungrouped, qd)
			continue
		}
		bySubfactor[*q.SubfactorID] = append(bySubfactor[*q.SubfactorID], qd)
	}

	attached := map[string]bool{}
	for _, f := range view.SortedFactors() {
		fd := FactorDoc{Code: f.Code, Name: f.Name, Position: f.Position}
		for _, sf := range view.SortedSubfactors(&f.ID) {
			attached[sf.ID] = true
			fd.Subfactors = append(fd.Subfactors, SubfactorDoc{
				Code: sf.Code, Name: sf.Name, Position: sf.Position,
				Questions: bySubfactor[sf.ID],
			})
		}
		doc.Factors = append(doc.Factors, fd)
	}

	// Unattached subfactors export under a factorless group.
	var loose FactorDoc
	for _, sf := range view.SortedSubfactors(nil) {
		if attached[sf.ID] {
			continue
		}
		loose.Subfactors = append(loose.Subfactors, SubfactorDoc{
			Code: sf.Code, Name: sf.Name, Position: sf.Position,
			Questions: bySubfactor[sf.ID],
		})
	}
	if len(loose.Subfactors) > 0 {
		loose.Code = "SIN_FACTOR"
		loose.Name = "Sin factor"
		doc.Factors = append(doc.Factors, loose)
	}

	return doc, nil
}

func questionDoc(view *structure.Store, q model.Question) QuestionDoc {
	qd := QuestionDoc{
		Text:       q.Text,
		Position:   q.Position,
		Type:       string(q.Type),
		Incomplete: q.Type == model.QuestionOrdinalSingle && len(q.Answers) == 0,
	}
	for _, a := range view.SortedAnswers(q.ID) {
		qd.Answers = append(qd.Answers, AnswerDoc{Text: a.Text, Value: a.Value, Position: a.Position})
	}
	return qd
}

// WriteYAML renders the structure as YAML.
func WriteYAML(w io.Writer, view *structure.Store) error {
	doc, err := Build(view)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "export: encode yaml")
	}
	return eris.Wrap(enc.Close(), "export: close yaml encoder")
}

// WriteXLSX renders the structure as a workbook, one sheet per factor
// plus a sheet for unattached material.
func WriteXLSX(path string, view *structure.Store) error {
	doc, err := Build(view)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	for _, fd := range doc.Factors {
		sheet, err := file.AddSheet(sheetName(fd.Code))
		if err != nil {
			return eris.Wrapf(err, "export: add sheet %s", fd.Code)
		}
		header := sheet.AddRow()
		for _, h := range []string{"Subfactor", "Pregunta", "Posición", "Respuesta", "Valor"} {
			header.AddCell().Value = h
		}
		for _, sf := range fd.Subfactors {
			for _, q := range sf.Questions {
				writeQuestionRows(sheet, sf.Code, q)
			}
		}
	}
	if len(doc.Ungrouped) > 0 {
		sheet, err := file.AddSheet("Sin subfactor")
		if err != nil {
			return eris.Wrap(err, "export: add unscoped sheet")
		}
		header := sheet.AddRow()
		for _, h := range []string{"Subfactor", "Pregunta", "Posición", "Respuesta", "Valor"} {
			header.AddCell().Value = h
		}
		for _, q := range doc.Ungrouped {
			writeQuestionRows(sheet, "", q)
		}
	}

	return eris.Wrap(file.Save(path), "export: save workbook")
}

func writeQuestionRows(sheet *xlsx.Sheet, subfactorCode string, q QuestionDoc) {
	if len(q.Answers) == 0 {
		row := sheet.AddRow()
		row.AddCell().Value = subfactorCode
		row.AddCell().Value = q.Text
		row.AddCell().Value = strconv.Itoa(q.Position)
		return
	}
	for _, a := range q.Answers {
		row := sheet.AddRow()
		row.AddCell().Value = subfactorCode
		row.AddCell().Value = q.Text
		row.AddCell().Value = strconv.Itoa(q.Position)
		row.AddCell().Value = a.Text
		row.AddCell().Value = strconv.Itoa(a.Value)
	}
}

// sheetName keeps sheet titles within Excel's 31-character limit.
func sheetName(code string) string {
	if len(code) > 31 {
		return code[:31]
	}
	if code == "" {
		return "Hoja"
	}
	return code
}
