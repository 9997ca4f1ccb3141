package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/orientavida/assess-cli/internal/fault"
	"github.com/orientavida/assess-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode with foreign keys enforced.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS tests (
	id          TEXT PRIMARY KEY,
	code        TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	active      INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS factors (
	id          TEXT PRIMARY KEY,
	test_id     TEXT NOT NULL REFERENCES tests(id),
	code        TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL,
	UNIQUE(test_id, position)
);

CREATE TABLE IF NOT EXISTS subfactors (
	id          TEXT PRIMARY KEY,
	test_id     TEXT NOT NULL REFERENCES tests(id),
	factor_id   TEXT REFERENCES factors(id),
	code        TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL,
	UNIQUE(test_id, position)
);

CREATE TABLE IF NOT EXISTS questions (
	id           TEXT PRIMARY KEY,
	test_id      TEXT NOT NULL REFERENCES tests(id),
	subfactor_id TEXT REFERENCES subfactors(id),
	text         TEXT NOT NULL,
	type         TEXT NOT NULL,
	position     INTEGER NOT NULL,
	UNIQUE(test_id, position)
);

CREATE TABLE IF NOT EXISTS answers (
	id          TEXT PRIMARY KEY,
	question_id TEXT NOT NULL REFERENCES questions(id),
	text        TEXT NOT NULL,
	value       INTEGER NOT NULL,
	position    INTEGER NOT NULL,
	UNIQUE(question_id, position)
);

CREATE INDEX IF NOT EXISTS idx_factors_test ON factors(test_id);
CREATE INDEX IF NOT EXISTS idx_subfactors_test ON subfactors(test_id);
CREATE INDEX IF NOT EXISTS idx_subfactors_factor ON subfactors(factor_id);
CREATE INDEX IF NOT EXISTS idx_questions_test ON questions(test_id);
CREATE INDEX IF NOT EXISTS idx_questions_subfactor ON questions(subfactor_id);
CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isConstraintViolation matches modernc.org/sqlite constraint errors
// (UNIQUE, FOREIGN KEY, NOT NULL).
func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

func (s *SQLiteStore) CreateTest(ctx context.Context, in TestInput) (*model.Test, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tests (id, code, title, description, active) VALUES (?, ?, ?, ?, 1)`,
		id, in.Code, in.Title, in.Description,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fault.NewRejection("create-test", err)
		}
		return nil, eris.Wrap(err, "sqlite: insert test")
	}
	return &model.Test{ID: id, Code: in.Code, Title: in.Title, Description: in.Description, Active: true}, nil
}

func (s *SQLiteStore) GetTest(ctx context.Context, id string) (*model.Test, error) {
	var t model.Test
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, title, description, active FROM tests WHERE id = ?`, id,
	).Scan(&t.ID, &t.Code, &t.Title, &t.Description, &active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get test")
	}
	t.Active = active != 0
	return &t, nil
}

func (s *SQLiteStore) ListTests(ctx context.Context) ([]model.Test, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, title, description, active FROM tests ORDER BY code`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tests")
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		var active int
		if err := rows.Scan(&t.ID, &t.Code, &t.Title, &t.Description, &active); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan test")
		}
		t.Active = active != 0
		tests = append(tests, t)
	}
	return tests, eris.Wrap(rows.Err(), "sqlite: list tests")
}

func (s *SQLiteStore) FetchStructure(ctx context.Context, testID string) (*model.Structure, error) {
	test, err := s.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	tree := &model.Structure{Test: *test}

	frows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name, description, position FROM factors WHERE test_id = ? ORDER BY position`,
		testID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch factors")
	}
	defer frows.Close()
	for frows.Next() {
		f := model.Factor{TestID: testID}
		if err := frows.Scan(&f.ID, &f.Code, &f.Name, &f.Description, &f.Position); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan factor")
		}
		tree.Factors = append(tree.Factors, f)
	}
	if err := frows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch factors")
	}

	srows, err := s.db.QueryContext(ctx,
		`SELECT id, factor_id, code, name, description, position FROM subfactors WHERE test_id = ? ORDER BY position`,
		testID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch subfactors")
	}
	defer srows.Close()
	for srows.Next() {
		sf := model.Subfactor{TestID: testID}
		var factorID sql.NullString
		if err := srows.Scan(&sf.ID, &factorID, &sf.Code, &sf.Name, &sf.Description, &sf.Position); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan subfactor")
		}
		if factorID.Valid {
			sf.FactorID = &factorID.String
		}
		tree.Subfactors = append(tree.Subfactors, sf)
	}
	if err := srows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch subfactors")
	}

	qrows, err := s.db.QueryContext(ctx,
		`SELECT id, subfactor_id, text, type, position FROM questions WHERE test_id = ? ORDER BY position`,
		testID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch questions")
	}
	defer qrows.Close()
	index := map[string]int{}
	for qrows.Next() {
		q := model.Question{TestID: testID}
		var subfactorID sql.NullString
		var rawType string
		if err := qrows.Scan(&q.ID, &subfactorID, &q.Text, &rawType, &q.Position); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan question")
		}
		if subfactorID.Valid {
			q.SubfactorID = &subfactorID.String
		}
		// Legacy tags are preserved as-is; the structure layer tolerates them.
		q.Type = model.QuestionType(rawType)
		index[q.ID] = len(tree.Questions)
		tree.Questions = append(tree.Questions, q)
	}
	if err := qrows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch questions")
	}

	arows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.question_id, a.text, a.value, a.position
		 FROM answers a JOIN questions q ON q.id = a.question_id
		 WHERE q.test_id = ? ORDER BY a.question_id, a.position`,
		testID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch answers")
	}
	defer arows.Close()
	for arows.Next() {
		var a model.Answer
		if err := arows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Value, &a.Position); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan answer")
		}
		if i, ok := index[a.QuestionID]; ok {
			tree.Questions[i].Answers = append(tree.Questions[i].Answers, a)
		}
	}
	return tree, eris.Wrap(arows.Err(), "sqlite: fetch answers")
}

func (s *SQLiteStore) CreateFactor(ctx context.Context, testID string, in FactorInput) (*model.Factor, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO factors (id, test_id, code, name, description, position) VALUES (?, ?, ?, ?, ?, ?)`,
		id, testID, in.Code, in.Name, in.Description, in.Position,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fault.NewRejection("create-factor", err)
		}
		return nil, eris.Wrap(err, "sqlite: insert factor")
	}
	return &model.Factor{
		ID: id, TestID: testID, Code: in.Code, Name: in.Name,
		Description: in.Description, Position: in.Position,
	}, nil
}

func (s *SQLiteStore) CreateSubfactor(ctx context.Context, testID string, in SubfactorInput) (*model.Subfactor, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subfactors (id, test_id, factor_id, code, name, description, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, testID, in.FactorID, in.Code, in.Name, in.Description, in.Position,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fault.NewRejection("create-subfactor", err)
		}
		return nil, eris.Wrap(err, "sqlite: insert subfactor")
	}
	return &model.Subfactor{
		ID: id, TestID: testID, FactorID: in.FactorID, Code: in.Code,
		Name: in.Name, Description: in.Description, Position: in.Position,
	}, nil
}

// CreateQuestion inserts the question and its answer rows in one
// transaction. Any failure rolls back the whole unit.
func (s *SQLiteStore) CreateQuestion(ctx context.Context, testID string, in QuestionInput) (*model.Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin create question")
	}
	defer tx.Rollback() //nolint:errcheck

	qID := uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO questions (id, test_id, subfactor_id, text, type, position) VALUES (?, ?, ?, ?, ?, ?)`,
		qID, testID, in.SubfactorID, in.Text, string(in.Type), in.Position,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fault.NewRejection("create-question", err)
		}
		return nil, eris.Wrap(err, "sqlite: insert question")
	}

	q := &model.Question{
		ID: qID, TestID: testID, SubfactorID: in.SubfactorID,
		Text: in.Text, Type: in.Type, Position: in.Position,
	}
	for _, a := range in.Answers {
		aID := uuid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO answers (id, question_id, text, value, position) VALUES (?, ?, ?, ?, ?)`,
			aID, qID, a.Text, a.Value, a.Position,
		)
		if err != nil {
			if isConstraintViolation(err) {
				return nil, fault.NewRejection("create-question", err)
			}
			return nil, eris.Wrap(err, "sqlite: insert answer")
		}
		q.Answers = append(q.Answers, model.Answer{
			ID: aID, QuestionID: qID, Text: a.Text, Value: a.Value, Position: a.Position,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit create question")
	}
	return q, nil
}

func (s *SQLiteStore) UpdateQuestion(ctx context.Context, id string, upd QuestionUpdate) error {
	if upd.Text == nil {
		return nil
	}
	res, err := s.db.ExecContext(ctx, `UPDATE questions SET text = ? WHERE id = ?`, *upd.Text, id)
	if err != nil {
		return eris.Wrap(err, "sqlite: update question")
	}
	return requireAffected(res, "sqlite: update question")
}

func (s *SQLiteStore) SetQuestionSubfactor(ctx context.Context, id string, subfactorID *string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE questions SET subfactor_id = ? WHERE id = ?`, subfactorID, id)
	if err != nil {
		if isConstraintViolation(err) {
			return fault.NewRejection("set-question-subfactor", err)
		}
		return eris.Wrap(err, "sqlite: set question subfactor")
	}
	return requireAffected(res, "sqlite: set question subfactor")
}

// DeleteQuestion removes the question and all of its answers, then
// renumbers the remaining questions of the test to a dense 1..n run.
func (s *SQLiteStore) DeleteQuestion(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete question")
	}
	defer tx.Rollback() //nolint:errcheck

	var testID string
	err = tx.QueryRowContext(ctx, `SELECT test_id FROM questions WHERE id = ?`, id).Scan(&testID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: lookup question")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE question_id = ?`, id); err != nil {
		return eris.Wrap(err, "sqlite: delete answers")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id); err != nil {
		return eris.Wrap(err, "sqlite: delete question")
	}
	if err := renumberSQLite(ctx, tx, "questions", "test_id", testID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete question")
}

func (s *SQLiteStore) CreateAnswer(ctx context.Context, questionID string, in AnswerInput) (*model.Answer, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answers (id, question_id, text, value, position) VALUES (?, ?, ?, ?, ?)`,
		id, questionID, in.Text, in.Value, in.Position,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fault.NewRejection("create-answer", err)
		}
		return nil, eris.Wrap(err, "sqlite: insert answer")
	}
	return &model.Answer{ID: id, QuestionID: questionID, Text: in.Text, Value: in.Value, Position: in.Position}, nil
}

func (s *SQLiteStore) UpdateAnswer(ctx context.Context, id string, upd AnswerUpdate) error {
	if upd.Text == nil && upd.Value == nil {
		return nil
	}
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if upd.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *upd.Text)
	}
	if upd.Value != nil {
		sets = append(sets, "value = ?")
		args = append(args, *upd.Value)
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE answers SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return eris.Wrap(err, "sqlite: update answer")
	}
	return requireAffected(res, "sqlite: update answer")
}

func (s *SQLiteStore) DeleteAnswer(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete answer")
	}
	defer tx.Rollback() //nolint:errcheck

	var questionID string
	err = tx.QueryRowContext(ctx, `SELECT question_id FROM answers WHERE id = ?`, id).Scan(&questionID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: lookup answer")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE id = ?`, id); err != nil {
		return eris.Wrap(err, "sqlite: delete answer")
	}
	if err := renumberSQLite(ctx, tx, "answers", "question_id", questionID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete answer")
}

// DeleteFactor removes the factor row only. Subfactors referencing it are
// detached, never deleted, so questions under them survive.
func (s *SQLiteStore) DeleteFactor(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete factor")
	}
	defer tx.Rollback() //nolint:errcheck

	var testID string
	err = tx.QueryRowContext(ctx, `SELECT test_id FROM factors WHERE id = ?`, id).Scan(&testID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: lookup factor")
	}

	if _, err := tx.ExecContext(ctx, `UPDATE subfactors SET factor_id = NULL WHERE factor_id = ?`, id); err != nil {
		return eris.Wrap(err, "sqlite: detach subfactors")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM factors WHERE id = ?`, id); err != nil {
		return eris.Wrap(err, "sqlite: delete factor")
	}
	if err := renumberSQLite(ctx, tx, "factors", "test_id", testID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete factor")
}

// DeleteSubfactor removes the subfactor row only. Questions referencing it
// are detached, never deleted.
func (s *SQLiteStore) DeleteSubfactor(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete subfactor")
	}
	defer tx.Rollback() //nolint:errcheck

	var testID string
	err = tx.QueryRowContext(ctx, `SELECT test_id FROM subfactors WHERE id = ?`, id).Scan(&testID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: lookup subfactor")
	}

	if _, err := tx.ExecContext(ctx, `UPDATE questions SET subfactor_id = NULL WHERE subfactor_id = ?`, id); err != nil {
		return eris.Wrap(err, "sqlite: detach questions")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subfactors WHERE id = ?`, id); err != nil {
		return eris.Wrap(err, "sqlite: delete subfactor")
	}
	if err := renumberSQLite(ctx, tx, "subfactors", "test_id", testID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete subfactor")
}

// renumberSQLite rewrites the positions of a sibling group to 1..n in
// ascending position order. Rows are updated low-to-high so each target
// position is already free when assigned.
func renumberSQLite(ctx context.Context, tx *sql.Tx, table, scopeCol, scopeID string) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM `+table+` WHERE `+scopeCol+` = ? ORDER BY position`, scopeID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: renumber %s", table)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return eris.Wrapf(err, "sqlite: renumber %s", table)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return eris.Wrapf(err, "sqlite: renumber %s", table)
	}

	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET position = ? WHERE id = ?`, i+1, id); err != nil {
			return eris.Wrapf(err, "sqlite: renumber %s", table)
		}
	}
	return nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, op)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
