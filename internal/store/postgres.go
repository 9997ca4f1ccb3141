package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/orientavida/assess-cli/internal/fault"
	"github.com/orientavida/assess-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock implements it
// for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Position uniqueness is deferred to commit so in-transaction renumbering
// can rewrite a whole sibling group in one statement.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS tests (
	id          TEXT PRIMARY KEY,
	code        TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	active      BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS factors (
	id          TEXT PRIMARY KEY,
	test_id     TEXT NOT NULL REFERENCES tests(id),
	code        TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL,
	UNIQUE (test_id, position) DEFERRABLE INITIALLY DEFERRED
);

CREATE TABLE IF NOT EXISTS subfactors (
	id          TEXT PRIMARY KEY,
	test_id     TEXT NOT NULL REFERENCES tests(id),
	factor_id   TEXT REFERENCES factors(id),
	code        TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL,
	UNIQUE (test_id, position) DEFERRABLE INITIALLY DEFERRED
);

CREATE TABLE IF NOT EXISTS questions (
	id           TEXT PRIMARY KEY,
	test_id      TEXT NOT NULL REFERENCES tests(id),
	subfactor_id TEXT REFERENCES subfactors(id),
	text         TEXT NOT NULL,
	type         TEXT NOT NULL,
	position     INTEGER NOT NULL,
	UNIQUE (test_id, position) DEFERRABLE INITIALLY DEFERRED
);

CREATE TABLE IF NOT EXISTS answers (
	id          TEXT PRIMARY KEY,
	question_id TEXT NOT NULL REFERENCES questions(id),
	text        TEXT NOT NULL,
	value       INTEGER NOT NULL,
	position    INTEGER NOT NULL,
	UNIQUE (question_id, position) DEFERRABLE INITIALLY DEFERRED
);

CREATE INDEX IF NOT EXISTS idx_factors_test ON factors(test_id);
CREATE INDEX IF NOT EXISTS idx_subfactors_test ON subfactors(test_id);
CREATE INDEX IF NOT EXISTS idx_subfactors_factor ON subfactors(factor_id);
CREATE INDEX IF NOT EXISTS idx_questions_test ON questions(test_id);
CREATE INDEX IF NOT EXISTS idx_questions_subfactor ON questions(subfactor_id);
CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// isPgConstraintViolation matches unique (23505), foreign key (23503) and
// not-null (23502) violations.
func isPgConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503", "23502":
			return true
		}
	}
	return false
}

func (s *PostgresStore) CreateTest(ctx context.Context, in TestInput) (*model.Test, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tests (id, code, title, description, active) VALUES ($1, $2, $3, $4, TRUE)`,
		id, in.Code, in.Title, in.Description,
	)
	if err != nil {
		if isPgConstraintViolation(err) {
			return nil, fault.NewRejection("create-test", err)
		}
		return nil, eris.Wrap(err, "postgres: insert test")
	}
	return &model.Test{ID: id, Code: in.Code, Title: in.Title, Description: in.Description, Active: true}, nil
}

func (s *PostgresStore) GetTest(ctx context.Context, id string) (*model.Test, error) {
	var t model.Test
	err := s.pool.QueryRow(ctx,
		`SELECT id, code, title, description, active FROM tests WHERE id = $1`, id,
	).Scan(&t.ID, &t.Code, &t.Title, &t.Description, &t.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get test")
	}
	return &t, nil
}

func (s *PostgresStore) ListTests(ctx context.Context) ([]model.Test, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, code, title, description, active FROM tests ORDER BY code`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tests")
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.Code, &t.Title, &t.Description, &t.Active); err != nil {
			return nil, eris.Wrap(err, "postgres: scan test")
		}
		tests = append(tests, t)
	}
	return tests, eris.Wrap(rows.Err(), "postgres: list tests")
}

func (s *PostgresStore) FetchStructure(ctx context.Context, testID string) (*model.Structure, error) {
	test, err := s.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	tree := &model.Structure{Test: *test}

	frows, err := s.pool.Query(ctx,
		`SELECT id, code, name, description, position FROM factors WHERE test_id = $1 ORDER BY position`,
		testID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch factors")
	}
	defer frows.Close()
	for frows.Next() {
		f := model.Factor{TestID: testID}
		if err := frows.Scan(&f.ID, &f.Code, &f.Name, &f.Description, &f.Position); err != nil {
			return nil, eris.Wrap(err, "postgres: scan factor")
		}
		tree.Factors = append(tree.Factors, f)
	}
	if err := frows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: fetch factors")
	}

	srows, err := s.pool.Query(ctx,
		`SELECT id, factor_id, code, name, description, position FROM subfactors WHERE test_id = $1 ORDER BY position`,
		testID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch subfactors")
	}
	defer srows.Close()
	for srows.Next() {
		sf := model.Subfactor{TestID: testID}
		if err := srows.Scan(&sf.ID, &sf.FactorID, &sf.Code, &sf.Name, &sf.Description, &sf.Position); err != nil {
			return nil, eris.Wrap(err, "postgres: scan subfactor")
		}
		tree.Subfactors = append(tree.Subfactors, sf)
	}
	if err := srows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: fetch subfactors")
	}

	qrows, err := s.pool.Query(ctx,
		`SELECT id, subfactor_id, text, type, position FROM questions WHERE test_id = $1 ORDER BY position`,
		testID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch questions")
	}
	defer qrows.Close()
	index := map[string]int{}
	for qrows.Next() {
		q := model.Question{TestID: testID}
		var rawType string
		if err := qrows.Scan(&q.ID, &q.SubfactorID, &q.Text, &rawType, &q.Position); err != nil {
			return nil, eris.Wrap(err, "postgres: scan question")
		}
		q.Type = model.QuestionType(rawType)
		index[q.ID] = len(tree.Questions)
		tree.Questions = append(tree.Questions, q)
	}
	if err := qrows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: fetch questions")
	}

	arows, err := s.pool.Query(ctx,
		`SELECT a.id, a.question_id, a.text, a.value, a.position
		 FROM answers a JOIN questions q ON q.id = a.question_id
		 WHERE q.test_id = $1 ORDER BY a.question_id, a.position`,
		testID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch answers")
	}
	defer arows.Close()
	for arows.Next() {
		var a model.Answer
		if err := arows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Value, &a.Position); err != nil {
			return nil, eris.Wrap(err, "postgres: scan answer")
		}
		if i, ok := index[a.QuestionID]; ok {
			tree.Questions[i].Answers = append(tree.Questions[i].Answers, a)
		}
	}
	return tree, eris.Wrap(arows.Err(), "postgres: fetch answers")
}

func (s *PostgresStore) CreateFactor(ctx context.Context, testID string, in FactorInput) (*model.Factor, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO factors (id, test_id, code, name, description, position) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, testID, in.Code, in.Name, in.Description, in.Position,
	)
	if err != nil {
		if isPgConstraintViolation(err) {
			return nil, fault.NewRejection("create-factor", err)
		}
		return nil, eris.Wrap(err, "postgres: insert factor")
	}
	return &model.Factor{
		ID: id, TestID: testID, Code: in.Code, Name: in.Name,
		Description: in.Description, Position: in.Position,
	}, nil
}

func (s *PostgresStore) CreateSubfactor(ctx context.Context, testID string, in SubfactorInput) (*model.Subfactor, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO subfactors (id, test_id, factor_id, code, name, description, position) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, testID, in.FactorID, in.Code, in.Name, in.Description, in.Position,
	)
	if err != nil {
		if isPgConstraintViolation(err) {
			return nil, fault.NewRejection("create-subfactor", err)
		}
		return nil, eris.Wrap(err, "postgres: insert subfactor")
	}
	return &model.Subfactor{
		ID: id, TestID: testID, FactorID: in.FactorID, Code: in.Code,
		Name: in.Name, Description: in.Description, Position: in.Position,
	}, nil
}

func (s *PostgresStore) CreateQuestion(ctx context.Context, testID string, in QuestionInput) (*model.Question, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin create question")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	qID := uuid.New().String()
	_, err = tx.Exec(ctx,
		`INSERT INTO questions (id, test_id, subfactor_id, text, type, position) VALUES ($1, $2, $3, $4, $5, $6)`,
		qID, testID, in.SubfactorID, in.Text, string(in.Type), in.Position,
	)
	if err != nil {
		if isPgConstraintViolation(err) {
			return nil, fault.NewRejection("create-question", err)
		}
		return nil, eris.Wrap(err, "postgres: insert question")
	}

	q := &model.Question{
		ID: qID, TestID: testID, SubfactorID: in.SubfactorID,
		Text: in.Text, Type: in.Type, Position: in.Position,
	}
	for _, a := range in.Answers {
		aID := uuid.New().String()
		_, err = tx.Exec(ctx,
			`INSERT INTO answers (id, question_id, text, value, position) VALUES ($1, $2, $3, $4, $5)`,
			aID, qID, a.Text, a.Value, a.Position,
		)
		if err != nil {
			if isPgConstraintViolation(err) {
				return nil, fault.NewRejection("create-question", err)
			}
			return nil, eris.Wrap(err, "postgres: insert answer")
		}
		q.Answers = append(q.Answers, model.Answer{
			ID: aID, QuestionID: qID, Text: a.Text, Value: a.Value, Position: a.Position,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		if isPgConstraintViolation(err) {
			return nil, fault.NewRejection("create-question", err)
		}
		return nil, eris.Wrap(err, "postgres: commit create question")
	}
	return q, nil
}

func (s *PostgresStore) UpdateQuestion(ctx context.Context, id string, upd QuestionUpdate) error {
	if upd.Text == nil {
		return nil
	}
	tag, err := s.pool.Exec(ctx, `UPDATE questions SET text = $1 WHERE id = $2`, *upd.Text, id)
	if err != nil {
		return eris.Wrap(err, "postgres: update question")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetQuestionSubfactor(ctx context.Context, id string, subfactorID *string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE questions SET subfactor_id = $1 WHERE id = $2`, subfactorID, id)
	if err != nil {
		if isPgConstraintViolation(err) {
			return fault.NewRejection("set-question-subfactor", err)
		}
		return eris.Wrap(err, "postgres: set question subfactor")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin delete question")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var testID string
	err = tx.QueryRow(ctx, `SELECT test_id FROM questions WHERE id = $1`, id).Scan(&testID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "postgres: lookup question")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE question_id = $1`, id); err != nil {
		return eris.Wrap(err, "postgres: delete answers")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id); err != nil {
		return eris.Wrap(err, "postgres: delete question")
	}
	if err := renumberPostgres(ctx, tx, "questions", "test_id", testID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit delete question")
}

func (s *PostgresStore) CreateAnswer(ctx context.Context, questionID string, in AnswerInput) (*model.Answer, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO answers (id, question_id, text, value, position) VALUES ($1, $2, $3, $4, $5)`,
		id, questionID, in.Text, in.Value, in.Position,
	)
	if err != nil {
		if isPgConstraintViolation(err) {
			return nil, fault.NewRejection("create-answer", err)
		}
		return nil, eris.Wrap(err, "postgres: insert answer")
	}
	return &model.Answer{ID: id, QuestionID: questionID, Text: in.Text, Value: in.Value, Position: in.Position}, nil
}

func (s *PostgresStore) UpdateAnswer(ctx context.Context, id string, upd AnswerUpdate) error {
	if upd.Text == nil && upd.Value == nil {
		return nil
	}
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if upd.Text != nil {
		args = append(args, *upd.Text)
		sets = append(sets, "text = $"+strconv.Itoa(len(args)))
	}
	if upd.Value != nil {
		args = append(args, *upd.Value)
		sets = append(sets, "value = $"+strconv.Itoa(len(args)))
	}
	args = append(args, id)
	tag, err := s.pool.Exec(ctx,
		`UPDATE answers SET `+strings.Join(sets, ", ")+` WHERE id = $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return eris.Wrap(err, "postgres: update answer")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAnswer(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin delete answer")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var questionID string
	err = tx.QueryRow(ctx, `SELECT question_id FROM answers WHERE id = $1`, id).Scan(&questionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "postgres: lookup answer")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE id = $1`, id); err != nil {
		return eris.Wrap(err, "postgres: delete answer")
	}
	if err := renumberPostgres(ctx, tx, "answers", "question_id", questionID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit delete answer")
}

func (s *PostgresStore) DeleteFactor(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin delete factor")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var testID string
	err = tx.QueryRow(ctx, `SELECT test_id FROM factors WHERE id = $1`, id).Scan(&testID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "postgres: lookup factor")
	}

	if _, err := tx.Exec(ctx, `UPDATE subfactors SET factor_id = NULL WHERE factor_id = $1`, id); err != nil {
		return eris.Wrap(err, "postgres: detach subfactors")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM factors WHERE id = $1`, id); err != nil {
		return eris.Wrap(err, "postgres: delete factor")
	}
	if err := renumberPostgres(ctx, tx, "factors", "test_id", testID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit delete factor")
}

func (s *PostgresStore) DeleteSubfactor(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin delete subfactor")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var testID string
	err = tx.QueryRow(ctx, `SELECT test_id FROM subfactors WHERE id = $1`, id).Scan(&testID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "postgres: lookup subfactor")
	}

	if _, err := tx.Exec(ctx, `UPDATE questions SET subfactor_id = NULL WHERE subfactor_id = $1`, id); err != nil {
		return eris.Wrap(err, "postgres: detach questions")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM subfactors WHERE id = $1`, id); err != nil {
		return eris.Wrap(err, "postgres: delete subfactor")
	}
	if err := renumberPostgres(ctx, tx, "subfactors", "test_id", testID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit delete subfactor")
}

// renumberPostgres rewrites a sibling group's positions to 1..n in one
// statement. The deferred unique constraint tolerates the intermediate
// state until commit.
func renumberPostgres(ctx context.Context, tx pgx.Tx, table, scopeCol, scopeID string) error {
	_, err := tx.Exec(ctx,
		`UPDATE `+table+` t SET position = sub.rn
		 FROM (SELECT id, ROW_NUMBER() OVER (ORDER BY position) AS rn
		       FROM `+table+` WHERE `+scopeCol+` = $1) sub
		 WHERE t.id = sub.id`,
		scopeID)
	return eris.Wrapf(err, "postgres: renumber %s", table)
}
