package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
	"github.com/victornm/quizladder/internal/question"
)

type QuestionStore struct {
	db *pgxpool.Pool
}

var _ question.Store = (*QuestionStore)(nil)

func NewQuestionStore(db *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{db: db}
}

const questionColumns = `question_id, topic, question, a1, a2, a3, a4, answer`

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	err := row.Scan(&q.ID, &q.Topic, &q.Text, &q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3], &q.Answer)
	return q, err
}

func (s *QuestionStore) ByID(ctx context.Context, id string) (*domain.Question, error) {
	q, err := scanQuestion(s.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE question_id = $1`, id))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Of(errors.ReasonQuestionNotFound, "question %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}

	return &q, nil
}

func (s *QuestionStore) ByTopic(ctx context.Context, topic string) ([]domain.Question, error) {
	return s.list(ctx, `SELECT `+questionColumns+` FROM questions WHERE topic = $1 ORDER BY seq`, topic)
}

func (s *QuestionStore) List(ctx context.Context) ([]domain.Question, error) {
	return s.list(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY seq`)
}

func (s *QuestionStore) list(ctx context.Context, stmt string, args ...any) ([]domain.Question, error) {
	rows, err := s.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	qs, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Question, error) {
		return scanQuestion(r)
	})
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	return qs, nil
}

func (s *QuestionStore) Insert(ctx context.Context, q domain.Question) error {
	const stmt = `
INSERT INTO questions (question_id, topic, question, a1, a2, a3, a4, answer)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := s.db.Exec(ctx, stmt, q.ID, q.Topic, q.Text, q.Options[0], q.Options[1], q.Options[2], q.Options[3], q.Answer)
	if err != nil {
		return convertErr("insert question", err)
	}

	return nil
}

func (s *QuestionStore) Update(ctx context.Context, q domain.Question) error {
	const stmt = `
UPDATE questions
SET topic = $2, question = $3, a1 = $4, a2 = $5, a3 = $6, a4 = $7, answer = $8
WHERE question_id = $1;`

	tag, err := s.db.Exec(ctx, stmt, q.ID, q.Topic, q.Text, q.Options[0], q.Options[1], q.Options[2], q.Options[3], q.Answer)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Of(errors.ReasonQuestionNotFound, "question %s not found", q.ID)
	}

	return nil
}

func (s *QuestionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM questions WHERE question_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Of(errors.ReasonQuestionNotFound, "question %s not found", id)
	}

	return nil
}
