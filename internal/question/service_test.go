package question_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
	"github.com/victornm/quizladder/internal/question"
	"github.com/victornm/quizladder/internal/storage/memory"
)

type seqRand struct {
	next int
}

func (r *seqRand) IntN(n int) int {
	v := r.next % n
	r.next++
	return v
}

func makeService(t *testing.T, qs ...domain.Question) *question.Service {
	t.Helper()

	if len(qs) == 0 {
		qs = question.Samples
	}

	return question.NewService(question.Config{
		Store: memory.NewQuestionStore(qs...),
		Rand:  &seqRand{},
	})
}

func TestService_ByID(t *testing.T) {
	s := makeService(t)

	q, err := s.ByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "What is the formula for force?", q.Text)

	_, err = s.ByID(context.Background(), "404")
	assert.Equal(t, errors.ReasonQuestionNotFound, errors.ReasonOf(err))

	_, err = s.ByID(context.Background(), "")
	assert.Equal(t, errors.ReasonInvalidInput, errors.ReasonOf(err))
}

func TestService_ByTopic(t *testing.T) {
	s := makeService(t)

	qs, err := s.ByTopic(context.Background(), "biologi")
	require.NoError(t, err)

	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"5", "6", "7", "8"}, ids)
}

func TestService_RandomByTopic(t *testing.T) {
	s := makeService(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for range 4 {
		q, err := s.RandomByTopic(ctx, "fizik")
		require.NoError(t, err)
		assert.Equal(t, "fizik", q.Topic)
		seen[q.ID] = true
	}
	assert.Len(t, seen, 4, "draws are spread over the whole topic")

	_, err := s.RandomByTopic(ctx, "kimia")
	assert.Equal(t, errors.ReasonNoQuestionsForTopic, errors.ReasonOf(err))
}

func TestService_CheckAnswer(t *testing.T) {
	tests := map[string]struct {
		id        string
		submitted string
		want      bool
		reason    errors.Reason
	}{
		"exact":            {id: "2", submitted: "a3", want: true},
		"case and spaces":  {id: "2", submitted: "  A3\t", want: true},
		"wrong":            {id: "2", submitted: "a1", want: false},
		"empty answer":     {id: "2", submitted: "", want: false},
		"unknown question": {id: "404", submitted: "a1", reason: errors.ReasonQuestionNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := makeService(t)

			got, err := s.CheckAnswer(context.Background(), tt.id, tt.submitted)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, errors.ReasonOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	valid := question.CreateQuestionRequest{
		Topic:   "kimia",
		Text:    "What is H2O?",
		Options: [4]string{"Water", "Salt", "Sugar", "Air"},
		Answer:  " A1 ",
	}

	tests := map[string]struct {
		arrange func() question.CreateQuestionRequest
		assert  func(t *testing.T, q *domain.Question, err error)
	}{
		"id is generated and answer normalized": {
			arrange: func() question.CreateQuestionRequest { return valid },
			assert: func(t *testing.T, q *domain.Question, err error) {
				require.NoError(t, err)
				assert.NotEmpty(t, q.ID)
				assert.Equal(t, "a1", q.Answer)
			},
		},
		"answer must name an option": {
			arrange: func() question.CreateQuestionRequest {
				r := valid
				r.Answer = "Water"
				return r
			},
			assert: func(t *testing.T, _ *domain.Question, err error) {
				assert.Equal(t, errors.ReasonInvalidInput, errors.ReasonOf(err))
			},
		},
		"every option is required": {
			arrange: func() question.CreateQuestionRequest {
				r := valid
				r.Options[3] = ""
				return r
			},
			assert: func(t *testing.T, _ *domain.Question, err error) {
				assert.Equal(t, errors.ReasonInvalidInput, errors.ReasonOf(err))
			},
		},
		"duplicate id": {
			arrange: func() question.CreateQuestionRequest {
				r := valid
				r.ID = "1"
				return r
			},
			assert: func(t *testing.T, _ *domain.Question, err error) {
				assert.ErrorIs(t, err, errors.New(errors.CodeAlreadyExists))
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := makeService(t)
			q, err := s.Create(ctx, tt.arrange())
			tt.assert(t, q, err)
		})
	}
}

func TestService_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := makeService(t)

	q, err := s.Update(ctx, question.UpdateQuestionRequest{
		ID:      "1",
		Topic:   "fizik",
		Text:    "What is the formula for momentum?",
		Options: [4]string{"p=mv", "p=ma", "p=mgh", "p=F/a"},
		Answer:  "a1",
	})
	require.NoError(t, err)
	assert.Equal(t, "What is the formula for momentum?", q.Text)

	require.NoError(t, s.Delete(ctx, "1"))

	_, err = s.ByID(ctx, "1")
	assert.Equal(t, errors.ReasonQuestionNotFound, errors.ReasonOf(err))

	err = s.Delete(ctx, "1")
	assert.Equal(t, errors.ReasonQuestionNotFound, errors.ReasonOf(err))
}

func TestPublic(t *testing.T) {
	v := question.Public(question.Samples[0])

	assert.Equal(t, "1", v.ID)
	assert.Equal(t, []question.Option{
		{Key: "a1", Text: "F=ma"},
		{Key: "a2", Text: "F=mv"},
		{Key: "a3", Text: "F=mgh"},
		{Key: "a4", Text: "F=1/2mv^2"},
	}, v.Options)
}
