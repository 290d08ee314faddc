// Package memory keeps rooms and questions in process memory. State is lost on restart.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
)

type QuestionStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]domain.Question
}

// NewQuestionStore returns a store holding qs in the given order.
func NewQuestionStore(qs ...domain.Question) *QuestionStore {
	s := &QuestionStore{byID: make(map[string]domain.Question, len(qs))}
	for _, q := range qs {
		if _, ok := s.byID[q.ID]; ok {
			continue
		}
		s.order = append(s.order, q.ID)
		s.byID[q.ID] = q
	}

	return s
}

func (s *QuestionStore) ByID(_ context.Context, id string) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.byID[id]
	if !ok {
		return nil, errors.Of(errors.ReasonQuestionNotFound, "question %s not found", id)
	}

	return &q, nil
}

func (s *QuestionStore) ByTopic(_ context.Context, topic string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var qs []domain.Question
	for _, id := range s.order {
		if q := s.byID[id]; q.Topic == topic {
			qs = append(qs, q)
		}
	}

	return qs, nil
}

func (s *QuestionStore) List(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	qs := make([]domain.Question, 0, len(s.order))
	for _, id := range s.order {
		qs = append(qs, s.byID[id])
	}

	return qs, nil
}

func (s *QuestionStore) Insert(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[q.ID]; ok {
		return errors.New(errors.CodeAlreadyExists, errors.WithMessagef("question %s already exists", q.ID))
	}

	s.order = append(s.order, q.ID)
	s.byID[q.ID] = q
	return nil
}

func (s *QuestionStore) Update(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[q.ID]; !ok {
		return errors.Of(errors.ReasonQuestionNotFound, "question %s not found", q.ID)
	}

	s.byID[q.ID] = q
	return nil
}

func (s *QuestionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return errors.Of(errors.ReasonQuestionNotFound, "question %s not found", id)
	}

	delete(s.byID, id)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
	return nil
}
