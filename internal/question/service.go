package question

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
)

// Store persists questions. ByID, Update and Delete report a missing question with
// errors.ReasonQuestionNotFound; Insert reports a duplicate id with errors.CodeAlreadyExists.
type Store interface {
	ByID(ctx context.Context, id string) (*domain.Question, error)
	ByTopic(ctx context.Context, topic string) ([]domain.Question, error)
	List(ctx context.Context) ([]domain.Question, error)
	Insert(ctx context.Context, q domain.Question) error
	Update(ctx context.Context, q domain.Question) error
	Delete(ctx context.Context, id string) error
}

type Rand interface {
	IntN(n int) int
}

type Config struct {
	Store Store
	Rand  Rand
}

type Service struct {
	store Store
	rand  Rand
}

func NewService(c Config) *Service {
	return &Service{
		store: c.Store,
		rand:  c.Rand,
	}
}

func (s *Service) ByID(ctx context.Context, id string) (*domain.Question, error) {
	if id == "" {
		return nil, errors.Of(errors.ReasonInvalidInput, "id is not valid")
	}

	return s.store.ByID(ctx, id)
}

// ByTopic returns the questions of a topic in storage order.
func (s *Service) ByTopic(ctx context.Context, topic string) ([]domain.Question, error) {
	if topic == "" {
		return nil, errors.Of(errors.ReasonInvalidInput, "topic is not valid")
	}

	return s.store.ByTopic(ctx, topic)
}

// RandomByTopic picks one question of the topic uniformly at random.
func (s *Service) RandomByTopic(ctx context.Context, topic string) (*domain.Question, error) {
	qs, err := s.ByTopic(ctx, topic)
	if err != nil {
		return nil, err
	}

	if len(qs) == 0 {
		return nil, errors.Of(errors.ReasonNoQuestionsForTopic, "no questions for topic %s", topic)
	}

	q := qs[s.rand.IntN(len(qs))]
	return &q, nil
}

// CheckAnswer compares the submitted option with the canonical one, ignoring case and
// surrounding whitespace.
func (s *Service) CheckAnswer(ctx context.Context, id, submitted string) (bool, error) {
	q, err := s.ByID(ctx, id)
	if err != nil {
		return false, err
	}

	return normalize(q.Answer) == normalize(submitted), nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *Service) List(ctx context.Context) ([]domain.Question, error) {
	return s.store.List(ctx)
}

type CreateQuestionRequest struct {
	// ID is optional, a new one is generated when empty.
	ID      string
	Topic   string
	Text    string
	Options [4]string
	Answer  string
}

func (s *Service) Create(ctx context.Context, req CreateQuestionRequest) (*domain.Question, error) {
	q := domain.Question{
		ID:      req.ID,
		Topic:   strings.TrimSpace(req.Topic),
		Text:    strings.TrimSpace(req.Text),
		Options: req.Options,
		Answer:  normalize(req.Answer),
	}

	if q.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate question ID: %w", err)
		}
		q.ID = id.String()
	}

	if err := validate(q); err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, q); err != nil {
		return nil, err
	}

	return &q, nil
}

type UpdateQuestionRequest struct {
	ID      string
	Topic   string
	Text    string
	Options [4]string
	Answer  string
}

// Update replaces a question as a whole.
func (s *Service) Update(ctx context.Context, req UpdateQuestionRequest) (*domain.Question, error) {
	q := domain.Question{
		ID:      req.ID,
		Topic:   strings.TrimSpace(req.Topic),
		Text:    strings.TrimSpace(req.Text),
		Options: req.Options,
		Answer:  normalize(req.Answer),
	}

	if q.ID == "" {
		return nil, errors.Of(errors.ReasonInvalidInput, "id is not valid")
	}

	if err := validate(q); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, q); err != nil {
		return nil, err
	}

	return &q, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.Of(errors.ReasonInvalidInput, "id is not valid")
	}

	return s.store.Delete(ctx, id)
}

func validate(q domain.Question) error {
	if q.Topic == "" {
		return errors.Of(errors.ReasonInvalidInput, "topic is not valid")
	}
	if q.Text == "" {
		return errors.Of(errors.ReasonInvalidInput, "question is not valid")
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return errors.Of(errors.ReasonInvalidInput, "%s is not valid", domain.OptionKeys[i])
		}
	}
	if !slices.Contains(domain.OptionKeys[:], q.Answer) {
		return errors.Of(errors.ReasonInvalidInput, "answer must be one of %s", strings.Join(domain.OptionKeys[:], ", "))
	}

	return nil
}

// View is a question as shown to players: the answer key is left out.
type View struct {
	ID      string   `json:"id"`
	Topic   string   `json:"topic"`
	Text    string   `json:"question"`
	Options []Option `json:"options"`
}

type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

func Public(q domain.Question) *View {
	v := &View{
		ID:      q.ID,
		Topic:   q.Topic,
		Text:    q.Text,
		Options: make([]Option, 0, len(q.Options)),
	}

	for i, o := range q.Options {
		v.Options = append(v.Options, Option{Key: domain.OptionKeys[i], Text: o})
	}

	return v
}
