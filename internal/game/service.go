package game

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/victornm/quizladder/internal/board"
	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
	"github.com/victornm/quizladder/internal/event"
	"github.com/victornm/quizladder/internal/question"
)

const (
	defaultTopic      = "biologi"
	defaultColor      = "black"
	defaultCodeLength = 4
	codeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts   = 5
)

// Rand is the source for dice rolls, question draws and room codes.
type Rand interface {
	IntN(n int) int
}

type Config struct {
	Repository   Repository
	Questions    *question.Service
	Board        *board.Board
	EventBus     *event.Bus
	Rand         Rand
	DefaultTopic string
	CodeLength   int
	Now          func() time.Time
}

// Service runs the room lifecycle and turn state machine.
type Service struct {
	repo      Repository
	questions *question.Service
	board     *board.Board
	eb        *event.Bus
	rand      Rand
	topic     string
	codeLen   int
	now       func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		repo:      c.Repository,
		questions: c.Questions,
		board:     c.Board,
		eb:        c.EventBus,
		rand:      c.Rand,
		topic:     c.DefaultTopic,
		codeLen:   c.CodeLength,
		now:       c.Now,
	}

	if s.board == nil {
		s.board = board.Default()
	}
	if s.topic == "" {
		s.topic = defaultTopic
	}
	if s.codeLen <= 0 {
		s.codeLen = defaultCodeLength
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// atomic runs fn as one unit of work on the room and publishes the events it emitted
// once the work is committed.
func (s *Service) atomic(ctx context.Context, code string, fn func(ctx context.Context, tx Store, emit func(event.Event)) error) error {
	var events []event.Event
	emit := func(e event.Event) { events = append(events, e) }

	err := s.repo.Atomic(ctx, code, func(ctx context.Context, tx Store) error {
		events = events[:0]
		return fn(ctx, tx, emit)
	})
	if err != nil {
		return err
	}

	if s.eb != nil {
		s.eb.Publish(ctx, events...)
	}

	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.Of(errors.ReasonInvalidInput, "%s is not valid", field)
	}

	return nil
}

type CreateRoomRequest struct {
	Player string
	// Color defaults to black.
	Color string
	// MaxBox defaults to the board size.
	MaxBox int
	// Topic defaults to the configured topic.
	Topic string
}

// CreateRoom opens a new room in the waiting state with the creator as first player and
// turn holder.
func (s *Service) CreateRoom(ctx context.Context, req CreateRoomRequest) (*CreateRoomResult, error) {
	if req.Color == "" {
		req.Color = defaultColor
	}
	if req.MaxBox == 0 {
		req.MaxBox = s.board.MaxBox()
	}
	if req.Topic == "" {
		req.Topic = s.topic
	}

	if err := required("player", req.Player); err != nil {
		return nil, err
	}
	if req.MaxBox < s.board.MinMaxBox() {
		return nil, errors.Of(errors.ReasonInvalidInput, "maxbox is not valid, must be at least %d",
			s.board.MinMaxBox())
	}

	qs, err := s.questions.ByTopic(ctx, req.Topic)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, errors.Of(errors.ReasonNoQuestionsForTopic, "no questions for topic %s", req.Topic)
	}

	for range maxCodeAttempts {
		code := s.newCode()
		err := s.atomic(ctx, code, func(ctx context.Context, tx Store, emit func(event.Event)) error {
			now := s.now()
			r := domain.Room{
				Code:       code,
				State:      domain.StateWaiting,
				Turn:       req.Player,
				MaxBox:     req.MaxBox,
				Topic:      req.Topic,
				CreateTime: now,
				UpdateTime: now,
			}
			if err := tx.InsertRoom(ctx, r); err != nil {
				return err
			}

			p := domain.Player{
				RoomCode: code,
				ID:       req.Player,
				Color:    req.Color,
				JoinTime: now,
			}
			if err := tx.InsertPlayer(ctx, p); err != nil {
				return fmt.Errorf("insert creator: %w", err)
			}

			emit(domain.EventRoomCreated{Room: r})
			emit(domain.EventPlayerJoined{Player: p})
			return nil
		})

		if stderrors.Is(err, errors.New(errors.CodeAlreadyExists)) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return &CreateRoomResult{
			Outcome: ok("Game %s created!", code),
			Code:    code,
			Player:  req.Player,
			Color:   req.Color,
			State:   domain.StateWaiting,
			MaxBox:  req.MaxBox,
			Topic:   req.Topic,
		}, nil
	}

	return nil, errors.New(errors.CodeAborted, errors.WithMessagef("could not allocate a room code after %d attempts", maxCodeAttempts))
}

func (s *Service) newCode() string {
	b := make([]byte, s.codeLen)
	for i := range b {
		b[i] = codeAlphabet[s.rand.IntN(len(codeAlphabet))]
	}

	return string(b)
}

type JoinRoomRequest struct {
	Code   string
	Player string
	Color  string
}

// JoinRoom adds a player while the room is waiting. Joining twice is harmless, a known player
// joining a running game is a rejoin and anyone else is offered to spectate.
func (s *Service) JoinRoom(ctx context.Context, req JoinRoomRequest) (*JoinRoomResult, error) {
	if req.Color == "" {
		req.Color = defaultColor
	}
	if err := required("code", req.Code); err != nil {
		return nil, err
	}
	if err := required("player", req.Player); err != nil {
		return nil, err
	}

	res := &JoinRoomResult{Code: req.Code, Player: req.Player}
	err := s.atomic(ctx, req.Code, func(ctx context.Context, tx Store, emit func(event.Event)) error {
		r, err := tx.Get(ctx, req.Code)
		if err != nil {
			return err
		}

		ps, err := players(ctx, tx, req.Code)
		if err != nil {
			return err
		}

		_, present := findPlayer(ps, req.Player)
		res.State = r.State

		switch r.State {
		case domain.StateWaiting:
			if present {
				res.Kind, res.Outcome = JoinKindAlready, ok("player %s is already available", req.Player)
				return nil
			}

			p := domain.Player{
				RoomCode:  req.Code,
				ID:        req.Player,
				Color:     req.Color,
				JoinOrder: nextJoinOrder(ps),
				JoinTime:  s.now(),
			}
			if err := tx.InsertPlayer(ctx, p); err != nil {
				return err
			}

			emit(domain.EventPlayerJoined{Player: p})
			res.Kind, res.Outcome = JoinKindJoined, ok("Joined %s successfully!", req.Code)
		case domain.StatePlaying:
			if present {
				res.Kind, res.Outcome = JoinKindRejoin, ok("Rejoin")
				return nil
			}

			res.Kind, res.Outcome = JoinKindSpectate, ok("The room already started, do you want to spectate instead?")
		case domain.StateEnded:
			res.Kind, res.Outcome = JoinKindEnded, ok("The room already ended!")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// Spectate returns the players of a room that is still open.
func (s *Service) Spectate(ctx context.Context, code string) (*SpectateResult, error) {
	if err := required("code", code); err != nil {
		return nil, err
	}

	r, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	if r.State == domain.StateEnded {
		return nil, errors.Of(errors.ReasonRoomNotAvailable, "room is not available or already ended!")
	}

	ps, err := players(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}

	return &SpectateResult{
		Outcome: ok("Spectating"),
		Code:    code,
		State:   r.State,
		Players: playerViews(ps),
	}, nil
}

// StartGame moves a waiting room to playing. The turn stays with whoever holds it.
func (s *Service) StartGame(ctx context.Context, code string) (*StartGameResult, error) {
	if err := required("code", code); err != nil {
		return nil, err
	}

	res := &StartGameResult{Code: code}
	err := s.atomic(ctx, code, func(ctx context.Context, tx Store, emit func(event.Event)) error {
		r, err := tx.Get(ctx, code)
		if err != nil {
			return err
		}

		if r.State != domain.StateWaiting {
			return errors.Of(errors.ReasonAlreadyStarted, "room already started")
		}

		r.State = domain.StatePlaying
		r.UpdateTime = s.now()
		if err := tx.UpdateRoom(ctx, *r); err != nil {
			return err
		}

		ps, err := players(ctx, tx, code)
		if err != nil {
			return err
		}

		emit(domain.EventGameStarted{Room: *r})
		res.Outcome = ok("Room %s started!", code)
		res.State, res.Turn, res.Players = r.State, r.Turn, playerViews(ps)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// EndGame forces the room to the ended state. Ending an ended room is a no-op.
func (s *Service) EndGame(ctx context.Context, code string) (*EndGameResult, error) {
	if err := required("code", code); err != nil {
		return nil, err
	}

	err := s.atomic(ctx, code, func(ctx context.Context, tx Store, emit func(event.Event)) error {
		r, err := tx.Get(ctx, code)
		if err != nil {
			return err
		}

		if r.State == domain.StateEnded {
			return nil
		}

		r.State = domain.StateEnded
		r.PendingQuestionID = ""
		r.UpdateTime = s.now()
		if err := tx.UpdateRoom(ctx, *r); err != nil {
			return err
		}

		emit(domain.EventGameEnded{Room: *r})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &EndGameResult{
		Outcome: ok("game %s ended", code),
		Code:    code,
		State:   domain.StateEnded,
	}, nil
}

func players(ctx context.Context, st Store, code string) ([]domain.Player, error) {
	ps, err := st.Players(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	slices.SortStableFunc(ps, func(a, b domain.Player) int { return a.JoinOrder - b.JoinOrder })
	return ps, nil
}

func findPlayer(ps []domain.Player, id string) (domain.Player, bool) {
	for _, p := range ps {
		if p.ID == id {
			return p, true
		}
	}

	return domain.Player{}, false
}

func nextJoinOrder(ps []domain.Player) int {
	n := 0
	for _, p := range ps {
		n = max(n, p.JoinOrder+1)
	}

	return n
}

// nextTurn returns the player after current in join order, wrapping around. When current
// is not in the room the first player to join gets the turn.
func nextTurn(ps []domain.Player, current string) string {
	if len(ps) == 0 {
		return ""
	}

	for i, p := range ps {
		if p.ID == current {
			return ps[(i+1)%len(ps)].ID
		}
	}

	return ps[0].ID
}
