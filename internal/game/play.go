package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
	"github.com/victornm/quizladder/internal/event"
	"github.com/victornm/quizladder/internal/movement"
	"github.com/victornm/quizladder/internal/question"
)

const defaultMovesLimit = 10

// requirePlaying rejects actions on rooms that have not started or are over.
func requirePlaying(r *domain.Room) error {
	switch r.State {
	case domain.StateWaiting:
		return errors.Of(errors.ReasonRoomNotAvailable, "room is not started yet!")
	case domain.StateEnded:
		return errors.Of(errors.ReasonRoomNotAvailable, "room is already ended!")
	}

	return nil
}

type RollDiceRequest struct {
	Code   string
	Player string
}

// RollDice moves the turn holder. Landing on a shortcut origin keeps the turn and draws a
// question that must be answered before anyone rolls again. The written position is the
// landing square, shortcuts are only taken in AnswerQuestion.
func (s *Service) RollDice(ctx context.Context, req RollDiceRequest) (*RollDiceResult, error) {
	if err := required("code", req.Code); err != nil {
		return nil, err
	}
	if err := required("player", req.Player); err != nil {
		return nil, err
	}

	res := &RollDiceResult{Code: req.Code, Player: req.Player}
	err := s.atomic(ctx, req.Code, func(ctx context.Context, tx Store, emit func(event.Event)) error {
		r, err := tx.Get(ctx, req.Code)
		if err != nil {
			return err
		}

		if err := requirePlaying(r); err != nil {
			return err
		}
		if r.AwaitingAnswer() {
			return errors.Of(errors.ReasonQuestionPending, "Please answer question first!")
		}

		ps, err := players(ctx, tx, req.Code)
		if err != nil {
			return err
		}

		p, found := findPlayer(ps, req.Player)
		if !found {
			return errors.Of(errors.ReasonInvalidInput, "Please insert correct player")
		}
		if r.Turn != req.Player {
			return errors.Of(errors.ReasonNotYourTurn, "It is not your turn!")
		}

		dice := s.rand.IntN(movement.MaxDice) + movement.MinDice
		to := movement.ComputeMove(p.Position, dice, r.MaxBox)
		now := s.now()

		if err := tx.UpdatePlayerPosition(ctx, req.Code, req.Player, to); err != nil {
			return err
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate move ID: %w", err)
		}
		m := domain.Move{
			ID:       id.String(),
			RoomCode: req.Code,
			Player:   req.Player,
			Dice:     dice,
			From:     p.Position,
			To:       to,
			Time:     now,
		}
		if err := tx.InsertMove(ctx, m); err != nil {
			return err
		}

		r.LastDice = dice
		r.UpdateTime = now
		if _, ok := s.board.Lookup(to); ok {
			q, err := s.questions.RandomByTopic(ctx, r.Topic)
			if err != nil {
				return err
			}

			r.PendingQuestionID = q.ID
			r.SelectedAnswer = ""
			res.Question, res.QuestionID = question.Public(*q), q.ID
		} else {
			r.Turn = nextTurn(ps, req.Player)
		}

		p.Position = to
		ended := to == r.MaxBox
		if ended {
			r.State = domain.StateEnded
			r.PendingQuestionID = ""
		}

		if err := tx.UpdateRoom(ctx, *r); err != nil {
			return err
		}

		emit(domain.EventDiceRolled{Move: m, QuestionID: res.QuestionID})
		emit(domain.EventPlayerMoved{Player: p})
		if ended {
			emit(domain.EventGameEnded{Room: *r, Winner: req.Player})
		}

		ps = replacePlayer(ps, p)
		res.Before, res.Position, res.Dice = m.From, m.To, dice
		res.Turn, res.State, res.Ended = r.Turn, r.State, ended
		res.Steps = movement.TracePath(m.From, dice, r.MaxBox)
		res.Players = playerViews(ps)

		switch {
		case ended:
			res.Outcome = ok("The game already ended")
		case res.QuestionID != "":
			res.Outcome = ok("Roll dice: %d, Turn now: %s, Please answer question", dice, r.Turn)
		default:
			res.Outcome = ok("Roll dice: %d, Turn now: %s", dice, r.Turn)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

type SelectAnswerRequest struct {
	Code   string
	Player string
	Answer string
}

// SelectAnswer records the option the turn holder is leaning to, so spectators can follow.
func (s *Service) SelectAnswer(ctx context.Context, req SelectAnswerRequest) (*SelectAnswerResult, error) {
	if err := required("code", req.Code); err != nil {
		return nil, err
	}
	if err := required("player", req.Player); err != nil {
		return nil, err
	}
	if err := required("answer", req.Answer); err != nil {
		return nil, err
	}

	err := s.atomic(ctx, req.Code, func(ctx context.Context, tx Store, emit func(event.Event)) error {
		r, err := tx.Get(ctx, req.Code)
		if err != nil {
			return err
		}

		if err := s.checkAnswerable(r, req.Player); err != nil {
			return err
		}

		r.SelectedAnswer = strings.ToLower(strings.TrimSpace(req.Answer))
		r.UpdateTime = s.now()
		return tx.UpdateRoom(ctx, *r)
	})
	if err != nil {
		return nil, err
	}

	return &SelectAnswerResult{
		Outcome: ok("Answer %s selected", req.Answer),
		Code:    req.Code,
		Player:  req.Player,
		Answer:  req.Answer,
	}, nil
}

// checkAnswerable reports why player cannot answer now. Every player asking while nothing
// is pending gets NoQuestionPending, before turn ownership is considered.
func (s *Service) checkAnswerable(r *domain.Room, player string) error {
	if err := requirePlaying(r); err != nil {
		return err
	}
	if !r.AwaitingAnswer() {
		return errors.Of(errors.ReasonNoQuestionPending, "No question available!")
	}
	if r.Turn != player {
		return errors.Of(errors.ReasonNotYourTurn, "It is not your turn!")
	}

	return nil
}

type AnswerQuestionRequest struct {
	Code   string
	Player string
	Answer string
}

// AnswerQuestion settles the pending question. The turn passes on either way, then a ladder is
// climbed on a right answer and a snake is taken on a wrong one.
func (s *Service) AnswerQuestion(ctx context.Context, req AnswerQuestionRequest) (*AnswerResult, error) {
	if err := required("code", req.Code); err != nil {
		return nil, err
	}
	if err := required("player", req.Player); err != nil {
		return nil, err
	}

	res := &AnswerResult{Code: req.Code, Player: req.Player}
	err := s.atomic(ctx, req.Code, func(ctx context.Context, tx Store, emit func(event.Event)) error {
		r, err := tx.Get(ctx, req.Code)
		if err != nil {
			return err
		}

		if err := s.checkAnswerable(r, req.Player); err != nil {
			return err
		}

		ps, err := players(ctx, tx, req.Code)
		if err != nil {
			return err
		}

		p, found := findPlayer(ps, req.Player)
		if !found {
			return errors.Of(errors.ReasonInvalidInput, "Please insert correct player")
		}

		qid := r.PendingQuestionID
		correct, err := s.questions.CheckAnswer(ctx, qid, req.Answer)
		if err != nil {
			return err
		}

		r.PendingQuestionID = ""
		r.SelectedAnswer = strings.ToLower(strings.TrimSpace(req.Answer))
		r.LastAnswerCorrect = &correct
		r.Turn = nextTurn(ps, req.Player)
		r.UpdateTime = s.now()

		moved := false
		sc, isShortcut := s.board.Lookup(p.Position)
		if isShortcut {
			res.Shortcut = sc.Kind()
			take := (sc.Kind() == domain.ShortcutLadder && correct) ||
				(sc.Kind() == domain.ShortcutSnake && !correct)
			if take {
				p.Position = sc.To
				moved = true
			}
		}

		ended := p.Position == r.MaxBox
		if ended {
			r.State = domain.StateEnded
		}

		if err := tx.UpdateRoom(ctx, *r); err != nil {
			return err
		}
		if moved {
			if err := tx.UpdatePlayerPosition(ctx, req.Code, req.Player, p.Position); err != nil {
				return err
			}
		}

		emit(domain.EventQuestionAnswered{RoomCode: req.Code, Player: req.Player, QuestionID: qid, Correct: correct})
		if moved {
			emit(domain.EventPlayerMoved{Player: p})
		}
		if ended {
			emit(domain.EventGameEnded{Room: *r, Winner: req.Player})
		}

		ps = replacePlayer(ps, p)
		res.Correct, res.Position = correct, p.Position
		res.Turn, res.State, res.Ended = r.Turn, r.State, ended
		res.Players = playerViews(ps)
		res.Outcome = answerOutcome(correct, moved, res.Shortcut)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func answerOutcome(correct, moved bool, kind domain.ShortcutKind) Outcome {
	switch {
	case correct && moved:
		return ok("Congrats! Your answer is right! You got %s!", kind)
	case correct:
		return ok("Congrats! Your answer is right! You keep on your place")
	case moved:
		return ok("Awww, you got wrong answer :( You go down the %s", kind)
	default:
		return ok("Awww, you got wrong answer :( You keep on your place")
	}
}

// QueryState returns a read-only snapshot of the room.
func (s *Service) QueryState(ctx context.Context, code string) (*StateResult, error) {
	if err := required("code", code); err != nil {
		return nil, err
	}

	r, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	ps, err := players(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}

	res := &StateResult{
		Code:              code,
		State:             r.State,
		Turn:              r.Turn,
		MaxBox:            r.MaxBox,
		Topic:             r.Topic,
		Dice:              r.LastDice,
		QuestionID:        r.PendingQuestionID,
		SelectedAnswer:    r.SelectedAnswer,
		LastAnswerCorrect: r.LastAnswerCorrect,
		Players:           playerViews(ps),
	}

	if r.AwaitingAnswer() {
		q, err := s.questions.ByID(ctx, r.PendingQuestionID)
		if err != nil {
			return nil, err
		}
		res.Question = question.Public(*q)
	}

	switch {
	case r.State == domain.StateWaiting:
		res.Outcome = ok("Waiting players...")
	case r.State == domain.StateEnded:
		res.Outcome = ok("Game already ended")
	case r.AwaitingAnswer():
		res.Outcome = ok("%s's turn, please answer question", r.Turn)
	default:
		res.Outcome = ok("%s's turn", r.Turn)
	}

	return res, nil
}

func (s *Service) ListRooms(ctx context.Context) (*ListRoomsResult, error) {
	rs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	vs := make([]RoomView, 0, len(rs))
	for _, r := range rs {
		vs = append(vs, RoomView{
			Code:       r.Code,
			State:      r.State,
			Turn:       r.Turn,
			MaxBox:     r.MaxBox,
			Topic:      r.Topic,
			CreateTime: r.CreateTime,
		})
	}

	return &ListRoomsResult{Outcome: ok("%d rooms", len(vs)), Rooms: vs}, nil
}

// Moves returns the latest moves of a room, newest first. A non-positive limit means 10.
func (s *Service) Moves(ctx context.Context, code string, limit int) (*MovesResult, error) {
	if err := required("code", code); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMovesLimit
	}

	if _, err := s.repo.Get(ctx, code); err != nil {
		return nil, err
	}

	ms, err := s.repo.Moves(ctx, code, limit)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}

	vs := make([]MoveView, 0, len(ms))
	for _, m := range ms {
		vs = append(vs, MoveView{ID: m.ID, Player: m.Player, Dice: m.Dice, From: m.From, To: m.To, Time: m.Time})
	}

	return &MovesResult{Outcome: ok("%d moves", len(vs)), Code: code, Moves: vs}, nil
}

func replacePlayer(ps []domain.Player, p domain.Player) []domain.Player {
	for i := range ps {
		if ps[i].ID == p.ID {
			ps[i] = p
		}
	}

	return ps
}
