package game

import (
	"fmt"
	"time"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
	"github.com/victornm/quizladder/internal/question"
)

type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Outcome is the part shared by every result. Transports serialize results as they are.
type Outcome struct {
	Status  Status        `json:"status"`
	Message string        `json:"message"`
	Reason  errors.Reason `json:"reason,omitempty"`
}

func ok(format string, args ...any) Outcome {
	return Outcome{Status: StatusOK, Message: fmt.Sprintf(format, args...)}
}

// Failure renders err in the result shape. Errors without a reason are reported as internal
// so storage details do not leak to callers.
func Failure(err error) Outcome {
	e := errors.Convert(err)
	if e.Reason == "" && e.Code == errors.CodeInternal {
		return Outcome{Status: StatusError, Message: "internal error"}
	}

	return Outcome{Status: StatusError, Message: e.Message, Reason: e.Reason}
}

type PlayerView struct {
	ID       string `json:"player"`
	Position int    `json:"pos"`
	Color    string `json:"color"`
}

func playerViews(ps []domain.Player) []PlayerView {
	vs := make([]PlayerView, 0, len(ps))
	for _, p := range ps {
		vs = append(vs, PlayerView{ID: p.ID, Position: p.Position, Color: p.Color})
	}

	return vs
}

type CreateRoomResult struct {
	Outcome
	Code     string       `json:"code"`
	Player   string       `json:"player"`
	Color    string       `json:"color"`
	State    domain.State `json:"state"`
	Position int          `json:"pos"`
	MaxBox   int          `json:"max_box"`
	Topic    string       `json:"topic"`
}

// JoinKind tells apart the ways a join request can be answered.
type JoinKind string

const (
	JoinKindJoined   JoinKind = "joined"
	JoinKindAlready  JoinKind = "already_joined"
	JoinKindRejoin   JoinKind = "rejoin"
	JoinKindSpectate JoinKind = "spectate"
	JoinKindEnded    JoinKind = "ended"
)

type JoinRoomResult struct {
	Outcome
	Code   string       `json:"code"`
	Player string       `json:"player"`
	State  domain.State `json:"state"`
	Kind   JoinKind     `json:"kind"`
}

type SpectateResult struct {
	Outcome
	Code    string       `json:"code"`
	State   domain.State `json:"state"`
	Players []PlayerView `json:"players"`
}

type StartGameResult struct {
	Outcome
	Code    string       `json:"code"`
	State   domain.State `json:"state"`
	Turn    string       `json:"turn"`
	Players []PlayerView `json:"players"`
}

type RollDiceResult struct {
	Outcome
	Code       string         `json:"code"`
	Player     string         `json:"player"`
	Before     int            `json:"beforepos"`
	Position   int            `json:"pos"`
	Dice       int            `json:"dice"`
	Turn       string         `json:"turn"`
	Question   *question.View `json:"question,omitempty"`
	QuestionID string         `json:"questionid"`
	State      domain.State   `json:"state"`
	Ended      bool           `json:"ended"`
	Steps      []int          `json:"steps"`
	Players    []PlayerView   `json:"players"`
}

type SelectAnswerResult struct {
	Outcome
	Code   string `json:"code"`
	Player string `json:"player"`
	Answer string `json:"answer"`
}

type AnswerResult struct {
	Outcome
	Code     string              `json:"code"`
	Player   string              `json:"player"`
	Correct  bool                `json:"answer"`
	Position int                 `json:"pos"`
	Shortcut domain.ShortcutKind `json:"ladderorsnake,omitempty"`
	Turn     string              `json:"turn"`
	State    domain.State        `json:"state"`
	Ended    bool                `json:"ended"`
	Players  []PlayerView        `json:"players"`
}

type EndGameResult struct {
	Outcome
	Code  string       `json:"code"`
	State domain.State `json:"state"`
}

type StateResult struct {
	Outcome
	Code              string         `json:"code"`
	State             domain.State   `json:"state"`
	Turn              string         `json:"turn"`
	MaxBox            int            `json:"max_box"`
	Topic             string         `json:"topic"`
	Dice              int            `json:"dice"`
	Question          *question.View `json:"question,omitempty"`
	QuestionID        string         `json:"questionid"`
	SelectedAnswer    string         `json:"selectedanswer,omitempty"`
	LastAnswerCorrect *bool          `json:"answercorrect,omitempty"`
	Players           []PlayerView   `json:"players"`
}

type RoomView struct {
	Code       string       `json:"code"`
	State      domain.State `json:"state"`
	Turn       string       `json:"turn"`
	MaxBox     int          `json:"max_box"`
	Topic      string       `json:"topic"`
	CreateTime time.Time    `json:"create_time"`
}

type ListRoomsResult struct {
	Outcome
	Rooms []RoomView `json:"rooms"`
}

type MoveView struct {
	ID     string    `json:"id"`
	Player string    `json:"player"`
	Dice   int       `json:"dice"`
	From   int       `json:"from"`
	To     int       `json:"pos"`
	Time   time.Time `json:"time"`
}

type MovesResult struct {
	Outcome
	Code  string     `json:"code"`
	Moves []MoveView `json:"moves"`
}
