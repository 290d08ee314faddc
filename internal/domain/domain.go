package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// State is the lifecycle stage of a room. It only moves forward: Waiting, Playing, Ended.
type State string

const (
	StateWaiting State = "waiting"
	StatePlaying State = "playing"
	StateEnded   State = "ended"
)

// ParseState converts a stored state value. Unknown values are rejected instead of being
// treated as a catch-all state.
func ParseState(s string) (State, error) {
	switch st := State(s); st {
	case StateWaiting, StatePlaying, StateEnded:
		return st, nil
	}

	return "", fmt.Errorf("unknown room state %q", s)
}

// Room is one independent game session.
type Room struct {
	Code  string
	State State
	// Turn is the player whose action is awaited, empty when there are no players.
	Turn string
	// PendingQuestionID is set while Turn owes an answer; rolling is blocked until it clears.
	PendingQuestionID string
	MaxBox            int
	Topic             string
	LastDice          int
	// SelectedAnswer is the option the turn holder highlighted before submitting.
	SelectedAnswer    string
	LastAnswerCorrect *bool
	CreateTime        time.Time
	UpdateTime        time.Time
}

// AwaitingAnswer reports whether the room is blocked on the turn holder's answer.
func (r Room) AwaitingAnswer() bool {
	return r.PendingQuestionID != ""
}

type Player struct {
	RoomCode string
	ID       string
	Position int
	Color    string
	// JoinOrder defines the turn rotation.
	JoinOrder int
	JoinTime  time.Time
}

// Question options are keyed a1..a4 and Answer holds the key of the correct one.
type Question struct {
	ID      string
	Topic   string
	Text    string
	Options [4]string
	Answer  string
}

// OptionKeys are the answer keys in display order.
var OptionKeys = [4]string{"a1", "a2", "a3", "a4"}

// Move is one dice roll recorded in a room's history.
type Move struct {
	ID       string
	RoomCode string
	Player   string
	Dice     int
	From     int
	To       int
	Time     time.Time
}

type ShortcutKind string

const (
	ShortcutLadder ShortcutKind = "ladder"
	ShortcutSnake  ShortcutKind = "snake"
)

// Shortcut moves a player from one square to another after a trivia check.
type Shortcut struct {
	From int
	To   int
}

func (s Shortcut) Kind() ShortcutKind {
	if s.To > s.From {
		return ShortcutLadder
	}

	return ShortcutSnake
}

// Standings ranks the players of a room by board position, furthest first.
type Standings struct {
	RoomCode string
	Entries  []StandingsEntry
}

type StandingsEntry struct {
	Player   string
	Position int
	// Progress is the share of the board covered, in percent.
	Progress decimal.Decimal
}
