package domain

const (
	EventNameRoomCreated      = "room.created"
	EventNamePlayerJoined     = "player.joined"
	EventNameGameStarted      = "game.started"
	EventNameDiceRolled       = "dice.rolled"
	EventNameQuestionAnswered = "question.answered"
	EventNamePlayerMoved      = "player.moved"
	EventNameGameEnded        = "game.ended"
)

type EventRoomCreated struct {
	Room Room
}

func (EventRoomCreated) Name() string { return EventNameRoomCreated }

type EventPlayerJoined struct {
	Player Player
}

func (EventPlayerJoined) Name() string { return EventNamePlayerJoined }

type EventGameStarted struct {
	Room Room
}

func (EventGameStarted) Name() string { return EventNameGameStarted }

type EventDiceRolled struct {
	Move Move
	// QuestionID is set when the move landed on a shortcut origin.
	QuestionID string
}

func (EventDiceRolled) Name() string { return EventNameDiceRolled }

type EventQuestionAnswered struct {
	RoomCode   string
	Player     string
	QuestionID string
	Correct    bool
}

func (EventQuestionAnswered) Name() string { return EventNameQuestionAnswered }

// EventPlayerMoved is published whenever a player's resting square changes.
type EventPlayerMoved struct {
	Player Player
}

func (EventPlayerMoved) Name() string { return EventNamePlayerMoved }

type EventGameEnded struct {
	Room   Room
	Winner string
}

func (EventGameEnded) Name() string { return EventNameGameEnded }
