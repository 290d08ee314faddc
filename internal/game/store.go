package game

import (
	"context"

	"github.com/victornm/quizladder/internal/domain"
)

// Store reads and writes rooms, players and moves. Get reports a missing room with
// errors.ReasonRoomNotFound and InsertRoom reports a taken code with errors.CodeAlreadyExists.
// Players are returned in join order.
type Store interface {
	Get(ctx context.Context, code string) (*domain.Room, error)
	List(ctx context.Context) ([]domain.Room, error)
	Players(ctx context.Context, code string) ([]domain.Player, error)
	InsertRoom(ctx context.Context, r domain.Room) error
	InsertPlayer(ctx context.Context, p domain.Player) error
	UpdateRoom(ctx context.Context, r domain.Room) error
	UpdatePlayerPosition(ctx context.Context, code, player string, pos int) error
	UpdateTurn(ctx context.Context, code, turn string) error
	InsertMove(ctx context.Context, m domain.Move) error
	// Moves returns the newest moves first.
	Moves(ctx context.Context, code string, limit int) ([]domain.Move, error)
}

// Repository is a Store that can run a read-modify-write on one room as a single unit.
// While fn runs no other Atomic call for the same code makes progress, and when fn returns
// an error none of its writes are kept.
type Repository interface {
	Store
	Atomic(ctx context.Context, code string, fn func(ctx context.Context, s Store) error) error
}
