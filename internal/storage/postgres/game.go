package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
	"github.com/victornm/quizladder/internal/game"
)

type GameRepository struct {
	db *pgxpool.Pool
	*store
}

var _ game.Repository = (*GameRepository)(nil)

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{
		db:    db,
		store: &store{q: db},
	}
}

// Atomic runs fn in a transaction. Reads of the room inside fn take a row lock, so units of
// work on the same room run one after another.
func (r *GameRepository) Atomic(ctx context.Context, _ string, fn func(ctx context.Context, s game.Store) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	if err = fn(ctx, &store{q: tx, forUpdate: true}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type store struct {
	q         querier
	forUpdate bool
}

const roomColumns = `code, state, turn, question_id, max_box, topic, dice, selected_answer, answer_correct, create_time, update_time`

func scanRoom(row pgx.Row) (domain.Room, error) {
	var (
		r     domain.Room
		state string
	)
	err := row.Scan(&r.Code, &state, &r.Turn, &r.PendingQuestionID, &r.MaxBox, &r.Topic, &r.LastDice,
		&r.SelectedAnswer, &r.LastAnswerCorrect, &r.CreateTime, &r.UpdateTime)
	if err != nil {
		return domain.Room{}, err
	}

	r.State, err = domain.ParseState(state)
	return r, err
}

func (s *store) Get(ctx context.Context, code string) (*domain.Room, error) {
	stmt := `SELECT ` + roomColumns + ` FROM rooms WHERE code = $1`
	if s.forUpdate {
		stmt += ` FOR UPDATE`
	}

	r, err := scanRoom(s.q.QueryRow(ctx, stmt, code))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Of(errors.ReasonRoomNotFound, "room %s not found", code)
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}

	return &r, nil
}

func (s *store) List(ctx context.Context) ([]domain.Room, error) {
	rows, err := s.q.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY create_time, code`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	rs, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Room, error) {
		return scanRoom(r)
	})
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	return rs, nil
}

func (s *store) Players(ctx context.Context, code string) ([]domain.Player, error) {
	const stmt = `
SELECT room_code, player_id, position, color, join_order, join_time
FROM players
WHERE room_code = $1
ORDER BY join_order;`

	rows, err := s.q.Query(ctx, stmt, code)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	ps, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Player, error) {
		var p domain.Player
		err := r.Scan(&p.RoomCode, &p.ID, &p.Position, &p.Color, &p.JoinOrder, &p.JoinTime)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	return ps, nil
}

func (s *store) InsertRoom(ctx context.Context, r domain.Room) error {
	const stmt = `
INSERT INTO rooms (code, state, turn, question_id, max_box, topic, dice, selected_answer, answer_correct, create_time, update_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`

	_, err := s.q.Exec(ctx, stmt, r.Code, string(r.State), r.Turn, r.PendingQuestionID, r.MaxBox, r.Topic,
		r.LastDice, r.SelectedAnswer, r.LastAnswerCorrect, r.CreateTime, r.UpdateTime)
	if err != nil {
		return convertErr("insert room", err)
	}

	return nil
}

func (s *store) InsertPlayer(ctx context.Context, p domain.Player) error {
	const stmt = `
INSERT INTO players (room_code, player_id, position, color, join_order, join_time)
VALUES ($1, $2, $3, $4, $5, $6);`

	_, err := s.q.Exec(ctx, stmt, p.RoomCode, p.ID, p.Position, p.Color, p.JoinOrder, p.JoinTime)
	if err != nil {
		return convertErr("insert player", err)
	}

	return nil
}

func (s *store) UpdateRoom(ctx context.Context, r domain.Room) error {
	const stmt = `
UPDATE rooms
SET state = $2, turn = $3, question_id = $4, dice = $5, selected_answer = $6, answer_correct = $7, update_time = $8
WHERE code = $1;`

	tag, err := s.q.Exec(ctx, stmt, r.Code, string(r.State), r.Turn, r.PendingQuestionID, r.LastDice,
		r.SelectedAnswer, r.LastAnswerCorrect, r.UpdateTime)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Of(errors.ReasonRoomNotFound, "room %s not found", r.Code)
	}

	return nil
}

func (s *store) UpdatePlayerPosition(ctx context.Context, code, player string, pos int) error {
	const stmt = `UPDATE players SET position = $3 WHERE room_code = $1 AND player_id = $2;`

	tag, err := s.q.Exec(ctx, stmt, code, player, pos)
	if err != nil {
		return fmt.Errorf("update player position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Of(errors.ReasonInvalidInput, "player %s not in room %s", player, code)
	}

	return nil
}

func (s *store) UpdateTurn(ctx context.Context, code, turn string) error {
	const stmt = `UPDATE rooms SET turn = $2 WHERE code = $1;`

	tag, err := s.q.Exec(ctx, stmt, code, turn)
	if err != nil {
		return fmt.Errorf("update turn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Of(errors.ReasonRoomNotFound, "room %s not found", code)
	}

	return nil
}

func (s *store) InsertMove(ctx context.Context, m domain.Move) error {
	const stmt = `
INSERT INTO moves (move_id, room_code, player_id, dice, from_pos, to_pos, create_time)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err := s.q.Exec(ctx, stmt, m.ID, m.RoomCode, m.Player, m.Dice, m.From, m.To, m.Time)
	if err != nil {
		return convertErr("insert move", err)
	}

	return nil
}

func (s *store) Moves(ctx context.Context, code string, limit int) ([]domain.Move, error) {
	const stmt = `
SELECT move_id::text, room_code, player_id, dice, from_pos, to_pos, create_time
FROM moves
WHERE room_code = $1
ORDER BY create_time DESC, move_id DESC
LIMIT $2;`

	rows, err := s.q.Query(ctx, stmt, code, limit)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}

	ms, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Move, error) {
		var m domain.Move
		err := r.Scan(&m.ID, &m.RoomCode, &m.Player, &m.Dice, &m.From, &m.To, &m.Time)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}

	return ms, nil
}
