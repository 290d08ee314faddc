package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
	"github.com/victornm/quizladder/internal/game"
)

type roomData struct {
	room    domain.Room
	players []domain.Player
	moves   []domain.Move
}

func (d *roomData) clone() *roomData {
	c := &roomData{
		room:    d.room,
		players: slices.Clone(d.players),
		moves:   slices.Clone(d.moves),
	}
	if d.room.LastAnswerCorrect != nil {
		v := *d.room.LastAnswerCorrect
		c.room.LastAnswerCorrect = &v
	}

	return c
}

// GameRepository is a game.Repository backed by maps. Atomic holds a per-room lock and works
// on a copy of the room, which replaces the stored one only when fn succeeds.
type GameRepository struct {
	mu    sync.RWMutex
	rooms map[string]*roomData
	order []string

	locksMu sync.Mutex
	locks   map[string]*roomLock
}

// roomLock is dropped from the map once nobody holds or waits for it.
type roomLock struct {
	sync.Mutex
	refs int
}

var _ game.Repository = (*GameRepository)(nil)

func NewGameRepository() *GameRepository {
	return &GameRepository{
		rooms: make(map[string]*roomData),
		locks: make(map[string]*roomLock),
	}
}

func (r *GameRepository) lock(code string) *roomLock {
	r.locksMu.Lock()
	l, ok := r.locks[code]
	if !ok {
		l = &roomLock{}
		r.locks[code] = l
	}
	l.refs++
	r.locksMu.Unlock()

	l.Lock()
	return l
}

func (r *GameRepository) unlock(code string, l *roomLock) {
	l.Unlock()

	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(r.locks, code)
	}
}

func (r *GameRepository) Atomic(ctx context.Context, code string, fn func(ctx context.Context, s game.Store) error) error {
	l := r.lock(code)
	defer r.unlock(code, l)

	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	var staged *roomData
	if d, ok := r.rooms[code]; ok {
		staged = d.clone()
	}
	r.mu.RUnlock()

	tx := &txStore{repo: r, code: code, data: staged}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	if tx.data == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[code]; !ok {
		r.order = append(r.order, code)
	}
	r.rooms[code] = tx.data
	return nil
}

func (r *GameRepository) read(code string) (*roomData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.rooms[code]
	if !ok {
		return nil, errors.Of(errors.ReasonRoomNotFound, "room %s not found", code)
	}

	return d.clone(), nil
}

func (r *GameRepository) Get(_ context.Context, code string) (*domain.Room, error) {
	d, err := r.read(code)
	if err != nil {
		return nil, err
	}

	return &d.room, nil
}

func (r *GameRepository) List(_ context.Context) ([]domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs := make([]domain.Room, 0, len(r.order))
	for _, code := range r.order {
		rs = append(rs, r.rooms[code].clone().room)
	}

	return rs, nil
}

func (r *GameRepository) Players(_ context.Context, code string) ([]domain.Player, error) {
	d, err := r.read(code)
	if err != nil {
		return nil, err
	}

	return d.players, nil
}

func (r *GameRepository) Moves(_ context.Context, code string, limit int) ([]domain.Move, error) {
	d, err := r.read(code)
	if err != nil {
		return nil, err
	}

	return latest(d.moves, limit), nil
}

// Writes outside Atomic run as their own single-statement unit.

func (r *GameRepository) InsertRoom(ctx context.Context, room domain.Room) error {
	return r.Atomic(ctx, room.Code, func(ctx context.Context, s game.Store) error {
		return s.InsertRoom(ctx, room)
	})
}

func (r *GameRepository) InsertPlayer(ctx context.Context, p domain.Player) error {
	return r.Atomic(ctx, p.RoomCode, func(ctx context.Context, s game.Store) error {
		return s.InsertPlayer(ctx, p)
	})
}

func (r *GameRepository) UpdateRoom(ctx context.Context, room domain.Room) error {
	return r.Atomic(ctx, room.Code, func(ctx context.Context, s game.Store) error {
		return s.UpdateRoom(ctx, room)
	})
}

func (r *GameRepository) UpdatePlayerPosition(ctx context.Context, code, player string, pos int) error {
	return r.Atomic(ctx, code, func(ctx context.Context, s game.Store) error {
		return s.UpdatePlayerPosition(ctx, code, player, pos)
	})
}

func (r *GameRepository) UpdateTurn(ctx context.Context, code, turn string) error {
	return r.Atomic(ctx, code, func(ctx context.Context, s game.Store) error {
		return s.UpdateTurn(ctx, code, turn)
	})
}

func (r *GameRepository) InsertMove(ctx context.Context, m domain.Move) error {
	return r.Atomic(ctx, m.RoomCode, func(ctx context.Context, s game.Store) error {
		return s.InsertMove(ctx, m)
	})
}

// txStore is the view of one room inside Atomic. data is nil until the room exists.
type txStore struct {
	repo *GameRepository
	code string
	data *roomData
}

func (t *txStore) room(code string) (*roomData, error) {
	if code != t.code {
		return nil, errors.Internal(fmt.Errorf("room %s accessed in unit of work for %s", code, t.code))
	}
	if t.data == nil {
		return nil, errors.Of(errors.ReasonRoomNotFound, "room %s not found", code)
	}

	return t.data, nil
}

func (t *txStore) Get(_ context.Context, code string) (*domain.Room, error) {
	d, err := t.room(code)
	if err != nil {
		return nil, err
	}

	room := d.clone().room
	return &room, nil
}

func (t *txStore) List(ctx context.Context) ([]domain.Room, error) {
	rs, err := t.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if t.data != nil {
		i := slices.IndexFunc(rs, func(r domain.Room) bool { return r.Code == t.code })
		if i < 0 {
			rs = append(rs, t.data.room)
		} else {
			rs[i] = t.data.room
		}
	}

	return rs, nil
}

func (t *txStore) Players(_ context.Context, code string) ([]domain.Player, error) {
	d, err := t.room(code)
	if err != nil {
		return nil, err
	}

	return slices.Clone(d.players), nil
}

func (t *txStore) Moves(_ context.Context, code string, limit int) ([]domain.Move, error) {
	d, err := t.room(code)
	if err != nil {
		return nil, err
	}

	return latest(d.moves, limit), nil
}

func (t *txStore) InsertRoom(_ context.Context, room domain.Room) error {
	if room.Code != t.code {
		return errors.Of(errors.ReasonInvalidInput, "room code %s does not match %s", room.Code, t.code)
	}
	if t.data != nil {
		return errors.New(errors.CodeAlreadyExists, errors.WithMessagef("room %s already exists", room.Code))
	}

	t.data = &roomData{room: room}
	return nil
}

func (t *txStore) InsertPlayer(_ context.Context, p domain.Player) error {
	d, err := t.room(p.RoomCode)
	if err != nil {
		return err
	}

	if slices.ContainsFunc(d.players, func(x domain.Player) bool { return x.ID == p.ID }) {
		return errors.New(errors.CodeAlreadyExists, errors.WithMessagef("player %s already in room %s", p.ID, p.RoomCode))
	}

	d.players = append(d.players, p)
	return nil
}

func (t *txStore) UpdateRoom(_ context.Context, room domain.Room) error {
	d, err := t.room(room.Code)
	if err != nil {
		return err
	}

	d.room = room
	return nil
}

func (t *txStore) UpdatePlayerPosition(_ context.Context, code, player string, pos int) error {
	d, err := t.room(code)
	if err != nil {
		return err
	}

	i := slices.IndexFunc(d.players, func(p domain.Player) bool { return p.ID == player })
	if i < 0 {
		return errors.Of(errors.ReasonInvalidInput, "player %s not in room %s", player, code)
	}

	d.players[i].Position = pos
	return nil
}

func (t *txStore) UpdateTurn(_ context.Context, code, turn string) error {
	d, err := t.room(code)
	if err != nil {
		return err
	}

	d.room.Turn = turn
	return nil
}

func (t *txStore) InsertMove(_ context.Context, m domain.Move) error {
	d, err := t.room(m.RoomCode)
	if err != nil {
		return err
	}

	d.moves = append(d.moves, m)
	return nil
}

// latest returns up to limit moves, newest first.
func latest(ms []domain.Move, limit int) []domain.Move {
	out := slices.Clone(ms)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}
