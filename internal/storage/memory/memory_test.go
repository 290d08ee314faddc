package memory_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
	"github.com/victornm/quizladder/internal/game"
	"github.com/victornm/quizladder/internal/question"
	"github.com/victornm/quizladder/internal/storage/memory"
)

func seedRoom(t *testing.T, repo *memory.GameRepository, code string, players ...string) {
	t.Helper()

	err := repo.Atomic(context.Background(), code, func(ctx context.Context, s game.Store) error {
		if err := s.InsertRoom(ctx, domain.Room{Code: code, State: domain.StateWaiting, MaxBox: 28}); err != nil {
			return err
		}
		for i, p := range players {
			if err := s.InsertPlayer(ctx, domain.Player{RoomCode: code, ID: p, JoinOrder: i}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestGameRepository_Get(t *testing.T) {
	repo := memory.NewGameRepository()
	seedRoom(t, repo, "ABCD", "alice")

	r, err := repo.Get(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Equal(t, domain.StateWaiting, r.State)

	_, err = repo.Get(context.Background(), "ZZZZ")
	assert.Equal(t, errors.ReasonRoomNotFound, errors.ReasonOf(err))
}

func TestGameRepository_InsertRoomTwice(t *testing.T) {
	repo := memory.NewGameRepository()
	seedRoom(t, repo, "ABCD")

	err := repo.InsertRoom(context.Background(), domain.Room{Code: "ABCD"})
	assert.ErrorIs(t, err, errors.New(errors.CodeAlreadyExists))
}

func TestGameRepository_AtomicDiscardsWritesOnError(t *testing.T) {
	repo := memory.NewGameRepository()
	seedRoom(t, repo, "ABCD", "alice", "bob")

	boom := stderrors.New("boom")
	err := repo.Atomic(context.Background(), "ABCD", func(ctx context.Context, s game.Store) error {
		require.NoError(t, s.UpdatePlayerPosition(ctx, "ABCD", "alice", 7))
		require.NoError(t, s.UpdateTurn(ctx, "ABCD", "bob"))
		require.NoError(t, s.InsertMove(ctx, domain.Move{ID: "m1", RoomCode: "ABCD", Player: "alice"}))

		// Reads inside the unit see its own writes.
		ps, err := s.Players(ctx, "ABCD")
		require.NoError(t, err)
		assert.Equal(t, 7, ps[0].Position)

		return boom
	})
	require.ErrorIs(t, err, boom)

	ps, err := repo.Players(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Equal(t, 0, ps[0].Position)

	r, err := repo.Get(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Empty(t, r.Turn)

	ms, err := repo.Moves(context.Background(), "ABCD", 10)
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestGameRepository_AtomicSerializesRoom(t *testing.T) {
	repo := memory.NewGameRepository()
	seedRoom(t, repo, "ABCD", "alice")

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Atomic(context.Background(), "ABCD", func(ctx context.Context, s game.Store) error {
				ps, err := s.Players(ctx, "ABCD")
				if err != nil {
					return err
				}
				return s.UpdatePlayerPosition(ctx, "ABCD", "alice", ps[0].Position+1)
			})
		}()
	}
	wg.Wait()

	ps, err := repo.Players(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Equal(t, n, ps[0].Position)
}

func TestGameRepository_AtomicReleasesLocks(t *testing.T) {
	repo := memory.NewGameRepository()
	seedRoom(t, repo, "ABCD", "alice")

	var wg sync.WaitGroup
	for i := range 200 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = repo.Atomic(context.Background(), fmt.Sprintf("Z%03d", i), func(ctx context.Context, s game.Store) error {
				_, err := s.Get(ctx, fmt.Sprintf("Z%03d", i))
				return err
			})
		}()
		go func() {
			defer wg.Done()
			_ = repo.Atomic(context.Background(), "ABCD", func(ctx context.Context, s game.Store) error {
				return s.UpdateTurn(ctx, "ABCD", "alice")
			})
		}()
	}
	wg.Wait()

	assert.Zero(t, repo.HeldLocks(), "lookups of unknown rooms must not grow the lock table")

	_, err := repo.Get(context.Background(), "Z000")
	assert.Equal(t, errors.ReasonRoomNotFound, errors.ReasonOf(err))
}

func TestGameRepository_Moves(t *testing.T) {
	repo := memory.NewGameRepository()
	seedRoom(t, repo, "ABCD", "alice")

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, repo.InsertMove(context.Background(), domain.Move{ID: id, RoomCode: "ABCD"}))
	}

	ms, err := repo.Moves(context.Background(), "ABCD", 2)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "m3", ms[0].ID)
	assert.Equal(t, "m2", ms[1].ID)
}

func TestGameRepository_List(t *testing.T) {
	repo := memory.NewGameRepository()
	seedRoom(t, repo, "AAAA")
	seedRoom(t, repo, "BBBB")

	rs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "AAAA", rs[0].Code)
	assert.Equal(t, "BBBB", rs[1].Code)
}

func TestQuestionStore(t *testing.T) {
	ctx := context.Background()
	s := memory.NewQuestionStore(question.Samples...)

	qs, err := s.ByTopic(ctx, "fizik")
	require.NoError(t, err)
	assert.Len(t, qs, 4)

	q, err := s.ByID(ctx, "8")
	require.NoError(t, err)
	assert.Equal(t, "a4", q.Answer)

	err = s.Insert(ctx, domain.Question{ID: "8"})
	assert.ErrorIs(t, err, errors.New(errors.CodeAlreadyExists))

	require.NoError(t, s.Delete(ctx, "8"))
	_, err = s.ByID(ctx, "8")
	assert.Equal(t, errors.ReasonQuestionNotFound, errors.ReasonOf(err))

	err = s.Update(ctx, domain.Question{ID: "8"})
	assert.Equal(t, errors.ReasonQuestionNotFound, errors.ReasonOf(err))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(question.Samples)-1)
}
