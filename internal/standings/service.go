package standings

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
	"github.com/victornm/quizladder/internal/event"
)

// endedTTL is how long the standings of a finished room stay readable.
const endedTTL = time.Hour

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
}

// Service keeps a sorted set of player positions per room, fed by game events.
type Service struct {
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	// Positions are overwritten, so the handlers share one worker and apply events in publish order.
	ordered := event.WithPool(event.NewPool(1))

	c.EventBus.Subscribe(domain.EventNameRoomCreated, func(ctx context.Context, e event.Event) error {
		return s.TrackRoom(ctx, e.(domain.EventRoomCreated).Room)
	}, ordered)
	c.EventBus.Subscribe(domain.EventNamePlayerJoined, func(ctx context.Context, e event.Event) error {
		return s.UpdatePosition(ctx, e.(domain.EventPlayerJoined).Player)
	}, ordered)
	c.EventBus.Subscribe(domain.EventNamePlayerMoved, func(ctx context.Context, e event.Event) error {
		return s.UpdatePosition(ctx, e.(domain.EventPlayerMoved).Player)
	}, ordered)
	c.EventBus.Subscribe(domain.EventNameGameEnded, func(ctx context.Context, e event.Event) error {
		return s.Expire(ctx, e.(domain.EventGameEnded).Room.Code)
	}, ordered)

	return s
}

// TrackRoom remembers the board size used to compute progress.
func (s *Service) TrackRoom(ctx context.Context, r domain.Room) error {
	if err := s.redis.Set(ctx, s.getMaxBoxKey(r.Code), r.MaxBox, 0).Err(); err != nil {
		return fmt.Errorf("track room: %w", err)
	}

	return nil
}

// UpdatePosition overwrites the player's position in the room standings.
func (s *Service) UpdatePosition(ctx context.Context, p domain.Player) error {
	if err := s.redis.ZAdd(ctx, s.getStandingsKey(p.RoomCode), redis.Z{
		Score:  float64(p.Position),
		Member: p.ID,
	}).Err(); err != nil {
		return fmt.Errorf("update standings: %w", err)
	}

	return nil
}

// Expire keeps the standings of an ended room for a while before dropping them.
func (s *Service) Expire(ctx context.Context, code string) error {
	_, err := s.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Expire(ctx, s.getStandingsKey(code), endedTTL)
		p.Expire(ctx, s.getMaxBoxKey(code), endedTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("expire standings: %w", err)
	}

	return nil
}

type GetStandingsRequest struct {
	RoomCode string
}

// GetStandings returns the players of a room, furthest first.
func (s *Service) GetStandings(ctx context.Context, req GetStandingsRequest) (*domain.Standings, error) {
	res, err := s.redis.ZRevRangeWithScores(ctx, s.getStandingsKey(req.RoomCode), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get standings: %w", err)
	}

	if len(res) == 0 {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithReason(errors.ReasonRoomNotFound),
			errors.WithMessagef("standings not found: room=%s", req.RoomCode))
	}

	maxBox, err := s.maxBox(ctx, req.RoomCode)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.StandingsEntry, 0, len(res))
	for _, z := range res {
		pos := int(z.Score)
		entries = append(entries, domain.StandingsEntry{
			Player:   z.Member.(string),
			Position: pos,
			Progress: progress(pos, maxBox),
		})
	}

	return &domain.Standings{
		RoomCode: req.RoomCode,
		Entries:  entries,
	}, nil
}

func (s *Service) maxBox(ctx context.Context, code string) (int, error) {
	v, err := s.redis.Get(ctx, s.getMaxBoxKey(code)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get max box: %w", err)
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse max box %q: %w", v, err)
	}

	return n, nil
}

// progress is pos out of maxBox in percent, rounded to two places. Unknown boards report zero.
func progress(pos, maxBox int) decimal.Decimal {
	if maxBox <= 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(pos)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(maxBox))).
		Round(2)
}

func (s *Service) getStandingsKey(code string) string {
	return fmt.Sprintf("%s:%s:standings", s.prefix, code)
}

func (s *Service) getMaxBoxKey(code string) string {
	return fmt.Sprintf("%s:%s:maxbox", s.prefix, code)
}
