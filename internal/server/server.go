package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/victornm/quizladder/internal/api"
	"github.com/victornm/quizladder/internal/board"
	"github.com/victornm/quizladder/internal/event"
	"github.com/victornm/quizladder/internal/game"
	"github.com/victornm/quizladder/internal/question"
	"github.com/victornm/quizladder/internal/standings"
	"github.com/victornm/quizladder/internal/storage/memory"
	"github.com/victornm/quizladder/internal/storage/postgres"
	"github.com/victornm/quizladder/internal/telemetry"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTP struct {
		Port         int32
		RateLimit    float64
		AllowOrigins []string
	}

	GRPC struct {
		Port int32
	}

	Storage struct {
		Driver string
	}

	Postgres struct {
		Addr string
		User string
		Pass string
		Name string
	}

	Redis struct {
		Standings struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Board board.Config

	Game struct {
		DefaultTopic string
		CodeLength   int
		// Seed makes dice and question draws reproducible, zero seeds from the runtime.
		Seed uint64
	}

	Log struct {
		Level string
	}
}

// DefaultConfig is merged under the config file.
func DefaultConfig() Config {
	var c Config
	c.HTTP.Port = 8080
	c.GRPC.Port = 8081
	c.Storage.Driver = StorageMemory
	c.Redis.Standings.Prefix = "quizladder"
	c.Board.MaxBox = board.DefaultMaxBox
	c.Game.CodeLength = 4
	c.Log.Level = "info"
	return c
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			standings redis.UniversalClient
		}

		postgres *pgxpool.Pool
	}

	repo struct {
		game      game.Repository
		questions question.Store
	}

	service struct {
		questions *question.Service
		game      *game.Service
		standings *standings.Service
	}

	board *board.Board

	health *health.Server
	http   *http.Server
	grpc   *grpc.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	b, err := board.FromConfig(c.Board)
	if err != nil {
		return nil, fmt.Errorf("server: board: %w", err)
	}
	s.board = b

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.eb = event.NewBus()
	telemetry.NewGameMetrics(prometheus.DefaultRegisterer, s.eb)

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if len(s.c.Redis.Standings.Addrs) > 0 {
		if err := s.initRedis(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}

	switch s.c.Storage.Driver {
	case StoragePostgres:
		if err := s.initPostgres(); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		s.repo.game = postgres.NewGameRepository(s.infra.postgres)
		s.repo.questions = postgres.NewQuestionStore(s.infra.postgres)
	case StorageMemory, "":
		s.repo.game = memory.NewGameRepository()
		s.repo.questions = memory.NewQuestionStore(question.Samples...)
	default:
		return fmt.Errorf("unknown storage driver %q", s.c.Storage.Driver)
	}

	return nil
}

func (s *Server) initRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Standings.Addrs,
		Password: s.c.Redis.Standings.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("standings: %w", err)
	}

	s.infra.redis.standings = r
	return nil
}

func (s *Server) initPostgres() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p := s.c.Postgres
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s", p.User, p.Pass, p.Addr, p.Name)

	if err := postgres.Migrate(ctx, dsn); err != nil {
		return err
	}

	cc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return err
	}

	s.infra.postgres = db
	return nil
}

func (s *Server) initService() {
	rnd := newRand(s.c.Game.Seed)

	s.service.questions = question.NewService(question.Config{
		Store: s.repo.questions,
		Rand:  rnd,
	})

	s.service.game = game.NewService(game.Config{
		Repository:   s.repo.game,
		Questions:    s.service.questions,
		Board:        s.board,
		EventBus:     s.eb,
		Rand:         rnd,
		DefaultTopic: s.c.Game.DefaultTopic,
		CodeLength:   s.c.Game.CodeLength,
	})

	if s.infra.redis.standings != nil {
		s.service.standings = standings.NewService(standings.Config{
			EventBus: s.eb,
			Redis:    s.infra.redis.standings,
			Prefix:   s.c.Redis.Standings.Prefix,
		})
	}
}

func (s *Server) initAPI() {
	e := gin.New()
	e.Use(gin.Recovery(), telemetry.HTTPMetrics(prometheus.DefaultRegisterer))
	if gin.Mode() == gin.DebugMode {
		e.Use(gin.Logger())
	}
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	e.GET("/healthz", api.Healthz)
	pprof.Register(e, "/debug/pprof")

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptor())
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpc, s.health)

	api.New(api.Config{
		GRPC:         s.grpc,
		HTTP:         e,
		Game:         s.service.game,
		Questions:    s.service.questions,
		Board:        s.board,
		Standings:    s.service.standings,
		RateLimit:    s.c.HTTP.RateLimit,
		AllowOrigins: s.c.HTTP.AllowOrigins,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	if s.infra.redis.standings != nil {
		if err := s.infra.redis.standings.Close(); err != nil {
			slog.ErrorContext(ctx, "server: close redis failed", "error", err)
		}
	}
	if s.infra.postgres != nil {
		s.infra.postgres.Close()
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
