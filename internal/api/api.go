package api

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/victornm/quizladder/internal/board"
	"github.com/victornm/quizladder/internal/game"
	"github.com/victornm/quizladder/internal/question"
	"github.com/victornm/quizladder/internal/standings"
)

type Config struct {
	GRPC      *grpc.Server
	HTTP      gin.IRouter
	Game      *game.Service
	Questions *question.Service
	Board     *board.Board
	// Standings is optional, its routes answer 404 when it is nil.
	Standings *standings.Service
	// RateLimit is the allowed requests per second on /api, zero disables the limiter.
	RateLimit    float64
	AllowOrigins []string
}

type API struct {
	gs *game.Service
	qs *question.Service
	bd *board.Board
	st *standings.Service
}

func New(c Config) *API {
	a := &API{
		gs: c.Game,
		qs: c.Questions,
		bd: c.Board,
		st: c.Standings,
	}

	if c.GRPC != nil {
		RegisterGameServiceServer(c.GRPC, a)
	}

	if c.HTTP != nil {
		a.registerHTTP(c.HTTP, c)
	}

	return a
}

// toStruct renders a result with its JSON field names.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}

	m := make(map[string]any)
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal %T: %w", v, err)
	}

	return structpb.NewStruct(m)
}

// fromStruct decodes a request message into v using v's JSON tags.
func fromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}

	b, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	return json.Unmarshal(b, v)
}
