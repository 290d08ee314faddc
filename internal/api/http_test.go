package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizladder/internal/api"
	"github.com/victornm/quizladder/internal/board"
	"github.com/victornm/quizladder/internal/event"
	"github.com/victornm/quizladder/internal/game"
	"github.com/victornm/quizladder/internal/question"
	"github.com/victornm/quizladder/internal/standings"
	"github.com/victornm/quizladder/internal/storage/memory"
)

// scriptRand plays back queued dice faces and answers 0 to every other draw, so room codes
// are "AAAA" and the first question of a topic is picked.
type scriptRand struct {
	dice []int
}

func (r *scriptRand) IntN(n int) int {
	if n == 6 && len(r.dice) > 0 {
		d := r.dice[0]
		r.dice = r.dice[1:]
		return d - 1
	}

	return 0
}

type fixture struct {
	rnd *scriptRand
	bus *event.Bus
	gs  *game.Service
	qs  *question.Service
	bd  *board.Board
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		rnd: &scriptRand{},
		bus: event.NewBus(),
		bd:  board.Default(),
	}
	t.Cleanup(f.bus.Stop)

	f.qs = question.NewService(question.Config{
		Store: memory.NewQuestionStore(question.Samples...),
		Rand:  f.rnd,
	})
	f.gs = game.NewService(game.Config{
		Repository: memory.NewGameRepository(),
		Questions:  f.qs,
		Board:      f.bd,
		EventBus:   f.bus,
		Rand:       f.rnd,
	})

	return f
}

func makeHTTP(t *testing.T, opts ...func(*fixture, *api.Config)) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newFixture(t)
	e := gin.New()

	c := api.Config{
		HTTP:      e,
		Game:      f.gs,
		Questions: f.qs,
		Board:     f.bd,
	}
	for _, opt := range opts {
		opt(f, &c)
	}
	api.New(c)

	return e, f
}

func do(t *testing.T, e http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	out := make(map[string]any)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestHTTP_GameFlow(t *testing.T) {
	e, f := makeHTTP(t)

	code, res := do(t, e, http.MethodPost, "/api/rooms", map[string]any{"player": "alice", "color": "red"})
	require.Equal(t, http.StatusOK, code, res)
	require.Equal(t, "AAAA", res["code"])
	assert.Equal(t, "waiting", res["state"])

	code, res = do(t, e, http.MethodPost, "/api/rooms/AAAA/join", map[string]any{"player": "bob"})
	require.Equal(t, http.StatusOK, code, res)
	assert.Equal(t, "joined", res["kind"])

	code, res = do(t, e, http.MethodPost, "/api/rooms/AAAA/start", nil)
	require.Equal(t, http.StatusOK, code, res)
	assert.Equal(t, "alice", res["turn"])

	f.rnd.dice = []int{3}
	code, res = do(t, e, http.MethodPost, "/api/rooms/AAAA/roll", map[string]any{"player": "alice"})
	require.Equal(t, http.StatusOK, code, res)
	assert.EqualValues(t, 3, res["pos"])
	assert.Equal(t, "5", res["questionid"])
	assert.Equal(t, "alice", res["turn"])

	code, res = do(t, e, http.MethodGet, "/api/rooms/AAAA", nil)
	require.Equal(t, http.StatusOK, code, res)
	assert.Equal(t, "alice's turn, please answer question", res["message"])

	code, res = do(t, e, http.MethodPost, "/api/rooms/AAAA/select", map[string]any{"player": "alice", "answer": "a3"})
	require.Equal(t, http.StatusOK, code, res)

	code, res = do(t, e, http.MethodPost, "/api/rooms/AAAA/answer", map[string]any{"player": "alice", "answer": "a3"})
	require.Equal(t, http.StatusOK, code, res)
	assert.Equal(t, true, res["answer"])
	assert.EqualValues(t, 10, res["pos"])
	assert.Equal(t, "ladder", res["ladderorsnake"])
	assert.Equal(t, "bob", res["turn"])

	code, res = do(t, e, http.MethodGet, "/api/rooms/AAAA/moves?limit=5", nil)
	require.Equal(t, http.StatusOK, code, res)
	assert.Len(t, res["moves"], 1)

	code, res = do(t, e, http.MethodPost, "/api/rooms/AAAA/end", nil)
	require.Equal(t, http.StatusOK, code, res)
	assert.Equal(t, "ended", res["state"])

	code, res = do(t, e, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, code, res)
	assert.Len(t, res["rooms"], 1)
}

func TestHTTP_Errors(t *testing.T) {
	tests := map[string]struct {
		method     string
		path       string
		body       any
		wantStatus int
		wantReason string
	}{
		"room not found": {
			method:     http.MethodGet,
			path:       "/api/rooms/ZZZZ",
			wantStatus: http.StatusNotFound,
			wantReason: "ROOM_NOT_FOUND",
		},
		"not your turn": {
			method:     http.MethodPost,
			path:       "/api/rooms/AAAA/roll",
			body:       map[string]any{"player": "bob"},
			wantStatus: http.StatusConflict,
			wantReason: "NOT_YOUR_TURN",
		},
		"no question pending": {
			method:     http.MethodPost,
			path:       "/api/rooms/AAAA/answer",
			body:       map[string]any{"player": "alice", "answer": "a1"},
			wantStatus: http.StatusConflict,
			wantReason: "NO_QUESTION_PENDING",
		},
		"missing player": {
			method:     http.MethodPost,
			path:       "/api/rooms",
			body:       map[string]any{},
			wantStatus: http.StatusBadRequest,
			wantReason: "INVALID_INPUT",
		},
		"malformed body": {
			method:     http.MethodPost,
			path:       "/api/rooms",
			body:       "not an object",
			wantStatus: http.StatusBadRequest,
			wantReason: "INVALID_INPUT",
		},
		"bad limit": {
			method:     http.MethodGet,
			path:       "/api/rooms/AAAA/moves?limit=x",
			wantStatus: http.StatusBadRequest,
			wantReason: "INVALID_INPUT",
		},
		"unknown question": {
			method:     http.MethodGet,
			path:       "/api/questions/404",
			wantStatus: http.StatusNotFound,
			wantReason: "QUESTION_NOT_FOUND",
		},
		"standings disabled": {
			method:     http.MethodGet,
			path:       "/api/rooms/AAAA/standings",
			wantStatus: http.StatusNotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e, _ := makeHTTP(t)
			_, _ = do(t, e, http.MethodPost, "/api/rooms", map[string]any{"player": "alice"})
			_, _ = do(t, e, http.MethodPost, "/api/rooms/AAAA/join", map[string]any{"player": "bob"})
			_, _ = do(t, e, http.MethodPost, "/api/rooms/AAAA/start", nil)

			code, res := do(t, e, tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, code, res)
			assert.Equal(t, "error", res["status"])
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, res["reason"])
			}
		})
	}
}

func TestHTTP_Steps(t *testing.T) {
	e, _ := makeHTTP(t)

	code, res := do(t, e, http.MethodGet, "/api/steps?before=26&dice=5&maxbox=28", nil)
	require.Equal(t, http.StatusOK, code, res)
	assert.Equal(t, []any{27.0, 28.0, 27.0, 26.0, 25.0}, res["steps"])
	assert.EqualValues(t, 25, res["pos"])

	code, _ = do(t, e, http.MethodGet, "/api/steps?before=0&dice=7", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHTTP_Board(t *testing.T) {
	e, _ := makeHTTP(t)

	code, res := do(t, e, http.MethodGet, "/api/board", nil)
	require.Equal(t, http.StatusOK, code, res)
	assert.EqualValues(t, 28, res["max_box"])
	assert.Len(t, res["shortcuts"], len(board.DefaultShortcuts))
}

func TestHTTP_Questions(t *testing.T) {
	e, _ := makeHTTP(t)

	code, res := do(t, e, http.MethodPost, "/api/questions", map[string]any{
		"id": "9", "topic": "kimia", "question": "H2O is?",
		"a1": "Water", "a2": "Salt", "a3": "Sugar", "a4": "Iron", "answer": "a1",
	})
	require.Equal(t, http.StatusOK, code, res)

	code, res = do(t, e, http.MethodGet, "/api/questions?topic=kimia", nil)
	require.Equal(t, http.StatusOK, code, res)
	assert.Len(t, res["questions"], 1)

	code, res = do(t, e, http.MethodGet, "/api/questions/random?topic=kimia", nil)
	require.Equal(t, http.StatusOK, code, res)
	q := res["question"].(map[string]any)
	assert.Equal(t, "9", q["id"])
	assert.NotContains(t, q, "answer")

	code, res = do(t, e, http.MethodPut, "/api/questions/9", map[string]any{
		"topic": "kimia", "question": "NaCl is?",
		"a1": "Water", "a2": "Salt", "a3": "Sugar", "a4": "Iron", "answer": "a2",
	})
	require.Equal(t, http.StatusOK, code, res)
	assert.Equal(t, "a2", res["question"].(map[string]any)["answer"])

	code, res = do(t, e, http.MethodDelete, "/api/questions/9", nil)
	require.Equal(t, http.StatusOK, code, res)

	code, _ = do(t, e, http.MethodGet, "/api/questions/9", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHTTP_Standings(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	e, f := makeHTTP(t, func(f *fixture, c *api.Config) {
		c.Standings = standings.NewService(standings.Config{EventBus: f.bus, Redis: rc, Prefix: "test"})
	})

	_, _ = do(t, e, http.MethodPost, "/api/rooms", map[string]any{"player": "alice"})
	_, _ = do(t, e, http.MethodPost, "/api/rooms/AAAA/join", map[string]any{"player": "bob"})
	_, _ = do(t, e, http.MethodPost, "/api/rooms/AAAA/start", nil)
	f.rnd.dice = []int{2}
	_, _ = do(t, e, http.MethodPost, "/api/rooms/AAAA/roll", map[string]any{"player": "alice"})

	var res map[string]any
	require.Eventually(t, func() bool {
		var code int
		code, res = do(t, e, http.MethodGet, "/api/rooms/AAAA/standings", nil)
		entries, _ := res["standings"].([]any)
		return code == http.StatusOK && len(entries) == 2 && entries[0].(map[string]any)["pos"] == 2.0
	}, time.Second, 10*time.Millisecond)

	first := res["standings"].([]any)[0].(map[string]any)
	assert.Equal(t, "alice", first["player"])
	assert.Equal(t, "7.14", first["progress"])
}

func TestHTTP_RateLimit(t *testing.T) {
	e, _ := makeHTTP(t, func(_ *fixture, c *api.Config) { c.RateLimit = 1 })

	code, _ := do(t, e, http.MethodGet, "/api/board", nil)
	require.Equal(t, http.StatusOK, code)

	code, res := do(t, e, http.MethodGet, "/api/board", nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "error", res["status"])
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.GET("/healthz", api.Healthz)

	code, res := do(t, e, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", res["status"])
}
