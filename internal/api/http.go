package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/errors"
	"github.com/victornm/quizladder/internal/game"
	"github.com/victornm/quizladder/internal/movement"
	"github.com/victornm/quizladder/internal/question"
	"github.com/victornm/quizladder/internal/standings"
)

func (a *API) registerHTTP(r gin.IRouter, c Config) {
	g := r.Group("/api")
	g.Use(corsMiddleware(c.AllowOrigins))
	if c.RateLimit > 0 {
		g.Use(rateLimit(rate.NewLimiter(rate.Limit(c.RateLimit), max(1, int(c.RateLimit)))))
	}

	rooms := g.Group("/rooms")
	rooms.POST("", a.createRoom)
	rooms.GET("", a.listRooms)
	rooms.GET("/:code", a.getState)
	rooms.POST("/:code/join", a.joinRoom)
	rooms.POST("/:code/start", a.startGame)
	rooms.POST("/:code/roll", a.rollDice)
	rooms.POST("/:code/select", a.selectAnswer)
	rooms.POST("/:code/answer", a.answerQuestion)
	rooms.POST("/:code/end", a.endGame)
	rooms.GET("/:code/spectate", a.spectate)
	rooms.GET("/:code/moves", a.moves)
	rooms.GET("/:code/standings", a.standings)

	g.GET("/board", a.getBoard)
	g.GET("/steps", a.steps)

	qs := g.Group("/questions")
	qs.GET("", a.listQuestions)
	qs.POST("", a.createQuestion)
	qs.GET("/random", a.randomQuestion)
	qs.GET("/:id", a.getQuestion)
	qs.PUT("/:id", a.updateQuestion)
	qs.DELETE("/:id", a.deleteQuestion)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}

	return cors.New(c)
}

func rateLimit(l *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, game.Outcome{
				Status:  game.StatusError,
				Message: "too many requests",
			})
			return
		}

		c.Next()
	}
}

// respond writes res, or the failure shape of err with its mapped status code.
func respond(c *gin.Context, res any, err error) {
	if err != nil {
		e := errors.Convert(err)
		if e.Code == errors.CodeInternal {
			slog.ErrorContext(c.Request.Context(), "api: request failed", "path", c.FullPath(), "error", err)
		}

		c.JSON(e.HTTPStatusCode(), game.Failure(err))
		return
	}

	c.JSON(http.StatusOK, res)
}

func bind(c *gin.Context, v any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}

	if err := c.ShouldBindJSON(v); err != nil {
		respond(c, nil, errors.Of(errors.ReasonInvalidInput, "request body is not valid: %v", err))
		return false
	}

	return true
}

type createRoomBody struct {
	Player string `json:"player"`
	Color  string `json:"color"`
	MaxBox int    `json:"maxbox"`
	Topic  string `json:"topic"`
}

func (a *API) createRoom(c *gin.Context) {
	var b createRoomBody
	if !bind(c, &b) {
		return
	}

	res, err := a.gs.CreateRoom(c.Request.Context(), game.CreateRoomRequest{
		Player: b.Player,
		Color:  b.Color,
		MaxBox: b.MaxBox,
		Topic:  b.Topic,
	})
	respond(c, res, err)
}

func (a *API) listRooms(c *gin.Context) {
	res, err := a.gs.ListRooms(c.Request.Context())
	respond(c, res, err)
}

func (a *API) getState(c *gin.Context) {
	res, err := a.gs.QueryState(c.Request.Context(), c.Param("code"))
	respond(c, res, err)
}

type playerBody struct {
	Player string `json:"player"`
	Color  string `json:"color"`
	Answer string `json:"answer"`
}

func (a *API) joinRoom(c *gin.Context) {
	var b playerBody
	if !bind(c, &b) {
		return
	}

	res, err := a.gs.JoinRoom(c.Request.Context(), game.JoinRoomRequest{Code: c.Param("code"), Player: b.Player, Color: b.Color})
	respond(c, res, err)
}

func (a *API) startGame(c *gin.Context) {
	res, err := a.gs.StartGame(c.Request.Context(), c.Param("code"))
	respond(c, res, err)
}

func (a *API) rollDice(c *gin.Context) {
	var b playerBody
	if !bind(c, &b) {
		return
	}

	res, err := a.gs.RollDice(c.Request.Context(), game.RollDiceRequest{Code: c.Param("code"), Player: b.Player})
	respond(c, res, err)
}

func (a *API) selectAnswer(c *gin.Context) {
	var b playerBody
	if !bind(c, &b) {
		return
	}

	res, err := a.gs.SelectAnswer(c.Request.Context(), game.SelectAnswerRequest{Code: c.Param("code"), Player: b.Player, Answer: b.Answer})
	respond(c, res, err)
}

func (a *API) answerQuestion(c *gin.Context) {
	var b playerBody
	if !bind(c, &b) {
		return
	}

	res, err := a.gs.AnswerQuestion(c.Request.Context(), game.AnswerQuestionRequest{Code: c.Param("code"), Player: b.Player, Answer: b.Answer})
	respond(c, res, err)
}

func (a *API) endGame(c *gin.Context) {
	res, err := a.gs.EndGame(c.Request.Context(), c.Param("code"))
	respond(c, res, err)
}

func (a *API) spectate(c *gin.Context) {
	res, err := a.gs.Spectate(c.Request.Context(), c.Param("code"))
	respond(c, res, err)
}

func (a *API) moves(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		respond(c, nil, err)
		return
	}

	res, err := a.gs.Moves(c.Request.Context(), c.Param("code"), limit)
	respond(c, res, err)
}

type standingsEntry struct {
	Player   string `json:"player"`
	Position int    `json:"pos"`
	Progress string `json:"progress"`
}

type standingsResult struct {
	game.Outcome
	Code    string           `json:"code"`
	Entries []standingsEntry `json:"standings"`
}

func (a *API) standings(c *gin.Context) {
	if a.st == nil {
		respond(c, nil, errors.New(errors.CodeNotFound, errors.WithMessagef("standings are not enabled")))
		return
	}

	st, err := a.st.GetStandings(c.Request.Context(), standings.GetStandingsRequest{RoomCode: c.Param("code")})
	if err != nil {
		respond(c, nil, err)
		return
	}

	res := standingsResult{
		Outcome: game.Outcome{Status: game.StatusOK, Message: "Standings " + st.RoomCode},
		Code:    st.RoomCode,
		Entries: make([]standingsEntry, 0, len(st.Entries)),
	}
	for _, e := range st.Entries {
		res.Entries = append(res.Entries, standingsEntry{Player: e.Player, Position: e.Position, Progress: e.Progress.StringFixed(2)})
	}

	respond(c, res, nil)
}

type shortcutView struct {
	From int                 `json:"from"`
	To   int                 `json:"to"`
	Kind domain.ShortcutKind `json:"kind"`
}

func (a *API) getBoard(c *gin.Context) {
	ss := a.bd.Shortcuts()
	views := make([]shortcutView, 0, len(ss))
	for _, s := range ss {
		views = append(views, shortcutView{From: s.From, To: s.To, Kind: s.Kind()})
	}

	respond(c, gin.H{
		"status":      game.StatusOK,
		"message":     "Board",
		"max_box":     a.bd.MaxBox(),
		"min_max_box": a.bd.MinMaxBox(),
		"shortcuts":   views,
	}, nil)
}

// steps previews the squares a roll would walk through.
func (a *API) steps(c *gin.Context) {
	before, err := queryInt(c, "before", 0)
	if err != nil {
		respond(c, nil, err)
		return
	}
	dice, err := queryInt(c, "dice", 0)
	if err != nil {
		respond(c, nil, err)
		return
	}
	maxBox, err := queryInt(c, "maxbox", a.bd.MaxBox())
	if err != nil {
		respond(c, nil, err)
		return
	}

	if !movement.ValidDice(dice) {
		respond(c, nil, errors.Of(errors.ReasonInvalidInput, "dice is not valid"))
		return
	}
	if maxBox <= 0 || before < 0 || before > maxBox {
		respond(c, nil, errors.Of(errors.ReasonInvalidInput, "position is not valid"))
		return
	}

	respond(c, gin.H{
		"status":  game.StatusOK,
		"message": "Steps",
		"steps":   movement.TracePath(before, dice, maxBox),
		"pos":     movement.ComputeMove(before, dice, maxBox),
	}, nil)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Of(errors.ReasonInvalidInput, "%s is not valid", key)
	}

	return n, nil
}

type questionBody struct {
	ID       string `json:"id"`
	Topic    string `json:"topic"`
	Question string `json:"question"`
	A1       string `json:"a1"`
	A2       string `json:"a2"`
	A3       string `json:"a3"`
	A4       string `json:"a4"`
	Answer   string `json:"answer"`
}

func questionView(q domain.Question) questionBody {
	return questionBody{
		ID:       q.ID,
		Topic:    q.Topic,
		Question: q.Text,
		A1:       q.Options[0],
		A2:       q.Options[1],
		A3:       q.Options[2],
		A4:       q.Options[3],
		Answer:   q.Answer,
	}
}

type questionsResult struct {
	game.Outcome
	Questions []questionBody `json:"questions"`
}

type questionResult struct {
	game.Outcome
	Question questionBody `json:"question"`
}

func (a *API) listQuestions(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		qs  []domain.Question
		err error
	)
	if topic := c.Query("topic"); topic != "" {
		qs, err = a.qs.ByTopic(ctx, topic)
	} else {
		qs, err = a.qs.List(ctx)
	}
	if err != nil {
		respond(c, nil, err)
		return
	}

	res := questionsResult{
		Outcome:   game.Outcome{Status: game.StatusOK, Message: strconv.Itoa(len(qs)) + " questions"},
		Questions: make([]questionBody, 0, len(qs)),
	}
	for _, q := range qs {
		res.Questions = append(res.Questions, questionView(q))
	}

	respond(c, res, nil)
}

func (a *API) getQuestion(c *gin.Context) {
	q, err := a.qs.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond(c, nil, err)
		return
	}

	respond(c, questionResult{Outcome: game.Outcome{Status: game.StatusOK, Message: "Question " + q.ID}, Question: questionView(*q)}, nil)
}

// randomQuestion serves a question without its answer.
func (a *API) randomQuestion(c *gin.Context) {
	q, err := a.qs.RandomByTopic(c.Request.Context(), c.Query("topic"))
	if err != nil {
		respond(c, nil, err)
		return
	}

	respond(c, struct {
		game.Outcome
		Question *question.View `json:"question"`
	}{
		Outcome:  game.Outcome{Status: game.StatusOK, Message: "Question " + q.ID},
		Question: question.Public(*q),
	}, nil)
}

func (a *API) createQuestion(c *gin.Context) {
	var b questionBody
	if !bind(c, &b) {
		return
	}

	q, err := a.qs.Create(c.Request.Context(), question.CreateQuestionRequest{
		ID:      b.ID,
		Topic:   b.Topic,
		Text:    b.Question,
		Options: [4]string{b.A1, b.A2, b.A3, b.A4},
		Answer:  b.Answer,
	})
	if err != nil {
		respond(c, nil, err)
		return
	}

	respond(c, questionResult{Outcome: game.Outcome{Status: game.StatusOK, Message: "Question " + q.ID + " created"}, Question: questionView(*q)}, nil)
}

func (a *API) updateQuestion(c *gin.Context) {
	var b questionBody
	if !bind(c, &b) {
		return
	}

	q, err := a.qs.Update(c.Request.Context(), question.UpdateQuestionRequest{
		ID:      c.Param("id"),
		Topic:   b.Topic,
		Text:    b.Question,
		Options: [4]string{b.A1, b.A2, b.A3, b.A4},
		Answer:  b.Answer,
	})
	if err != nil {
		respond(c, nil, err)
		return
	}

	respond(c, questionResult{Outcome: game.Outcome{Status: game.StatusOK, Message: "Question " + q.ID + " updated"}, Question: questionView(*q)}, nil)
}

func (a *API) deleteQuestion(c *gin.Context) {
	id := c.Param("id")
	if err := a.qs.Delete(c.Request.Context(), id); err != nil {
		respond(c, nil, err)
		return
	}

	respond(c, game.Outcome{Status: game.StatusOK, Message: "Question " + id + " deleted"}, nil)
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": game.StatusOK, "time": time.Now().UTC()})
}
