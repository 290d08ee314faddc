package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/victornm/quizladder/internal/domain"
	"github.com/victornm/quizladder/internal/event"
)

// GameMetrics counts game activity from the event bus.
type GameMetrics struct {
	roomsCreated      prometheus.Counter
	playersJoined     prometheus.Counter
	gamesStarted      prometheus.Counter
	diceRolled        *prometheus.CounterVec
	questionsAnswered *prometheus.CounterVec
	gamesEnded        *prometheus.CounterVec
}

func NewGameMetrics(reg prometheus.Registerer, eb *event.Bus) *GameMetrics {
	m := &GameMetrics{
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizladder", Name: "rooms_created_total", Help: "Rooms created.",
		}),
		playersJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizladder", Name: "players_joined_total", Help: "Players that joined a room.",
		}),
		gamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizladder", Name: "games_started_total", Help: "Games started.",
		}),
		diceRolled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizladder", Name: "dice_rolled_total", Help: "Dice rolls by face and whether a question was drawn.",
		}, []string{"face", "question"}),
		questionsAnswered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizladder", Name: "questions_answered_total", Help: "Answered questions by outcome.",
		}, []string{"correct"}),
		gamesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizladder", Name: "games_ended_total", Help: "Games ended, by whether someone won.",
		}, []string{"won"}),
	}

	reg.MustRegister(m.roomsCreated, m.playersJoined, m.gamesStarted, m.diceRolled, m.questionsAnswered, m.gamesEnded)

	eb.Subscribe(domain.EventNameRoomCreated, func(context.Context, event.Event) error {
		m.roomsCreated.Inc()
		return nil
	})
	eb.Subscribe(domain.EventNamePlayerJoined, func(context.Context, event.Event) error {
		m.playersJoined.Inc()
		return nil
	})
	eb.Subscribe(domain.EventNameGameStarted, func(context.Context, event.Event) error {
		m.gamesStarted.Inc()
		return nil
	})
	eb.Subscribe(domain.EventNameDiceRolled, func(_ context.Context, e event.Event) error {
		r := e.(domain.EventDiceRolled)
		m.diceRolled.WithLabelValues(strconv.Itoa(r.Move.Dice), strconv.FormatBool(r.QuestionID != "")).Inc()
		return nil
	})
	eb.Subscribe(domain.EventNameQuestionAnswered, func(_ context.Context, e event.Event) error {
		m.questionsAnswered.WithLabelValues(strconv.FormatBool(e.(domain.EventQuestionAnswered).Correct)).Inc()
		return nil
	})
	eb.Subscribe(domain.EventNameGameEnded, func(_ context.Context, e event.Event) error {
		m.gamesEnded.WithLabelValues(strconv.FormatBool(e.(domain.EventGameEnded).Winner != "")).Inc()
		return nil
	})

	return m
}

// HTTPMetrics records request latency per route.
func HTTPMetrics(reg prometheus.Registerer) gin.HandlerFunc {
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quizladder",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(latency)

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		latency.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
