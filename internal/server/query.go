package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/askpatrick/patrick/internal/engine"
	"github.com/askpatrick/patrick/internal/worker"
	"github.com/askpatrick/patrick/session"
)

type QueryHandler struct {
	Engine   *engine.Engine
	Pool     *worker.Pool
	Sessions session.Store
	TTL      time.Duration
	Timeout  time.Duration // per-query bound; zero means unbounded
}

func (h *QueryHandler) Register(g *echo.Group) {
	g.POST("/query", h.query)
}

func (h *QueryHandler) query(c echo.Context) error {
	var req struct {
		Text      string `json:"text"`
		SessionID string `json:"session_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text required")
	}

	sess, err := h.Sessions.EnsureSession(req.SessionID, h.TTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	answer, err := h.Pool.Submit(ctx, req.Text, sess.History())
	if err != nil {
		if errors.Is(err, worker.ErrQueueFull) {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"answer":     worker.BusyMessage,
				"session_id": sess.ID(),
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := sess.AddExchange(session.Exchange{
		Question: req.Text,
		Answer:   answer,
		AskedAt:  time.Now(),
	}); err != nil {
		// history is best effort, the answer still goes out
		log.Printf("session %s: recording exchange: %v", sess.ID(), err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"answer":     answer,
		"session_id": sess.ID(),
	})
}
