package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/askpatrick/patrick/internal/engine"
)

// SearchHandler exposes the keyword index for operator inspection. It is not
// part of the answering path.
type SearchHandler struct {
	Engine *engine.Engine
}

func (h *SearchHandler) Register(g *echo.Group) {
	g.GET("/search", h.search)
}

func (h *SearchHandler) search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}
	k := 10
	if raw := c.QueryParam("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be a positive integer")
		}
		k = parsed
	}
	if !h.Engine.IsInitialized() {
		return echo.NewHTTPError(http.StatusConflict, "index not initialized")
	}
	hits, err := h.Engine.KeywordSearch(q, k)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"hits": hits})
}
