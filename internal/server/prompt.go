package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/askpatrick/patrick/internal/engine"
)

type PromptHandler struct {
	Engine *engine.Engine
}

func (h *PromptHandler) Register(g *echo.Group) {
	g.PUT("/prompt", h.update)
	g.DELETE("/prompt", h.reset)
}

func (h *PromptHandler) update(c echo.Context) error {
	var req struct {
		Template string `json:"template"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Template) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "template required")
	}
	h.Engine.UpdatePrompt(req.Template)
	return c.JSON(http.StatusOK, map[string]bool{"modified": h.Engine.PromptModified()})
}

func (h *PromptHandler) reset(c echo.Context) error {
	h.Engine.ResetPrompt()
	return c.JSON(http.StatusOK, map[string]bool{"modified": h.Engine.PromptModified()})
}
