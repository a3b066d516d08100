package server

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/askpatrick/patrick/internal/engine"
)

type DocumentsHandler struct {
	Engine *engine.Engine
}

func (h *DocumentsHandler) Register(g *echo.Group) {
	g.GET("/documents", h.list)
	g.POST("/documents", h.upload)
	g.DELETE("/documents/:name", h.remove)
	g.POST("/initialize", h.initialize)
}

func (h *DocumentsHandler) list(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"documents":   h.Engine.ListDocuments(),
		"initialized": h.Engine.IsInitialized(),
	})
}

// upload accepts one or more multipart files under the "files" field.
func (h *DocumentsHandler) upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files provided")
	}
	var stored []string
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		data, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.Engine.UploadDocument(fh.Filename, data)
		stored = append(stored, fh.Filename)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"stored": stored})
}

func (h *DocumentsHandler) remove(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}
	h.Engine.RemoveDocument(name)
	return c.NoContent(http.StatusNoContent)
}

// initialize rebuilds the index from the stored document set. Responds 200
// with initialized=true on success, 422 when no document yields text.
func (h *DocumentsHandler) initialize(c echo.Context) error {
	ok := h.Engine.Initialize(c.Request().Context(), nil)
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"initialized": false,
			"error":       "no indexable content in uploaded documents",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"initialized": true})
}
