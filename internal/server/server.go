package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/askpatrick/patrick/config"
	"github.com/askpatrick/patrick/internal/engine"
	"github.com/askpatrick/patrick/internal/telemetry"
	"github.com/askpatrick/patrick/internal/worker"
	"github.com/askpatrick/patrick/provider"
	"github.com/askpatrick/patrick/session"
	"github.com/askpatrick/patrick/session/inmemory"
	redis_session "github.com/askpatrick/patrick/session/redis"
	"github.com/askpatrick/patrick/tools/web_fetch"
	websearch "github.com/askpatrick/patrick/tools/web_search"
)

// Run wires the engine, worker pool, and session store, then serves the HTTP
// API until the listener fails.
func Run(cfg *config.Config, addr string) error {
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)

	e := newEcho(baseLogger)

	var metrics *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		registry := prometheus.NewRegistry()
		metrics = telemetry.New(registry)
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm api key not configured (llm.api_key)")
	}
	llm, err := provider.NewProvider(provider.OpenAI, cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}

	var searcher websearch.WebSearcher
	if cfg.WebSearch.Provider != "" {
		searcher, err = websearch.NewWebSearcher(cfg.WebSearch)
		if err != nil {
			return fmt.Errorf("web search: %w", err)
		}
	}

	var fetcher *web_fetch.Fetcher
	if cfg.WebSearch.FetchTopHit {
		fetcher = web_fetch.NewFetcher(cfg.WebSearch.Timeout, 2000)
	}

	engLogger := log.New(log.Writer(), "[ENGINE] ", log.LstdFlags)
	eng := engine.New(cfg, engLogger, llm, searcher, fetcher, metrics)

	sessions, err := newSessionStore(cfg.Session)
	if err != nil {
		return err
	}

	poolLogger := log.New(log.Writer(), "[POOL] ", log.LstdFlags)
	pool := worker.NewPool(cfg.Pipeline.MaxInFlight, cfg.Pipeline.QueueSize,
		eng.ProcessQuery, poolLogger, metrics)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	}()

	api := e.Group("/api")

	qh := &QueryHandler{Engine: eng, Pool: pool, Sessions: sessions, TTL: cfg.Session.TTL, Timeout: cfg.General.DefaultTimeout}
	qh.Register(api)

	dh := &DocumentsHandler{Engine: eng}
	dh.Register(api)

	ph := &PromptHandler{Engine: eng}
	ph.Register(api)

	sh := &SearchHandler{Engine: eng}
	sh.Register(api)

	if addr == "" {
		addr = cfg.Server.Address
	}
	baseLogger.Printf("listening on %s", addr)
	return e.Start(addr)
}

// newEcho builds the echo instance with the shared middleware and the JSON
// error handler. Split out so handler tests can use the same plumbing.
func newEcho(logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	return e
}

func newSessionStore(cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Store {
	case "", "inmemory":
		return inmemory.NewInMemorySessionStore(), nil
	case "redis":
		addr := fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port)
		return redis_session.NewRedisSessionStore(addr, cfg.Redis.Password, cfg.Redis.DB), nil
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.Store)
	}
}
