// Package server exposes the candidate engine over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/candidate"
	"github.com/spigell/teacherlink-search/internal/filtering"
	"github.com/spigell/teacherlink-search/internal/paging"
	"github.com/spigell/teacherlink-search/internal/store"
)

const shutdownTimeout = 10 * time.Second

// PoolLoader fetches the candidate pool.
type PoolLoader interface {
	LoadPool(ctx context.Context) (*candidate.Candidates, error)
}

type Config struct {
	Addr      string          `mapstructure:"addr"`
	PerPage   int             `mapstructure:"per-page" validate:"gte=0,lte=100"`
	RateLimit RateLimitConfig `mapstructure:"rate-limit"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests-per-minute" validate:"gte=0"`
	Burst             int  `mapstructure:"burst" validate:"gte=0"`
}

// Deps are the collaborators of a Server.
type Deps struct {
	Engine  *filtering.Engine
	Store   store.FilterStore
	Loader  PoolLoader
	Version string
}

type Server struct {
	cfg     *Config
	echo    *echo.Echo
	logger  *zap.Logger
	engine  *filtering.Engine
	store   store.FilterStore
	loader  PoolLoader
	limiter *clientLimiter
	version string
	started time.Time

	mu       sync.RWMutex
	pool     []*candidate.Candidate
	loadedAt time.Time
	loadErr  error
	defaults filtering.Criteria
}

func New(cfg *Config, deps *Deps, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps == nil {
		deps = &Deps{}
	}

	engine := deps.Engine
	if engine == nil {
		engine = filtering.New(nil, logger)
	}
	filterStore := deps.Store
	if filterStore == nil {
		filterStore = store.Nop{}
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		engine:  engine,
		store:   filterStore,
		loader:  deps.Loader,
		version: deps.Version,
		started: time.Now(),
		pool:    []*candidate.Candidate{},
	}

	if cfg.RateLimit.Enabled {
		s.limiter = newClientLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, logger)
	}

	s.echo = s.routes()
	return s
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validator.New()}

	e.Use(middleware.Recover())
	e.Use(s.requestID)
	e.Use(s.accessLog)
	if s.limiter != nil {
		e.Use(s.rateLimit)
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/api/v1/health", s.health)

	g := e.Group("/api/v1")
	g.GET("/candidates", s.listCandidates)
	g.POST("/candidates/search", s.searchCandidates)
	g.POST("/candidates/refresh", s.refresh)
	g.GET("/filters", s.getFilters)
	g.PUT("/filters", s.putFilters)
	g.DELETE("/filters", s.deleteFilters)

	return e
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Refresh reloads the candidate pool. A failed load leaves an empty pool.
func (s *Server) Refresh(ctx context.Context) error {
	if s.loader == nil {
		return errors.New("no candidate loader configured")
	}

	pool, err := s.loader.LoadPool(ctx)
	items := []*candidate.Candidate{}
	if err == nil && pool != nil {
		items = pool.Items
	}

	s.mu.Lock()
	s.pool = items
	s.loadedAt = time.Now()
	s.loadErr = err
	s.mu.Unlock()

	return err
}

// SetPool replaces the candidate pool directly.
func (s *Server) SetPool(items []*candidate.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = items
	s.loadedAt = time.Now()
	s.loadErr = nil
}

// SetDefaultCriteria sets the filters used by listings when no filters were saved.
func (s *Server) SetDefaultCriteria(c filtering.Criteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = c
}

func (s *Server) snapshot() ([]*candidate.Candidate, filtering.Criteria) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool, s.defaults
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.limiter != nil {
		s.limiter.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) perPage(requested int) int {
	if requested > 0 {
		return requested
	}
	if s.cfg.PerPage > 0 {
		return s.cfg.PerPage
	}
	return paging.DefaultPerPage
}
