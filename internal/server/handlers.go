package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/browse"
	"github.com/spigell/teacherlink-search/internal/candidate"
	"github.com/spigell/teacherlink-search/internal/filtering"
	"github.com/spigell/teacherlink-search/internal/logger"
	"github.com/spigell/teacherlink-search/internal/store"
)

type searchRequest struct {
	Query    string             `json:"query" validate:"max=200"`
	Criteria filtering.Criteria `json:"criteria"`
	Page     int                `json:"page" validate:"gte=0"`
	PerPage  int                `json:"per_page" validate:"gte=0,lte=100"`
}

type filtersResponse struct {
	Criteria filtering.Criteria `json:"criteria"`
	Active   []filtering.Status `json:"active"`
}

type healthResponse struct {
	Status     string     `json:"status"`
	Version    string     `json:"version"`
	Uptime     string     `json:"uptime"`
	Candidates int        `json:"candidates"`
	LoadedAt   *time.Time `json:"loaded_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

// listCandidates serves a page using the saved filters, or the configured defaults when none are saved.
func (s *Server) listCandidates(c echo.Context) error {
	var query string
	var page, perPage int
	err := echo.QueryParamsBinder(c).
		String("q", &query).
		Int("page", &page).
		Int("per_page", &perPage).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if perPage < 0 || perPage > 100 {
		return echo.NewHTTPError(http.StatusBadRequest, "per_page must be between 0 and 100")
	}

	pool, criteria := s.snapshot()

	saved, err := store.LoadOrEmpty(c.Request().Context(), s.store)
	if err != nil {
		s.logger.Warn("loading saved filters failed, using defaults", zap.Error(err))
	} else if !saved.IsEmpty() {
		criteria = saved
	}

	return s.render(c, pool, query, criteria, page, perPage)
}

func (s *Server) searchCandidates(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	pool, _ := s.snapshot()
	return s.render(c, pool, req.Query, req.Criteria, req.Page, req.PerPage)
}

func (s *Server) render(c echo.Context, pool []*candidate.Candidate, query string, criteria filtering.Criteria, page, perPage int) error {
	session := browse.New(s.engine, pool, s.perPage(perPage))
	session.SetQuery(query)
	session.SetCriteria(criteria)
	session.SetPage(page)

	view := session.View()

	logger.WithFields(s.logger, logger.SessionFields(requestIDFrom(c), query, view.ActiveFilters)...).
		Debug("listing served",
			zap.Int("page", view.Page.Number),
			zap.Int("total_pages", view.Page.TotalPages),
			zap.Int("total", view.Page.Total),
		)

	return c.JSON(http.StatusOK, view)
}

func (s *Server) refresh(c echo.Context) error {
	if err := s.Refresh(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "refreshing candidate pool: "+err.Error())
	}

	pool, _ := s.snapshot()
	return c.JSON(http.StatusOK, map[string]int{"candidates": len(pool)})
}

func (s *Server) getFilters(c echo.Context) error {
	criteria, err := store.LoadOrEmpty(c.Request().Context(), s.store)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "loading filters: "+err.Error())
	}

	return c.JSON(http.StatusOK, filtersResponse{
		Criteria: criteria,
		Active:   filtering.Describe(filtering.FromCriteria(criteria)),
	})
}

func (s *Server) putFilters(c echo.Context) error {
	var criteria filtering.Criteria
	if err := c.Bind(&criteria); err != nil {
		return err
	}
	if err := criteria.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.store.Save(c.Request().Context(), criteria); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "saving filters: "+err.Error())
	}

	logger.WithFields(s.logger, logger.SessionFields(requestIDFrom(c), "", criteria.ActiveKeys())...).
		Info("filters saved")

	return c.JSON(http.StatusOK, filtersResponse{
		Criteria: criteria,
		Active:   filtering.Describe(filtering.FromCriteria(criteria)),
	})
}

func (s *Server) deleteFilters(c echo.Context) error {
	if err := s.store.Clear(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "clearing filters: "+err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) health(c echo.Context) error {
	s.mu.RLock()
	resp := healthResponse{
		Status:     "ok",
		Version:    s.version,
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Candidates: len(s.pool),
	}
	if !s.loadedAt.IsZero() {
		loadedAt := s.loadedAt
		resp.LoadedAt = &loadedAt
	}
	if s.loadErr != nil {
		resp.Status = "degraded"
		resp.LastError = s.loadErr.Error()
	}
	s.mu.RUnlock()

	return c.JSON(http.StatusOK, resp)
}
