// Package browse keeps the state of one candidate listing: query, filters and the current page.
package browse

import (
	"github.com/spigell/teacherlink-search/internal/candidate"
	"github.com/spigell/teacherlink-search/internal/filtering"
	"github.com/spigell/teacherlink-search/internal/metrics"
	"github.com/spigell/teacherlink-search/internal/paging"
	"github.com/spigell/teacherlink-search/internal/search"
)

// Session composes search, filtering and paging over a fixed base set.
// Every View recomputes from scratch. A Session is not safe for concurrent use.
type Session struct {
	engine   *filtering.Engine
	base     []*candidate.Candidate
	query    string
	criteria filtering.Criteria
	page     int
	perPage  int
}

// View is one rendered page of a session.
type View struct {
	Query          string             `json:"query"`
	Criteria       filtering.Criteria `json:"criteria"`
	Matches        []filtering.Match  `json:"candidates"`
	FiltersApplied bool               `json:"filters_applied"`
	ActiveFilters  []string           `json:"active_filters"`
	Page           paging.Page        `json:"pagination"`
	Links          []paging.Link      `json:"links"`

	// Result holds every ordered match, not just the current page.
	Result *filtering.Result `json:"-"`
}

func New(engine *filtering.Engine, base []*candidate.Candidate, perPage int) *Session {
	if engine == nil {
		engine = filtering.New(nil, nil)
	}
	return &Session{
		engine:  engine,
		base:    base,
		page:    1,
		perPage: paging.Paginate(0, 1, perPage).PerPage,
	}
}

// SetBase replaces the candidate pool, keeping query and criteria. The page is reset.
func (s *Session) SetBase(base []*candidate.Candidate) {
	s.base = base
	s.page = 1
}

// SetQuery changes the search text and resets to the first page.
func (s *Session) SetQuery(query string) {
	s.query = query
	s.page = 1
}

// SetCriteria changes the active filters and resets to the first page.
func (s *Session) SetCriteria(criteria filtering.Criteria) {
	s.criteria = criteria
	s.page = 1
}

// SetPageSize changes the number of candidates per page and resets to the first page.
func (s *Session) SetPageSize(perPage int) {
	s.perPage = paging.Paginate(0, 1, perPage).PerPage
	s.page = 1
}

// SetPage moves to page n. Out of range values are clamped when the view is built.
func (s *Session) SetPage(n int) {
	s.page = n
}

func (s *Session) Query() string                { return s.query }
func (s *Session) Criteria() filtering.Criteria { return s.criteria }
func (s *Session) PageNumber() int              { return s.page }
func (s *Session) PerPage() int                 { return s.perPage }

// View searches the base set, applies the active filters to the search result and
// slices out the current page.
func (s *Session) View() *View {
	result := s.run(true)

	page := paging.Paginate(len(result.Matches), s.page, s.perPage)
	s.page = page.Number

	return &View{
		Query:          s.query,
		Criteria:       s.criteria,
		Matches:        paging.Slice(result.Matches, page),
		FiltersApplied: result.FiltersApplied,
		ActiveFilters:  result.ActiveFilters,
		Page:           page,
		Links:          paging.Links(page.Number, page.TotalPages),
		Result:         result,
	}
}

// Next moves one page forward. It reports false on the last page.
func (s *Session) Next() bool {
	page := paging.Paginate(len(s.run(false).Matches), s.page, s.perPage)
	if page.Number >= page.TotalPages {
		return false
	}
	s.page = page.Number + 1
	return true
}

// Prev moves one page back. It reports false on the first page.
func (s *Session) Prev() bool {
	if s.page <= 1 {
		return false
	}
	s.page--
	return true
}

func (s *Session) run(record bool) *filtering.Result {
	found := s.base
	searched := candidate.Fold(s.query) != ""
	if searched {
		found = search.Search(s.base, s.query)
	}

	result := s.engine.Apply(found, s.criteria)

	if record {
		if searched {
			metrics.SearchQueries.Inc()
		}
		if result.FiltersApplied {
			metrics.RecordFilterPass(result.Step.Initial, result.Step.Left)
		}
	}
	return result
}
