package filtering

import (
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/candidate"
)

const (
	// BaseScore is what every retained candidate gets once any filter is active.
	BaseScore = 40
	// MatchBonus is spread proportionally over the matched soft filters.
	MatchBonus = 60
	// MaxScore is the score when nothing discriminates between candidates.
	MaxScore = BaseScore + MatchBonus
)

// Retention decides which evaluated candidates stay in the result.
type Retention string

const (
	// RetainSoftRequired keeps a candidate that passes every location filter and matched at
	// least one active filter. With only soft filters active they act as "match any".
	RetainSoftRequired Retention = "soft-filters-required"
	// RetainScoringOnly keeps every candidate that passes the location filters.
	// Soft filters then only influence the score.
	RetainScoringOnly Retention = "scoring-only"
)

// ParseRetention maps a config value to a policy. Empty selects RetainSoftRequired.
func ParseRetention(s string) (Retention, error) {
	switch Retention(s) {
	case "", RetainSoftRequired:
		return RetainSoftRequired, nil
	case RetainScoringOnly:
		return RetainScoringOnly, nil
	default:
		return "", fmt.Errorf("unknown retention policy %q", s)
	}
}

// Retains applies the policy to one evaluated candidate.
func (r Retention) Retains(m Match, active int) bool {
	if !m.Passes {
		return false
	}
	if r == RetainScoringOnly {
		return true
	}
	return active == 0 || len(m.MatchedFilters) > 0
}

// Match is the evaluation of one candidate against the active filters.
type Match struct {
	Candidate      *candidate.Candidate `json:"candidate"`
	MatchedFilters []string             `json:"matched_filters"`
	Passes         bool                 `json:"-"`
	RelevanceScore int                  `json:"relevance_score"`
}

// Step describes the result of a filter pass.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Result is the ordered output of a filter pass.
type Result struct {
	Matches        []Match
	FiltersApplied bool
	ActiveFilters  []string
	Step           Step
}

// Candidates returns the ordered candidates of the result.
func (r *Result) Candidates() []*candidate.Candidate {
	out := make([]*candidate.Candidate, 0, len(r.Matches))
	for _, m := range r.Matches {
		out = append(out, m.Candidate)
	}
	return out
}

// Config contains configuration settings consumed by the engine.
type Config struct {
	Retention Retention
}

// Engine evaluates, scores and orders candidates. It holds no per-pass state and is safe for
// concurrent use.
type Engine struct {
	retention Retention
	logger    *zap.Logger
}

func New(cfg *Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	retention := RetainSoftRequired
	if cfg != nil && cfg.Retention != "" {
		retention = cfg.Retention
	}

	return &Engine{retention: retention, logger: logger}
}

// Evaluate checks one candidate against the filters. Every filter is evaluated even after a
// required one failed so the match list stays complete.
func Evaluate(c *candidate.Candidate, filters []Filter) (matched []string, passes bool) {
	matched = make([]string, 0, len(filters))
	passes = true

	for _, f := range filters {
		if f.Match(c) {
			matched = append(matched, f.Name())
			continue
		}
		if f.Required() {
			passes = false
		}
	}

	return matched, passes
}

// Score computes the 0-100 relevance of a candidate. Only soft filters take part in the ratio.
func Score(matched []string, filters []Filter) int {
	if len(filters) == 0 {
		return MaxScore
	}

	valid, hits := 0, 0
	for _, f := range filters {
		if f.Required() {
			continue
		}
		valid++
		if slices.Contains(matched, f.Name()) {
			hits++
		}
	}

	if valid == 0 {
		return MaxScore
	}

	bonus := math.Round(float64(hits) / float64(valid) * MatchBonus)
	if math.IsNaN(bonus) || math.IsInf(bonus, 0) {
		return BaseScore
	}
	return BaseScore + int(bonus)
}

// Apply runs a full filter pass. Empty criteria return the input unchanged with FiltersApplied unset.
func (e *Engine) Apply(candidates []*candidate.Candidate, criteria Criteria) *Result {
	filters := FromCriteria(criteria)
	initial := len(candidates)

	if len(filters) == 0 {
		matches := make([]Match, 0, initial)
		for _, c := range candidates {
			matches = append(matches, Match{
				Candidate:      c,
				MatchedFilters: []string{},
				Passes:         true,
				RelevanceScore: MaxScore,
			})
		}
		return &Result{
			Matches:       matches,
			ActiveFilters: []string{},
			Step:          Step{Initial: initial, Left: initial},
		}
	}

	matches := make([]Match, 0, initial)
	for _, c := range candidates {
		matched, passes := Evaluate(c, filters)
		m := Match{Candidate: c, MatchedFilters: matched, Passes: passes}
		if !e.retention.Retains(m, len(filters)) {
			continue
		}
		m.RelevanceScore = Score(matched, filters)
		matches = append(matches, m)
	}

	Sort(matches, criteria)

	active := make([]string, 0, len(filters))
	for _, f := range filters {
		active = append(active, f.Name())
	}

	step := Step{Initial: initial, Dropped: initial - len(matches), Left: len(matches)}
	e.logger.Debug("filter step",
		zap.Strings("active_filters", active),
		zap.String("retention", string(e.retention)),
		zap.Int("initial", step.Initial),
		zap.Int("dropped", step.Dropped),
		zap.Int("left", step.Left),
	)

	return &Result{
		Matches:        matches,
		FiltersApplied: true,
		ActiveFilters:  active,
		Step:           step,
	}
}
