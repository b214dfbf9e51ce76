package teacherlink

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/teacherlink-search/internal/candidate"
	"github.com/spigell/teacherlink-search/internal/metrics"
)

// LoadPool fetches candidates, approvals and favorites concurrently and returns the approved
// candidates with their markers set.
//
// A failed candidate or approval fetch yields an empty pool together with the error; partial data
// is never returned. A failed favorites fetch only leaves the markers unset.
func (c *Client) LoadPool(ctx context.Context) (*candidate.Candidates, error) {
	var (
		all       *candidate.Candidates
		approved  map[string]struct{}
		favorites []Favorite
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		result, err := c.GetCandidates(gCtx)
		if err != nil {
			return fmt.Errorf("fetching candidates: %w", err)
		}
		all = result
		return nil
	})

	g.Go(func() error {
		result, err := c.GetApprovals(gCtx)
		if err != nil {
			return fmt.Errorf("fetching approvals: %w", err)
		}
		approved = result
		return nil
	})

	g.Go(func() error {
		result, err := c.GetFavorites(gCtx)
		if err != nil {
			c.logger.Warn("fetching favorites failed, markers are not set", zap.Error(err))
			return nil
		}
		favorites = result
		return nil
	})

	if err := g.Wait(); err != nil {
		c.logger.Warn("loading candidate pool failed", zap.Error(err))
		metrics.PoolRefreshes.WithLabelValues("error").Inc()
		metrics.CandidatesLoaded.Set(0)
		return &candidate.Candidates{Items: []*candidate.Candidate{}}, err
	}

	initial := all.Len()
	dropped := all.Keep(approved)
	MarkFavorites(all, favorites)

	c.logger.Info("candidate pool loaded",
		zap.Int("initial", initial),
		zap.Int("dropped", len(dropped)),
		zap.Int("left", all.Len()),
		zap.Int("favorites", len(favorites)),
	)

	metrics.PoolRefreshes.WithLabelValues("ok").Inc()
	metrics.CandidatesLoaded.Set(float64(all.Len()))

	return all, nil
}
