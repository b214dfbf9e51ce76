package teacherlink

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/candidate"
)

const (
	endpointCandidates = "candidates"
	endpointApprovals  = "approvals"
	endpointFavorites  = "favorites"
)

// Approval is one entry of the approval allowlist.
type Approval struct {
	UID        string `mapstructure:"firebase_uid"`
	IsApproved int    `mapstructure:"isApproved"`
}

// Favorite is one marker row written by a job provider.
type Favorite struct {
	UID        string `mapstructure:"firebase_uid"`
	AddedBy    string `mapstructure:"added_by"`
	Favourite  bool   `mapstructure:"favroute_candidate"`
	Saved      bool   `mapstructure:"saved_candidate"`
	Downloaded bool   `mapstructure:"dowloaded_candidate"`
}

// GetCandidates fetches every candidate profile. Items that fail to decode are skipped;
// fields that fail to parse are logged and left empty.
func (c *Client) GetCandidates(ctx context.Context) (*candidate.Candidates, error) {
	var body any
	if err := c.getJSON(ctx, endpointCandidates, c.candidatesPath, &body); err != nil {
		return nil, err
	}

	found, err := c.expression.Search(body)
	if err != nil {
		return nil, fmt.Errorf("locating candidates: %w", err)
	}

	items, ok := found.([]any)
	if !ok {
		return nil, fmt.Errorf("locating candidates: expected a list, got %T", found)
	}

	candidates, err := candidate.Decode(items)
	if err != nil {
		c.logger.Debug("some candidates were decoded partially", zap.Error(err))
	}

	c.logger.Debug("got candidates", zap.Int("count", candidates.Len()))
	return candidates, nil
}

// GetApprovals returns the uids of approved candidates.
func (c *Client) GetApprovals(ctx context.Context) (map[string]struct{}, error) {
	var items []any
	if err := c.getJSON(ctx, endpointApprovals, c.approvalsPath, &items); err != nil {
		return nil, err
	}

	var approvals []Approval
	if err := decodeWeak(items, &approvals); err != nil {
		return nil, fmt.Errorf("decoding approvals: %w", err)
	}

	approved := make(map[string]struct{}, len(approvals))
	for _, a := range approvals {
		if a.IsApproved == 1 && a.UID != "" {
			approved[a.UID] = struct{}{}
		}
	}

	c.logger.Debug("got approvals", zap.Int("total", len(approvals)), zap.Int("approved", len(approved)))
	return approved, nil
}

// GetFavorites returns the marker rows added by the configured user.
// Without a configured user there is nothing to fetch.
func (c *Client) GetFavorites(ctx context.Context) ([]Favorite, error) {
	if c.userUID == "" {
		return []Favorite{}, nil
	}

	var items []any
	if err := c.getJSON(ctx, endpointFavorites, c.favoritesPath, &items); err != nil {
		return nil, err
	}

	var all []Favorite
	if err := decodeWeak(items, &all); err != nil {
		return nil, fmt.Errorf("decoding favorites: %w", err)
	}

	mine := make([]Favorite, 0, len(all))
	for _, f := range all {
		if strings.TrimSpace(f.AddedBy) == c.userUID {
			mine = append(mine, f)
		}
	}

	return mine, nil
}

// MarkFavorites copies the marker flags onto the matching candidates.
func MarkFavorites(candidates *candidate.Candidates, favorites []Favorite) {
	for _, f := range favorites {
		c := candidates.FindByUID(f.UID)
		if c == nil {
			continue
		}
		c.Favourite = c.Favourite || f.Favourite
		c.Saved = c.Saved || f.Saved
		c.Downloaded = c.Downloaded || f.Downloaded
	}
}

func decodeWeak(input, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
