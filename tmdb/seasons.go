package tmdb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// AllSeasons fetches every regular season of a show concurrently. The first
// failing season request cancels the rest and is returned to the caller.
func (c *Client) AllSeasons(ctx context.Context, showID int64) ([]SeasonDetails, error) {
	show, err := c.TVDetails(ctx, showID)
	if err != nil {
		return nil, err
	}

	numbers := show.SeasonNumbers()
	if len(numbers) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.seasonConcurrency)

	var mu sync.Mutex
	seasons := make([]SeasonDetails, 0, len(numbers))

	for _, n := range numbers {
		// season 1 already came back appended to the show payload
		if n == 1 && show.FirstSeason != nil {
			mu.Lock()
			seasons = append(seasons, *show.FirstSeason)
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			season, err := c.SeasonDetails(ctx, showID, n)
			if err != nil {
				return fmt.Errorf("season %d: %w", n, err)
			}

			mu.Lock()
			seasons = append(seasons, *season)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(seasons, func(i, j int) bool {
		return seasons[i].SeasonNumber < seasons[j].SeasonNumber
	})

	c.logger.Debug().
		Int64("show_id", showID).
		Int("seasons", len(seasons)).
		Msg("Retrieved all seasons")

	return seasons, nil
}
