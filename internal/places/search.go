package places

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/model"
)

// Options tunes pacing. PageDelay must cover the provider's next-page token
// activation time; the Google API rejects tokens used sooner than ~2s.
type Options struct {
	Language      string
	PageDelay     time.Duration
	DetailDelay   time.Duration
	CityDelay     time.Duration
	DetailWorkers int
}

// Request describes a single-city search.
type Request struct {
	City      string
	Country   string
	Category  string
	Limit     int
	PhoneOnly bool
}

// Searcher runs paginated searches and normalizes the results.
// It is safe for concurrent use; the detail rate limit is shared by all
// searches in the process.
type Searcher struct {
	provider Provider
	cities   []string
	opts     Options
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewSearcher creates a Searcher. cities is the list walked by
// SearchAllCities.
func NewSearcher(provider Provider, cities []string, opts Options, logger *slog.Logger) *Searcher {
	limit := rate.Inf
	if opts.DetailDelay > 0 {
		limit = rate.Every(opts.DetailDelay)
	}
	if opts.DetailWorkers < 1 {
		opts.DetailWorkers = 1
	}
	return &Searcher{
		provider: provider,
		cities:   slices.Clone(cities),
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Search fetches up to req.Limit hits for "<category> <city> <country>",
// expands each through a detail fetch and normalizes it. Hits without a
// place ID or with empty details are skipped. With PhoneOnly, records without
// a phone are dropped after normalization, so fewer than Limit may return.
//
// Any provider failure aborts the search and is returned as
// apperror.SearchProvider; no partial results are returned.
func (s *Searcher) Search(ctx context.Context, req Request) ([]model.BusinessRecord, error) {
	query := strings.Join(strings.Fields(req.Category+" "+req.City+" "+req.Country), " ")

	hits, err := s.collectHits(ctx, query, req.Limit)
	if err != nil {
		return nil, apperror.SearchProvider(err)
	}

	records, err := s.expand(ctx, hits, req)
	if err != nil {
		return nil, apperror.SearchProvider(err)
	}

	s.logger.Debug("places search finished",
		slog.String("query", query),
		slog.Int("hits", len(hits)),
		slog.Int("records", len(records)),
	)
	return records, nil
}

// collectHits pages through the text search until limit hits are gathered,
// the provider has no next page, or a page comes back empty.
func (s *Searcher) collectHits(ctx context.Context, query string, limit int) ([]Hit, error) {
	var hits []Hit
	token := ""

	for len(hits) < limit {
		if token != "" {
			if err := sleep(ctx, s.opts.PageDelay); err != nil {
				return nil, err
			}
		}

		page, err := s.provider.TextSearch(ctx, query, s.opts.Language, token)
		if err != nil {
			return nil, err
		}
		hits = append(hits, page.Hits...)

		token = page.NextPageToken
		if token == "" || len(page.Hits) == 0 {
			break
		}
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// expand fetches details for every hit with bounded concurrency, paced by the
// shared limiter. Output order follows hit order.
func (s *Searcher) expand(ctx context.Context, hits []Hit, req Request) ([]model.BusinessRecord, error) {
	out := make([]*model.BusinessRecord, len(hits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.DetailWorkers)

	for i, hit := range hits {
		if hit.PlaceID == "" {
			continue
		}
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}
			d, err := s.provider.Details(gctx, hit.PlaceID, s.opts.Language)
			if err != nil {
				return err
			}
			if d.empty() {
				return nil
			}
			rec := normalize(d, req.City, req.Country)
			out[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]model.BusinessRecord, 0, len(hits))
	for _, rec := range out {
		if rec == nil {
			continue
		}
		if req.PhoneOnly && rec.Phone == "" {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

// SearchAllCities runs Search for every configured city in order, pausing
// CityDelay between cities. The first failure aborts the walk.
func (s *Searcher) SearchAllCities(ctx context.Context, category, country string, limitPerCity int, phoneOnly bool) ([]model.BusinessRecord, error) {
	var all []model.BusinessRecord

	for i, city := range s.cities {
		if i > 0 {
			if err := sleep(ctx, s.opts.CityDelay); err != nil {
				return nil, apperror.SearchProvider(err)
			}
		}

		s.logger.Info("searching city", slog.String("city", city), slog.String("category", category))

		records, err := s.Search(ctx, Request{
			City:      city,
			Country:   country,
			Category:  category,
			Limit:     limitPerCity,
			PhoneOnly: phoneOnly,
		})
		if err != nil {
			return nil, fmt.Errorf("places: all-cities search stopped at %s: %w", city, err)
		}
		all = append(all, records...)
	}

	return all, nil
}

// providerPageSize is the number of hits the provider returns per page.
const providerPageSize = 20

// AllCitiesPacing approximates the time SearchAllCities spends in its own
// delays for limitPerCity, provider latency excluded. It is a lower bound:
// a budget below it cannot finish.
func (s *Searcher) AllCitiesPacing(limitPerCity int) time.Duration {
	if len(s.cities) == 0 || limitPerCity < 1 {
		return 0
	}
	pages := (limitPerCity + providerPageSize - 1) / providerPageSize
	perCity := time.Duration(pages-1)*s.opts.PageDelay + time.Duration(limitPerCity-1)*s.opts.DetailDelay
	n := time.Duration(len(s.cities))
	return n*perCity + (n-1)*s.opts.CityDelay
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
