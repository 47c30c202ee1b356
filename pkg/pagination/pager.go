package pagination

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var bgmListingPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bgm_listing_pages_total",
	Help: "Listing pages requested by outcome (data, empty, error)",
}, []string{"outcome"})

// DefaultPageSize is the page size the listing endpoint is queried with.
const DefaultPageSize = 100

// Config holds pager configuration.
type Config struct {
	// PageSize is the limit sent with every page request.
	PageSize int
}

// PageFetcher fetches the ids of one page.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset, limit int) ([]int, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, offset, limit int) ([]int, error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc) FetchPage(ctx context.Context, offset, limit int) ([]int, error) {
	return f(ctx, offset, limit)
}

// Pauser is called between two page requests.
type Pauser interface {
	Pause(ctx context.Context) error
}

// Result is the outcome of a listing walk.
type Result struct {
	// IDs in the order the server listed them.
	IDs []int

	// Pages is the number of non-empty pages read.
	Pages int

	// Err is the cause of an early stop; nil when an empty page ended the walk.
	Err error
}

// Partial reports whether the walk stopped before the end of the listing.
func (r *Result) Partial() bool {
	return r.Err != nil
}

// Pager walks a listing endpoint sequentially.
type Pager struct {
	fetcher PageFetcher
	pauser  Pauser
	config  Config
	logger  zerolog.Logger
}

// NewPager creates a pager. A nil pauser disables pausing.
func NewPager(fetcher PageFetcher, pauser Pauser, config Config) *Pager {
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}

	return &Pager{
		fetcher: fetcher,
		pauser:  pauser,
		config:  config,
		logger:  log.With().Str("component", "pager").Logger(),
	}
}

// CollectIDs requests pages until an empty one and returns every id seen.
func (p *Pager) CollectIDs(ctx context.Context) *Result {
	start := time.Now()
	result := &Result{IDs: []int{}}
	offset := 0

	for {
		page := result.Pages + 1
		p.logger.Debug().
			Int("page", page).
			Int("offset", offset).
			Msg("Fetching listing page")

		ids, err := p.fetcher.FetchPage(ctx, offset, p.config.PageSize)
		if err != nil {
			bgmListingPagesTotal.WithLabelValues("error").Inc()
			p.logger.Warn().
				Err(err).
				Int("page", page).
				Int("offset", offset).
				Int("ids", len(result.IDs)).
				Msg("Listing stopped early, keeping ids gathered so far")
			result.Err = err
			break
		}

		if len(ids) == 0 {
			bgmListingPagesTotal.WithLabelValues("empty").Inc()
			p.logger.Info().
				Int("offset", offset).
				Msg("Empty page, listing complete")
			break
		}

		bgmListingPagesTotal.WithLabelValues("data").Inc()
		result.IDs = append(result.IDs, ids...)
		result.Pages++
		offset += p.config.PageSize

		p.logger.Info().
			Int("page", page).
			Int("total_ids", len(result.IDs)).
			Msg("Listing page fetched")

		if p.pauser != nil {
			if err := p.pauser.Pause(ctx); err != nil {
				result.Err = err
				break
			}
		}
	}

	p.logger.Info().
		Int("ids", len(result.IDs)).
		Int("pages", result.Pages).
		Bool("partial", result.Partial()).
		Dur("duration", time.Since(start)).
		Msg("Listing phase complete")

	return result
}
