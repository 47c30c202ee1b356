// Package collector builds the knowledge base: it lists subject ids, fetches
// each subject's detail record and normalizes it.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/bangumi-kb/internal/progress"
	"github.com/Sternrassler/bangumi-kb/pkg/client"
	"github.com/Sternrassler/bangumi-kb/pkg/kb"
	"github.com/Sternrassler/bangumi-kb/pkg/logging"
	"github.com/Sternrassler/bangumi-kb/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var bgmCollectorItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bgm_collector_items_total",
	Help: "Detail fetches by result (ok, failed)",
}, []string{"result"})

// DefaultMaxTags is how many tag names a record keeps.
const DefaultMaxTags = 10

// ErrNoItems is returned when the listing phase yields no ids at all.
var ErrNoItems = errors.New("listing returned no subject ids")

// API is the part of the Bangumi client the collector uses.
type API interface {
	ListSubjects(ctx context.Context, params client.ListParams) (*client.SubjectPage, error)
	GetSubject(ctx context.Context, id int) (*client.Subject, error)
}

// Pauser is called after every request.
type Pauser interface {
	Pause(ctx context.Context) error
}

// Config holds collector configuration.
type Config struct {
	PageSize    int
	SubjectType int
	Sort        string
	MaxTags     int
}

// ItemResult is the outcome of one detail fetch.
type ItemResult struct {
	ID  int
	Err error
}

// OK reports whether the detail fetch succeeded.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// Report is the outcome of a collection run.
type Report struct {
	// Records in discovery order, one per successful ItemResult.
	Records []kb.Record

	// Results has one entry per listed id, in order.
	Results []ItemResult

	// Pages is the number of listing pages read.
	Pages int

	// ListingErr is set when the listing stopped early.
	ListingErr error
}

// Succeeded counts successful detail fetches.
func (r *Report) Succeeded() int {
	return len(r.Records)
}

// Failed counts skipped ids.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

// FailedIDs returns the skipped ids in order.
func (r *Report) FailedIDs() []int {
	var ids []int
	for _, res := range r.Results {
		if !res.OK() {
			ids = append(ids, res.ID)
		}
	}
	return ids
}

// Collector runs the listing and detail phases.
type Collector struct {
	api      API
	pauser   Pauser
	config   Config
	progress progress.Reporter
	logger   zerolog.Logger
}

// New creates a collector. A nil pauser disables pausing; a nil reporter
// disables progress output.
func New(api API, pauser Pauser, cfg Config, reporter progress.Reporter) *Collector {
	if cfg.PageSize <= 0 {
		cfg.PageSize = pagination.DefaultPageSize
	}
	if cfg.MaxTags <= 0 {
		cfg.MaxTags = DefaultMaxTags
	}
	if reporter == nil {
		reporter = progress.Nop()
	}

	return &Collector{
		api:      api,
		pauser:   pauser,
		config:   cfg,
		progress: reporter,
		logger:   logging.NewLogger("collector"),
	}
}

// Run lists subject ids, then fetches and normalizes each one. A failed
// detail fetch is recorded and skipped. Run fails only when the listing
// produced no ids.
func (c *Collector) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	c.logger.Info().
		Int("type", c.config.SubjectType).
		Str("sort", c.config.Sort).
		Int("page_size", c.config.PageSize).
		Msg("Listing subject ids")

	var pauser pagination.Pauser
	if c.pauser != nil {
		pauser = c.pauser
	}
	listing := pagination.NewPager(c.pageFetcher(), pauser, pagination.Config{PageSize: c.config.PageSize}).
		CollectIDs(ctx)

	report := &Report{
		Records:    []kb.Record{},
		Results:    make([]ItemResult, 0, len(listing.IDs)),
		Pages:      listing.Pages,
		ListingErr: listing.Err,
	}

	if len(listing.IDs) == 0 {
		if listing.Err != nil {
			return report, fmt.Errorf("%w: %v", ErrNoItems, listing.Err)
		}
		return report, ErrNoItems
	}

	c.logger.Info().Int("ids", len(listing.IDs)).Msg("Fetching subject details")
	c.progress.Start(len(listing.IDs))

	for _, id := range listing.IDs {
		subject, err := c.api.GetSubject(ctx, id)
		if err != nil {
			bgmCollectorItemsTotal.WithLabelValues("failed").Inc()
			c.logger.Warn().
				Err(err).
				Int("subject_id", id).
				Str("error_class", string(client.ClassOf(err))).
				Msg("Detail fetch failed, skipping subject")
			report.Results = append(report.Results, ItemResult{ID: id, Err: err})
		} else {
			bgmCollectorItemsTotal.WithLabelValues("ok").Inc()
			report.Records = append(report.Records, Normalize(subject, id, c.config.MaxTags))
			report.Results = append(report.Results, ItemResult{ID: id})
		}
		c.progress.Advance()

		if c.pauser != nil {
			if err := c.pauser.Pause(ctx); err != nil {
				c.progress.Finish()
				return report, fmt.Errorf("detail phase interrupted: %w", err)
			}
		}
	}
	c.progress.Finish()

	c.logger.Info().
		Int("records", report.Succeeded()).
		Int("failed", report.Failed()).
		Bool("listing_partial", report.ListingErr != nil).
		Dur("duration", time.Since(start)).
		Msg("Collection complete")

	return report, nil
}

func (c *Collector) pageFetcher() pagination.PageFetcher {
	return pagination.PageFetcherFunc(func(ctx context.Context, offset, limit int) ([]int, error) {
		page, err := c.api.ListSubjects(ctx, client.ListParams{
			Type:   c.config.SubjectType,
			Sort:   c.config.Sort,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}
		return page.IDs(), nil
	})
}

// Normalize extracts the knowledge base fields of subject. requestedID is
// used when the response carries no id.
func Normalize(subject *client.Subject, requestedID, maxTags int) kb.Record {
	return kb.Record{
		ID:          subject.IDOr(requestedID),
		Name:        subject.DisplayName(kb.NoName),
		Score:       subject.ScoreOr(0),
		Rank:        subject.RankOr(0),
		RatingTotal: subject.RatingTotalOr(0),
		Tags:        subject.TagNames(maxTags),
		Summary:     strings.ReplaceAll(subject.SummaryOr(kb.NoSummary), "\r\n", "\n"),
		Reviews:     []kb.Review{},
	}
}
