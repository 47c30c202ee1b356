package formatter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Sternrassler/bangumi-kb/pkg/kb"
	"github.com/Sternrassler/bangumi-kb/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var bgmFormatterBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bgm_formatter_blocks_total",
	Help: "Markdown blocks rendered",
})

// ErrEmpty is returned when the knowledge base holds no records.
var ErrEmpty = errors.New("knowledge base is empty, nothing to format")

// Config holds the formatter's file locations.
type Config struct {
	Input  string
	Output string
}

// Result describes a finished formatter run.
type Result struct {
	Records   int
	Bytes     int
	Structure Structure
}

// Formatter loads the knowledge base and writes the Markdown document.
type Formatter struct {
	config Config
	logger zerolog.Logger
}

// New creates a formatter.
func New(cfg Config) *Formatter {
	return &Formatter{
		config: cfg,
		logger: logging.NewLogger("formatter"),
	}
}

// Run loads, renders, joins and writes. Load failures return kb.ErrMissingInput
// or kb.ErrInvalidInput and leave the output untouched.
func (f *Formatter) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	records, err := kb.Load(f.config.Input)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", f.config.Input, ErrEmpty)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.logger.Info().
		Int("records", len(records)).
		Str("input", f.config.Input).
		Msg("Formatting knowledge base as Markdown")

	blocks := RenderAll(records)
	bgmFormatterBlocksTotal.Add(float64(len(blocks)))
	document := Join(blocks)

	structure, err := Inspect(document)
	if err != nil {
		f.logger.Warn().Err(err).Msg("Markdown inspection failed")
	} else if !structure.Matches(len(blocks)) {
		f.logger.Warn().
			Int("blocks", len(blocks)).
			Int("headings", structure.Headings).
			Int("thematic_breaks", structure.ThematicBreaks).
			Msg("Document structure differs from block count, summaries may contain Markdown markers")
	}

	if err := os.WriteFile(f.config.Output, []byte(document), 0o644); err != nil {
		return nil, fmt.Errorf("write markdown: %w", err)
	}

	f.logger.Info().
		Str("output", f.config.Output).
		Int("bytes", len(document)).
		Dur("duration", time.Since(start)).
		Msg("Markdown document written")

	return &Result{
		Records:   len(records),
		Bytes:     len(document),
		Structure: structure,
	}, nil
}
