// Package aggregate gathers the option sources of one tool, runs each through
// extraction and derivation independently, and merges the results.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/thellimist/lanemeta/internal/fetch"
	"github.com/thellimist/lanemeta/internal/options"
	"github.com/thellimist/lanemeta/internal/schema"
	"github.com/thellimist/lanemeta/internal/tooldoc"
	"github.com/thellimist/lanemeta/internal/toolfilter"
)

const defaultConcurrency = 8

// Config selects the sources an Aggregator processes.
type Config struct {
	// Tools are the primary tool names, dispatched first in this order.
	Tools []string
	// OptionsLocation maps a tool name to its options source location.
	OptionsLocation func(tool string) string
	// ListActions enables the auxiliary action listing.
	ListActions    bool
	IncludeActions []string
	ExcludeActions []string
	// Concurrency bounds the units in flight. Zero means 8.
	Concurrency int
}

// Unit is one option source scheduled for processing.
type Unit struct {
	fetch.Source
	IsAction bool
}

// Result is the merged outcome of a run.
type Result struct {
	// Sections holds every contributing unit in dispatch order.
	Sections []tooldoc.Section
	// Dispatched counts the units that were run.
	Dispatched int
	// Failed counts the units that contributed nothing.
	Failed int
	// BlockErrors counts blocks skipped across all units.
	BlockErrors int
}

// Arguments returns the number of derived arguments across sections.
func (r *Result) Arguments() int {
	return tooldoc.ArgumentCount(r.Sections)
}

// Aggregator runs option sources through extraction and merges the output.
type Aggregator struct {
	fetcher fetch.Fetcher
	lister  fetch.Lister
	logger  *slog.Logger
	cfg     Config
}

// New creates an Aggregator. lister may be nil when cfg.ListActions is
// false. A nil logger uses slog.Default().
func New(fetcher fetch.Fetcher, lister fetch.Lister, logger *slog.Logger, cfg Config) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Aggregator{fetcher: fetcher, lister: lister, logger: logger, cfg: cfg}
}

// Units resolves the sources of a run: the primary tools followed by the
// listed actions that survive filtering. A failed listing is logged and
// leaves only the primary tools. An unknown included action is an error.
func (a *Aggregator) Units(ctx context.Context) ([]Unit, error) {
	units := make([]Unit, 0, len(a.cfg.Tools))
	for _, tool := range a.cfg.Tools {
		units = append(units, Unit{Source: fetch.Source{Name: tool, Location: a.location(tool)}})
	}

	if !a.cfg.ListActions || a.lister == nil {
		return units, nil
	}

	listed, err := a.lister.ListActionSources(ctx)
	if err != nil {
		a.logger.Error("action listing failed, continuing with tools only", "error", err)
		return units, nil
	}
	actions := toolfilter.ExcludeNames(listed, a.cfg.Tools)
	actions, err = toolfilter.FilterSources(actions, a.cfg.IncludeActions, a.cfg.ExcludeActions)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	for _, s := range actions {
		units = append(units, Unit{Source: s, IsAction: true})
	}
	return units, nil
}

// Run resolves the units, processes them concurrently and merges the
// contributions once every unit has finished. Failures inside a unit are
// logged and never returned.
func (a *Aggregator) Run(ctx context.Context) (*Result, error) {
	units, err := a.Units(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("dispatching sources", "count", len(units), "concurrency", a.cfg.Concurrency)

	outcomes := make([]unitOutcome, len(units))
	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)
	for i, u := range units {
		g.Go(func() error {
			outcomes[i] = a.process(ctx, u)
			return nil
		})
	}
	// Units never return errors.
	_ = g.Wait()

	result := &Result{Dispatched: len(units)}
	for _, o := range outcomes {
		result.BlockErrors += o.blockErrors
		if o.section == nil {
			result.Failed++
			continue
		}
		result.Sections = append(result.Sections, *o.section)
	}

	a.logger.Info(fmt.Sprintf("Successfully extracted %d tasks", len(result.Sections)),
		"arguments", result.Arguments(),
		"failed", result.Failed,
		"skipped_blocks", result.BlockErrors,
	)
	return result, nil
}

type unitOutcome struct {
	section     *tooldoc.Section
	blockErrors int
}

// process runs one unit. It never panics: a panic is logged against the
// source and turned into an empty contribution.
func (a *Aggregator) process(ctx context.Context, u Unit) (out unitOutcome) {
	log := a.logger.With("source", u.Name)
	defer func() {
		if r := recover(); r != nil {
			log.Error("source processing panicked", "panic", r)
			out = unitOutcome{}
		}
	}()

	text, err := a.fetcher.Fetch(ctx, u.Location)
	if err != nil {
		log.Error("fetch failed", "location", u.Location, "error", err)
		return out
	}

	props, errs := options.Parse(text, u.Name, u.IsAction)
	for _, err := range errs {
		var parseErr *options.BlockParseError
		if errors.As(err, &parseErr) {
			log.Warn("block skipped", "excerpt", parseErr.Excerpt, "error", parseErr.Err)
		} else {
			log.Warn("block skipped", "error", err)
		}
	}
	out.blockErrors = len(errs)

	if len(props) == 0 {
		log.Warn("no options found", "location", u.Location)
		return out
	}

	log.Debug("extracted options", "count", len(props))
	out.section = &tooldoc.Section{
		Name:      u.Name,
		IsAction:  u.IsAction,
		Location:  u.Location,
		Arguments: schema.DeriveAll(props),
	}
	return out
}

func (a *Aggregator) location(tool string) string {
	if a.cfg.OptionsLocation != nil {
		return a.cfg.OptionsLocation(tool)
	}
	return strings.ToLower(tool)
}
