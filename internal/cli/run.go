package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/around-the-grounds/internal/config"
	"github.com/pfrederiksen/around-the-grounds/internal/coordinator"
	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
	"github.com/pfrederiksen/around-the-grounds/internal/metrics"
	"github.com/pfrederiksen/around-the-grounds/internal/parser"
	"github.com/pfrederiksen/around-the-grounds/internal/vision"
)

// scrapeResult is one coordinator run over a site's sources.
type scrapeResult struct {
	RunID  string
	Site   *config.Site
	Events []*event.Event
	Errors []*coordinator.SourceError
	At     time.Time
}

func (a *app) loadSite() (*config.Site, error) {
	s := a.settings
	var (
		site *config.Site
		err  error
	)
	if s.ConfigPath != "" {
		site, err = config.Load(s.ConfigPath)
	} else {
		site, err = config.LoadNamed(s.SitesDir, s.Site)
	}
	if err != nil {
		return nil, err
	}
	if site.Name == "" {
		site.Name = s.Site
	}
	return site, nil
}

// scrape loads the site and runs the coordinator over its sources.
func (a *app) scrape(ctx context.Context) (*scrapeResult, error) {
	s := a.settings
	runID := uuid.NewString()
	log := s.logger(a.opts.Stderr).With(logger.Fields{"run_id": runID})

	site, err := a.loadSite()
	if err != nil {
		return nil, err
	}
	sources, err := config.Filter(site.Sources, s.Sources)
	if err != nil {
		return nil, err
	}

	sess := fetch.NewSession(s.fetchConfig())
	defer sess.Close()

	rec := metrics.New()
	coord := coordinator.New(a.opts.Registry, sess, s.Coordinator,
		coordinator.WithLogger(log),
		coordinator.WithMetrics(rec),
		coordinator.WithClock(a.opts.Now),
		coordinator.WithDeps(parser.Deps{Vision: a.visionAnalyzer(log, sess), Logger: log}),
	)

	log.Info("Starting run", logger.Fields{"site": site.Name, "sources": len(sources)})
	events, errs := coord.Run(ctx, sources)
	log.Info("Run finished", logger.Fields{"events": len(events), "errors": len(errs)})

	if s.MetricsFile != "" {
		if err := rec.WriteTextfile(s.MetricsFile); err != nil {
			log.Warn("Could not write metrics file", logger.Fields{"path": s.MetricsFile, "error": err.Error()})
		}
	}

	return &scrapeResult{
		RunID:  runID,
		Site:   site,
		Events: events,
		Errors: errs,
		At:     a.opts.Now(),
	}, nil
}

// visionAnalyzer returns a cached Claude analyzer, or nil when vision is
// disabled or no API key is configured.
func (a *app) visionAnalyzer(log *logger.Logger, sess *fetch.Session) vision.Analyzer {
	s := a.settings
	if !s.Vision || s.AnthropicKey == "" {
		return nil
	}
	claude, err := vision.NewClaude(vision.ClaudeConfig{
		APIKey:     s.AnthropicKey,
		Model:      s.VisionModel,
		HTTPClient: sess.HTTPClient(),
	})
	if err != nil {
		log.Warn("Vision analysis disabled", logger.Fields{"error": err.Error()})
		return nil
	}
	return vision.NewCache(claude)
}

func (a *app) runSchedule(cmd *cobra.Command, _ []string) error {
	res, err := a.scrape(cmd.Context())
	if err != nil {
		return err
	}

	events := a.settings.Filter.Apply(res.Events)
	sortEvents(events, a.settings.Sort)

	out := &OutputResult{
		Site:        res.Site,
		GeneratedAt: res.At,
		Events:      events,
		Errors:      res.Errors,
		WindowDays:  a.settings.windowDays(),
	}

	w := a.opts.Stdout
	if a.settings.Output != "" {
		f, err := os.Create(a.settings.Output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := WriteOutput(w, out, a.settings.Format, a.settings.Verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if a.settings.Format != FormatText {
		reportErrors(a.opts.Stderr, res.Errors, a.settings.Verbose)
	}
	if a.settings.Output != "" {
		fmt.Fprintf(a.opts.Stderr, "Wrote %d events to %s\n", len(events), a.settings.Output)
	}

	a.exitCode = exitCodeFor(res.Events, res.Errors)
	return nil
}

// reportErrors prints each distinct user message once, plus the detail of
// every error when verbose.
func reportErrors(w io.Writer, errs []*coordinator.SourceError, verbose bool) {
	for _, msg := range coordinator.UserMessages(errs) {
		fmt.Fprintf(w, "❌ %s\n", msg)
	}
	if verbose {
		for _, e := range errs {
			fmt.Fprintf(w, "   %s: %s (%s)\n", e.Kind, e.Message, e.Source.Key)
		}
	}
}
