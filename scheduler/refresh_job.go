package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cine-catalog/catalog"
	"cine-catalog/logging"
	"cine-catalog/metadata"
	"cine-catalog/metrics"
	"cine-catalog/scraper"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// ErrRefreshInProgress is returned when a refresh is requested while one is
// already running. The request is dropped, not queued.
var ErrRefreshInProgress = errors.New("refresh already in progress")

var (
	errEmptyListing = errors.New("metadata api returned no titles")
	errNoItems      = errors.New("no title could be built from the listing")
)

// SnapshotSaver persists the catalog after a successful refresh.
type SnapshotSaver interface {
	SaveSnapshot(items []catalog.Item) error
}

// RefreshNotifier is told about every successful refresh.
type RefreshNotifier interface {
	NotifyRefresh(items []catalog.Item, skipped int) error
}

// RefreshJobConfig wires a RefreshJob. Scraper, Snapshots and Notifier are
// optional.
type RefreshJobConfig struct {
	Source    metadata.Source
	Store     *catalog.Store
	Scraper   scraper.ScraperInterface
	Snapshots SnapshotSaver
	Notifier  RefreshNotifier

	Attempts   int
	RetryDelay time.Duration
	Workers    int
	Timeout    time.Duration // for runs started with Trigger

	// Context is the parent of runs started with Trigger. Cancelling it
	// stops them.
	Context context.Context
}

// Status describes the refresh job for the API.
type Status struct {
	Running     bool       `json:"running"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	Items       int        `json:"items"`
	Skipped     int        `json:"skipped"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
}

// RefreshJob rebuilds the catalog from the metadata API.
type RefreshJob struct {
	cfg     RefreshJobConfig
	running atomic.Bool
	logger  zerolog.Logger
	wg      sync.WaitGroup

	mu     sync.Mutex
	status Status
}

// NewRefreshJob creates a refresh job, filling in defaults for zero values.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		// retry.NewConstant rejects a zero delay
		cfg.RetryDelay = time.Millisecond
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = jobTimeout
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	return &RefreshJob{
		cfg:    cfg,
		logger: logging.WithComponent("refresh"),
	}
}

// Name returns the name of the job
func (j *RefreshJob) Name() string {
	return "catalog_refresh"
}

// Run performs one refresh cycle. It returns ErrRefreshInProgress without
// doing anything if another cycle is running.
func (j *RefreshJob) Run(ctx context.Context) error {
	if !j.running.CompareAndSwap(false, true) {
		metrics.RecordRefresh("skipped", 0)
		return ErrRefreshInProgress
	}
	defer j.running.Store(false)
	return j.refresh(ctx)
}

// Trigger starts a cycle in the background and returns at once.
func (j *RefreshJob) Trigger() error {
	if !j.running.CompareAndSwap(false, true) {
		metrics.RecordRefresh("skipped", 0)
		return ErrRefreshInProgress
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		defer j.running.Store(false)
		ctx, cancel := context.WithTimeout(j.cfg.Context, j.cfg.Timeout)
		defer cancel()
		if err := j.refresh(ctx); err != nil {
			j.logger.Error().Err(err).Str("event", "refresh.manual_failed").Msg("manual refresh failed")
		}
	}()
	return nil
}

// Wait blocks until every run started with Trigger has returned.
func (j *RefreshJob) Wait() {
	j.wg.Wait()
}

// Running reports whether a cycle is in flight.
func (j *RefreshJob) Running() bool {
	return j.running.Load()
}

// Status returns a copy of the current job status.
func (j *RefreshJob) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.status
	s.Running = j.running.Load()
	return s
}

type buildResult struct {
	items   []catalog.Item
	skipped int
}

func (j *RefreshJob) refresh(ctx context.Context) error {
	start := time.Now()
	j.logger.Info().Str("event", "refresh.start").Msg("starting catalog refresh")

	attempts := 0
	var result buildResult
	backoff := retry.WithMaxRetries(uint64(j.cfg.Attempts-1), retry.NewConstant(j.cfg.RetryDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		metrics.IncRefreshAttempt()

		res, err := j.build(ctx)
		if err != nil {
			j.logger.Warn().
				Err(err).
				Str("event", "refresh.attempt_failed").
				Int("attempt", attempts).
				Int("max_attempts", j.cfg.Attempts).
				Msg("refresh attempt failed")
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}
		result = res
		return nil
	})

	if err == nil {
		err = j.cfg.Store.Replace(result.items)
	}
	if err != nil {
		metrics.RecordRefresh("failure", time.Since(start))
		j.setStatus(func(s *Status) {
			s.LastRun = &start
			s.Attempts = attempts
			s.LastError = err.Error()
		})
		j.logger.Error().
			Err(err).
			Str("event", "refresh.abandoned").
			Int("attempts", attempts).
			Int("kept_items", j.cfg.Store.Len()).
			Msg("refresh abandoned, keeping previous catalog")
		return fmt.Errorf("refresh failed after %d attempt(s): %w", attempts, err)
	}

	metrics.RecordRefresh("success", time.Since(start))
	metrics.SetCatalogSize(j.cfg.Store.CountByKind())
	finished := time.Now()
	j.setStatus(func(s *Status) {
		s.LastRun = &start
		s.LastSuccess = &finished
		s.Items = len(result.items)
		s.Skipped = result.skipped
		s.Attempts = attempts
		s.LastError = ""
	})

	j.logger.Info().
		Str("event", "refresh.done").
		Int("items", len(result.items)).
		Int("skipped", result.skipped).
		Int("attempts", attempts).
		Dur("duration", time.Since(start)).
		Msg("catalog refreshed")

	j.afterRefresh(result)
	return nil
}

// afterRefresh runs the best-effort side effects of a successful cycle.
func (j *RefreshJob) afterRefresh(result buildResult) {
	if j.cfg.Snapshots != nil {
		if err := j.cfg.Snapshots.SaveSnapshot(result.items); err != nil {
			j.logger.Warn().Err(err).Str("event", "snapshot.save_failed").Msg("failed to save catalog snapshot")
		}
	}
	if j.cfg.Notifier != nil {
		if err := j.cfg.Notifier.NotifyRefresh(result.items, result.skipped); err != nil {
			j.logger.Warn().Err(err).Str("event", "notify.failed").Msg("failed to send refresh notification")
		}
	}
}

// build fetches the listing and every detail record and returns the new
// table. Only listing failures and an empty outcome are errors; individual
// titles that cannot be built are skipped.
func (j *RefreshJob) build(ctx context.Context) (buildResult, error) {
	summaries, err := j.cfg.Source.ListAll(ctx)
	if err != nil {
		return buildResult{}, fmt.Errorf("list titles: %w", err)
	}
	if len(summaries) == 0 {
		return buildResult{}, errEmptyListing
	}

	built := make([]*catalog.Item, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.Workers)
	for i, summary := range summaries {
		g.Go(func() error {
			item, reason, err := j.buildItem(gctx, summary)
			if err != nil {
				metrics.IncItemSkipped(reason)
				j.logger.Debug().
					Err(err).
					Str("event", "refresh.item_skipped").
					Str("external_id", summary.ID).
					Str("reason", reason).
					Msg("skipping title")
				return nil
			}
			built[i] = &item
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return buildResult{}, err
	}

	res := buildResult{items: make([]catalog.Item, 0, len(built))}
	seen := make(map[string]struct{}, len(built))
	for _, it := range built {
		if it == nil {
			res.skipped++
			continue
		}
		if _, dup := seen[it.ExternalID]; dup {
			metrics.IncItemSkipped("duplicate")
			res.skipped++
			continue
		}
		seen[it.ExternalID] = struct{}{}
		it.ID = len(res.items) + 1
		res.items = append(res.items, *it)
	}
	if len(res.items) == 0 {
		return buildResult{}, errNoItems
	}
	return res, nil
}

// buildItem turns one listing entry into a catalog item. On failure it
// returns the skip reason used for metrics.
func (j *RefreshJob) buildItem(ctx context.Context, summary metadata.TitleSummary) (catalog.Item, string, error) {
	detail, err := j.cfg.Source.Detail(ctx, summary.ID)
	if err != nil {
		return catalog.Item{}, "detail_error", err
	}

	title := strings.TrimSpace(detail.Title)
	if title == "" {
		title = strings.TrimSpace(summary.Title)
	}
	if title == "" {
		return catalog.Item{}, "missing_title", fmt.Errorf("title %s has no name", summary.ID)
	}

	kindRaw := detail.Type
	if kindRaw == "" {
		kindRaw = summary.Type
	}
	kind, ok := metadata.MapKind(kindRaw)
	if !ok {
		return catalog.Item{}, "unknown_kind", fmt.Errorf("title %s has unknown type %q", summary.ID, kindRaw)
	}

	externalID := detail.ID
	if externalID == "" {
		externalID = summary.ID
	}

	item := catalog.Item{
		Title:      title,
		Year:       detail.Year,
		Rating:     metadata.MapRating(detail.MaturityRating),
		Genre:      firstNonEmpty(detail.Genres),
		Synopsis:   strings.TrimSpace(detail.Synopsis),
		Image:      strings.TrimSpace(detail.Poster),
		Kind:       kind,
		Language:   metadata.MapLanguage(detail.OriginalLanguage),
		ExternalID: externalID,
	}

	if j.cfg.Scraper != nil && detail.PageURL != "" && (item.Image == "" || item.Synopsis == "") {
		j.enrich(ctx, &item, detail.PageURL)
	}
	return item, "", nil
}

func (j *RefreshJob) enrich(ctx context.Context, item *catalog.Item, pageURL string) {
	meta, err := j.cfg.Scraper.Scrape(ctx, pageURL)
	if err != nil {
		j.logger.Debug().
			Err(err).
			Str("event", "refresh.enrich_failed").
			Str("external_id", item.ExternalID).
			Msg("artwork enrichment failed")
		return
	}
	if meta.Empty() {
		j.logger.Debug().
			Str("event", "refresh.enrich_empty").
			Str("external_id", item.ExternalID).
			Msg("title page carries no artwork tags")
		return
	}
	if item.Image == "" {
		item.Image = meta.Image
	}
	if item.Synopsis == "" {
		item.Synopsis = meta.Description
	}
}

func (j *RefreshJob) setStatus(update func(*Status)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	update(&j.status)
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
