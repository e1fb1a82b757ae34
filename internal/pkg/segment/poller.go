package segment

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/metrics"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/remotesearch"
)

const DefaultPollInterval = 800 * time.Millisecond

const (
	// at or above this completion, consecutive empty pages end the search early
	emptyFastFailProgress = 50
	emptyCycleCeiling     = 5

	idleCeilingNothingFound = 5
	idleCeilingFound        = 8
)

// State of a poll loop. Every state after StateActive is terminal.
type State int

const (
	StateIdle State = iota
	StateActive
	StateCompleted
	StateStalledNoResults
	StateStalledIdle
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateStalledNoResults:
		return "stalled_no_results"
	case StateStalledIdle:
		return "stalled_idle"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

func (s State) Terminal() bool {
	return s > StateActive
}

// Update is what a poll cycle reports to its owner.
type Update struct {
	Key     string
	Entry   CacheEntry
	State   State
	Message string
	Err     error
}

// Fetcher polls a remote search for results after cursor.
type Fetcher interface {
	FetchResults(ctx context.Context, searchID, cursor string) (remotesearch.Page, error)
}

// PollRequest starts polling one remote search. Found is the number of
// results already merged for the key, Notify receives every cycle's update
// and returns false when the owner no longer accepts updates.
type PollRequest struct {
	Key      string
	SearchID string
	Cursor   string
	Query    dto.SearchQuery
	Found    int
	Notify   func(Update) bool
}

// pollTask is the per-key poll state. Only the loop goroutine touches the
// counters; active may be cleared from anywhere.
type pollTask struct {
	key      string
	searchID string
	cursor   string
	query    dto.SearchQuery
	notify   func(Update) bool

	active atomic.Bool
	done   <-chan struct{}
	cancel context.CancelFunc

	idleCycles  int
	emptyCycles int
	found       int
}

// Pollers runs at most one poll loop per key.
type Pollers struct {
	fetcher  Fetcher
	cache    *ResultCache
	interval time.Duration
	metrics  *metrics.SearchMetrics
	logger   *slog.Logger

	mu    sync.Mutex
	tasks map[string]*pollTask
	wg    sync.WaitGroup
}

func NewPollers(fetcher Fetcher, cache *ResultCache, interval time.Duration,
	m *metrics.SearchMetrics, logger *slog.Logger,
) *Pollers {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Pollers{
		fetcher:  fetcher,
		cache:    cache,
		interval: interval,
		metrics:  m,
		logger:   logger,
		tasks:    make(map[string]*pollTask),
	}
}

// Start launches a poll loop for req.Key. It is a no-op returning false when
// ctx is already done or a live loop for that key is running. A registered
// loop whose context has ended is replaced.
func (p *Pollers) Start(ctx context.Context, req PollRequest) bool {
	if ctx.Err() != nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.tasks[req.Key]; ok {
		if existing.live() {
			return false
		}

		existing.active.Store(false)
		existing.cancel()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	task := &pollTask{
		key:      req.Key,
		searchID: req.SearchID,
		cursor:   req.Cursor,
		query:    req.Query,
		notify:   req.Notify,
		done:     loopCtx.Done(),
		cancel:   cancel,
		found:    req.Found,
	}
	task.active.Store(true)
	p.tasks[req.Key] = task

	p.wg.Add(1)
	p.metrics.ActivePollers.Inc()

	go p.run(loopCtx, task)

	return true
}

// StopAll deactivates every loop and cancels its pending wait or fetch.
func (p *Pollers) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, task := range p.tasks {
		task.active.Store(false)
		task.cancel()
	}

	p.tasks = make(map[string]*pollTask)
}

// Active reports whether a loop for key is running.
func (p *Pollers) Active(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	task, ok := p.tasks[key]

	return ok && task.live()
}

func (p *Pollers) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.tasks)
}

// Wait blocks until every loop goroutine has returned.
func (p *Pollers) Wait() {
	p.wg.Wait()
}

func (p *Pollers) run(ctx context.Context, t *pollTask) {
	defer p.finish(t)

	log := p.logger.With(slog.String("key", t.key), slog.String("search_id", t.searchID))

	for {
		page, err := p.fetch(ctx, t)
		if !t.active.Load() || ctx.Err() != nil {
			return
		}

		var upd Update
		if err != nil {
			upd = p.failed(t, err)
		} else {
			var written bool
			upd, written = p.apply(t, page)
			if !written {
				return
			}
		}

		if !t.notify(upd) {
			return
		}

		if upd.State.Terminal() {
			p.metrics.PollOutcomes.WithLabelValues(upd.State.String()).Inc()
			log.InfoContext(ctx, "poll loop finished",
				slog.String("state", upd.State.String()),
				slog.Int("results", len(upd.Entry.Results)),
				slog.Int("progress", upd.Entry.Progress),
				slog.Any("error", upd.Err))

			return
		}

		log.DebugContext(ctx, "poll cycle settled",
			slog.Int("progress", upd.Entry.Progress),
			slog.Int("results", len(upd.Entry.Results)),
			slog.Int("idle_cycles", t.idleCycles),
			slog.Int("empty_cycles", t.emptyCycles))

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if !t.active.Load() {
			return
		}
	}
}

// live reports whether t is active and its context has not ended.
func (t *pollTask) live() bool {
	if !t.active.Load() {
		return false
	}

	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (p *Pollers) finish(t *pollTask) {
	t.active.Store(false)
	t.cancel()

	p.mu.Lock()
	if p.tasks[t.key] == t {
		delete(p.tasks, t.key)
	}
	p.mu.Unlock()

	p.metrics.ActivePollers.Dec()
	p.wg.Done()
}

func (p *Pollers) fetch(ctx context.Context, t *pollTask) (remotesearch.Page, error) {
	page, retried, err := retryOnce(ctx, p.logger, "fetch_results",
		func(ctx context.Context) (remotesearch.Page, error) {
			page, err := p.fetcher.FetchResults(ctx, t.searchID, t.cursor)
			if err != nil {
				return remotesearch.Page{}, err
			}

			if err := page.Validate(); err != nil {
				return remotesearch.Page{}, err
			}

			return page, nil
		})

	switch {
	case err != nil && ctx.Err() != nil:
		return remotesearch.Page{}, err
	case err != nil:
		p.metrics.Fetches.WithLabelValues(metrics.OutcomeFailure).Inc()
		return remotesearch.Page{}, ErrFetchFailed.WithCause(err)
	case retried:
		p.metrics.Fetches.WithLabelValues(metrics.OutcomeRetried).Inc()
	default:
		p.metrics.Fetches.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}

	page.Results = remotesearch.FilterResults(page.Results, t.query)

	return page, nil
}

// apply merges page into the cache entry of t. The write happens under the
// cache lock and only while t is active, so a deactivated loop can never
// leave an entry behind after the cache was cleared.
func (p *Pollers) apply(t *pollTask, page remotesearch.Page) (Update, bool) {
	var upd Update

	_, written := p.cache.Update(t.key, func(prev CacheEntry, _ bool) (CacheEntry, bool) {
		if !t.active.Load() {
			return prev, false
		}

		upd = t.evaluate(prev, page)

		return upd.Entry, true
	})

	return upd, written
}

// failed reports a cycle whose fetch failed twice. The cache is left as is
// so a later resume can pick the search up again.
func (p *Pollers) failed(t *pollTask, err error) Update {
	entry, _ := p.cache.Get(t.key)
	entry.Complete = true

	msg := MsgFetchFailedNoResults
	if len(entry.Results) > 0 {
		msg = MsgPartialResults
	}

	return Update{
		Key:     t.key,
		Entry:   entry,
		State:   StateFailed,
		Message: msg,
		Err:     err,
	}
}

// evaluate advances the state machine by one fetched page.
func (t *pollTask) evaluate(prev CacheEntry, page remotesearch.Page) Update {
	merged, added := MergeResults(prev.Results, page.Results)
	completion := page.Completion.Value
	t.found += added

	next := CacheEntry{
		Results:  merged,
		Complete: prev.Complete,
		Progress: max(prev.Progress, completion),
		Cursor:   prev.Cursor,
		SearchID: t.searchID,
	}

	if page.Cursor != "" {
		next.Cursor = page.Cursor
		t.cursor = page.Cursor
	}

	if len(page.Results) == 0 {
		t.emptyCycles++
	} else {
		t.emptyCycles = 0
	}

	if added == 0 && completion < 100 {
		t.idleCycles++
	} else {
		t.idleCycles = 0
	}

	upd := Update{Key: t.key, State: StateActive}

	switch {
	case completion >= 100 || page.NoResults():
		next.Progress = 100
		upd.State = StateCompleted
		if len(merged) == 0 {
			upd.State = StateStalledNoResults
			upd.Message = MsgNoFlights
			upd.Err = ErrNoResults
		}
	case completion >= emptyFastFailProgress && t.emptyCycles >= emptyCycleCeiling:
		upd.State = StateStalledNoResults
		if len(merged) == 0 {
			upd.Message = MsgNoFlightsAfterAttempts
			upd.Err = ErrStallTimeout
		}
	case t.idleCycles >= t.idleCeiling():
		upd.State = StateStalledIdle
		if len(merged) == 0 {
			upd.State = StateStalledNoResults
			upd.Message = MsgNoFlights
			upd.Err = ErrStallTimeout
		}
	}

	if upd.State.Terminal() {
		next.Complete = true
	}

	upd.Entry = next

	return upd
}

func (t *pollTask) idleCeiling() int {
	if t.found == 0 {
		return idleCeilingNothingFound
	}

	return idleCeilingFound
}
