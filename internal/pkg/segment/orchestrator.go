package segment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/logger"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/metrics"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/remotesearch"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultRevealStep     = 4
	DefaultWorkerPoolSize = 8
)

// Orchestrator resolves a batch of segments to cached, shared or new remote
// searches, polls them in the background and keeps one view per segment.
//
// Every batch gets a generation number. Work started for an older
// generation may still finish, but its writes to the views are discarded.
type Orchestrator struct {
	remote     remotesearch.Client
	cache      *ResultCache
	dedup      *Deduplicator
	pollers    *Pollers
	pool       *ants.Pool
	metrics    *metrics.SearchMetrics
	logger     *slog.Logger
	listener   func([]dto.SegmentView)
	revealStep int
	interval   time.Duration
	poolSize   int

	rootCtx  context.Context
	stopHost func() bool

	mu          sync.RWMutex
	views       []dto.SegmentView
	generation  uint64
	batchID     string
	batchCtx    context.Context
	batchCancel context.CancelFunc
	closed      bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCache shares a result cache between orchestrators.
func WithCache(cache *ResultCache) Option {
	return func(o *Orchestrator) {
		o.cache = cache
	}
}

// WithDeduplicator shares a submission deduplicator between orchestrators.
func WithDeduplicator(dedup *Deduplicator) Option {
	return func(o *Orchestrator) {
		o.dedup = dedup
	}
}

func WithMetrics(m *metrics.SearchMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithListener registers fn to receive a snapshot of the views after every
// change. fn runs outside the orchestrator lock and may be called from
// several goroutines at once.
func WithListener(fn func([]dto.SegmentView)) Option {
	return func(o *Orchestrator) {
		o.listener = fn
	}
}

func WithRevealStep(step int) Option {
	return func(o *Orchestrator) {
		if step > 0 {
			o.revealStep = step
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(o *Orchestrator) {
		if interval > 0 {
			o.interval = interval
		}
	}
}

// WithWorkerPoolSize bounds how many segments are resolved at once.
func WithWorkerPoolSize(size int) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.poolSize = size
		}
	}
}

// NewOrchestrator creates an orchestrator whose lifetime is bound to ctx:
// when ctx ends the orchestrator is closed.
func NewOrchestrator(ctx context.Context, remote remotesearch.Client, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		remote:     remote,
		logger:     slog.Default(),
		revealStep: DefaultRevealStep,
		interval:   DefaultPollInterval,
		poolSize:   DefaultWorkerPoolSize,
		rootCtx:    ctx,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.cache == nil {
		o.cache = NewResultCache(DefaultCacheTTL)
	}

	if o.dedup == nil {
		o.dedup = NewDeduplicator()
	}

	if o.metrics == nil {
		o.metrics = metrics.NewSearchMetrics(prometheus.NewRegistry())
	}

	pool, err := ants.NewPool(o.poolSize)
	if err != nil {
		return nil, err
	}

	o.pool = pool
	o.pollers = NewPollers(remote, o.cache, o.interval, o.metrics, o.logger)
	o.stopHost = context.AfterFunc(ctx, o.Close)

	return o, nil
}

// StartBatch discards all previous state and resolves every segment of req.
// It returns once each segment's submission has settled; polling goes on in
// the background. With req.Resume set the cache and dedup registrations are
// kept so fresh searches are re-attached instead of resubmitted.
func (o *Orchestrator) StartBatch(ctx context.Context, req dto.BatchRequest) error {
	queries := req.Queries()

	gen, batchCtx, batchID, err := o.reset(queries, req.Resume)
	if err != nil {
		return err
	}

	ctx = logger.WithBatchID(ctx, batchID)
	o.metrics.Batches.Inc()

	o.logger.InfoContext(ctx, "starting search batch",
		slog.Int("segments", len(queries)),
		slog.Bool("resume", req.Resume))

	var wg sync.WaitGroup
	wg.Add(len(queries))

	for i, q := range queries {
		task := func() {
			defer wg.Done()
			o.resolve(ctx, batchCtx, gen, i, q)
		}

		if err := o.pool.Submit(task); err != nil {
			o.logger.WarnContext(ctx, "worker pool unavailable, resolving inline",
				slog.String("error", err.Error()))
			task()
		}
	}

	wg.Wait()

	return nil
}

// Resume is StartBatch with the cached searches kept.
func (o *Orchestrator) Resume(ctx context.Context, req dto.BatchRequest) error {
	req.Resume = true

	return o.StartBatch(ctx, req)
}

// RevealMore widens the revealed window of one segment by the reveal step.
// It only pages through results that were already fetched.
func (o *Orchestrator) RevealMore(index int) (dto.SegmentView, error) {
	o.mu.Lock()

	if o.closed {
		o.mu.Unlock()
		return dto.SegmentView{}, ErrOrchestratorClosed
	}

	if index < 0 || index >= len(o.views) {
		o.mu.Unlock()
		return dto.SegmentView{}, ErrSegmentNotFound
	}

	v := &o.views[index]
	v.VisibleCount = max(o.revealStep, min(v.VisibleCount+o.revealStep, len(v.Results)))
	v.HasMore = v.VisibleCount < len(v.Results)

	view := *v
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	o.emit(snapshot)

	return view, nil
}

// Views returns the segment views in request order.
func (o *Orchestrator) Views() []dto.SegmentView {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.snapshotLocked()
}

// BatchID returns the id of the current batch.
func (o *Orchestrator) BatchID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.batchID
}

// Close stops every poll loop and freezes the views. It is safe to call more
// than once.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}

	o.closed = true
	o.generation++
	if o.batchCancel != nil {
		o.batchCancel()
	}
	o.pollers.StopAll()
	o.mu.Unlock()

	o.stopHost()
	o.pollers.Wait()
	o.pool.Release()
}

func (o *Orchestrator) reset(queries []dto.SearchQuery, resume bool) (uint64, context.Context, string, error) {
	o.mu.Lock()

	if o.closed {
		o.mu.Unlock()
		return 0, nil, "", ErrOrchestratorClosed
	}

	o.generation++
	if o.batchCancel != nil {
		o.batchCancel()
	}

	// pollers go first so none of them can write into the cleared cache
	o.pollers.StopAll()
	if !resume {
		o.cache.Clear()
		o.dedup.Clear()
	}

	o.batchID = uuid.NewString()
	o.batchCtx, o.batchCancel = context.WithCancel(logger.WithBatchID(o.rootCtx, o.batchID))

	o.views = make([]dto.SegmentView, len(queries))
	for i, q := range queries {
		o.views[i] = dto.SegmentView{
			Query:        q,
			Key:          BuildKey(q),
			Results:      []dto.ResultItem{},
			Loading:      true,
			VisibleCount: o.revealStep,
			State:        StateIdle.String(),
		}
	}

	gen, batchCtx, batchID := o.generation, o.batchCtx, o.batchID
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	o.emit(snapshot)

	return gen, batchCtx, batchID, nil
}

func (o *Orchestrator) resolve(ctx, batchCtx context.Context, gen uint64, index int, q dto.SearchQuery) {
	key := BuildKey(q)
	log := o.logger.With(slog.Int("segment", index), slog.String("key", key))

	if entry, ok := o.cache.GetFresh(key); ok {
		o.metrics.CacheLookups.WithLabelValues("hit").Inc()
		log.DebugContext(ctx, "segment served from cache",
			slog.Bool("complete", entry.Complete),
			slog.Int("results", len(entry.Results)))

		state, msg := cachedState(entry)
		if !o.apply(gen, Update{Key: key, Entry: entry, State: state, Message: msg}) {
			return
		}

		if !entry.Complete {
			o.poll(batchCtx, gen, key, q, entry)
		}

		return
	}

	o.metrics.CacheLookups.WithLabelValues("miss").Inc()

	searchID, shared, err := o.dedup.Begin(ctx, key, func(ctx context.Context) (string, error) {
		return o.submit(ctx, q)
	})
	if err != nil {
		log.WarnContext(ctx, "failed to start remote search", slog.String("error", err.Error()))

		entry, _ := o.cache.Get(key)
		entry.Complete = true
		o.apply(gen, Update{
			Key:     key,
			Entry:   entry,
			State:   StateFailed,
			Message: MsgSubmitFailed,
			Err:     ErrSubmissionFailed.WithCause(err),
		})

		return
	}

	log.DebugContext(ctx, "remote search started",
		slog.String("search_id", searchID),
		slog.Bool("shared", shared))

	entry, ok := o.seed(gen, key, searchID)
	if !ok {
		return
	}

	// a duplicate segment may find the shared search already finished
	state, msg := cachedState(entry)
	if o.apply(gen, Update{Key: key, Entry: entry, State: state, Message: msg}) && !entry.Complete {
		o.poll(batchCtx, gen, key, q, entry)
	}
}

func (o *Orchestrator) submit(ctx context.Context, q dto.SearchQuery) (string, error) {
	searchID, retried, err := retryOnce(ctx, o.logger, "submit_search",
		func(ctx context.Context) (string, error) {
			return o.remote.SubmitSearch(ctx, q)
		})

	switch {
	case err != nil:
		o.metrics.Submissions.WithLabelValues(metrics.OutcomeFailure).Inc()
	case retried:
		o.metrics.Submissions.WithLabelValues(metrics.OutcomeRetried).Inc()
	default:
		o.metrics.Submissions.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}

	return searchID, err
}

// seed stores a fresh entry for a new search unless an entry for the same
// search is already there (a duplicate segment got to it first).
func (o *Orchestrator) seed(gen uint64, key, searchID string) (CacheEntry, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.currentLocked(gen) {
		return CacheEntry{}, false
	}

	entry, _ := o.cache.Update(key, func(prev CacheEntry, found bool) (CacheEntry, bool) {
		if found && prev.SearchID == searchID && o.cache.IsFresh(prev) {
			return prev, false
		}

		return CacheEntry{SearchID: searchID, Results: []dto.ResultItem{}}, true
	})

	return entry, true
}

// poll starts the loop for key while gen is still the current batch. Holding
// the read lock keeps reset and Close from stopping the pollers in between.
func (o *Orchestrator) poll(batchCtx context.Context, gen uint64, key string, q dto.SearchQuery, entry CacheEntry) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.currentLocked(gen) {
		return
	}

	o.pollers.Start(batchCtx, PollRequest{
		Key:      key,
		SearchID: entry.SearchID,
		Cursor:   entry.Cursor,
		Query:    q,
		Found:    len(entry.Results),
		Notify: func(upd Update) bool {
			return o.apply(gen, upd)
		},
	})
}

// apply writes upd into every view of the key. It returns false when gen is
// no longer the current batch.
func (o *Orchestrator) apply(gen uint64, upd Update) bool {
	o.mu.Lock()

	if !o.currentLocked(gen) {
		o.mu.Unlock()
		return false
	}

	for i := range o.views {
		if o.views[i].Key == upd.Key {
			applyToView(&o.views[i], upd)
		}
	}

	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	o.emit(snapshot)

	return true
}

func (o *Orchestrator) currentLocked(gen uint64) bool {
	return !o.closed && gen == o.generation
}

func (o *Orchestrator) snapshotLocked() []dto.SegmentView {
	views := make([]dto.SegmentView, len(o.views))
	copy(views, o.views)

	return views
}

func (o *Orchestrator) emit(snapshot []dto.SegmentView) {
	if o.listener != nil {
		o.listener(snapshot)
	}
}

func applyToView(v *dto.SegmentView, upd Update) {
	if upd.Entry.Results != nil {
		v.Results = upd.Entry.Results
	}

	v.Progress = max(v.Progress, upd.Entry.Progress)
	v.SearchID = upd.Entry.SearchID
	v.Cursor = upd.Entry.Cursor
	v.State = upd.State.String()
	v.Complete = v.Complete || upd.Entry.Complete || upd.State.Terminal()
	v.Loading = !v.Complete
	v.HasMore = v.VisibleCount < len(v.Results)

	switch {
	case upd.State == StateCompleted:
		v.Error = ""
	case upd.Message != "":
		v.Error = upd.Message
	}
}

// cachedState describes an entry found in the cache, whose poll state is
// not stored with it.
func cachedState(entry CacheEntry) (State, string) {
	switch {
	case !entry.Complete:
		return StateActive, ""
	case len(entry.Results) > 0:
		return StateCompleted, ""
	default:
		return StateStalledNoResults, MsgNoFlights
	}
}
