package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pevans/newswire"
	"github.com/pevans/newswire/config"
)

// Fetcher acquires items for one source. Total failure is represented by an
// empty result, never an error; the fetch chain satisfies this.
type Fetcher interface {
	Fetch(ctx context.Context, src config.Source) []newswire.Item
}

// Engine runs refresh cycles against the store: concurrent per-source
// fetches, recency filtering, deduplication, and the stage-then-commit merge
// protocol.
type Engine struct {
	store   *Store
	fetcher Fetcher
	sources []config.Source
	window  time.Duration
	logger  *slog.Logger
	notify  func(count int)

	// cycleMu serializes refresh cycles: a tick that fires while a cycle
	// is still in flight waits instead of overlapping it.
	cycleMu sync.Mutex

	// now is swapped in tests to pin the recency cutoff.
	now func() time.Time
}

// NewEngine wires a reconciliation engine over the given store.
func NewEngine(store *Store, fetcher Fetcher, sources []config.Source, window time.Duration, logger *slog.Logger) *Engine {
	return &Engine{
		store:   store,
		fetcher: fetcher,
		sources: sources,
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
}

// OnNewItems registers the consumer's "new items available" hook. Only the
// count is reported; content stays staged until commit. Must be set before
// the poller starts.
func (e *Engine) OnNewItems(fn func(count int)) {
	e.notify = fn
}

// Store exposes the underlying item state for read-only consumers.
func (e *Engine) Store() *Store {
	return e.store
}

type sourceResult struct {
	name  string
	items []newswire.Item
}

// Refresh runs one full cycle. On first load the collection is replaced
// wholesale; on background refresh new arrivals are staged as the pending
// set and the consumer is notified with the count. A cycle where every
// source fails still completes and leaves the collection unchanged.
func (e *Engine) Refresh(ctx context.Context, firstLoad bool) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	log := e.logger.With("cycle", uuid.NewString())
	log.Info("refresh cycle starting", "sources", len(e.sources), "first_load", firstLoad)

	candidates := e.fetchAll(ctx, log)

	cutoff := e.now().Add(-e.window)
	recent := candidates[:0]
	for _, it := range candidates {
		if !it.PublishedAt.Before(cutoff) {
			recent = append(recent, it)
		}
	}

	sortItems(recent)
	recent = dedupeSorted(recent)

	if firstLoad {
		e.store.ReplaceAll(recent)
		log.Info("collection loaded", "items", len(recent))
		return
	}

	staged := e.store.StageNew(recent)
	log.Info("refresh cycle complete", "fetched", len(candidates), "eligible", len(recent), "staged", staged)

	if staged > 0 && e.notify != nil {
		e.notify(staged)
	}
}

// fetchAll fans out one goroutine per source and joins all results. No
// source's failure cancels another's in-flight request; a failed source
// simply contributes zero items.
func (e *Engine) fetchAll(ctx context.Context, log *slog.Logger) []newswire.Item {
	results := make(chan sourceResult, len(e.sources))

	var wg sync.WaitGroup
	for _, src := range e.sources {
		wg.Add(1)
		go func(src config.Source) {
			defer wg.Done()
			results <- sourceResult{name: src.Name, items: e.fetcher.Fetch(ctx, src)}
		}(src)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []newswire.Item
	for res := range results {
		log.Debug("source resolved", "source", res.name, "items", len(res.items))
		all = append(all, res.items...)
	}
	return all
}

// Commit merges the pending set into the collection and reports which items
// became newly visible, so the consumer can highlight them.
func (e *Engine) Commit() []newswire.Item {
	fresh := e.store.CommitPending()
	if len(fresh) > 0 {
		e.logger.Info("pending items committed", "items", len(fresh))
	}
	return fresh
}
