package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/templui/spacenews/internal/cms"
	"github.com/templui/spacenews/internal/metrics"
	"github.com/templui/spacenews/internal/model"
)

type Status string

const (
	// minRetention keeps a settled entry long enough for a refreshing loading
	// page to observe it, even with a zero not-found TTL.
	minRetention = time.Minute
	sweepEvery   = 30 * time.Second
)

const (
	StatusPending  Status = "pending"
	StatusReady    Status = "ready"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// Resolution is what a caller observes for a slug at one point in time.
type Resolution struct {
	Status Status
	Post   *model.PostDetail
	Err    error // set when Status is StatusFailed
}

// PostFetcher loads and assembles a single post.
type PostFetcher interface {
	Post(ctx context.Context, uid string) (*model.PostDetail, error)
}

// PostStore is where resolved posts end up.
type PostStore interface {
	Post(uid string) (*model.PostDetail, bool)
	Add(post *model.PostDetail)
}

type fallbackEntry struct {
	status   Status
	err      error
	settled  time.Time
	expires  time.Time
	observed bool
}

// FallbackResolver resolves posts that were not part of the build.
//
// Resolve never blocks: the first request for an unknown slug starts a
// background fetch and observes StatusPending until it settles. Posts found
// are added to the store, misses are remembered for notFoundTTL and a failed
// fetch is reported once as StatusFailed before the slug becomes resolvable
// again. Settled entries nobody asks about again are swept after their
// retention so arbitrary slugs cannot grow the table.
type FallbackResolver struct {
	fetcher     PostFetcher
	store       PostStore
	recorder    metrics.Recorder
	timeout     time.Duration
	notFoundTTL time.Duration
	now         func() time.Time

	group     singleflight.Group
	mu        sync.Mutex
	entries   map[string]*fallbackEntry
	lastSweep time.Time
}

func NewFallbackResolver(fetcher PostFetcher, store PostStore, recorder metrics.Recorder, timeout, notFoundTTL time.Duration) *FallbackResolver {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FallbackResolver{
		fetcher:     fetcher,
		store:       store,
		recorder:    recorder,
		timeout:     timeout,
		notFoundTTL: notFoundTTL,
		now:         time.Now,
		entries:     make(map[string]*fallbackEntry),
	}
}

// Resolve reports the current status of slug, starting a fetch if nothing is known about it.
func (r *FallbackResolver) Resolve(ctx context.Context, slug string) Resolution {
	res := r.resolve(slug)
	r.recorder.IncFallbackResolution(string(res.Status))
	if res.Status == StatusFailed {
		slog.WarnContext(ctx, "fallback resolution failed", "slug", slug, "error", res.Err)
	}
	return res
}

func (r *FallbackResolver) resolve(slug string) Resolution {
	if post, ok := r.store.Post(slug); ok {
		return Resolution{Status: StatusReady, Post: post}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The fetch may have landed between the store lookup and taking the lock.
	if post, ok := r.store.Post(slug); ok {
		return Resolution{Status: StatusReady, Post: post}
	}

	if res, ok := r.settledLocked(slug); ok {
		return res
	}
	if e, ok := r.entries[slug]; ok && e.status == StatusPending {
		return Resolution{Status: StatusPending}
	}

	r.entries[slug] = &fallbackEntry{status: StatusPending}
	r.load(slug)

	return Resolution{Status: StatusPending}
}

// Wait blocks until slug reaches a terminal status or ctx is done.
func (r *FallbackResolver) Wait(ctx context.Context, slug string) (Resolution, error) {
	if post, ok := r.store.Post(slug); ok {
		return Resolution{Status: StatusReady, Post: post}, nil
	}

	r.mu.Lock()
	if res, ok := r.settledLocked(slug); ok {
		r.mu.Unlock()
		return res, nil
	}
	if _, ok := r.entries[slug]; !ok {
		r.entries[slug] = &fallbackEntry{status: StatusPending}
	}
	ch := r.load(slug)
	r.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
		return Resolution{Status: StatusPending}, ctx.Err()
	}

	if post, ok := r.store.Post(slug); ok {
		return Resolution{Status: StatusReady, Post: post}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.settledLocked(slug); ok {
		return res, nil
	}
	return Resolution{Status: StatusPending}, nil
}

// settledLocked returns a terminal resolution for slug if one is recorded.
// A miss is reported at least once even with a zero TTL, expired misses are
// dropped afterwards and failures are consumed. Callers hold r.mu.
func (r *FallbackResolver) settledLocked(slug string) (Resolution, bool) {
	e, ok := r.entries[slug]
	if !ok {
		return Resolution{}, false
	}

	switch e.status {
	case StatusNotFound:
		if !e.observed || r.now().Before(e.expires) {
			e.observed = true
			return Resolution{Status: StatusNotFound}, true
		}
		delete(r.entries, slug)
	case StatusFailed:
		delete(r.entries, slug)
		return Resolution{Status: StatusFailed, Err: e.err}, true
	}
	return Resolution{}, false
}

// load starts (or joins) the fetch for slug. The fetch outlives the request
// that triggered it and is bounded by r.timeout.
func (r *FallbackResolver) load(slug string) <-chan singleflight.Result {
	return r.group.DoChan(slug, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		post, err := r.fetcher.Post(ctx, slug)
		r.settle(slug, post, err)
		return post, err
	})
}

func (r *FallbackResolver) settle(slug string, post *model.PostDetail, err error) {
	if err == nil {
		r.store.Add(post)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	switch {
	case err == nil:
		delete(r.entries, slug)
		slog.Info("fallback post resolved", "slug", slug)
	case errors.Is(err, cms.ErrNotFound):
		r.entries[slug] = &fallbackEntry{status: StatusNotFound, settled: now, expires: now.Add(r.notFoundTTL)}
	default:
		r.entries[slug] = &fallbackEntry{status: StatusFailed, err: err, settled: now}
	}

	if now.Sub(r.lastSweep) >= sweepEvery {
		r.sweepLocked(now)
	}
}

// sweepLocked drops settled entries older than their retention. Pending
// entries stay until their fetch settles. Callers hold r.mu.
func (r *FallbackResolver) sweepLocked(now time.Time) {
	r.lastSweep = now
	retention := max(r.notFoundTTL, minRetention)
	for slug, e := range r.entries {
		if e.status != StatusPending && !now.Before(e.settled.Add(retention)) {
			delete(r.entries, slug)
		}
	}
}
