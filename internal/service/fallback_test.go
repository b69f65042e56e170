package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/spacenews/internal/cms"
	"github.com/templui/spacenews/internal/model"
)

// gatedFetcher blocks every fetch until release is closed.
type gatedFetcher struct {
	release chan struct{}
	calls   atomic.Int32

	mu    sync.Mutex
	posts map[string]*model.PostDetail
	err   error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		release: make(chan struct{}),
		posts:   make(map[string]*model.PostDetail),
	}
}

func (f *gatedFetcher) Post(ctx context.Context, uid string) (*model.PostDetail, error) {
	f.calls.Add(1)
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	post, ok := f.posts[uid]
	if !ok {
		return nil, &FetchError{Op: "get post " + uid, Err: cms.ErrNotFound}
	}
	return post, nil
}

func (f *gatedFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func openFetcher() *gatedFetcher {
	f := newGatedFetcher()
	close(f.release)
	return f
}

func TestFallbackResolver_KnownPostIsReady(t *testing.T) {
	t.Parallel()

	blog := newTestBlog(newStubCMS(), nil)
	blog.Add(&model.PostDetail{UID: "built"})
	fetcher := openFetcher()
	resolver := NewFallbackResolver(fetcher, blog, nil, time.Second, time.Minute)

	res := resolver.Resolve(context.Background(), "built")
	assert.Equal(t, StatusReady, res.Status)
	require.NotNil(t, res.Post)
	assert.Equal(t, "built", res.Post.UID)
	assert.Zero(t, fetcher.calls.Load())
}

func TestFallbackResolver_PendingThenReady(t *testing.T) {
	t.Parallel()

	blog := newTestBlog(newStubCMS(), nil)
	fetcher := newGatedFetcher()
	fetcher.posts["late"] = &model.PostDetail{UID: "late", Title: "Late post"}
	recorder := &buildRecorder{}
	resolver := NewFallbackResolver(fetcher, blog, recorder, time.Second, time.Minute)
	ctx := context.Background()

	assert.Equal(t, StatusPending, resolver.Resolve(ctx, "late").Status)
	assert.Equal(t, StatusPending, resolver.Resolve(ctx, "late").Status)

	close(fetcher.release)
	res, err := resolver.Wait(ctx, "late")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.Equal(t, "Late post", res.Post.Title)

	// resolved posts join the store
	stored, ok := blog.Post("late")
	require.True(t, ok)
	assert.Same(t, res.Post, stored)
	assert.Equal(t, StatusReady, resolver.Resolve(ctx, "late").Status)

	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Equal(t, []string{"pending", "pending", "ready"}, recorder.statuses)
}

func TestFallbackResolver_ConcurrentRequestsShareOneFetch(t *testing.T) {
	t.Parallel()

	blog := newTestBlog(newStubCMS(), nil)
	fetcher := newGatedFetcher()
	fetcher.posts["hot"] = &model.PostDetail{UID: "hot"}
	resolver := NewFallbackResolver(fetcher, blog, nil, time.Second, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]Resolution, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = resolver.Resolve(ctx, "hot")
		}()
	}
	wg.Wait()

	for _, res := range results {
		assert.Equal(t, StatusPending, res.Status)
	}

	close(fetcher.release)

	waiters := make([]Resolution, 4)
	for i := range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := resolver.Wait(ctx, "hot")
			assert.NoError(t, err)
			waiters[i] = res
		}()
	}
	wg.Wait()

	for _, res := range waiters {
		assert.Equal(t, StatusReady, res.Status)
	}
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestFallbackResolver_NotFoundIsRemembered(t *testing.T) {
	t.Parallel()

	blog := newTestBlog(newStubCMS(), nil)
	fetcher := openFetcher()
	resolver := NewFallbackResolver(fetcher, blog, nil, time.Second, time.Minute)

	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	resolver.now = func() time.Time { return now }
	ctx := context.Background()

	res, err := resolver.Wait(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)
	assert.Nil(t, res.Post)

	now = now.Add(30 * time.Second)
	assert.Equal(t, StatusNotFound, resolver.Resolve(ctx, "ghost").Status)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	// after the TTL the slug is looked up again
	now = now.Add(time.Minute)
	assert.Equal(t, StatusPending, resolver.Resolve(ctx, "ghost").Status)
	res, err = resolver.Wait(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestFallbackResolver_ZeroTTLStillReportsNotFound(t *testing.T) {
	t.Parallel()

	blog := newTestBlog(newStubCMS(), nil)
	resolver := NewFallbackResolver(openFetcher(), blog, nil, time.Second, 0)

	res, err := resolver.Wait(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)
}

func TestFallbackResolver_FailureIsReportedOnce(t *testing.T) {
	t.Parallel()

	blog := newTestBlog(newStubCMS(), nil)
	fetcher := openFetcher()
	fetcher.setErr(errors.New("503 from cms"))
	resolver := NewFallbackResolver(fetcher, blog, nil, time.Second, time.Minute)
	ctx := context.Background()

	res, err := resolver.Wait(ctx, "flaky")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "503 from cms")

	// the failure was consumed so the next request retries
	fetcher.setErr(nil)
	fetcher.mu.Lock()
	fetcher.posts["flaky"] = &model.PostDetail{UID: "flaky"}
	fetcher.mu.Unlock()

	res, err = resolver.Wait(ctx, "flaky")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestFallbackResolver_WaitHonoursContext(t *testing.T) {
	t.Parallel()

	blog := newTestBlog(newStubCMS(), nil)
	fetcher := newGatedFetcher()
	resolver := NewFallbackResolver(fetcher, blog, nil, time.Minute, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := resolver.Wait(ctx, "slow")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusPending, res.Status)

	close(fetcher.release)
}

func TestFallbackResolver_FetchTimeout(t *testing.T) {
	t.Parallel()

	blog := newTestBlog(newStubCMS(), nil)
	fetcher := newGatedFetcher()
	resolver := NewFallbackResolver(fetcher, blog, nil, 10*time.Millisecond, time.Minute)

	res, err := resolver.Wait(context.Background(), "stuck")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestFallbackResolver_SettledEntriesAreSwept(t *testing.T) {
	t.Parallel()

	blog := newTestBlog(newStubCMS(), nil)
	resolver := NewFallbackResolver(openFetcher(), blog, nil, time.Second, time.Minute)

	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	resolver.now = func() time.Time { return now }
	ctx := context.Background()

	entries := func() int {
		resolver.mu.Lock()
		defer resolver.mu.Unlock()
		return len(resolver.entries)
	}

	// a first wave of random slugs, each seen once as pending and never again
	for i := range 50 {
		slug := fmt.Sprintf("aleatorio-%d", i)
		assert.Equal(t, StatusPending, resolver.Resolve(ctx, slug).Status)
		_, err := resolver.Wait(ctx, slug)
		require.NoError(t, err)
	}
	assert.Equal(t, 50, entries())

	// later waves only keep what is still within the retention window
	for wave := 1; wave <= 3; wave++ {
		now = now.Add(2 * time.Minute)
		for i := range 50 {
			slug := fmt.Sprintf("onda-%d-%d", wave, i)
			resolver.Resolve(ctx, slug)
			_, err := resolver.Wait(ctx, slug)
			require.NoError(t, err)
		}
		assert.LessOrEqual(t, entries(), 50)
	}
}

func TestFallbackResolver_SweepKeepsFreshMisses(t *testing.T) {
	t.Parallel()

	blog := newTestBlog(newStubCMS(), nil)
	fetcher := openFetcher()
	resolver := NewFallbackResolver(fetcher, blog, nil, time.Second, 0)

	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	resolver.now = func() time.Time { return now }
	ctx := context.Background()

	assert.Equal(t, StatusPending, resolver.Resolve(ctx, "recente").Status)
	require.Eventually(t, func() bool {
		resolver.mu.Lock()
		defer resolver.mu.Unlock()
		e, ok := resolver.entries["recente"]
		return ok && e.status == StatusNotFound
	}, time.Second, time.Millisecond)

	// another settle inside the retention window must not drop the unseen miss
	now = now.Add(40 * time.Second)
	_, err := resolver.Wait(ctx, "outro")
	require.NoError(t, err)

	assert.Equal(t, StatusNotFound, resolver.Resolve(ctx, "recente").Status)
}
