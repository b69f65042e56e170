package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/spacenews/internal/metrics"
	"github.com/templui/spacenews/internal/model"
)

type buildRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	builds   []bool
	pages    int
	statuses []string
}

func (r *buildRecorder) ObservePageBuild(_ time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds = append(r.builds, success)
}

func (r *buildRecorder) SetPagesBuilt(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = n
}

func (r *buildRecorder) IncFallbackResolution(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func newTestBlog(stub *stubCMS, recorder metrics.Recorder) *BlogService {
	return NewBlogService(stub, NewListingService(stub, 1), NewPostService(stub), recorder)
}

func TestBlogService_Build(t *testing.T) {
	t.Parallel()

	stub := newStubCMS()
	stub.page("", "c2", summaryRecord("alpha"))
	stub.records["alpha"] = fullRecord("alpha", section("A", words(200)))
	stub.records["beta"] = fullRecord("beta", section("B", words(10)))

	recorder := &buildRecorder{}
	blog := newTestBlog(stub, recorder)

	_, built := blog.Index()
	assert.False(t, built)

	require.NoError(t, blog.Build(context.Background()))

	index, built := blog.Index()
	require.True(t, built)
	assert.Equal(t, []string{"alpha"}, uidsOf(index.Loaded))
	assert.Equal(t, "c2", index.NextCursor)

	post, ok := blog.Post("beta")
	require.True(t, ok)
	assert.Equal(t, "beta", post.UID)

	posts := blog.Posts()
	require.Len(t, posts, 2)
	assert.Equal(t, "alpha", posts[0].UID)
	assert.Equal(t, "beta", posts[1].UID)
	assert.False(t, blog.BuiltAt().IsZero())

	assert.Equal(t, []bool{true}, recorder.builds)
	assert.Equal(t, 2, recorder.pages)
}

func TestBlogService_BuildSkipsMalformedPosts(t *testing.T) {
	t.Parallel()

	stub := newStubCMS()
	stub.page("", "", summaryRecord("good"))
	stub.records["good"] = fullRecord("good", section("G", words(5)))
	broken := fullRecord("broken")
	broken.Data.Content = json.RawMessage(`{"not":"a list"}`)
	stub.records["broken"] = broken

	blog := newTestBlog(stub, nil)
	require.NoError(t, blog.Build(context.Background()))

	_, ok := blog.Post("broken")
	assert.False(t, ok)
	_, ok = blog.Post("good")
	assert.True(t, ok)
	assert.Len(t, blog.Posts(), 1)
}

func TestBlogService_FailedBuildKeepsPrevious(t *testing.T) {
	t.Parallel()

	stub := newStubCMS()
	stub.page("", "", summaryRecord("first"))
	stub.records["first"] = fullRecord("first", section("F", words(5)))

	recorder := &buildRecorder{}
	blog := newTestBlog(stub, recorder)
	require.NoError(t, blog.Build(context.Background()))
	builtAt := blog.BuiltAt()

	stub.mu.Lock()
	stub.uidsErr = errors.New("cms unavailable")
	stub.mu.Unlock()

	err := blog.Build(context.Background())
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)

	index, built := blog.Index()
	assert.True(t, built)
	assert.Equal(t, []string{"first"}, uidsOf(index.Loaded))
	_, ok := blog.Post("first")
	assert.True(t, ok)
	assert.Equal(t, builtAt, blog.BuiltAt())
	assert.Equal(t, []bool{true, false}, recorder.builds)
	assert.Equal(t, 1, recorder.pages)
}

func TestBlogService_FailedListingKeepsPrevious(t *testing.T) {
	t.Parallel()

	stub := newStubCMS()
	stub.page("", "", summaryRecord("first"))
	stub.records["first"] = fullRecord("first")

	blog := newTestBlog(stub, nil)
	require.NoError(t, blog.Build(context.Background()))

	stub.mu.Lock()
	stub.err = errors.New("timeout")
	stub.mu.Unlock()

	require.Error(t, blog.Build(context.Background()))
	assert.Len(t, blog.Posts(), 1)
}

func TestBlogService_Add(t *testing.T) {
	t.Parallel()

	blog := newTestBlog(newStubCMS(), nil)

	blog.Add(nil)
	blog.Add(&model.PostDetail{})
	assert.Empty(t, blog.Posts())

	blog.Add(&model.PostDetail{UID: "late", Title: "v1"})
	blog.Add(&model.PostDetail{UID: "later"})
	blog.Add(&model.PostDetail{UID: "late", Title: "v2"})

	posts := blog.Posts()
	require.Len(t, posts, 2)
	assert.Equal(t, "late", posts[0].UID)
	assert.Equal(t, "v2", posts[0].Title)
	assert.Equal(t, "later", posts[1].UID)

	_, built := blog.Index()
	assert.False(t, built)
}
