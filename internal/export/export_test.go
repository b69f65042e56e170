package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/spacenews/internal/config"
	"github.com/templui/spacenews/internal/model"
	"github.com/templui/spacenews/internal/service"
	"github.com/templui/spacenews/internal/storage"
)

type stubListing struct {
	first model.PaginationState
	rest  []model.PostSummary
	err   error
}

func (s *stubListing) FirstPage(context.Context) (model.PaginationState, error) {
	if s.err != nil {
		return model.PaginationState{}, s.err
	}
	return s.first, nil
}

func (s *stubListing) LoadAll(_ context.Context, state model.PaginationState) (model.PaginationState, error) {
	loaded := append(append([]model.PostSummary(nil), state.Loaded...), s.rest...)
	return model.PaginationState{Loaded: loaded}, nil
}

type postList []*model.PostDetail

func (p postList) Posts() []*model.PostDetail {
	return p
}

// memoryStorage keeps saved files in memory and can fail on one path.
type memoryStorage struct {
	mu     sync.Mutex
	files  map[string]string
	types  map[string]string
	failOn string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: make(map[string]string), types: make(map[string]string)}
}

func (m *memoryStorage) Save(_ context.Context, path string, body io.Reader, contentType string) error {
	if path == m.failOn {
		return errors.New("disk full")
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = string(b)
	m.types[path] = contentType
	return nil
}

func (m *memoryStorage) URL(path string) string {
	return "mem://" + path
}

func testExporter(store storage.Storage, listing Listing, posts postList) *Exporter {
	cfg := &config.Config{AppName: "spacenews", AppURL: "https://spacenews.example.com", CMSAccessToken: "secret"}
	sitemap := service.NewSitemapService(posts, cfg.AppURL)
	return NewExporter(cfg, listing, posts, sitemap, store)
}

func TestExport(t *testing.T) {
	t.Parallel()

	listing := &stubListing{
		first: model.PaginationState{
			Loaded:     []model.PostSummary{{UID: "primeiro", Title: "Primeiro post"}},
			NextCursor: "https://cms.example.com/api/v2/documents/search?page=2",
		},
		rest: []model.PostSummary{{UID: "segundo", Title: "Segundo post"}},
	}
	posts := postList{
		{UID: "primeiro", Title: "Primeiro post", ReadingTime: 3},
		{UID: "segundo", Title: "Segundo post", ReadingTime: 1},
	}
	store := newMemoryStorage()

	result, err := testExporter(store, listing, posts).Export(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, result.Files)
	assert.Equal(t, 2, result.Posts)
	assert.Equal(t, 2, result.Listed)

	index := store.files["index.html"]
	assert.Contains(t, index, "Primeiro post")
	assert.Contains(t, index, "Segundo post")
	assert.NotContains(t, index, "Carregar mais posts")
	assert.NotContains(t, index, "secret")
	assert.Equal(t, htmlContentType, store.types["index.html"])

	assert.Contains(t, store.files["post/primeiro/index.html"], "3 min")
	assert.Contains(t, store.files["post/segundo/index.html"], "Segundo post")
	assert.Contains(t, store.files["404.html"], "Página não encontrada")
	assert.Contains(t, store.files["sitemap.xml"], "https://spacenews.example.com/post/segundo")
	assert.Contains(t, store.files["robots.txt"], "Sitemap: https://spacenews.example.com/sitemap.xml")
}

func TestExportToLocalDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	listing := &stubListing{first: model.PaginationState{Loaded: []model.PostSummary{{UID: "só-um", Title: "Só um"}}}}
	posts := postList{{UID: "só-um", Title: "Só um"}}

	_, err = testExporter(store, listing, posts).Export(context.Background())
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "post", "s%C3%B3-um", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Só um")

	_, err = os.Stat(filepath.Join(dir, "index.html"))
	assert.NoError(t, err)
}

func TestExportFailures(t *testing.T) {
	t.Parallel()

	t.Run("listing error writes nothing", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStorage()
		_, err := testExporter(store, &stubListing{err: errors.New("cms down")}, nil).Export(context.Background())
		require.Error(t, err)
		assert.Empty(t, store.files)
	})

	t.Run("storage error is returned", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStorage()
		store.failOn = "post/quebrado/index.html"
		posts := postList{{UID: "quebrado", Title: "Quebrado"}}

		_, err := testExporter(store, &stubListing{}, posts).Export(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestPostFile(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "post/como-utilizar-hooks/index.html", PostFile("como-utilizar-hooks"))
	assert.Equal(t, "post/a%2Fb/index.html", PostFile("a/b"))
}
