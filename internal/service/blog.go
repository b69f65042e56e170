package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/templui/spacenews/internal/cms"
	"github.com/templui/spacenews/internal/metrics"
	"github.com/templui/spacenews/internal/model"
)

const buildConcurrency = 4

// BlogService holds the pre-built blog: the first listing page and every post
// known at build time. Build swaps the whole set at once.
type BlogService struct {
	cms      CMS
	listing  *ListingService
	posts    *PostService
	recorder metrics.Recorder

	mu      sync.RWMutex
	built   bool
	index   model.PaginationState
	pages   map[string]*model.PostDetail
	order   []string
	builtAt time.Time
}

func NewBlogService(client CMS, listing *ListingService, posts *PostService, recorder metrics.Recorder) *BlogService {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &BlogService{
		cms:      client,
		listing:  listing,
		posts:    posts,
		recorder: recorder,
		pages:    make(map[string]*model.PostDetail),
	}
}

// Build fetches the listing and every post and replaces the stored blog.
// Posts whose records are malformed or that vanished meanwhile are skipped.
// Any other failure leaves the previous build in place.
func (s *BlogService) Build(ctx context.Context) error {
	start := time.Now()

	index, pages, order, err := s.build(ctx)
	s.recorder.ObservePageBuild(time.Since(start), err == nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.built = true
	s.index = index
	s.pages = pages
	s.order = order
	s.builtAt = time.Now()
	s.mu.Unlock()

	s.recorder.SetPagesBuilt(len(order))
	slog.Info("blog built", "posts", len(order), "listed", len(index.Loaded), "duration_ms", time.Since(start).Milliseconds())

	return nil
}

func (s *BlogService) build(ctx context.Context) (model.PaginationState, map[string]*model.PostDetail, []string, error) {
	index, err := s.listing.FirstPage(ctx)
	if err != nil {
		return model.PaginationState{}, nil, nil, fmt.Errorf("failed to build listing: %w", err)
	}

	uids, err := s.cms.AllUIDs(ctx)
	if err != nil {
		return model.PaginationState{}, nil, nil, fmt.Errorf("failed to list posts: %w", &FetchError{Op: "list post uids", Err: err})
	}

	details := make([]*model.PostDetail, len(uids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(buildConcurrency)
	for i, uid := range uids {
		g.Go(func() error {
			post, err := s.posts.Post(gctx, uid)
			var shapeErr *ShapeError
			switch {
			case err == nil:
				details[i] = post
			case errors.Is(err, cms.ErrNotFound):
				slog.Warn("post disappeared during build", "uid", uid)
			case errors.As(err, &shapeErr):
				slog.Warn("skipping malformed post", "uid", uid, "error", err)
			default:
				return err
			}
			return nil
		})
	}
	err = g.Wait()
	if err != nil {
		return model.PaginationState{}, nil, nil, fmt.Errorf("failed to build posts: %w", err)
	}

	pages := make(map[string]*model.PostDetail, len(details))
	order := make([]string, 0, len(details))
	for _, post := range details {
		if post == nil {
			continue
		}
		if _, dup := pages[post.UID]; dup {
			continue
		}
		pages[post.UID] = post
		order = append(order, post.UID)
	}

	return index, pages, order, nil
}

// Index returns the pre-built first listing page and whether a build happened.
func (s *BlogService) Index() (model.PaginationState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index, s.built
}

func (s *BlogService) Post(uid string) (*model.PostDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.pages[uid]
	return post, ok
}

// Add stores a post resolved after the build.
func (s *BlogService) Add(post *model.PostDetail) {
	if post == nil || post.UID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[post.UID]; !ok {
		s.order = append(s.order, post.UID)
	}
	s.pages[post.UID] = post
}

// Posts returns every stored post in build order.
func (s *BlogService) Posts() []*model.PostDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*model.PostDetail, 0, len(s.order))
	for _, uid := range s.order {
		posts = append(posts, s.pages[uid])
	}
	return posts
}

func (s *BlogService) BuiltAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builtAt
}
