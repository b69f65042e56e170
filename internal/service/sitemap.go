package service

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/templui/spacenews/internal/model"
)

// publicRoutes defines all static public routes that should be included in the sitemap
var publicRoutes = []struct {
	Path       string
	Priority   string
	ChangeFreq string
}{
	{"/", "1.0", "daily"},
}

// PostLister is the source of posts listed in the sitemap.
type PostLister interface {
	Posts() []*model.PostDetail
}

type SitemapService struct {
	posts   PostLister
	baseURL string
	now     func() time.Time
}

// NewSitemapService creates a new sitemap service
func NewSitemapService(posts PostLister, baseURL string) *SitemapService {
	// Ensure baseURL doesn't have trailing slash
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &SitemapService{
		posts:   posts,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// GenerateSitemap generates a complete sitemap including all known posts
func (s *SitemapService) GenerateSitemap() ([]byte, error) {
	sitemap := model.Sitemap{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  []model.SitemapURL{},
	}

	sitemap.URLs = append(sitemap.URLs, s.staticURLs()...)
	sitemap.URLs = append(sitemap.URLs, s.postURLs()...)

	output, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	result := xml.Header + string(output)
	return []byte(result), nil
}

func (s *SitemapService) staticURLs() []model.SitemapURL {
	today := s.now().Format("2006-01-02")
	urls := make([]model.SitemapURL, 0, len(publicRoutes))

	for _, route := range publicRoutes {
		urls = append(urls, model.SitemapURL{
			Loc:        s.baseURL + route.Path,
			LastMod:    today,
			ChangeFreq: route.ChangeFreq,
			Priority:   route.Priority,
		})
	}

	return urls
}

func (s *SitemapService) postURLs() []model.SitemapURL {
	posts := s.posts.Posts()
	urls := make([]model.SitemapURL, 0, len(posts))

	for _, post := range posts {
		// Use the publication date if available, otherwise leave lastmod out
		var lastMod string
		if post.PublicationDate != nil {
			lastMod = post.PublicationDate.Format("2006-01-02")
		}

		urls = append(urls, model.SitemapURL{
			Loc:        s.baseURL + model.PostPath(post.UID),
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}

	return urls
}

// Robots returns a robots.txt allowing everything and pointing at the sitemap.
func (s *SitemapService) Robots() []byte {
	return []byte("User-agent: *\nAllow: /\nSitemap: " + s.baseURL + "/sitemap.xml\n")
}
