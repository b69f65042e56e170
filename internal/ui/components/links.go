package components

import "net/url"

const (
	PostListID = "posts"
	LoadMoreID = "load-more"
)

// LoadMorePath is the fragment endpoint that appends the page behind cursor.
func LoadMorePath(cursor string) string {
	return "/posts/more?cursor=" + url.QueryEscape(cursor)
}
