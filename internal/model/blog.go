package model

import (
	"net/url"
	"time"
)

// PostSummary is the listing view of a post.
type PostSummary struct {
	UID             string
	PublicationDate *time.Time
	Title           string
	Subtitle        string
	Author          string
}

// PostDetail is the render-ready view of a single post.
type PostDetail struct {
	UID             string
	PublicationDate *time.Time
	Title           string
	BannerURL       string
	Author          string
	Sections        []Section
	ReadingTime     int // minutes
}

// PostPath is the site path of a post page.
func PostPath(uid string) string {
	return "/post/" + url.PathEscape(uid)
}

type Section struct {
	Heading string
	Body    []RichTextBlock
}

// RichTextBlock is one structured-text block as delivered by the CMS.
type RichTextBlock struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Spans []Span `json:"spans,omitempty"`
	URL   string `json:"url,omitempty"` // image blocks
	Alt   string `json:"alt,omitempty"` // image blocks
}

// Span marks a formatted range [Start, End) of a block's text, in runes.
type Span struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Type  string   `json:"type"`
	Data  SpanData `json:"data"`
}

type SpanData struct {
	URL    string `json:"url,omitempty"`
	Target string `json:"target,omitempty"`
}

// PaginationState is the listing loaded so far plus the cursor to the next page.
// Loaded is append-only; an empty NextCursor means there is nothing left to load.
type PaginationState struct {
	Loaded     []PostSummary
	NextCursor string
}

func (s PaginationState) HasMore() bool {
	return s.NextCursor != ""
}
