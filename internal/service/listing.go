package service

import (
	"context"
	"time"

	"github.com/templui/spacenews/internal/cms"
	"github.com/templui/spacenews/internal/model"
)

// CMS is the part of the content API the services depend on.
type CMS interface {
	QueryPosts(ctx context.Context, opts cms.QueryOptions) (*cms.Response, error)
	FetchPage(ctx context.Context, cursor string) (*cms.Response, error)
	GetByUID(ctx context.Context, uid string) (*cms.RawPostRecord, error)
	AllUIDs(ctx context.Context) ([]string, error)
}

var listingFields = []string{"title", "subtitle", "author", "banner", "content"}

// publicationDateLayouts are tried in order; the CMS omits the colon in the offset.
var publicationDateLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

type ListingService struct {
	cms      CMS
	pageSize int
}

func NewListingService(client CMS, pageSize int) *ListingService {
	if pageSize < 1 {
		pageSize = 1
	}
	return &ListingService{
		cms:      client,
		pageSize: pageSize,
	}
}

// FirstPage runs the initial listing query.
func (s *ListingService) FirstPage(ctx context.Context) (model.PaginationState, error) {
	resp, err := s.cms.QueryPosts(ctx, cms.QueryOptions{
		Fetch:    listingFields,
		PageSize: s.pageSize,
	})
	if err != nil {
		return model.PaginationState{}, &FetchError{Op: "query posts", Err: err}
	}
	return appendPage(model.PaginationState{}, resp)
}

// LoadNextPage fetches the page behind state.NextCursor and returns a new state
// with its summaries appended. Without a cursor it returns state untouched and
// does no I/O. On error the returned state is the input state.
func (s *ListingService) LoadNextPage(ctx context.Context, state model.PaginationState) (model.PaginationState, error) {
	if !state.HasMore() {
		return state, nil
	}

	resp, err := s.cms.FetchPage(ctx, state.NextCursor)
	if err != nil {
		return state, &FetchError{Op: "load next page", Err: err}
	}
	return appendPage(state, resp)
}

// LoadAll keeps loading until the CMS reports no further page.
func (s *ListingService) LoadAll(ctx context.Context, state model.PaginationState) (model.PaginationState, error) {
	seen := make(map[string]bool)
	for state.HasMore() {
		if seen[state.NextCursor] {
			return state, &FetchError{Op: "load all pages", Err: cms.ErrCursorLoop}
		}
		seen[state.NextCursor] = true

		next, err := s.LoadNextPage(ctx, state)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

// appendPage builds the next state on a fresh slice so the caller's state is never aliased.
func appendPage(state model.PaginationState, resp *cms.Response) (model.PaginationState, error) {
	if resp == nil {
		resp = &cms.Response{}
	}
	loaded := make([]model.PostSummary, len(state.Loaded), len(state.Loaded)+len(resp.Results))
	copy(loaded, state.Loaded)

	for i := range resp.Results {
		summary, err := SummaryFromRecord(&resp.Results[i])
		if err != nil {
			return state, err
		}
		loaded = append(loaded, summary)
	}

	return model.PaginationState{
		Loaded:     loaded,
		NextCursor: resp.Cursor(),
	}, nil
}

// SummaryFromRecord copies uid, publication date, title, subtitle and author
// out of a raw record. The record is only read.
func SummaryFromRecord(raw *cms.RawPostRecord) (model.PostSummary, error) {
	err := checkRecord(raw)
	if err != nil {
		return model.PostSummary{}, err
	}
	if raw.UID == "" {
		return model.PostSummary{}, &ShapeError{Field: "uid", Reason: "is missing"}
	}
	if raw.Data == nil {
		return model.PostSummary{}, &ShapeError{UID: raw.UID, Field: "data", Reason: "is missing"}
	}
	// An empty title is kept as is; only an absent one is rejected.
	if raw.Data.Title == nil {
		return model.PostSummary{}, &ShapeError{UID: raw.UID, Field: "data.title", Reason: "is missing"}
	}

	published, err := parsePublicationDate(raw.UID, raw.FirstPublicationDate)
	if err != nil {
		return model.PostSummary{}, err
	}

	return model.PostSummary{
		UID:             raw.UID,
		PublicationDate: published,
		Title:           *raw.Data.Title,
		Subtitle:        raw.Data.Subtitle,
		Author:          raw.Data.Author,
	}, nil
}

// checkRecord rejects nil records and records with a field of the wrong JSON type.
func checkRecord(raw *cms.RawPostRecord) error {
	if raw == nil {
		return &ShapeError{Field: "record", Reason: "is missing"}
	}
	if raw.Malformed != nil {
		return &ShapeError{UID: raw.UID, Field: raw.Malformed.Field, Reason: "is malformed", Err: raw.Malformed.Err}
	}
	return nil
}

func parsePublicationDate(uid string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}

	var lastErr error
	for _, layout := range publicationDateLayouts {
		t, err := time.Parse(layout, *value)
		if err == nil {
			return &t, nil
		}
		lastErr = err
	}
	return nil, &ShapeError{UID: uid, Field: "first_publication_date", Reason: "is not a timestamp", Err: lastErr}
}
