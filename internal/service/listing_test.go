package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/spacenews/internal/cms"
	"github.com/templui/spacenews/internal/model"
)

func TestSummaryFromRecord(t *testing.T) {
	t.Parallel()

	published := time.Date(2021, time.March, 15, 19, 25, 28, 0, time.UTC)

	tests := []struct {
		name      string
		record    func() *cms.RawPostRecord
		expected  model.PostSummary
		shapeErr  string
		noPubDate bool
	}{
		{
			name: "copies the five listing fields",
			record: func() *cms.RawPostRecord {
				rec := summaryRecord("como-utilizar-hooks")
				return &rec
			},
			expected: model.PostSummary{
				UID:             "como-utilizar-hooks",
				PublicationDate: &published,
				Title:           "Title como-utilizar-hooks",
				Subtitle:        "Subtitle como-utilizar-hooks",
				Author:          "Danilo Vieira",
			},
		},
		{
			name: "null publication date stays nil",
			record: func() *cms.RawPostRecord {
				rec := summaryRecord("draft")
				rec.FirstPublicationDate = nil
				return &rec
			},
			expected: model.PostSummary{
				UID:      "draft",
				Title:    "Title draft",
				Subtitle: "Subtitle draft",
				Author:   "Danilo Vieira",
			},
			noPubDate: true,
		},
		{
			name: "rfc3339 publication date",
			record: func() *cms.RawPostRecord {
				rec := summaryRecord("rfc")
				rec.FirstPublicationDate = ptr("2021-03-15T19:25:28Z")
				return &rec
			},
			expected: model.PostSummary{
				UID:             "rfc",
				PublicationDate: &published,
				Title:           "Title rfc",
				Subtitle:        "Subtitle rfc",
				Author:          "Danilo Vieira",
			},
		},
		{
			name:     "nil record",
			record:   func() *cms.RawPostRecord { return nil },
			shapeErr: "record",
		},
		{
			name: "missing uid",
			record: func() *cms.RawPostRecord {
				rec := summaryRecord("")
				return &rec
			},
			shapeErr: "uid",
		},
		{
			name: "missing data",
			record: func() *cms.RawPostRecord {
				return &cms.RawPostRecord{UID: "no-data"}
			},
			shapeErr: "data",
		},
		{
			name: "missing title",
			record: func() *cms.RawPostRecord {
				rec := summaryRecord("untitled")
				rec.Data.Title = nil
				return &rec
			},
			shapeErr: "data.title",
		},
		{
			name: "empty title is kept",
			record: func() *cms.RawPostRecord {
				rec := decodedRecord(`{"uid":"blank","data":{"title":"","author":"Ana"}}`)
				return &rec
			},
			expected:  model.PostSummary{UID: "blank", Author: "Ana"},
			noPubDate: true,
		},
		{
			name: "rich text title array",
			record: func() *cms.RawPostRecord {
				rec := decodedRecord(`{"uid":"rich","data":{"title":["rich","text"]}}`)
				return &rec
			},
			shapeErr: "data.title",
		},
		{
			name: "record is not an object",
			record: func() *cms.RawPostRecord {
				rec := decodedRecord(`"just a string"`)
				return &rec
			},
			shapeErr: "record",
		},
		{
			name: "unparsable publication date",
			record: func() *cms.RawPostRecord {
				rec := summaryRecord("bad-date")
				rec.FirstPublicationDate = ptr("yesterday")
				return &rec
			},
			shapeErr: "first_publication_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			summary, err := SummaryFromRecord(tt.record())

			if tt.shapeErr != "" {
				var shapeErr *ShapeError
				require.ErrorAs(t, err, &shapeErr)
				assert.Equal(t, tt.shapeErr, shapeErr.Field)
				assert.Equal(t, model.PostSummary{}, summary)
				return
			}

			require.NoError(t, err)
			if tt.noPubDate {
				assert.Nil(t, summary.PublicationDate)
			} else {
				require.NotNil(t, summary.PublicationDate)
				assert.True(t, tt.expected.PublicationDate.Equal(*summary.PublicationDate))
				summary.PublicationDate = tt.expected.PublicationDate
			}
			assert.Equal(t, tt.expected, summary)
		})
	}
}

func TestSummaryFromRecordDoesNotMutate(t *testing.T) {
	t.Parallel()

	rec := fullRecord("imutavel", section("Heading", "one two three"))
	before := *rec
	beforeData := *rec.Data
	beforeContent := append([]byte(nil), rec.Data.Content...)

	_, err := SummaryFromRecord(rec)
	require.NoError(t, err)

	assert.Equal(t, before, *rec)
	assert.Equal(t, beforeData.Title, rec.Data.Title)
	assert.Equal(t, beforeData.Banner, rec.Data.Banner)
	assert.Equal(t, beforeContent, []byte(rec.Data.Content))
}

func TestListingService_FirstPage(t *testing.T) {
	t.Parallel()

	stub := newStubCMS()
	stub.page("", "cursor-2", summaryRecord("a"), summaryRecord("b"))
	svc := NewListingService(stub, 2)

	state, err := svc.FirstPage(context.Background())
	require.NoError(t, err)

	require.Len(t, state.Loaded, 2)
	assert.Equal(t, "a", state.Loaded[0].UID)
	assert.Equal(t, "b", state.Loaded[1].UID)
	assert.Equal(t, "cursor-2", state.NextCursor)
	assert.Equal(t, 2, stub.lastQuery.PageSize)
	assert.Equal(t, []string{"title", "subtitle", "author", "banner", "content"}, stub.lastQuery.Fetch)
}

func TestListingService_LoadNextPageWithoutCursorIsNoop(t *testing.T) {
	t.Parallel()

	stub := newStubCMS()
	svc := NewListingService(stub, 1)

	state := model.PaginationState{Loaded: []model.PostSummary{{UID: "only"}}}

	next, err := svc.LoadNextPage(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, state, next)
	assert.Zero(t, stub.fetchCalls)

	empty, err := svc.LoadNextPage(context.Background(), model.PaginationState{})
	require.NoError(t, err)
	assert.Equal(t, model.PaginationState{}, empty)
	assert.Zero(t, stub.fetchCalls)
}

func TestListingService_LoadNextPageAppends(t *testing.T) {
	t.Parallel()

	stub := newStubCMS()
	stub.page("cursor-2", "cursor-3", summaryRecord("b"), summaryRecord("c"))
	svc := NewListingService(stub, 2)

	loaded := make([]model.PostSummary, 1, 10)
	loaded[0] = model.PostSummary{UID: "a", Title: "A"}
	state := model.PaginationState{Loaded: loaded, NextCursor: "cursor-2"}

	next, err := svc.LoadNextPage(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, next.Loaded, 3)
	assert.Equal(t, []string{"a", "b", "c"}, uidsOf(next.Loaded))
	assert.Equal(t, "cursor-3", next.NextCursor)
	assert.Equal(t, 1, stub.fetchCalls)

	// the input keeps its length, cursor and backing array
	assert.Len(t, state.Loaded, 1)
	assert.Equal(t, "cursor-2", state.NextCursor)
	assert.Equal(t, model.PostSummary{}, loaded[:2][1])
}

func TestListingService_LoadNextPageErrorsKeepState(t *testing.T) {
	t.Parallel()

	state := model.PaginationState{
		Loaded:     []model.PostSummary{{UID: "a"}},
		NextCursor: "cursor-2",
	}

	t.Run("fetch error", func(t *testing.T) {
		t.Parallel()

		stub := newStubCMS()
		stub.err = errors.New("connection reset")
		svc := NewListingService(stub, 1)

		next, err := svc.LoadNextPage(context.Background(), state)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, state, next)
	})

	t.Run("shape error", func(t *testing.T) {
		t.Parallel()

		broken := summaryRecord("broken")
		broken.Data = nil

		stub := newStubCMS()
		stub.page("cursor-2", "cursor-3", summaryRecord("b"), broken)
		svc := NewListingService(stub, 1)

		next, err := svc.LoadNextPage(context.Background(), state)

		var shapeErr *ShapeError
		require.ErrorAs(t, err, &shapeErr)
		assert.Equal(t, "broken", shapeErr.UID)
		assert.Equal(t, state, next)
	})

	t.Run("wrong typed field", func(t *testing.T) {
		t.Parallel()

		stub := newStubCMS()
		stub.page("cursor-2", "", summaryRecord("b"), decodedRecord(`{"uid":"rich","data":{"title":["rich","text"]}}`))
		svc := NewListingService(stub, 1)

		next, err := svc.LoadNextPage(context.Background(), state)

		var shapeErr *ShapeError
		require.ErrorAs(t, err, &shapeErr)
		assert.Equal(t, "rich", shapeErr.UID)
		assert.Equal(t, "data.title", shapeErr.Field)
		assert.Equal(t, "is malformed", shapeErr.Reason)

		var fetchErr *FetchError
		assert.False(t, errors.As(err, &fetchErr))
		assert.Equal(t, state, next)
	})
}

func TestListingService_LengthTracksPagesFetched(t *testing.T) {
	t.Parallel()

	stub := newStubCMS()
	stub.page("", "c1", summaryRecord("p1"))
	stub.page("c1", "c2", summaryRecord("p2"), summaryRecord("p3"), summaryRecord("p4"))
	stub.page("c2", "c3")
	stub.page("c3", "", summaryRecord("p5"), summaryRecord("p6"))
	svc := NewListingService(stub, 3)
	ctx := context.Background()

	state, err := svc.FirstPage(ctx)
	require.NoError(t, err)

	expected := []int{1, 4, 4, 6}
	lengths := []int{len(state.Loaded)}
	for state.HasMore() {
		prev := len(state.Loaded)
		state, err = svc.LoadNextPage(ctx, state)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(state.Loaded), prev)
		lengths = append(lengths, len(state.Loaded))
	}

	assert.Equal(t, expected, lengths)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5", "p6"}, uidsOf(state.Loaded))
}

func TestListingService_LoadAll(t *testing.T) {
	t.Parallel()

	t.Run("walks every cursor", func(t *testing.T) {
		t.Parallel()

		stub := newStubCMS()
		stub.page("c1", "c2", summaryRecord("b"))
		stub.page("c2", "", summaryRecord("c"))
		svc := NewListingService(stub, 1)

		state, err := svc.LoadAll(context.Background(), model.PaginationState{
			Loaded:     []model.PostSummary{{UID: "a"}},
			NextCursor: "c1",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, uidsOf(state.Loaded))
		assert.False(t, state.HasMore())
	})

	t.Run("stops on a cursor loop", func(t *testing.T) {
		t.Parallel()

		stub := newStubCMS()
		stub.page("c1", "c2", summaryRecord("b"))
		stub.page("c2", "c1", summaryRecord("c"))
		svc := NewListingService(stub, 1)

		_, err := svc.LoadAll(context.Background(), model.PaginationState{NextCursor: "c1"})
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.ErrorIs(t, err, cms.ErrCursorLoop)
	})
}

func uidsOf(summaries []model.PostSummary) []string {
	uids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		uids = append(uids, s.UID)
	}
	return uids
}
