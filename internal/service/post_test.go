package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/spacenews/internal/cms"
	"github.com/templui/spacenews/internal/model"
)

func TestCountWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "empty", input: "", expected: 0},
		{name: "only separators", input: "  ... -- !! ", expected: 0},
		{name: "punctuation runs", input: "Lorem ipsum, dolor sit amet!", expected: 5},
		{name: "hyphenated words split", input: "client-side rendering", expected: 3},
		{name: "underscore is a word rune", input: "snake_case word", expected: 2},
		{name: "accented words stay whole", input: "não é possível", expected: 3},
		{name: "digits count", input: "React 17 e Next.js 10", expected: 6},
		{name: "newlines and tabs", input: "um\ndois\tTrês", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, CountWords(tt.input))
		})
	}
}

func TestReadingTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sections []model.Section
		expected int
	}{
		{name: "no sections", sections: nil, expected: 0},
		{name: "zero words", sections: []model.Section{{Heading: "", Body: []model.RichTextBlock{{Text: ""}}}}, expected: 0},
		{name: "99 words rounds down", sections: bodyOf(99), expected: 0},
		{name: "100 words rounds half up", sections: bodyOf(100), expected: 1},
		{name: "250 words", sections: bodyOf(250), expected: 1},
		{name: "300 words rounds half up", sections: bodyOf(300), expected: 2},
		{name: "500 words rounds half up", sections: bodyOf(500), expected: 3},
		{name: "1000 words", sections: bodyOf(1000), expected: 5},
		{
			name: "headings and every block count",
			sections: []model.Section{
				{Heading: words(50), Body: []model.RichTextBlock{{Text: words(100)}, {Text: words(50)}}},
				{Heading: words(50), Body: []model.RichTextBlock{{Text: words(50)}}},
			},
			expected: 2, // 300 words
		},
		{
			name: "empty heading contributes nothing",
			sections: []model.Section{
				{Heading: "", Body: []model.RichTextBlock{{Text: words(99)}}},
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ReadingTime(tt.sections))
		})
	}
}

func bodyOf(n int) []model.Section {
	return []model.Section{{Body: []model.RichTextBlock{{Type: "paragraph", Text: words(n)}}}}
}

func TestAssemble(t *testing.T) {
	t.Parallel()

	rec := fullRecord("criando-um-app-cra-do-zero",
		section("Proin et varius", words(197)),
		section("Cras laoreet mi", words(100), words(100)),
	)

	post, err := Assemble(rec)
	require.NoError(t, err)

	assert.Equal(t, "criando-um-app-cra-do-zero", post.UID)
	assert.Equal(t, "Title criando-um-app-cra-do-zero", post.Title)
	assert.Equal(t, "Danilo Vieira", post.Author)
	assert.Equal(t, "https://images.example.com/criando-um-app-cra-do-zero.png", post.BannerURL)
	require.NotNil(t, post.PublicationDate)
	assert.Equal(t, 2021, post.PublicationDate.Year())

	require.Len(t, post.Sections, 2)
	assert.Equal(t, "Proin et varius", post.Sections[0].Heading)
	require.Len(t, post.Sections[1].Body, 2)
	assert.Equal(t, "paragraph", post.Sections[1].Body[0].Type)

	// 3 + 197 + 3 + 200 = 403 words
	assert.Equal(t, 2, post.ReadingTime)
}

func TestAssemblePassesRichTextThrough(t *testing.T) {
	t.Parallel()

	rec := fullRecord("spans")
	rec.Data.Content = json.RawMessage(`[{"heading":null,"body":[
		{"type":"paragraph","text":"Leia a documentação","spans":[{"start":8,"end":19,"type":"hyperlink","data":{"url":"https://nextjs.org/docs"}}]},
		{"type":"image","text":"","url":"https://images.example.com/x.png","alt":"diagrama"}
	]}]`)

	post, err := Assemble(rec)
	require.NoError(t, err)

	require.Len(t, post.Sections, 1)
	assert.Empty(t, post.Sections[0].Heading)
	body := post.Sections[0].Body
	require.Len(t, body, 2)
	assert.Equal(t, []model.Span{{Start: 8, End: 19, Type: "hyperlink", Data: model.SpanData{URL: "https://nextjs.org/docs"}}}, body[0].Spans)
	assert.Equal(t, "image", body[1].Type)
	assert.Equal(t, "diagrama", body[1].Alt)
	assert.Zero(t, post.ReadingTime)
}

func TestAssembleEmptyContentIsZeroMinutes(t *testing.T) {
	t.Parallel()

	post, err := Assemble(fullRecord("vazio"))
	require.NoError(t, err)
	assert.Empty(t, post.Sections)
	assert.Zero(t, post.ReadingTime)
}

func TestAssembleShapeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record func() *cms.RawPostRecord
		field  string
	}{
		{name: "nil record", record: func() *cms.RawPostRecord { return nil }, field: "record"},
		{name: "missing data", record: func() *cms.RawPostRecord { return &cms.RawPostRecord{UID: "x"} }, field: "data"},
		{
			name: "absent content",
			record: func() *cms.RawPostRecord {
				rec := fullRecord("x")
				rec.Data.Content = nil
				return rec
			},
			field: "data.content",
		},
		{
			name: "null content",
			record: func() *cms.RawPostRecord {
				rec := fullRecord("x")
				rec.Data.Content = json.RawMessage(" null ")
				return rec
			},
			field: "data.content",
		},
		{
			name: "content is an object",
			record: func() *cms.RawPostRecord {
				rec := fullRecord("x")
				rec.Data.Content = json.RawMessage(`{"heading":"x"}`)
				return rec
			},
			field: "data.content",
		},
		{
			name: "body is not a list",
			record: func() *cms.RawPostRecord {
				rec := fullRecord("x")
				rec.Data.Content = json.RawMessage(`[{"heading":"x","body":"text"}]`)
				return rec
			},
			field: "data.content",
		},
		{
			name: "bad publication date",
			record: func() *cms.RawPostRecord {
				rec := fullRecord("x")
				rec.FirstPublicationDate = ptr("15/03/2021")
				return rec
			},
			field: "first_publication_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			post, err := Assemble(tt.record())
			assert.Nil(t, post)

			var shapeErr *ShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, tt.field, shapeErr.Field)
		})
	}
}

func TestPostService_Post(t *testing.T) {
	t.Parallel()

	stub := newStubCMS()
	stub.records["hello"] = fullRecord("hello", section("Oi", words(10)))
	svc := NewPostService(stub)
	ctx := context.Background()

	post, err := svc.Post(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", post.UID)

	_, err = svc.Post(ctx, "missing")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.True(t, errors.Is(err, cms.ErrNotFound))
}
