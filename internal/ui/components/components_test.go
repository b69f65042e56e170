package components

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/templui/spacenews/internal/ctxkeys"
	"github.com/templui/spacenews/internal/model"
)

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	return buf.String()
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	feb := time.Date(2021, time.February, 5, 19, 25, 28, 0, time.UTC)
	mar := time.Date(2021, time.March, 15, 19, 25, 28, 0, time.UTC)

	pt := context.Background()
	en := ctxkeys.WithLanguage(context.Background(), language.English)

	assert.Equal(t, "15 mar 2021", FormatDate(pt, &mar))
	assert.Equal(t, "05 fev 2021", FormatDate(pt, &feb))
	assert.Equal(t, "05 feb 2021", FormatDate(en, &feb))
	assert.Empty(t, FormatDate(pt, nil))
}

func TestT(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Carregar mais posts", T(context.Background(), "load_more"))
	assert.Equal(t, "Load more posts", T(ctxkeys.WithLanguage(context.Background(), language.English), "load_more"))
	assert.Empty(t, T(context.Background(), "missing"))
}

func TestClass(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "p-2", Class("p-4", "p-2"))
	assert.Equal(t, "w-auto mb-20 h-7", Class("h-6 w-auto", "mb-20 h-7"))
}

func TestInline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		spans    []model.Span
		expected string
	}{
		{name: "plain text is escaped", text: `1 < 2 & "x"`, expected: "1 &lt; 2 &amp; &#34;x&#34;"},
		{name: "newlines become breaks", text: "a\nb", expected: "a<br>b"},
		{name: "breaks inside spans", text: "a\n\nb", spans: []model.Span{{Start: 0, End: 4, Type: "em"}}, expected: "<em>a<br><br>b</em>"},
		{name: "label", text: "nota", spans: []model.Span{{Start: 0, End: 4, Type: "label"}}, expected: `<span class="label">nota</span>`},
		{
			name:     "hyperlink",
			text:     "Leia a documentação",
			spans:    []model.Span{{Start: 7, End: 19, Type: "hyperlink", Data: model.SpanData{URL: "https://nextjs.org/docs"}}},
			expected: `Leia a <a href="https://nextjs.org/docs">documentação</a>`,
		},
		{
			name:     "nested spans",
			text:     "abcdef",
			spans:    []model.Span{{Start: 2, End: 4, Type: "em"}, {Start: 0, End: 6, Type: "strong"}},
			expected: "<strong>ab<em>cd</em>ef</strong>",
		},
		{
			name:     "overlapping spans stay well nested",
			text:     "abcdefgh",
			spans:    []model.Span{{Start: 0, End: 5, Type: "strong"}, {Start: 3, End: 8, Type: "em"}},
			expected: "<strong>abc<em>de</em></strong><em>fgh</em>",
		},
		{
			name:     "out of range and unknown spans are dropped",
			text:     "abc",
			spans:    []model.Span{{Start: 1, End: 99, Type: "em"}, {Start: 0, End: 1, Type: "blink"}, {Start: 2, End: 2, Type: "strong"}},
			expected: "a<em>bc</em>",
		},
		{
			name:     "unsafe link is neutralised",
			text:     "click",
			spans:    []model.Span{{Start: 0, End: 5, Type: "hyperlink", Data: model.SpanData{URL: "javascript:alert(1)"}}},
			expected: `<a href="about:invalid#TemplFailedSanitizationURL">click</a>`,
		},
		{
			name:     "link target",
			text:     "x",
			spans:    []model.Span{{Start: 0, End: 1, Type: "hyperlink", Data: model.SpanData{URL: "https://a.example", Target: "_blank"}}},
			expected: `<a href="https://a.example" target="_blank" rel="noopener noreferrer">x</a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, render(t, context.Background(), inline(tt.text, tt.spans)))
		})
	}
}

func TestRichText(t *testing.T) {
	t.Parallel()

	blocks := []model.RichTextBlock{
		{Type: "paragraph", Text: "Intro"},
		{Type: "list-item", Text: "um"},
		{Type: "list-item", Text: "dois"},
		{Type: "o-list-item", Text: "primeiro"},
		{Type: "image", URL: "https://images.example.com/x.png", Alt: "diagrama"},
		{Type: "embed", Text: "ignored"},
		{Type: "heading3", Text: "Fim"},
		{Type: "list-item", Text: "último"},
		{Type: "embed", Text: "ignored"},
		{Type: "list-item", Text: "depois"},
	}

	out := render(t, context.Background(), RichText(blocks))
	assert.Equal(t,
		`<p>Intro</p><ul><li>um</li><li>dois</li></ul><ol><li>primeiro</li></ol>`+
			`<p class="block-img"><img src="https://images.example.com/x.png" alt="diagrama" loading="lazy"></p>`+
			`<h3>Fim</h3><ul><li>último</li></ul><ul><li>depois</li></ul>`,
		out)
}

func TestPostCard(t *testing.T) {
	t.Parallel()

	published := time.Date(2021, time.March, 15, 19, 25, 28, 0, time.UTC)
	out := render(t, context.Background(), PostCard(model.PostSummary{
		UID:             "como-utilizar-hooks",
		PublicationDate: &published,
		Title:           "Como utilizar <Hooks>",
		Subtitle:        "Pensando em sincronização",
		Author:          "Joseph Oliveira",
	}))

	assert.Contains(t, out, `href="/post/como-utilizar-hooks"`)
	assert.Contains(t, out, "Como utilizar &lt;Hooks&gt;")
	assert.Contains(t, out, "Pensando em sincronização")
	assert.Contains(t, out, "15 mar 2021")
	assert.Contains(t, out, "Joseph Oliveira")
	assert.NotContains(t, out, " min<")
}

func TestRichTextSkipsImageWithoutURL(t *testing.T) {
	t.Parallel()

	out := render(t, context.Background(), RichText([]model.RichTextBlock{
		{Type: "image"},
		{Type: "preformatted", Text: "x := 1"},
	}))
	assert.Equal(t, "<pre>x := 1</pre>", out)
}

func TestLogo(t *testing.T) {
	t.Parallel()

	out := render(t, context.Background(), Logo("mb-20 h-7"))
	assert.Equal(t, `<img src="/assets/img/logo.svg" alt="logo" class="w-auto mb-20 h-7">`, out)
}

func TestIcon(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Contains(t, render(t, ctx, Icon("clock")), `<polyline points="12 6 12 12 16 14"></polyline></svg>`)
	assert.Empty(t, render(t, ctx, Icon("rocket")))
}

func TestLoadMoreButton(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, render(t, ctx, LoadMoreButton("")))
	assert.Equal(t, `<div class="mt-12" id="load-more"></div>`, render(t, ctx, LoadMore("")))

	cursor := "https://cms.example.com/api/v2/documents/search?page=2&pageSize=1"
	out := render(t, ctx, LoadMoreButton(cursor))
	escaped := "/posts/more?cursor=https%3A%2F%2Fcms.example.com%2Fapi%2Fv2%2Fdocuments%2Fsearch%3Fpage%3D2%26pageSize%3D1"
	assert.Contains(t, out, `hx-get="`+escaped+`"`)
	assert.Contains(t, out, `hx-target="#posts"`)
	assert.Contains(t, out, "Carregar mais posts")
}

func TestPostInfoReadingTime(t *testing.T) {
	t.Parallel()

	out := render(t, context.Background(), PostInfo(PostInfoProps{Author: "Danilo", ReadingTime: 4}))
	assert.Contains(t, out, "4 min")
	assert.NotContains(t, out, "<time")
}
