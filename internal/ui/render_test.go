package ui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
)

func TestRenderStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	RenderStatus(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusAccepted, templ.Raw("<p>loading</p>"))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<p>loading</p>", rec.Body.String())
}

func TestRenderOOB(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	RenderOOB(rec, httptest.NewRequest(http.MethodGet, "/", nil), templ.Raw("<a>more</a>"), "innerHTML:#load-more")

	assert.Equal(t, `<div hx-swap-oob="innerHTML:#load-more"><a>more</a></div>`, rec.Body.String())
}

func TestRenderReportsErrors(t *testing.T) {
	t.Parallel()

	broken := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return errors.New("boom")
	})

	rec := httptest.NewRecorder()
	Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), broken)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
