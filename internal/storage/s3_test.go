package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type s3Request struct {
	method      string
	path        string
	contentType string
}

// fakeS3 accepts every bucket and object call and records what it saw.
func fakeS3(t *testing.T) (*httptest.Server, func() []s3Request) {
	t.Helper()

	var mu sync.Mutex
	var seen []s3Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, s3Request{method: r.Method, path: r.URL.Path, contentType: r.Header.Get("Content-Type")})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []s3Request {
		mu.Lock()
		defer mu.Unlock()
		return append([]s3Request(nil), seen...)
	}
}

func TestS3Storage_Save(t *testing.T) {
	srv, requests := fakeS3(t)

	store, err := NewS3Storage(S3Config{
		Region:    "us-east-1",
		Bucket:    "spacenews",
		AccessKey: "test",
		SecretKey: "test",
		Endpoint:  srv.URL,
	})
	require.NoError(t, err)

	err = store.Save(context.Background(), "/post/hooks/index.html", strings.NewReader("<h1>hooks</h1>"), "text/html; charset=utf-8")
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodHead, reqs[0].method)
	assert.Equal(t, "/spacenews", strings.TrimSuffix(reqs[0].path, "/"))
	assert.Equal(t, http.MethodPut, reqs[1].method)
	assert.Equal(t, "/spacenews/post/hooks/index.html", reqs[1].path)
	assert.Equal(t, "text/html; charset=utf-8", reqs[1].contentType)

	assert.Equal(t, srv.URL+"/spacenews/post/hooks/index.html", store.URL("post/hooks/index.html"))
}

func TestS3Storage_PublicURLWithoutEndpoint(t *testing.T) {
	s := &S3Storage{publicURL: "https://spacenews.s3.eu-west-1.amazonaws.com"}
	assert.Equal(t, "https://spacenews.s3.eu-west-1.amazonaws.com/index.html", s.URL("/index.html"))
}
