package devsupport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/joeycumines/uibridge/internal/bundle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	progress  []bundle.Progress
	successes int
	failures  []error
}

func (r *recorder) OnSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes++
}

func (r *recorder) OnProgress(p bundle.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recorder) OnFailure(cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, cause)
}

func TestFetcher_BundleURL(t *testing.T) {
	t.Parallel()

	f := &Fetcher{Server: "http://localhost:8081/"}
	got, err := f.BundleURL("index")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/index.bundle?dev=true&platform=go", got)

	_, err = (&Fetcher{}).BundleURL("index")
	assert.Error(t, err)
}

func TestFetcher_Success(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("x", chunkSize+10)
	requests := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- r.URL.Path + "?" + r.URL.RawQuery
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	rec := &recorder{}
	m := &bundle.Mediator{}
	m.SetObserver(rec)
	f := &Fetcher{Server: srv.URL, Observer: m}

	b, err := f.Fetch(context.Background(), "index")
	require.NoError(t, err)
	assert.Equal(t, body, string(b))
	assert.Equal(t, "/index.bundle?dev=true&platform=go", <-requests)

	assert.Equal(t, 1, rec.successes)
	assert.Empty(t, rec.failures)
	require.NotEmpty(t, rec.progress)
	last := rec.progress[len(rec.progress)-1]
	require.NotNil(t, last.Status)
	assert.Equal(t, StatusDownloading, *last.Status)
	require.NotNil(t, last.Done)
	assert.Equal(t, len(body), *last.Done)
	require.NotNil(t, last.Total)
	assert.Equal(t, len(body), *last.Total)
}

func TestFetcher_UnknownLength(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("part one;"))
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte("part two;"))
	}))
	defer srv.Close()

	rec := &recorder{}
	b, err := (&Fetcher{Server: srv.URL, Observer: rec}).Fetch(context.Background(), "index")
	require.NoError(t, err)
	assert.Equal(t, "part one;part two;", string(b))
	require.NotEmpty(t, rec.progress)
	for _, p := range rec.progress {
		assert.Nil(t, p.Total, "total is absent without Content-Length")
	}
}

func TestFetcher_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := &recorder{}
	_, err := (&Fetcher{Server: srv.URL, Observer: rec}).Fetch(context.Background(), "index")
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Zero(t, rec.successes)
	require.Len(t, rec.failures, 1)
	assert.ErrorAs(t, rec.failures[0], &statusErr)
	assert.Empty(t, rec.progress)
}

func TestFetcher_NoObserver(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	b, err := (&Fetcher{Server: srv.URL}).Fetch(context.Background(), "index")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(b))
}

func TestFetcher_Cancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}
	_, err := (&Fetcher{Server: srv.URL, Observer: rec}).Fetch(ctx, "index")
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, rec.failures, 1)
}
