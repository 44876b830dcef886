// Package devsupport holds the debug-only facilities of a bridge instance:
// fetching the bundle from a dev server and rendering script errors.
package devsupport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joeycumines/uibridge/internal/bundle"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one dev server fetch.
const DefaultTimeout = 30 * time.Second

// StatusDownloading is the Progress status reported while a bundle streams.
const StatusDownloading = "Downloading"

const chunkSize = 32 * 1024

// HTTPStatusError is a non-2xx dev server response.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("devsupport: GET %s: %s", e.URL, e.Status)
}

// Fetcher downloads bundles from a dev server and reports progress to an
// observer, normally the instance's bundle.Mediator.
type Fetcher struct {
	Server   string
	Client   *http.Client
	Observer bundle.Observer
	Log      *zap.Logger
}

// BundleURL returns the dev server URL serving mainModule.
func (f *Fetcher) BundleURL(mainModule string) (string, error) {
	if f.Server == "" {
		return "", errors.New("devsupport: no dev server configured")
	}
	base, err := url.Parse(strings.TrimRight(f.Server, "/"))
	if err != nil {
		return "", fmt.Errorf("devsupport: parse server url: %w", err)
	}
	base = base.JoinPath(mainModule + ".bundle")
	q := base.Query()
	q.Set("platform", "go")
	q.Set("dev", "true")
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// Fetch downloads the bundle for mainModule. Each chunk read is reported as
// progress; the download ends with exactly one OnSuccess or OnFailure.
func (f *Fetcher) Fetch(ctx context.Context, mainModule string) ([]byte, error) {
	b, err := f.fetch(ctx, mainModule)
	if err != nil {
		f.logger().Warn("dev bundle fetch failed", zap.String("module", mainModule), zap.Error(err))
		f.observer().OnFailure(err)
		return nil, err
	}
	f.logger().Debug("dev bundle fetched", zap.String("module", mainModule), zap.Int("bytes", len(b)))
	f.observer().OnSuccess()
	return b, nil
}

func (f *Fetcher) fetch(ctx context.Context, mainModule string) ([]byte, error) {
	target, err := f.BundleURL(mainModule)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/javascript")

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: target, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var total *int
	if resp.ContentLength >= 0 {
		total = bundle.Optional(int(resp.ContentLength))
	}

	var (
		buf  bytes.Buffer
		done int
		obs  = f.observer()
	)
	chunk := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			done += n
			obs.OnProgress(bundle.Progress{
				Status: bundle.Optional(StatusDownloading),
				Done:   bundle.Optional(done),
				Total:  total,
			})
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("devsupport: read bundle: %w", readErr)
		}
	}
	return buf.Bytes(), nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func (f *Fetcher) observer() bundle.Observer {
	if f.Observer != nil {
		return f.Observer
	}
	return bundle.ObserverFuncs{}
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Log != nil {
		return f.Log
	}
	return zap.NewNop()
}
