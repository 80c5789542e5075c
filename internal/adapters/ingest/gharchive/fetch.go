package gharchive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/logger"
)

// Fetcher downloads hour buckets into a local directory
// An existing .json.gz or .json for the bucket short-circuits the download
type Fetcher struct {
	dir     string
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// FetcherOption configures the fetcher
type FetcherOption func(*Fetcher)

// WithBaseURL points the fetcher at another archive host (tests, mirrors)
func WithBaseURL(u string) FetcherOption {
	return func(f *Fetcher) { f.baseURL = u }
}

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithHTTPTimeout sets the whole-request timeout on the default client
func WithHTTPTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.client = &http.Client{Timeout: d} }
}

// NewFetcher builds a fetcher that stores artifacts under dir
func NewFetcher(dir string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		dir:     dir,
		baseURL: DefaultBaseURL,
		client:  &http.Client{},
		log:     logger.Named("fetch"),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Dir returns the artifact directory
func (f *Fetcher) Dir() string { return f.dir }

// Fetch materializes the compressed artifact for hour and returns its path
// When the bucket was already fetched or expanded, the existing path is returned without network access
func (f *Fetcher) Fetch(ctx context.Context, hour HourRef) (string, error) {
	if p := hour.JSONPath(f.dir); isFile(p) {
		return p, nil
	}
	gz := hour.GzPath(f.dir)
	if isFile(gz) {
		return gz, nil
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeFetch, "create data dir %s", f.dir)
	}

	url := hour.URL(f.baseURL)
	f.log.Info().Str("bucket", hour.String()).Str("url", url).Msg("downloading")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeFetch, "build request %s", url)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeFetch, "get %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", perr.Newf(perr.ErrorCodeFetch, "gharchive: unexpected status %d for %s", resp.StatusCode, url)
	}

	n, err := writeAtomic(gz, resp.Body)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeFetch, "store %s", hour)
	}
	f.log.Debug().Str("bucket", hour.String()).Int64("bytes", n).Msg("downloaded")
	return gz, nil
}

// writeAtomic copies r into path via a .part sibling and renames on success
func writeAtomic(path string, r io.Reader) (int64, error) {
	tmp := path + partSuffix
	out, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	n, werr := io.Copy(out, r)
	cerr := out.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmp)
		if werr != nil {
			return n, werr
		}
		return n, cerr
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return n, fmt.Errorf("rename %s: %w", tmp, err)
	}
	return n, nil
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
