package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/cheggaaa/pb/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/psirt-checker/config"
	"github.com/aquasecurity/psirt-checker/inventory"
	"github.com/aquasecurity/psirt-checker/utils"
)

type options struct {
	url         string
	baseClient  *http.Client
	proxy       string
	verifyTLS   bool
	concurrency int
	progress    bool
}

type option func(*options)

func WithURL(url string) option {
	return func(opts *options) { opts.url = url }
}

// WithHTTPClient sets the client that carries the bearer transport. Proxy and
// TLS options are ignored when it is set.
func WithHTTPClient(c *http.Client) option {
	return func(opts *options) { opts.baseClient = c }
}

func WithProxy(proxy string) option {
	return func(opts *options) { opts.proxy = proxy }
}

func WithVerifyTLS(verify bool) option {
	return func(opts *options) { opts.verifyTLS = verify }
}

func WithConcurrency(n int) option {
	return func(opts *options) { opts.concurrency = n }
}

func WithProgress(progress bool) option {
	return func(opts *options) { opts.progress = progress }
}

// Fetcher looks up advisories by release version.
type Fetcher struct {
	url         *url.URL
	client      *http.Client
	concurrency int
	progress    bool
}

func NewFetcher(tok *oauth2.Token, opts ...option) (*Fetcher, error) {
	o := &options{
		url:         config.DefaultAdvisoryURL,
		verifyTLS:   true,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(o)
	}

	u, err := url.Parse(o.url)
	if err != nil {
		return nil, xerrors.Errorf("invalid advisory URL %q: %w", o.url, err)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}

	base := o.baseClient
	if base == nil {
		if base, err = utils.NewHTTPClient(o.proxy, o.verifyTLS); err != nil {
			return nil, xerrors.Errorf("failed to build HTTP client: %w", err)
		}
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	return &Fetcher{
		url:         u,
		client:      oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok)),
		concurrency: o.concurrency,
		progress:    o.progress,
	}, nil
}

// Fetch queries the advisories for one device. Only the release version is
// sent; the platform label is carried through for reporting. A failed lookup
// is reported in the result, not as an error.
func (f *Fetcher) Fetch(ctx context.Context, q inventory.DeviceQuery) PlatformResult {
	result := PlatformResult{
		Platform:       q.Platform,
		ReleaseVersion: q.ReleaseVersion,
		Advisories:     []Record{},
		Status:         StatusOK,
	}

	u := *f.url
	query := u.Query()
	query.Set("version", q.ReleaseVersion)
	u.RawQuery = query.Encode()

	log.Debugf("Fetching advisories for %s %s: %s", q.Platform, q.ReleaseVersion, u.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return failed(result, 0, xerrors.Errorf("unable to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return failed(result, 0, xerrors.Errorf("HTTP error: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("Advisory lookup failed for %s %s: status code %d", q.Platform, q.ReleaseVersion, resp.StatusCode)
		return failed(result, resp.StatusCode, nil)
	}

	var r response
	if err = json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return failed(result, resp.StatusCode, xerrors.Errorf("failed to decode advisories: %w", err))
	}

	result.Advisories = Normalize(r.Advisories)
	return result
}

// FetchAll looks up every query with at most the configured number of
// requests in flight. Results are returned in query order. Queries not
// started before ctx is done are reported as failed.
func (f *Fetcher) FetchAll(ctx context.Context, queries []inventory.DeviceQuery) []PlatformResult {
	results := make([]PlatformResult, len(queries))

	var bar *pb.ProgressBar
	if f.progress {
		bar = pb.StartNew(len(queries))
		defer bar.Finish()
	}

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, q := range queries {
		i, q := i, q
		if err := ctx.Err(); err != nil {
			results[i] = failed(PlatformResult{
				Platform:       q.Platform,
				ReleaseVersion: q.ReleaseVersion,
				Advisories:     []Record{},
			}, 0, err)
			continue
		}
		g.Go(func() error {
			results[i] = f.Fetch(ctx, q)
			if bar != nil {
				bar.Increment()
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func failed(r PlatformResult, code int, err error) PlatformResult {
	if err != nil {
		log.Warnf("Advisory lookup failed for %s %s: %s", r.Platform, r.ReleaseVersion, err)
	}
	r.Status = StatusError
	r.ErrorDetail = code
	r.Err = err
	r.Advisories = []Record{}
	return r
}
