// Package linkcheck verifies that candidate resource URLs are live and of
// the claimed kind before they are handed back to callers.
package linkcheck

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/plan"
)

const (
	defaultOEmbedEndpoint = "https://www.youtube.com/oembed"

	videoTimeout = 8 * time.Second
	probeTimeout = 5 * time.Second
)

// Only these hosts are ever treated as valid video sources.
var videoHostPattern = regexp.MustCompile(`^(www\.)?(youtube\.com|youtu\.be)$`)

// Checker probes resource URLs. The zero value is not usable; construct
// with New. All methods are safe for concurrent use.
type Checker struct {
	oembedEndpoint string
	videoClient    *http.Client
	probeClient    *http.Client
	logger         *zap.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithOEmbedEndpoint overrides the video metadata-lookup endpoint.
func WithOEmbedEndpoint(endpoint string) Option {
	return func(c *Checker) { c.oembedEndpoint = strings.TrimRight(endpoint, "/") }
}

// WithProbeClient sets the client used for existence probes.
func WithProbeClient(client *http.Client) Option {
	return func(c *Checker) { c.probeClient = client }
}

// WithVideoClient sets the client used for video metadata lookups.
func WithVideoClient(client *http.Client) Option {
	return func(c *Checker) { c.videoClient = client }
}

func New(logger *zap.Logger, opts ...Option) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Checker{
		oembedEndpoint: defaultOEmbedEndpoint,
		videoClient:    &http.Client{Timeout: videoTimeout},
		probeClient:    &http.Client{Timeout: probeTimeout},
		logger:         logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check reports whether the URL is live and plausible for its claimed
// kind. It never returns an error: any network or timeout failure counts
// as invalid. Inputs are not mutated.
func (c *Checker) Check(ctx context.Context, rawURL string, kind plan.ResourceKind) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !wellFormed(u) {
		return false
	}

	switch {
	case kind == plan.KindVideo || videoHostPattern.MatchString(u.Host):
		return c.checkVideo(ctx, u)
	case kind == plan.KindArticle || kind == plan.KindCourse || kind == plan.KindBook:
		return c.probe(ctx, u.String())
	default:
		// exercise and unrecognized kinds have no dedicated probe; a
		// well-formed URL is accepted as-is.
		return true
	}
}

// checkVideo asks the oEmbed metadata endpoint about the URL. Hosts
// outside the allowed pattern are rejected without a network call.
func (c *Checker) checkVideo(ctx context.Context, u *url.URL) bool {
	if !videoHostPattern.MatchString(u.Host) {
		return false
	}
	endpoint := c.oembedEndpoint + "?format=json&url=" + url.QueryEscape(u.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := c.videoClient.Do(req)
	if err != nil {
		c.logger.Debug("video lookup failed", zap.String("url", u.String()), zap.Error(err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// probe checks existence with HEAD, falling back once to a minimal ranged
// GET for servers that reject or mishandle HEAD.
func (c *Checker) probe(ctx context.Context, target string) bool {
	if ok, definite := c.attempt(ctx, http.MethodHead, target); definite {
		return ok
	}
	ok, _ := c.attempt(ctx, http.MethodGet, target)
	return ok
}

// attempt runs one probe. definite=false means the method itself looked
// unsupported (worth one retry with GET), not that the URL is dead.
func (c *Checker) attempt(ctx context.Context, method, target string) (ok, definite bool) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return false, true
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := c.probeClient.Do(req)
	if err != nil {
		c.logger.Debug("probe failed", zap.String("url", target), zap.Error(err))
		return false, method == http.MethodGet
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return true, true
	case resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented:
		return false, false
	default:
		return false, true
	}
}

// wellFormed is the syntactic check used for kinds with no network probe:
// scheme://host.tld with an http(s) scheme.
func wellFormed(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	return host != "" && strings.Contains(host, ".")
}
