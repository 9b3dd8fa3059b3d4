package validator

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProbeResult is the outcome of one image existence check.
type ProbeResult struct {
	URL        string
	Reachable  bool
	StatusCode int
	Cause      string
}

// ImageProber issues existence checks against image URLs.
type ImageProber interface {
	Probe(ctx context.Context, url string) ProbeResult
}

// httpProber checks URLs with HEAD requests under a bounded timeout.
type httpProber struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPProber creates a prober with a per-request timeout.
func NewHTTPProber(timeout time.Duration, logger *zap.Logger) ImageProber {
	return &httpProber{
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (p *httpProber) Probe(ctx context.Context, url string) ProbeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return ProbeResult{URL: url, Cause: "invalid-url"}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ProbeResult{URL: url, Cause: "network"}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return ProbeResult{URL: url, Reachable: true, StatusCode: resp.StatusCode}
	}
	return ProbeResult{
		URL:        url,
		StatusCode: resp.StatusCode,
		Cause:      "http-" + strconv.Itoa(resp.StatusCode),
	}
}

// probeAll fans out checks across a bounded worker count. A single check's
// failure never blocks or cancels the others.
func probeAll(ctx context.Context, prober ImageProber, urls []string, concurrency int) []ProbeResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]ProbeResult, len(urls))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, url string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = prober.Probe(ctx, url)
		}(i, url)
	}
	wg.Wait()

	return results
}
