package composer

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"sync"
	"time"

	// Decoders for the decorative asset formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"leaderdesk/pkg/log"
)

// AssetState tracks a single decorative asset load.
type AssetState string

const (
	AssetPending AssetState = "pending"
	AssetLoaded  AssetState = "loaded"
	AssetFailed  AssetState = "failed"
)

// AssetResult is the terminal state of one load attempt. A failed
// load is terminal for the attempt; there are no retries.
type AssetResult struct {
	State AssetState
	Image image.Image
	Err   error
}

// Loaded reports whether the asset decoded successfully.
func (r AssetResult) Loaded() bool {
	return r.State == AssetLoaded && r.Image != nil
}

// AssetLoader fetches and decodes decorative raster images. Each load
// is independent; a failure never propagates beyond its own result.
type AssetLoader struct {
	client *http.Client
}

// NewAssetLoader returns a loader with a bounded request timeout.
func NewAssetLoader(client *http.Client) *AssetLoader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &AssetLoader{client: client}
}

// Load fetches one asset. An empty URL counts as a failed load so the
// caller's fallback path fires without a network round trip.
func (l *AssetLoader) Load(ctx context.Context, url string) AssetResult {
	if url == "" {
		return AssetResult{State: AssetFailed, Err: fmt.Errorf("no asset URL configured")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return AssetResult{State: AssetFailed, Err: err}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return AssetResult{State: AssetFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AssetResult{State: AssetFailed, Err: fmt.Errorf("asset fetch status %d", resp.StatusCode)}
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return AssetResult{State: AssetFailed, Err: fmt.Errorf("decode asset: %w", err)}
	}

	return AssetResult{State: AssetLoaded, Image: img}
}

// LoadAll fetches every named asset concurrently and joins on all of
// them, capturing each failure in its own result. Failures are logged
// once and never abort the join.
func (l *AssetLoader) LoadAll(ctx context.Context, urls map[string]string) map[string]AssetResult {
	results := make(map[string]AssetResult, len(urls))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for name, url := range urls {
		wg.Add(1)
		go func(name, url string) {
			defer wg.Done()
			res := l.Load(ctx, url)
			if res.State == AssetFailed {
				log.GlobalWarnCtx(ctx, "decorative asset failed, degrading", "asset", name, "error", res.Err)
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
		}(name, url)
	}

	wg.Wait()
	return results
}
