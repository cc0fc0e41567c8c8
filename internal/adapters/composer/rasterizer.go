package composer

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"leaderdesk/internal/domain"
	"leaderdesk/pkg/log"
)

// rasterScale is the device pixel scale applied when capturing the
// live view.
const rasterScale = 2.0

// Rasterizer composes posters by laying the view out in headless
// Chrome and capturing it. It yields the same ComposedTip contract as
// Canvas; which composer is wired is not observable to callers.
type Rasterizer struct {
	pool   *BrowserPool
	layout *LayoutConfig

	// settle is the wait applied after navigation so pending image
	// loads inside the view have a chance to complete.
	settle time.Duration

	now func() time.Time
}

// NewRasterizer returns a view-based composer backed by the pool.
func NewRasterizer(pool *BrowserPool, layout *LayoutConfig) *Rasterizer {
	return &Rasterizer{
		pool:   pool,
		layout: layout,
		settle: 150 * time.Millisecond,
		now:    time.Now,
	}
}

// Compose renders the poster view and rasterizes it at 2× device
// scale.
func (r *Rasterizer) Compose(ctx context.Context, req domain.TipGenerationRequest) (domain.ComposedTip, error) {
	if err := req.Validate(); err != nil {
		return domain.ComposedTip{}, err
	}

	l := r.layout.Snapshot()
	html, err := RenderPosterView(l, req, r.now())
	if err != nil {
		return domain.ComposedTip{}, err
	}
	pageURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var shot []byte
	err = r.pool.WithTab(func(tabCtx context.Context) error {
		runCtx, cancel := context.WithTimeout(tabCtx, 30*time.Second)
		defer cancel()
		shot, err = CaptureView(runCtx, pageURL, int64(l.Width), int64(l.Height), r.settle)
		return err
	})
	if err != nil {
		return domain.ComposedTip{}, fmt.Errorf("%w: rasterize view: %v", domain.ErrCanvasUnavailable, err)
	}

	log.GlobalDebugCtx(ctx, "poster rasterized", "bytes", len(shot))
	return domain.ComposedTip{
		ImageData: dataURIPrefix + base64.StdEncoding.EncodeToString(shot),
	}, nil
}

// CaptureView navigates a tab to pageURL and screenshots the full
// viewport as PNG. It tolerates a transparent page background and a
// cross-origin-tainted surface; exported so the integration test can
// drive it against a remote Chrome.
func CaptureView(tabCtx context.Context, pageURL string, width, height int64, settle time.Duration) ([]byte, error) {
	var shot []byte
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(width, height, chromedp.EmulateScale(rasterScale)),
		emulation.SetDefaultBackgroundColorOverride().
			WithColor(&cdp.RGBA{R: 0, G: 0, B: 0, A: 0}),
		chromedp.Navigate(pageURL),
		chromedp.Sleep(settle),
		chromedp.FullScreenshot(&shot, 100),
	)
	if err != nil {
		return nil, err
	}
	if len(shot) == 0 {
		return nil, fmt.Errorf("empty screenshot")
	}
	return shot, nil
}
