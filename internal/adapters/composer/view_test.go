package composer

import (
	"strings"
	"testing"
	"time"

	"leaderdesk/test/fixtures"
)

func renderView(t *testing.T, layout Layout) string {
	t.Helper()
	html, err := RenderPosterView(layout, fixtures.TipRequest(), time.Date(2025, time.January, 2, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RenderPosterView: %v", err)
	}
	return html
}

func TestRenderPosterViewCarriesRequestFields(t *testing.T) {
	// Arrange
	layout := DefaultLayout()

	// Act
	html := renderView(t, layout)

	// Assert
	for _, want := range []string{"<h1>Seguridad</h1>", "Ana", "2/1/2025", layout.Wordmark} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered view missing %q", want)
		}
	}
	if !strings.Contains(html, "background: #6B46C1") {
		t.Errorf("rendered view should carry the layout background color")
	}
}

func TestRenderPosterViewBannerFallbackWithoutURL(t *testing.T) {
	// Arrange: no banner URL configured at all.
	layout := DefaultLayout()
	layout.BannerURL = ""

	// Act
	html := renderView(t, layout)

	// Assert: the solid shape is applied statically, no <img> emitted.
	if !strings.Contains(html, `class="banner fallback"`) {
		t.Errorf("banner container should render with the fallback class, got:\n%s", html)
	}
	if strings.Contains(html, `src=""`) {
		t.Errorf("no banner img should be emitted without a URL")
	}
}

func TestRenderPosterViewBannerErrorHandlerAppliesFallbackBeforeDetach(t *testing.T) {
	// Arrange: a banner URL that the browser will fail to fetch. The
	// onerror handler must flip the container to the fallback shape
	// before removing the img: once removed, parentElement is null and
	// any statement after it would never run.
	layout := DefaultLayout()
	layout.BannerURL = "https://assets.invalid/banner.png"

	// Act
	html := renderView(t, layout)

	// Assert
	if !strings.Contains(html, layout.BannerURL) {
		t.Fatalf("banner img not rendered")
	}
	handler := `onerror="this.parentElement.classList.add('fallback'); this.remove()"`
	if !strings.Contains(html, handler) {
		t.Errorf("banner onerror must add the fallback class before detaching, got:\n%s", html)
	}
}
