package composer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strings"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"leaderdesk/internal/domain"
	"leaderdesk/pkg/log"
)

const dataURIPrefix = "data:image/png;base64,"

// Asset names used by the compose pipeline.
const (
	assetBulb   = "bulb"
	assetBanner = "banner"
)

// Canvas composes tip posters by procedural drawing onto an RGBA
// surface. The surface is a single mutable resource; layers are drawn
// in strict sequence because each depends on the pixels committed by
// the previous one.
type Canvas struct {
	layout  *LayoutConfig
	assets  *AssetLoader
	regular *truetype.Font
	bold    *truetype.Font
	italic  *truetype.Font

	// now is swappable so tests can pin the date stamp.
	now func() time.Time
}

// NewCanvas parses the embedded font set up front. If no usable face
// can be built, composition is impossible and construction fails.
func NewCanvas(layout *LayoutConfig, assets *AssetLoader) (*Canvas, error) {
	regular, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: parse regular font: %v", domain.ErrCanvasUnavailable, err)
	}
	bold, err := freetype.ParseFont(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: parse bold font: %v", domain.ErrCanvasUnavailable, err)
	}
	italic, err := freetype.ParseFont(goitalic.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: parse italic font: %v", domain.ErrCanvasUnavailable, err)
	}

	return &Canvas{
		layout:  layout,
		assets:  assets,
		regular: regular,
		bold:    bold,
		italic:  italic,
		now:     time.Now,
	}, nil
}

// Compose renders the full poster and returns it as a PNG data URI.
// Decorative asset failures degrade to drawn fallbacks and never abort
// the poster; only an unusable surface is terminal.
func (c *Canvas) Compose(ctx context.Context, req domain.TipGenerationRequest) (domain.ComposedTip, error) {
	if err := req.Validate(); err != nil {
		return domain.ComposedTip{}, err
	}

	l := c.layout.Snapshot()
	if l.Width <= 0 || l.Height <= 0 {
		return domain.ComposedTip{}, domain.ErrCanvasUnavailable
	}

	loaded := c.assets.LoadAll(ctx, map[string]string{
		assetBulb:   l.BulbURL,
		assetBanner: l.BannerURL,
	})

	img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))

	// Layer 1: brand background fill.
	draw.Draw(img, img.Bounds(), image.NewUniform(l.Background), image.Point{}, draw.Src)

	// Layer 2: bulb icon, top-left. Skipped entirely on load failure.
	if bulb := loaded[assetBulb]; bulb.Loaded() {
		target := image.Rect(l.BulbX, l.BulbY, l.BulbX+l.BulbW, l.BulbY+l.BulbH)
		draw.Draw(img, target, scaleTo(bulb.Image, l.BulbW, l.BulbH), image.Point{}, draw.Over)
	}

	// Layer 3: title banner, two-branch fallback. Both branches end
	// with the same centered overlay text.
	if banner := loaded[assetBanner]; banner.Loaded() {
		target := image.Rect(l.BannerX, l.BannerY, l.BannerX+l.BannerW, l.BannerY+l.BannerH)
		draw.Draw(img, target, scaleTo(banner.Image, l.BannerW, l.BannerH), image.Point{}, draw.Over)
	} else {
		fillEllipse(img, l.TitleCenterX, l.TitleCenterY, l.EllipseRX, l.EllipseRY, color.RGBA{A: 0xFF})
	}
	titleFace := truetype.NewFace(c.bold, &truetype.Options{Size: l.TitleSize, DPI: 72, Hinting: font.HintingFull})
	drawCenteredString(img, titleFace, strings.ToUpper(req.Title), l.TitleCenterX, l.TitleCenterY, color.White)

	// Layer 4: hand-drawn arrow and brand wordmark, bottom-left.
	white := color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	strokeQuad(img, 50, 520, 80, 540, 100, 570, 4, white)
	strokeLine(img, 100, 570, 110, 555, 4, white)
	strokeLine(img, 100, 570, 85, 565, 4, white)
	wordmarkFace := truetype.NewFace(c.bold, &truetype.Options{Size: l.WordmarkSize, DPI: 72, Hinting: font.HintingFull})
	drawString(img, wordmarkFace, l.Wordmark, l.WordmarkX, l.WordmarkY, color.White)

	// Layer 5: topic body, greedily wrapped against measured widths.
	bodyFace := truetype.NewFace(c.regular, &truetype.Options{Size: l.BodySize, DPI: 72, Hinting: font.HintingFull})
	lines := WrapText(req.Topic, bodyFace, l.BodyMaxWidth)
	y := l.BodyStartY
	for _, line := range lines {
		drawString(img, bodyFace, line, l.BodyX, y, color.White)
		y += l.BodyLineH
	}
	lastY := l.BodyStartY + (len(lines)-1)*l.BodyLineH

	// Layer 6: attribution and date, positioned relative to the last
	// wrapped body line.
	gray := color.RGBA{0xE0, 0xE0, 0xE0, 0xFF}
	sigFace := truetype.NewFace(c.italic, &truetype.Options{Size: l.SignatureSize, DPI: 72, Hinting: font.HintingFull})
	drawString(img, sigFace, "— "+req.LeaderName, l.BodyX, lastY+l.AuthorOffsetY, gray)
	drawString(img, sigFace, c.now().Format("2/1/2006"), l.BodyX, lastY+l.DateOffsetY, gray)

	// Layer 7: final encode.
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return domain.ComposedTip{}, fmt.Errorf("encode poster: %w", err)
	}

	log.GlobalDebugCtx(ctx, "poster composed", "bytes", buf.Len(), "body_lines", len(lines))
	return domain.ComposedTip{
		ImageData: dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// WrapText greedily wraps text so that no line's measured width
// exceeds maxWidth. Measurement uses the real font metrics of the
// target face, not a character estimate.
func WrapText(text string, face font.Face, maxWidth int) []string {
	drawer := &font.Drawer{Face: face}

	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		test := current
		if test != "" {
			test += " "
		}
		test += word

		if drawer.MeasureString(test).Ceil() > maxWidth && current != "" {
			lines = append(lines, current)
			current = word
		} else {
			current = test
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

// MeasureLine returns the rendered width of one line under face.
func MeasureLine(line string, face font.Face) int {
	drawer := &font.Drawer{Face: face}
	return drawer.MeasureString(line).Ceil()
}

// drawString draws text with its baseline at (x, y).
func drawString(dst *image.RGBA, face font.Face, text string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// drawCenteredString centers text horizontally and vertically on
// (cx, cy), mirroring center/middle alignment.
func drawCenteredString(dst *image.RGBA, face font.Face, text string, cx, cy int, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
	}
	w := d.MeasureString(text)
	m := face.Metrics()
	d.Dot = fixed.Point26_6{
		X: fixed.I(cx) - w/2,
		Y: fixed.I(cy) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(text)
}

// fillEllipse scan-fills an axis-aligned ellipse centered on (cx, cy).
func fillEllipse(dst *image.RGBA, cx, cy, rx, ry int, col color.Color) {
	if rx <= 0 || ry <= 0 {
		return
	}
	for dy := -ry; dy <= ry; dy++ {
		f := 1 - float64(dy)*float64(dy)/(float64(ry)*float64(ry))
		half := int(float64(rx) * math.Sqrt(f))
		for dx := -half; dx <= half; dx++ {
			dst.Set(cx+dx, cy+dy, col)
		}
	}
}

// strokeLine stamps a straight stroke of the given width.
func strokeLine(dst *image.RGBA, x0, y0, x1, y1 int, width int, col color.Color) {
	steps := int(math.Hypot(float64(x1-x0), float64(y1-y0))) * 2
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := float64(x0) + t*float64(x1-x0)
		y := float64(y0) + t*float64(y1-y0)
		stampDisc(dst, x, y, float64(width)/2, col)
	}
}

// strokeQuad stamps a quadratic curve from (x0, y0) to (x2, y2) with
// control point (x1, y1).
func strokeQuad(dst *image.RGBA, x0, y0, x1, y1, x2, y2 int, width int, col color.Color) {
	const steps = 64
	for i := 0; i <= steps; i++ {
		t := float64(i) / steps
		u := 1 - t
		x := u*u*float64(x0) + 2*u*t*float64(x1) + t*t*float64(x2)
		y := u*u*float64(y0) + 2*u*t*float64(y1) + t*t*float64(y2)
		stampDisc(dst, x, y, float64(width)/2, col)
	}
}

func stampDisc(dst *image.RGBA, cx, cy, r float64, col color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				dst.Set(int(cx+dx), int(cy+dy), col)
			}
		}
	}
}

// scaleTo resizes src to exactly w×h with nearest-neighbor sampling.
// Decorative assets are small enough that quality is not a concern.
func scaleTo(src image.Image, w, h int) image.Image {
	bounds := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := bounds.Min.X + x*bounds.Dx()/w
			sy := bounds.Min.Y + y*bounds.Dy()/h
			out.Set(x, y, src.At(sx, sy))
		}
	}
	return out
}
