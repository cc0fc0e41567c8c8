// Package composer renders tip posters, either by procedural 2D
// drawing or by rasterizing a live HTML view in headless Chrome.
package composer

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Layout holds the poster geometry. Every value has a compiled-in
// default so composition works without a config file.
type Layout struct {
	Width      int
	Height     int
	Background color.RGBA
	Wordmark   string

	BulbURL   string
	BannerURL string

	BulbX, BulbY, BulbW, BulbH         int
	BannerX, BannerY, BannerW, BannerH int

	TitleSize                  float64
	TitleCenterX, TitleCenterY int
	EllipseRX, EllipseRY       int

	BodySize                       float64
	BodyX, BodyStartY, BodyLineH   int
	BodyMaxWidth                   int
	SignatureSize                  float64
	AuthorOffsetY, DateOffsetY     int
	WordmarkSize                   float64
	WordmarkX, WordmarkY           int
}

// DefaultLayout returns the stock 800×600 poster geometry.
func DefaultLayout() Layout {
	return Layout{
		Width:      800,
		Height:     600,
		Background: color.RGBA{R: 0x6B, G: 0x46, B: 0xC1, A: 0xFF},
		Wordmark:   "Truora",

		BulbX: 30, BulbY: 70, BulbW: 100, BulbH: 100,
		BannerX: 260, BannerY: 90, BannerW: 480, BannerH: 100,

		TitleSize:    36,
		TitleCenterX: 500, TitleCenterY: 140,
		EllipseRX: 240, EllipseRY: 50,

		BodySize: 26,
		BodyX:    50, BodyStartY: 320, BodyLineH: 40,
		BodyMaxWidth: 700,

		SignatureSize: 20,
		AuthorOffsetY: 80, DateOffsetY: 110,

		WordmarkSize: 32,
		WordmarkX:    50, WordmarkY: 550,
	}
}

// LayoutConfig wraps a Layout loaded from a YAML file with hot reload
// on modification.
type LayoutConfig struct {
	mu          sync.RWMutex
	layout      Layout
	filePath    string
	lastModTime time.Time
}

// rawLayout mirrors the YAML structure.
type rawLayout struct {
	Canvas struct {
		Width      int    `yaml:"width"`
		Height     int    `yaml:"height"`
		Background string `yaml:"background"`
	} `yaml:"canvas"`
	Brand struct {
		Wordmark string `yaml:"wordmark"`
	} `yaml:"brand"`
	Assets struct {
		Bulb   string `yaml:"bulb"`
		Banner string `yaml:"banner"`
	} `yaml:"assets"`
	Bulb   rect `yaml:"bulb"`
	Banner rect `yaml:"banner"`
	Title  struct {
		Size      float64 `yaml:"size"`
		CenterX   int     `yaml:"center_x"`
		CenterY   int     `yaml:"center_y"`
		EllipseRX int     `yaml:"ellipse_rx"`
		EllipseRY int     `yaml:"ellipse_ry"`
	} `yaml:"title"`
	Body struct {
		Size       float64 `yaml:"size"`
		X          int     `yaml:"x"`
		StartY     int     `yaml:"start_y"`
		LineHeight int     `yaml:"line_height"`
		MaxWidth   int     `yaml:"max_width"`
	} `yaml:"body"`
	Signature struct {
		Size         float64 `yaml:"size"`
		AuthorOffset int     `yaml:"author_offset"`
		DateOffset   int     `yaml:"date_offset"`
	} `yaml:"signature"`
	Wordmark struct {
		Size float64 `yaml:"size"`
		X    int     `yaml:"x"`
		Y    int     `yaml:"y"`
	} `yaml:"wordmark"`
}

type rect struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// LoadLayout reads the layout from a YAML file and starts a background
// watcher that reloads it when the file changes.
func LoadLayout(filePath string) (*LayoutConfig, error) {
	c := &LayoutConfig{filePath: filePath, layout: DefaultLayout()}
	if err := c.reload(); err != nil {
		return nil, err
	}
	go c.watch()
	return c, nil
}

// StaticLayout wraps a fixed layout with no backing file. Used in
// tests and as the fallback when no config file is present.
func StaticLayout(l Layout) *LayoutConfig {
	return &LayoutConfig{layout: l}
}

// Snapshot returns a copy of the current layout.
func (c *LayoutConfig) Snapshot() Layout {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.layout
}

// reload reads the file and merges it over the defaults. Zero values
// in the file keep their defaults.
func (c *LayoutConfig) reload() error {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return err
	}

	var raw rawLayout
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	l := DefaultLayout()
	if raw.Canvas.Width > 0 {
		l.Width = raw.Canvas.Width
	}
	if raw.Canvas.Height > 0 {
		l.Height = raw.Canvas.Height
	}
	if raw.Canvas.Background != "" {
		bg, err := ParseHexColor(raw.Canvas.Background)
		if err != nil {
			return err
		}
		l.Background = bg
	}
	if raw.Brand.Wordmark != "" {
		l.Wordmark = raw.Brand.Wordmark
	}
	l.BulbURL = raw.Assets.Bulb
	l.BannerURL = raw.Assets.Banner

	if raw.Bulb.Width > 0 {
		l.BulbX, l.BulbY, l.BulbW, l.BulbH = raw.Bulb.X, raw.Bulb.Y, raw.Bulb.Width, raw.Bulb.Height
	}
	if raw.Banner.Width > 0 {
		l.BannerX, l.BannerY, l.BannerW, l.BannerH = raw.Banner.X, raw.Banner.Y, raw.Banner.Width, raw.Banner.Height
	}
	if raw.Title.Size > 0 {
		l.TitleSize = raw.Title.Size
	}
	if raw.Title.CenterX > 0 {
		l.TitleCenterX, l.TitleCenterY = raw.Title.CenterX, raw.Title.CenterY
	}
	if raw.Title.EllipseRX > 0 {
		l.EllipseRX, l.EllipseRY = raw.Title.EllipseRX, raw.Title.EllipseRY
	}
	if raw.Body.Size > 0 {
		l.BodySize = raw.Body.Size
	}
	if raw.Body.MaxWidth > 0 {
		l.BodyMaxWidth = raw.Body.MaxWidth
	}
	if raw.Body.X > 0 {
		l.BodyX = raw.Body.X
	}
	if raw.Body.StartY > 0 {
		l.BodyStartY = raw.Body.StartY
	}
	if raw.Body.LineHeight > 0 {
		l.BodyLineH = raw.Body.LineHeight
	}
	if raw.Signature.Size > 0 {
		l.SignatureSize = raw.Signature.Size
	}
	if raw.Signature.AuthorOffset > 0 {
		l.AuthorOffsetY = raw.Signature.AuthorOffset
	}
	if raw.Signature.DateOffset > 0 {
		l.DateOffsetY = raw.Signature.DateOffset
	}
	if raw.Wordmark.Size > 0 {
		l.WordmarkSize = raw.Wordmark.Size
	}
	if raw.Wordmark.X > 0 {
		l.WordmarkX, l.WordmarkY = raw.Wordmark.X, raw.Wordmark.Y
	}

	c.mu.Lock()
	c.layout = l
	c.mu.Unlock()
	return nil
}

// watch polls the config file and reloads it on modification.
func (c *LayoutConfig) watch() {
	ticker := time.NewTicker(10 * time.Second)
	for range ticker.C {
		info, err := os.Stat(c.filePath)
		if err != nil {
			continue
		}
		if info.ModTime().After(c.lastModTime) {
			_ = c.reload()
			c.lastModTime = info.ModTime()
		}
	}
}

// ParseHexColor parses "#RRGGBB" into an opaque RGBA color.
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xFF,
	}, nil
}
