package composer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"leaderdesk/internal/domain"
)

// posterHTML is the poster authored as a styled view. The rasterizer
// captures this layout instead of issuing manual drawing calls; both
// paths honor the same geometry.
const posterHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body { width: {{.Width}}px; height: {{.Height}}px; background: {{.Background}};
         font-family: Arial, sans-serif; color: #fff; position: relative; overflow: hidden; }
  .bulb { position: absolute; left: {{.BulbX}}px; top: {{.BulbY}}px;
          width: {{.BulbW}}px; height: {{.BulbH}}px; }
  .banner { position: absolute; left: {{.BannerX}}px; top: {{.BannerY}}px;
            width: {{.BannerW}}px; height: {{.BannerH}}px;
            display: flex; align-items: center; justify-content: center; }
  .banner.fallback { background: #000; border-radius: 50%; }
  .banner img { position: absolute; inset: 0; width: 100%; height: 100%; }
  .banner h1 { position: relative; font-size: {{.TitleSize}}px; font-weight: bold;
               text-transform: uppercase; }
  .body { position: absolute; left: {{.BodyX}}px; top: {{.BodyTop}}px;
          width: {{.BodyMaxWidth}}px; font-size: {{.BodySize}}px;
          line-height: {{.BodyLineH}}px; }
  .signature { font-style: italic; font-size: {{.SignatureSize}}px; color: #E0E0E0;
               margin-top: 40px; }
  .wordmark { position: absolute; left: {{.WordmarkX}}px; bottom: 30px;
              font-size: {{.WordmarkSize}}px; font-weight: bold; }
</style>
</head>
<body>
  {{if .BulbURL}}<img class="bulb" src="{{.BulbURL}}" onerror="this.remove()">{{end}}
  <div class="banner{{if not .BannerURL}} fallback{{end}}">
    {{if .BannerURL}}<img src="{{.BannerURL}}" onerror="this.parentElement.classList.add('fallback'); this.remove()">{{end}}
    <h1>{{.Title}}</h1>
  </div>
  <div class="body">
    <p>{{.Topic}}</p>
    <p class="signature">— {{.LeaderName}}<br>{{.Date}}</p>
  </div>
  <div class="wordmark">{{.Wordmark}}</div>
</body>
</html>`

var posterTemplate = template.Must(template.New("poster").Parse(posterHTML))

// posterViewData feeds the poster template.
type posterViewData struct {
	Layout
	Background string // CSS hex, shadows Layout.Background
	BodyTop    int
	Title      string
	Topic      string
	LeaderName string
	Date       string
}

// RenderPosterView renders the poster HTML for a request under the
// given layout.
func RenderPosterView(l Layout, req domain.TipGenerationRequest, now time.Time) (string, error) {
	bg := l.Background
	data := posterViewData{
		Layout:     l,
		Background: fmt.Sprintf("#%02X%02X%02X", bg.R, bg.G, bg.B),
		BodyTop:    l.BodyStartY - l.BodyLineH, // CSS top, vs. baseline in the canvas path
		Title:      req.Title,
		Topic:      req.Topic,
		LeaderName: req.LeaderName,
		Date:       now.Format("2/1/2006"),
	}

	var buf bytes.Buffer
	if err := posterTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render poster view: %w", err)
	}
	return buf.String(), nil
}
