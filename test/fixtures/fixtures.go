// Package fixtures provides shared test data for the poster pipeline
// and the identity adapter.
package fixtures

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"leaderdesk/internal/domain"
)

// TipRequest returns a valid generation request.
func TipRequest() domain.TipGenerationRequest {
	return domain.TipGenerationRequest{
		Title:      "Seguridad",
		Topic:      "Usa MFA en todas tus cuentas y nunca compartas tus códigos de acceso.",
		LeaderName: "Ana",
	}
}

// PNGBytes encodes a small uniform PNG, usable as a decorative asset
// response body.
func PNGBytes(c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// TokenResponseJSON mimics the identity backend's password grant
// response.
func TokenResponseJSON() string {
	return `{
  "access_token": "test-access-token",
  "token_type": "bearer",
  "expires_in": 3600,
  "user": {"id": "leader-1", "email": "ana@truora.com"}
}`
}

// LeaderRowJSON mimics one row of the leaders table as the REST
// endpoint returns it.
func LeaderRowJSON() string {
	return `[{
  "id": "leader-1",
  "email": "ana@truora.com",
  "full_name": "Ana",
  "team_name": "Plataforma",
  "role": "leader",
  "is_active": true
}]`
}
