package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leaderdesk/internal/domain"
	"leaderdesk/pkg/log"
)

// Config controls the tip webhook's sink-specific behavior.
type Config struct {
	// URL is the sink endpoint. Empty URL without DemoMode is a
	// misconfiguration and fails hard at delivery time.
	URL string

	// SendRawBase64 strips the data-URI prefix before transmission.
	// Whether the sink wants raw base64 or the full URI is a sink
	// contract, so it is a switch rather than a constant.
	SendRawBase64 bool

	// DemoMode short-circuits every delivery to confirmed success
	// after a simulated delay. Explicit switch, never an implicit
	// default.
	DemoMode bool

	// DemoDelay is the simulated send duration in demo mode.
	DemoDelay time.Duration
}

// Webhook posts composed tips to the automation sink and classifies
// the result. No retries; retrying is the caller's decision.
type Webhook struct {
	cfg    Config
	client *http.Client
	policy OutcomePolicy
}

// payload is the flat JSON body the sink expects.
type payload struct {
	Image      string `json:"image"`
	Title      string `json:"title"`
	Topic      string `json:"topic"`
	LeaderName string `json:"leaderName"`
	Timestamp  string `json:"timestamp"`
}

// NewWebhook builds the coordinator. A nil client falls back to the
// default transport (no explicit timeout, per the sink contract).
func NewWebhook(cfg Config, client *http.Client, policy OutcomePolicy) *Webhook {
	if client == nil {
		client = http.DefaultClient
	}
	if policy == nil {
		policy = AssumeDeliveredPolicy{}
	}
	if cfg.DemoDelay == 0 {
		cfg.DemoDelay = time.Second
	}
	return &Webhook{cfg: cfg, client: client, policy: policy}
}

// Deliver posts the tip and returns the classified outcome. The error
// is non-nil only for OutcomeFailed.
func (w *Webhook) Deliver(ctx context.Context, tip domain.Tip) (domain.DeliveryOutcome, error) {
	if w.cfg.DemoMode {
		select {
		case <-time.After(w.cfg.DemoDelay):
		case <-ctx.Done():
			return domain.OutcomeFailed, ctx.Err()
		}
		log.GlobalInfoCtx(ctx, "tip delivery simulated (demo mode)", "tip_id", tip.ID)
		return domain.OutcomeConfirmed, nil
	}

	if w.cfg.URL == "" {
		return domain.OutcomeFailed, fmt.Errorf("%w: no webhook URL configured", domain.ErrDeliveryFailed)
	}

	body, err := json.Marshal(payload{
		Image:      w.imageField(tip.ImageData),
		Title:      tip.Title,
		Topic:      tip.Topic,
		LeaderName: tip.LeaderName,
		Timestamp:  tip.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return domain.OutcomeFailed, fmt.Errorf("%w: encode payload: %v", domain.ErrDeliveryFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return domain.OutcomeFailed, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		outcome := w.policy.Classify(0, err)
		log.GlobalWarnCtx(ctx, "tip delivery transport error", "outcome", outcome, "error", err)
		if outcome == domain.OutcomeFailed {
			return outcome, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
		}
		return outcome, nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	outcome := w.policy.Classify(resp.StatusCode, nil)
	log.GlobalInfoCtx(ctx, "tip delivery classified", "status", resp.StatusCode, "outcome", outcome)
	if outcome == domain.OutcomeFailed {
		return outcome, fmt.Errorf("%w: sink status %d", domain.ErrDeliveryFailed, resp.StatusCode)
	}
	return outcome, nil
}

// imageField applies the sink's image encoding contract.
func (w *Webhook) imageField(imageData string) string {
	if !w.cfg.SendRawBase64 {
		return imageData
	}
	if idx := strings.Index(imageData, ","); idx >= 0 {
		return imageData[idx+1:]
	}
	return imageData
}
