// Package domain contains the core business entities and rules.
package domain

import (
	"strings"
	"time"
)

// TipGenerationRequest carries the inputs for one poster generation
// attempt. It is transient and never persisted directly.
type TipGenerationRequest struct {
	Title      string
	Topic      string
	LeaderName string
}

// Validate trims the request in place and reports whether the
// mandatory fields are present.
func (r *TipGenerationRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Topic = strings.TrimSpace(r.Topic)
	r.LeaderName = strings.TrimSpace(r.LeaderName)

	if r.Title == "" {
		return ErrEmptyTitle
	}
	if r.Topic == "" {
		return ErrEmptyTopic
	}
	return nil
}

// ComposedTip is the single encoded poster produced by a successful
// composition: a PNG data URI. Immutable once produced.
type ComposedTip struct {
	ImageData string
}

// Tip is a persisted record of a delivered poster. Records are only
// created after a delivery is judged (at least ambiguously)
// successful, and are never mutated afterwards.
type Tip struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Topic          string    `json:"topic"`
	ImageData      string    `json:"imageData"`
	LeaderName     string    `json:"leaderName"`
	CreatedAt      time.Time `json:"createdAt"`
	SentToTelegram bool      `json:"sentToTelegram"`
}

// DeliveryOutcome classifies the result of pushing a tip to the
// automation webhook.
type DeliveryOutcome string

const (
	// OutcomeConfirmed means the sink acknowledged the call with a
	// success status.
	OutcomeConfirmed DeliveryOutcome = "confirmed"

	// OutcomeAssumed means the transport result was unreadable (opaque
	// network error or a not-found status) and the sink is assumed to
	// have executed the side effect anyway. Treated as success for
	// persistence, but named separately for telemetry.
	OutcomeAssumed DeliveryOutcome = "assumed"

	// OutcomeFailed means the delivery definitely did not land.
	OutcomeFailed DeliveryOutcome = "failed"
)

// Delivered reports whether the outcome counts as success for
// persistence purposes.
func (o DeliveryOutcome) Delivered() bool {
	return o == OutcomeConfirmed || o == OutcomeAssumed
}

// FlowState is the generator flow's current position.
type FlowState string

const (
	FlowIdle         FlowState = "idle"
	FlowComposing    FlowState = "composing"
	FlowPreviewReady FlowState = "preview-ready"
	FlowDelivering   FlowState = "delivering"
	FlowDelivered    FlowState = "delivered"
	FlowFailed       FlowState = "failed"
)
