package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"leaderdesk/internal/domain"
	"leaderdesk/pkg/log"
)

// TipComposer produces a poster for a generation request.
type TipComposer interface {
	Compose(ctx context.Context, req domain.TipGenerationRequest) (domain.ComposedTip, error)
}

// TipDeliverer pushes a tip record to the automation sink.
type TipDeliverer interface {
	Deliver(ctx context.Context, tip domain.Tip) (domain.DeliveryOutcome, error)
}

// TipRecorder persists delivered tips.
type TipRecorder interface {
	Add(tip domain.Tip) error
}

// FlowWindows are the user-facing confirmation display windows before
// the flow auto-resets to idle. The ambiguous case gets the longer
// one.
type FlowWindows struct {
	Confirmed time.Duration
	Assumed   time.Duration
}

// DefaultFlowWindows returns the stock display windows.
func DefaultFlowWindows() FlowWindows {
	return FlowWindows{Confirmed: 3 * time.Second, Assumed: 5 * time.Second}
}

// TipFlow sequences validate → compose → preview → deliver → persist.
// It is the single orchestrator; composer, deliverer and recorder
// never reference each other. At most one composition and one
// delivery are in flight at a time.
type TipFlow struct {
	composer  TipComposer
	deliverer TipDeliverer
	records   TipRecorder
	windows   FlowWindows

	mu      sync.Mutex
	state   domain.FlowState
	req     domain.TipGenerationRequest
	preview *domain.ComposedTip
	outcome domain.DeliveryOutcome

	// epoch invalidates results of operations abandoned by a reset.
	epoch uint64
}

// NewTipFlow builds the flow in the idle state.
func NewTipFlow(composer TipComposer, deliverer TipDeliverer, records TipRecorder, windows FlowWindows) *TipFlow {
	if windows.Confirmed <= 0 {
		windows = DefaultFlowWindows()
	}
	return &TipFlow{
		composer:  composer,
		deliverer: deliverer,
		records:   records,
		windows:   windows,
		state:     domain.FlowIdle,
	}
}

// FlowSnapshot is a point-in-time view of the flow for rendering.
type FlowSnapshot struct {
	State       domain.FlowState       `json:"state"`
	Preview     string                 `json:"preview,omitempty"`
	Outcome     domain.DeliveryOutcome `json:"outcome,omitempty"`
	CanGenerate bool                   `json:"canGenerate"`
	CanSend     bool                   `json:"canSend"`
}

// Snapshot returns the current flow view.
func (f *TipFlow) Snapshot() FlowSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := FlowSnapshot{
		State:       f.state,
		Outcome:     f.outcome,
		CanGenerate: !f.busyLocked(),
		CanSend:     f.preview != nil && !f.busyLocked(),
	}
	if f.preview != nil {
		s.Preview = f.preview.ImageData
	}
	return s
}

// CanGenerate reports whether a generation would start for the given
// inputs right now.
func (f *TipFlow) CanGenerate(title, topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.TrimSpace(title) != "" && strings.TrimSpace(topic) != "" && !f.busyLocked()
}

// CanSend reports whether a delivery would start right now.
func (f *TipFlow) CanSend() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.preview != nil && !f.busyLocked()
}

// busyLocked is true while an operation is in flight. Callers hold mu.
func (f *TipFlow) busyLocked() bool {
	return f.state == domain.FlowComposing || f.state == domain.FlowDelivering
}

// Generate validates the request and runs the composer. Re-invoking
// while an operation is in flight is a no-op. On composer failure the
// flow moves to failed with no preview retained.
func (f *TipFlow) Generate(ctx context.Context, req domain.TipGenerationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	if f.busyLocked() {
		f.mu.Unlock()
		return nil
	}
	f.epoch++
	myEpoch := f.epoch
	f.state = domain.FlowComposing
	f.preview = nil
	f.outcome = ""
	f.req = req
	f.mu.Unlock()

	composed, err := f.composer.Compose(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != myEpoch {
		// Reset while composing; nobody is observing this result.
		return nil
	}
	if err != nil {
		f.state = domain.FlowFailed
		f.preview = nil
		log.GlobalErrorCtx(ctx, "tip composition failed", "title", req.Title, "error", err)
		return err
	}
	f.state = domain.FlowPreviewReady
	f.preview = &composed
	return nil
}

// Send delivers the pending preview. On confirmed or assumed success
// the preview is promoted to a tip record and the flow auto-resets
// after the display window; on hard failure the preview is retained
// so the user may retry without recomposing.
func (f *TipFlow) Send(ctx context.Context) error {
	f.mu.Lock()
	if f.busyLocked() {
		f.mu.Unlock()
		return nil
	}
	if f.preview == nil {
		f.mu.Unlock()
		return domain.ErrNoPreview
	}

	tip := domain.Tip{
		ID:             newTipID(),
		Title:          f.req.Title,
		Topic:          f.req.Topic,
		ImageData:      f.preview.ImageData,
		LeaderName:     f.req.LeaderName,
		CreatedAt:      time.Now(),
		SentToTelegram: true,
	}
	f.epoch++
	myEpoch := f.epoch
	f.state = domain.FlowDelivering
	f.outcome = ""
	f.mu.Unlock()

	outcome, err := f.deliverer.Deliver(ctx, tip)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != myEpoch {
		return nil
	}

	if !outcome.Delivered() {
		f.state = domain.FlowFailed
		log.GlobalWarnCtx(ctx, "tip delivery failed, preview retained", "tip_id", tip.ID, "error", err)
		if err == nil {
			err = domain.ErrDeliveryFailed
		}
		return err
	}

	if addErr := f.records.Add(tip); addErr != nil {
		f.state = domain.FlowFailed
		return fmt.Errorf("persist tip record: %w", addErr)
	}

	f.state = domain.FlowDelivered
	f.outcome = outcome
	log.GlobalInfoCtx(ctx, "tip delivered", "tip_id", tip.ID, "outcome", outcome)

	window := f.windows.Confirmed
	if outcome == domain.OutcomeAssumed {
		window = f.windows.Assumed
	}
	time.AfterFunc(window, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.epoch == myEpoch && f.state == domain.FlowDelivered {
			f.resetLocked()
		}
	})
	return nil
}

// Reset returns the flow to idle from any state, discarding any
// pending preview.
func (f *TipFlow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *TipFlow) resetLocked() {
	f.epoch++
	f.state = domain.FlowIdle
	f.preview = nil
	f.outcome = ""
	f.req = domain.TipGenerationRequest{}
}

// newTipID mints a generation-time unique token.
func newTipID() string {
	return fmt.Sprintf("tip_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
