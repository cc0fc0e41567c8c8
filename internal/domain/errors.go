package domain

import "errors"

var (
	// ErrEmptyTitle is returned when a generation request has no title.
	ErrEmptyTitle = errors.New("tip title is empty")

	// ErrEmptyTopic is returned when a generation request has no topic text.
	ErrEmptyTopic = errors.New("tip topic is empty")

	// ErrCanvasUnavailable is returned when no drawing surface or font
	// face can be acquired. Composition fails terminally; no partial
	// artifact is kept.
	ErrCanvasUnavailable = errors.New("rendering surface unavailable")

	// ErrNoPreview is returned when a send is attempted without a
	// pending composed preview.
	ErrNoPreview = errors.New("no composed preview to send")

	// ErrDeliveryFailed is returned on a hard delivery failure. The
	// composed preview is retained so the caller may retry.
	ErrDeliveryFailed = errors.New("delivery to webhook failed")

	// ErrRecordNotFound is returned when a store operation targets an
	// id that does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrStoreCorrupt is returned when a persisted blob cannot be
	// parsed. The store refuses to start rather than silently dropping
	// data.
	ErrStoreCorrupt = errors.New("persisted store blob is corrupt")

	// ErrInvalidCredentials is returned when the identity backend
	// rejects a sign-in.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLeaderNotFound is returned when an authenticated user has no
	// leader profile.
	ErrLeaderNotFound = errors.New("user is not registered as a leader")

	// ErrLeaderInactive is returned when the leader profile exists but
	// is deactivated.
	ErrLeaderInactive = errors.New("leader account is deactivated")

	// ErrRateLimited is returned when the per-IP generation limit is
	// exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrChatUnavailable is returned when the assistant webhook is not
	// configured or unreachable.
	ErrChatUnavailable = errors.New("assistant webhook unavailable")
)
