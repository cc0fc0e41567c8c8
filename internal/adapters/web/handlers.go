package web

import (
	"context"
	"errors"
	"time"

	"leaderdesk/internal/adapters/composer"
	"leaderdesk/internal/adapters/store"
	"leaderdesk/internal/domain"
	"leaderdesk/internal/usecases"
	"leaderdesk/pkg/log"

	"github.com/gofiber/fiber/v2"
)

// composeTimeout bounds a single poster composition, browser path
// included.
const composeTimeout = 45 * time.Second

// Handlers contains the HTTP handlers for the dashboard API.
type Handlers struct {
	login      *usecases.Login
	flow       *usecases.TipFlow
	chat       *usecases.Chat
	dashboard  *usecases.Dashboard
	tips       *store.Records[domain.Tip]
	activities *store.Records[domain.Activity]
	tasks      *store.Records[domain.Task]
	layout     *composer.LayoutConfig
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	login *usecases.Login,
	flow *usecases.TipFlow,
	chat *usecases.Chat,
	dashboard *usecases.Dashboard,
	tips *store.Records[domain.Tip],
	activities *store.Records[domain.Activity],
	tasks *store.Records[domain.Task],
	layout *composer.LayoutConfig,
) *Handlers {
	return &Handlers{
		login:      login,
		flow:       flow,
		chat:       chat,
		dashboard:  dashboard,
		tips:       tips,
		activities: activities,
		tasks:      tasks,
		layout:     layout,
	}
}

// Health is the liveness probe.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string         `json:"accessToken"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	Leader      *domain.Leader `json:"leader"`
}

// Login authenticates a leader and returns the session token with the
// profile.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Request body must be JSON with email and password.")
	}
	if req.Email == "" || req.Password == "" {
		return jsonError(c, fiber.StatusBadRequest, "Email and password are required.")
	}

	session, leader, err := h.login.Execute(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.GlobalWarnCtx(c.UserContext(), "login rejected", "email", req.Email, "error", err)
		return jsonError(c, statusFor(err), friendlyError(err))
	}

	return c.JSON(loginResponse{
		AccessToken: session.AccessToken,
		ExpiresAt:   session.ExpiresAt,
		Leader:      leader,
	})
}

type generateRequest struct {
	Title string `json:"title"`
	Topic string `json:"topic"`
}

// GenerateTip composes a poster preview for the request.
func (h *Handlers) GenerateTip(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Request body must be JSON with title and topic.")
	}

	leaderName := ""
	if leader := currentLeader(c); leader != nil {
		leaderName = leader.FullName
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), composeTimeout)
	defer cancel()

	err := h.flow.Generate(ctx, domain.TipGenerationRequest{
		Title:      req.Title,
		Topic:      req.Topic,
		LeaderName: leaderName,
	})
	if err != nil {
		return jsonError(c, statusFor(err), friendlyError(err))
	}
	return c.JSON(h.flow.Snapshot())
}

// SendTip delivers the pending preview to the automation sink.
func (h *Handlers) SendTip(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), composeTimeout)
	defer cancel()

	if err := h.flow.Send(ctx); err != nil {
		// The snapshot still matters on failure: the client needs to
		// know the preview survived for a retry.
		c.Status(statusFor(err))
		return c.JSON(fiber.Map{
			"error": friendlyError(err),
			"flow":  h.flow.Snapshot(),
		})
	}
	return c.JSON(h.flow.Snapshot())
}

// ResetTipFlow returns the generator to idle.
func (h *Handlers) ResetTipFlow(c *fiber.Ctx) error {
	h.flow.Reset()
	return c.JSON(h.flow.Snapshot())
}

// TipFlowState reports the generator state for polling clients.
func (h *Handlers) TipFlowState(c *fiber.Ctx) error {
	return c.JSON(h.flow.Snapshot())
}

// ListTips returns the delivered tip history, newest last.
func (h *Handlers) ListTips(c *fiber.Ctx) error {
	return c.JSON(h.tips.List())
}

// DeleteTip removes one record from the history.
func (h *Handlers) DeleteTip(c *fiber.Ctx) error {
	if err := h.tips.Remove(c.Params("id")); err != nil {
		return jsonError(c, statusFor(err), friendlyError(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListActivities returns all calendar entries.
func (h *Handlers) ListActivities(c *fiber.Ctx) error {
	return c.JSON(h.activities.List())
}

// CreateActivity adds a calendar entry.
func (h *Handlers) CreateActivity(c *fiber.Ctx) error {
	var a domain.Activity
	if err := c.BodyParser(&a); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Request body must be a JSON activity.")
	}
	if a.Title == "" {
		return jsonError(c, fiber.StatusBadRequest, "Activity title is required.")
	}
	if a.Status == "" {
		a.Status = domain.ActivityPending
	}
	if !a.Status.Valid() {
		return jsonError(c, fiber.StatusBadRequest, "Unknown activity status.")
	}
	a.ID = store.NewID("activity")
	if err := h.activities.Add(a); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, friendlyError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

// UpdateActivity patches a calendar entry by id.
func (h *Handlers) UpdateActivity(c *fiber.Ctx) error {
	var in domain.Activity
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Request body must be a JSON activity.")
	}
	if in.Status != "" && !in.Status.Valid() {
		return jsonError(c, fiber.StatusBadRequest, "Unknown activity status.")
	}

	updated, err := h.activities.Update(c.Params("id"), func(a *domain.Activity) {
		if in.Title != "" {
			a.Title = in.Title
		}
		if !in.Date.IsZero() {
			a.Date = in.Date
		}
		if in.StartTime != "" {
			a.StartTime = in.StartTime
		}
		if in.EndTime != "" {
			a.EndTime = in.EndTime
		}
		if in.Status != "" {
			a.Status = in.Status
		}
		if in.Description != "" {
			a.Description = in.Description
		}
		if in.Color != "" {
			a.Color = in.Color
		}
	})
	if err != nil {
		return jsonError(c, statusFor(err), friendlyError(err))
	}
	return c.JSON(updated)
}

// DeleteActivity removes a calendar entry.
func (h *Handlers) DeleteActivity(c *fiber.Ctx) error {
	if err := h.activities.Remove(c.Params("id")); err != nil {
		return jsonError(c, statusFor(err), friendlyError(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListTasks returns the to-do list.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	return c.JSON(h.tasks.List())
}

// CreateTask adds a to-do item.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var t domain.Task
	if err := c.BodyParser(&t); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Request body must be a JSON task.")
	}
	if t.Title == "" {
		return jsonError(c, fiber.StatusBadRequest, "Task title is required.")
	}
	if t.Status == "" {
		t.Status = domain.TaskPending
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if !t.Status.Valid() || !t.Priority.Valid() {
		return jsonError(c, fiber.StatusBadRequest, "Unknown task status or priority.")
	}
	t.ID = store.NewID("task")
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := h.tasks.Add(t); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, friendlyError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// UpdateTask patches a to-do item by id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	var in domain.Task
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Request body must be a JSON task.")
	}
	if in.Status != "" && !in.Status.Valid() {
		return jsonError(c, fiber.StatusBadRequest, "Unknown task status.")
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return jsonError(c, fiber.StatusBadRequest, "Unknown task priority.")
	}

	updated, err := h.tasks.Update(c.Params("id"), func(t *domain.Task) {
		if in.Title != "" {
			t.Title = in.Title
		}
		if in.Description != "" {
			t.Description = in.Description
		}
		if in.Priority != "" {
			t.Priority = in.Priority
		}
		if in.Status != "" {
			t.Status = in.Status
		}
		if !in.DueDate.IsZero() {
			t.DueDate = in.DueDate
		}
		t.UpdatedAt = time.Now()
	})
	if err != nil {
		return jsonError(c, statusFor(err), friendlyError(err))
	}
	return c.JSON(updated)
}

// DeleteTask removes a to-do item.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	if err := h.tasks.Remove(c.Params("id")); err != nil {
		return jsonError(c, statusFor(err), friendlyError(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat relays a message to the tip assistant.
func (h *Handlers) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return jsonError(c, fiber.StatusBadRequest, "Request body must be JSON with a message.")
	}

	reply, err := h.chat.Send(c.UserContext(), req.Message)
	if err != nil {
		return jsonError(c, statusFor(err), friendlyError(err))
	}
	return c.JSON(fiber.Map{
		"reply":   reply,
		"history": h.chat.History(),
	})
}

// Dashboard returns the home-screen summary counters.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Summary())
}

// PosterPreview renders the HTML poster view for the given inputs.
// The browser-backed composer loads this same markup; exposing it
// makes layout changes inspectable in a plain browser tab.
func (h *Handlers) PosterPreview(c *fiber.Ctx) error {
	req := domain.TipGenerationRequest{
		Title:      c.Query("title", "Seguridad"),
		Topic:      c.Query("topic", "Ejemplo de contenido del tip."),
		LeaderName: c.Query("leader", "Equipo"),
	}
	html, err := composer.RenderPosterView(h.layout.Snapshot(), req, time.Now())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, friendlyError(err))
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

// jsonError writes a uniform error envelope.
func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyTitle), errors.Is(err, domain.ErrEmptyTopic):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrLeaderNotFound), errors.Is(err, domain.ErrLeaderInactive):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNoPreview):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, domain.ErrDeliveryFailed), errors.Is(err, domain.ErrChatUnavailable):
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrCanvasUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// friendlyError returns a neutral, non-blaming message for the client.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyTitle):
		return "The tip needs a title before it can be generated."
	case errors.Is(err, domain.ErrEmptyTopic):
		return "The tip needs topic content before it can be generated."
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "That email and password combination didn't work."
	case errors.Is(err, domain.ErrLeaderNotFound):
		return "This account has no leader profile. Contact your administrator."
	case errors.Is(err, domain.ErrLeaderInactive):
		return "This leader account is deactivated. Contact your administrator."
	case errors.Is(err, domain.ErrRecordNotFound):
		return "That record no longer exists."
	case errors.Is(err, domain.ErrNoPreview):
		return "Generate a poster before sending it."
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many posters in a short time. Wait a moment and try again."
	case errors.Is(err, domain.ErrDeliveryFailed):
		return "The tip couldn't be delivered. Your poster was kept, try sending again."
	case errors.Is(err, domain.ErrChatUnavailable):
		return "The assistant isn't responding right now. Try again in a moment."
	case errors.Is(err, domain.ErrCanvasUnavailable):
		return "Poster rendering is temporarily unavailable."
	default:
		return "Something went wrong. Please try again in a moment."
	}
}
