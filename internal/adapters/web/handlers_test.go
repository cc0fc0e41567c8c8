package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leaderdesk/internal/adapters/composer"
	"leaderdesk/internal/adapters/store"
	"leaderdesk/internal/domain"
	"leaderdesk/internal/usecases"

	"github.com/gofiber/fiber/v2"
)

// stubComposer is a stub implementation of usecases.TipComposer.
type stubComposer struct {
	image string
	err   error
}

func (s *stubComposer) Compose(ctx context.Context, req domain.TipGenerationRequest) (domain.ComposedTip, error) {
	if s.err != nil {
		return domain.ComposedTip{}, s.err
	}
	return domain.ComposedTip{ImageData: s.image}, nil
}

// stubDeliverer is a stub implementation of usecases.TipDeliverer.
type stubDeliverer struct {
	outcome domain.DeliveryOutcome
	err     error
}

func (s *stubDeliverer) Deliver(ctx context.Context, tip domain.Tip) (domain.DeliveryOutcome, error) {
	return s.outcome, s.err
}

// stubRelay is a stub implementation of usecases.AssistantRelay.
type stubRelay struct {
	reply string
	err   error
}

func (s *stubRelay) Send(ctx context.Context, message string, history []domain.ChatMessage) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type testEnv struct {
	app  *fiber.App
	tips *store.Records[domain.Tip]
}

func setupAPI(t *testing.T, composerStub usecases.TipComposer, delivererStub usecases.TipDeliverer) testEnv {
	t.Helper()

	blob := store.NewMemoryBlob()
	tips, err := store.NewTipStore(blob)
	if err != nil {
		t.Fatalf("tip store: %v", err)
	}
	activities, err := store.NewActivityStore(blob)
	if err != nil {
		t.Fatalf("activity store: %v", err)
	}
	tasks, err := store.NewTaskStore(blob)
	if err != nil {
		t.Fatalf("task store: %v", err)
	}

	flow := usecases.NewTipFlow(composerStub, delivererStub, tips, usecases.FlowWindows{
		Confirmed: time.Minute,
		Assumed:   time.Minute,
	})
	chat := usecases.NewChat(&stubRelay{reply: "Cambia tus contraseñas."})
	dashboard := usecases.NewDashboard(activities, tasks, tips)

	h := NewHandlers(nil, flow, chat, dashboard, tips, activities, tasks,
		composer.StaticLayout(composer.DefaultLayout()))

	app := fiber.New()
	SetupRoutes(app, h, NewAuth(nil, nil), NewRateLimiter(100, time.Minute))
	return testEnv{app: app, tips: tips}
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

func TestAPI_GenerateAndSendTip(t *testing.T) {
	// Arrange
	env := setupAPI(t, &stubComposer{image: "data:image/png;base64,AAAA"}, &stubDeliverer{outcome: domain.OutcomeConfirmed})

	// Act: generate
	status, body := postJSON(t, env.app, "/api/tips/generate", fiber.Map{
		"title": "Seguridad", "topic": "Usa MFA en todas tus cuentas",
	})

	// Assert
	if status != fiber.StatusOK {
		t.Fatalf("generate status = %d, body = %v", status, body)
	}
	if body["state"] != string(domain.FlowPreviewReady) {
		t.Errorf("state = %v, want preview-ready", body["state"])
	}
	if body["preview"] != "data:image/png;base64,AAAA" {
		t.Errorf("preview = %v", body["preview"])
	}

	// Act: send
	status, body = postJSON(t, env.app, "/api/tips/send", nil)

	// Assert
	if status != fiber.StatusOK {
		t.Fatalf("send status = %d, body = %v", status, body)
	}
	if body["state"] != string(domain.FlowDelivered) {
		t.Errorf("state = %v, want delivered", body["state"])
	}
	if env.tips.Len() != 1 {
		t.Errorf("tip store length = %d, want 1", env.tips.Len())
	}
}

func TestAPI_GenerateRejectsBlankTitle(t *testing.T) {
	env := setupAPI(t, &stubComposer{image: "x"}, &stubDeliverer{outcome: domain.OutcomeConfirmed})

	status, body := postJSON(t, env.app, "/api/tips/generate", fiber.Map{
		"title": "   ", "topic": "algo",
	})

	if status != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if body["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestAPI_SendWithoutPreviewConflicts(t *testing.T) {
	env := setupAPI(t, &stubComposer{image: "x"}, &stubDeliverer{outcome: domain.OutcomeConfirmed})

	status, _ := postJSON(t, env.app, "/api/tips/send", nil)

	if status != fiber.StatusConflict {
		t.Errorf("status = %d, want 409", status)
	}
}

func TestAPI_SendFailureKeepsPreview(t *testing.T) {
	// Arrange
	env := setupAPI(t, &stubComposer{image: "img"}, &stubDeliverer{outcome: domain.OutcomeFailed, err: domain.ErrDeliveryFailed})
	if status, _ := postJSON(t, env.app, "/api/tips/generate", fiber.Map{"title": "a", "topic": "b"}); status != fiber.StatusOK {
		t.Fatalf("generate status = %d", status)
	}

	// Act
	status, body := postJSON(t, env.app, "/api/tips/send", nil)

	// Assert
	if status != fiber.StatusBadGateway {
		t.Errorf("status = %d, want 502", status)
	}
	flow, ok := body["flow"].(map[string]any)
	if !ok {
		t.Fatalf("response should carry the flow snapshot, got %v", body)
	}
	if flow["preview"] != "img" {
		t.Errorf("preview should be retained, got %v", flow["preview"])
	}
	if env.tips.Len() != 0 {
		t.Errorf("failed delivery must not persist, store has %d", env.tips.Len())
	}
}

func TestAPI_TaskLifecycle(t *testing.T) {
	env := setupAPI(t, &stubComposer{}, &stubDeliverer{})

	// Create
	status, created := postJSON(t, env.app, "/api/tasks", fiber.Map{
		"title": "Preparar retro", "priority": "high",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d, body = %v", status, created)
	}
	id, _ := created["id"].(string)
	if !strings.HasPrefix(id, "task_") {
		t.Fatalf("id = %q, want task_ prefix", id)
	}
	if created["status"] != string(domain.TaskPending) {
		t.Errorf("default status = %v, want pending", created["status"])
	}

	// Update
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(fiber.Map{"status": "completed"})
	req := httptest.NewRequest("PUT", "/api/tasks/"+id, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	var updated map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&updated)
	resp.Body.Close()
	if updated["status"] != string(domain.TaskCompleted) {
		t.Errorf("updated status = %v, want completed", updated["status"])
	}

	// Delete
	resp, err = env.app.Test(httptest.NewRequest("DELETE", "/api/tasks/"+id, nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}

	// Deleting again is a 404.
	resp, err = env.app.Test(httptest.NewRequest("DELETE", "/api/tasks/"+id, nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestAPI_ActivityValidation(t *testing.T) {
	env := setupAPI(t, &stubComposer{}, &stubDeliverer{})

	status, _ := postJSON(t, env.app, "/api/activities", fiber.Map{
		"title": "Daily", "status": "doing-things",
	})

	if status != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown status", status)
	}
}

func TestAPI_Chat(t *testing.T) {
	env := setupAPI(t, &stubComposer{}, &stubDeliverer{})

	status, body := postJSON(t, env.app, "/api/chat", fiber.Map{"message": "dame un tip"})

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["reply"] != "Cambia tus contraseñas." {
		t.Errorf("reply = %v", body["reply"])
	}
	history, ok := body["history"].([]any)
	if !ok || len(history) != 2 {
		t.Errorf("history = %v, want 2 entries", body["history"])
	}
}

func TestAPI_Dashboard(t *testing.T) {
	env := setupAPI(t, &stubComposer{}, &stubDeliverer{})
	if status, _ := postJSON(t, env.app, "/api/tasks", fiber.Map{"title": "t1"}); status != fiber.StatusCreated {
		t.Fatal("seed task failed")
	}

	resp, err := env.app.Test(httptest.NewRequest("GET", "/api/dashboard", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	var summary map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary["tasksPending"] != float64(1) {
		t.Errorf("tasksPending = %v, want 1", summary["tasksPending"])
	}
}

func TestAPI_PosterPreviewRendersHTML(t *testing.T) {
	env := setupAPI(t, &stubComposer{}, &stubDeliverer{})

	resp, err := env.app.Test(httptest.NewRequest("GET", "/poster/preview?title=Seguridad&topic=MFA&leader=Ana", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	html := string(raw)
	if !strings.Contains(html, "<h1>Seguridad</h1>") {
		t.Errorf("rendered view should contain the title heading, got %q", html)
	}
	if !strings.Contains(html, "Ana") {
		t.Error("rendered view should contain the leader signature")
	}
}

func TestAPI_Healthz(t *testing.T) {
	env := setupAPI(t, &stubComposer{}, &stubDeliverer{})

	resp, err := env.app.Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
