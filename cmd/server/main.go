package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"

	"leaderdesk/internal/adapters/composer"
	"leaderdesk/internal/adapters/delivery"
	"leaderdesk/internal/adapters/identity"
	"leaderdesk/internal/adapters/store"
	"leaderdesk/internal/adapters/web"
	"leaderdesk/internal/domain"
	"leaderdesk/internal/usecases"
	"leaderdesk/pkg/log"
	"leaderdesk/pkg/log/transporters"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	setupLogger()
	defer log.Default().Close()

	// Poster layout, hot-reloaded from disk when the file exists.
	layout, err := composer.LoadLayout(envOr("POSTER_LAYOUT", "config/poster.yaml"))
	if err != nil {
		log.GlobalWarn("layout config unavailable, using built-in layout", "error", err)
		layout = composer.StaticLayout(composer.DefaultLayout())
	}

	// Tip composer: pixel canvas by default, browser-rendered view when
	// asked for.
	tipComposer, cleanup, err := buildComposer(layout)
	if err != nil {
		log.GlobalFatal("could not build tip composer", "error", err)
	}
	defer cleanup()

	// Local stores, one JSON blob per collection.
	blob, err := store.NewFileBlob(envOr("DATA_DIR", "data"))
	if err != nil {
		log.GlobalFatal("could not open data directory", "error", err)
	}
	tips, err := store.NewTipStore(blob)
	if err != nil {
		log.GlobalFatal("tip store unreadable", "error", err)
	}
	activities, err := store.NewActivityStore(blob)
	if err != nil {
		log.GlobalFatal("activity store unreadable", "error", err)
	}
	tasks, err := store.NewTaskStore(blob)
	if err != nil {
		log.GlobalFatal("task store unreadable", "error", err)
	}

	// Delivery sink. With no URL configured the webhook runs in demo
	// mode and fakes a confirmed delivery.
	webhookURL := os.Getenv("N8N_WEBHOOK_URL")
	deliverer := delivery.NewWebhook(delivery.Config{
		URL:           webhookURL,
		SendRawBase64: envBool("WEBHOOK_RAW_BASE64"),
		DemoMode:      webhookURL == "",
	}, nil, nil)

	flow := usecases.NewTipFlow(tipComposer, deliverer, tips, usecases.DefaultFlowWindows())
	chat := usecases.NewChat(delivery.NewChatWebhook(os.Getenv("N8N_CHAT_WEBHOOK_URL"), nil))
	dashboard := usecases.NewDashboard(activities, tasks, tips)

	// Identity backend is optional; without it the API runs open in
	// demo mode.
	var (
		login *usecases.Login
		auth  *web.Auth
	)
	if base := os.Getenv("SUPABASE_URL"); base != "" {
		client := identity.NewClient(base, os.Getenv("SUPABASE_ANON_KEY"), http.DefaultClient)
		login = usecases.NewLogin(client)
		auth = web.NewAuth(client, identity.NewSessionCache(5*time.Minute))
	} else {
		log.GlobalWarn("identity backend not configured, running in demo mode")
		login = usecases.NewLogin(demoIdentity{})
		auth = web.NewAuth(nil, nil)
	}

	handlers := web.NewHandlers(login, flow, chat, dashboard, tips, activities, tasks, layout)
	generateLimiter := web.NewRateLimiter(10, time.Minute)

	app := fiber.New(fiber.Config{
		AppName:   "LeaderDesk",
		BodyLimit: 8 * 1024 * 1024, // posters travel as base64
	})
	app.Use(recover.New())
	app.Use(requestid.New(web.RequestIDConfig()))
	app.Use(web.RequestIDToContextMiddleware())
	app.Use(web.RequestLoggerMiddleware())

	web.SetupRoutes(app, handlers, auth, generateLimiter)

	port := envOr("PORT", "3000")
	log.GlobalInfo("starting leaderdesk", "port", port, "demo", webhookURL == "")
	if err := app.Listen(":" + port); err != nil {
		log.GlobalFatal("server stopped", "error", err)
	}
}

// buildComposer selects the composition path: COMPOSER=view renders the
// HTML poster in a headless browser, anything else draws on the pixel
// canvas.
func buildComposer(layout *composer.LayoutConfig) (usecases.TipComposer, func(), error) {
	if os.Getenv("COMPOSER") == "view" {
		pool, err := composer.NewBrowserPool(nil)
		if err != nil {
			return nil, nil, err
		}
		return composer.NewRasterizer(pool, layout), pool.Close, nil
	}

	canvas, err := composer.NewCanvas(layout, composer.NewAssetLoader(nil))
	if err != nil {
		return nil, nil, err
	}
	return canvas, func() {}, nil
}

func setupLogger() {
	level := log.Info
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		parsed, err := log.ParseLevel(s)
		if err == nil {
			level = parsed
		}
	}
	log.SetDefault(log.New(level, transporters.NewStdout()))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}

// demoIdentity accepts any credentials and hands out a static profile.
// It keeps the login screen usable with no backend behind it.
type demoIdentity struct{}

func (demoIdentity) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	return &domain.Session{
		AccessToken: "demo-token",
		UserID:      "demo",
		Email:       email,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}, nil
}

func (demoIdentity) Profile(ctx context.Context, userID string) (*domain.Leader, error) {
	return &domain.Leader{ID: userID, FullName: "Demo Leader", IsActive: true}, nil
}

func (demoIdentity) TouchLastLogin(ctx context.Context, userID string) error { return nil }
