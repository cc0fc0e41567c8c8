package web

import (
	"context"
	"strings"
	"sync"
	"time"

	"leaderdesk/internal/domain"
	"leaderdesk/pkg/log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RateLimiter caps poster generations per client IP. Composition holds
// a browser tab or a CPU-bound canvas, so a single client must not be
// able to monopolize it.
type RateLimiter struct {
	hits   map[string][]time.Time
	mu     sync.Mutex
	limit  int
	window time.Duration
}

// NewRateLimiter allows limit requests per window per IP.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
	go rl.cleanup()
	return rl
}

// allow records the hit and reports whether it is within the limit.
func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	recent := rl.hits[ip][:0]
	for _, t := range rl.hits[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= rl.limit {
		rl.hits[ip] = recent
		return false
	}
	rl.hits[ip] = append(recent, time.Now())
	return true
}

// Middleware rejects over-limit requests with 429.
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.allow(c.IP()) {
			log.GlobalWarnCtx(c.UserContext(), "generation rate limit hit", "ip", c.IP())
			return jsonError(c, fiber.StatusTooManyRequests, friendlyError(domain.ErrRateLimited))
		}
		return c.Next()
	}
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.window)
		for ip, timestamps := range rl.hits {
			var recent []time.Time
			for _, t := range timestamps {
				if t.After(cutoff) {
					recent = append(recent, t)
				}
			}
			if len(recent) == 0 {
				delete(rl.hits, ip)
			} else {
				rl.hits[ip] = recent
			}
		}
		rl.mu.Unlock()
	}
}

// SessionVerifier resolves a bearer token to a session and its leader
// profile.
type SessionVerifier interface {
	Session(ctx context.Context, accessToken string) (*domain.Session, error)
	Profile(ctx context.Context, userID string) (*domain.Leader, error)
}

// SessionStore caches verified tokens so every request does not round
// trip to the identity backend.
type SessionStore interface {
	Get(token string) (*domain.Session, *domain.Leader, bool)
	Set(token string, session *domain.Session, leader *domain.Leader)
}

// Auth gates the API behind a valid leader session. With no verifier
// configured the gate runs open with a demo profile, matching the
// offline mode of the rest of the app.
type Auth struct {
	verifier SessionVerifier
	cache    SessionStore
}

func NewAuth(verifier SessionVerifier, cache SessionStore) *Auth {
	return &Auth{verifier: verifier, cache: cache}
}

// localsLeaderKey is where RequireLeader stashes the resolved profile.
const localsLeaderKey = "leader"

// RequireLeader authenticates the request and stores the leader
// profile in the request locals.
func (a *Auth) RequireLeader() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if a.verifier == nil {
			c.Locals(localsLeaderKey, &domain.Leader{FullName: "Demo Leader", IsActive: true})
			return c.Next()
		}

		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return jsonError(c, fiber.StatusUnauthorized, "Missing or malformed authorization header.")
		}

		if _, leader, ok := a.cache.Get(token); ok {
			c.Locals(localsLeaderKey, leader)
			return c.Next()
		}

		ctx := c.UserContext()
		session, err := a.verifier.Session(ctx, token)
		if err != nil {
			log.GlobalErrorCtx(ctx, "session verification failed", "error", err)
			return jsonError(c, fiber.StatusBadGateway, "Could not verify the session right now.")
		}
		if session == nil {
			return jsonError(c, fiber.StatusUnauthorized, "Session is expired or invalid.")
		}

		leader, err := a.verifier.Profile(ctx, session.UserID)
		if err != nil {
			return jsonError(c, fiber.StatusForbidden, friendlyError(err))
		}
		if !leader.IsActive {
			return jsonError(c, fiber.StatusForbidden, friendlyError(domain.ErrLeaderInactive))
		}

		a.cache.Set(token, session, leader)
		c.Locals(localsLeaderKey, leader)
		return c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// currentLeader returns the profile RequireLeader resolved, if any.
func currentLeader(c *fiber.Ctx) *domain.Leader {
	leader, _ := c.Locals(localsLeaderKey).(*domain.Leader)
	return leader
}

// RequestIDConfig uses the inbound X-Request-ID when present and mints
// one otherwise.
func RequestIDConfig() requestid.Config {
	return requestid.Config{
		Header:     "X-Request-ID",
		ContextKey: "requestid",
	}
}

// RequestIDToContextMiddleware copies fiber's request id into the
// logging context. Register it after requestid.New().
func RequestIDToContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals("requestid").(string); ok {
			c.SetUserContext(log.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// RequestLoggerMiddleware emits one structured line per request.
func RequestLoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		fields := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		}
		if err != nil {
			fields = append(fields, "error", err.Error())
		}

		ctx := c.UserContext()
		switch {
		case status >= 500:
			log.GlobalErrorCtx(ctx, "request completed", fields...)
		case status >= 400:
			log.GlobalWarnCtx(ctx, "request completed", fields...)
		default:
			log.GlobalInfoCtx(ctx, "request completed", fields...)
		}
		return err
	}
}
