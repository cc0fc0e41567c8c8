package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leaderdesk/internal/domain"
	"leaderdesk/test/fixtures"
)

func TestClient_SignIn_Success(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("grant_type = %q", r.URL.Query().Get("grant_type"))
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey header = %q", r.Header.Get("apikey"))
		}
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["email"] != "ana@truora.com" || creds["password"] != "secret" {
			t.Errorf("credentials = %v", creds)
		}
		w.Write([]byte(fixtures.TokenResponseJSON()))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "anon-key", srv.Client())

	// Act
	session, err := c.SignIn(context.Background(), "ana@truora.com", "secret")

	// Assert
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if session.AccessToken != "test-access-token" {
		t.Errorf("AccessToken = %q", session.AccessToken)
	}
	if session.UserID != "leader-1" || session.Email != "ana@truora.com" {
		t.Errorf("session = %+v", session)
	}
	if time.Until(session.ExpiresAt) < 59*time.Minute {
		t.Errorf("ExpiresAt = %v, want about an hour out", session.ExpiresAt)
	}
}

func TestClient_SignIn_BadCredentials(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_grant"}`, status)
		}))
		c := NewClient(srv.URL, "anon-key", srv.Client())

		_, err := c.SignIn(context.Background(), "ana@truora.com", "wrong")

		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("status %d: expected ErrInvalidCredentials, got %v", status, err)
		}
		srv.Close()
	}
}

func TestClient_Session_ValidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"id":"leader-1","email":"ana@truora.com"}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "anon-key", srv.Client())

	session, err := c.Session(context.Background(), "user-token")

	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if session == nil || session.UserID != "leader-1" {
		t.Errorf("session = %+v", session)
	}
}

func TestClient_Session_StaleTokenIsNilNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "anon-key", srv.Client())

	session, err := c.Session(context.Background(), "stale")

	if err != nil {
		t.Fatalf("stale token must not error: %v", err)
	}
	if session != nil {
		t.Errorf("session = %+v, want nil", session)
	}
}

func TestClient_Profile_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/leaders" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "eq.leader-1" {
			t.Errorf("id filter = %q", got)
		}
		w.Write([]byte(fixtures.LeaderRowJSON()))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "anon-key", srv.Client())

	leader, err := c.Profile(context.Background(), "leader-1")

	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if leader.FullName != "Ana" || !leader.IsActive {
		t.Errorf("leader = %+v", leader)
	}
}

func TestClient_Profile_EmptyRowSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "anon-key", srv.Client())

	_, err := c.Profile(context.Background(), "ghost")

	if !errors.Is(err, domain.ErrLeaderNotFound) {
		t.Errorf("expected ErrLeaderNotFound, got %v", err)
	}
}

func TestClient_TouchLastLogin(t *testing.T) {
	var patched map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %q", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&patched)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "anon-key", srv.Client())

	if err := c.TouchLastLogin(context.Background(), "leader-1"); err != nil {
		t.Fatalf("touch: %v", err)
	}

	if _, err := time.Parse(time.RFC3339, patched["last_login"]); err != nil {
		t.Errorf("last_login = %q, not RFC3339", patched["last_login"])
	}
}

func TestSessionCache_RoundTripAndExpiry(t *testing.T) {
	cache := NewSessionCache(20 * time.Millisecond)
	session := &domain.Session{AccessToken: "tok", UserID: "u1"}
	leader := &domain.Leader{ID: "u1", FullName: "Ana"}

	cache.Set("tok", session, leader)

	gotSession, gotLeader, ok := cache.Get("tok")
	if !ok {
		t.Fatal("fresh entry should hit")
	}
	if gotSession.UserID != "u1" || gotLeader.FullName != "Ana" {
		t.Errorf("cached = %+v / %+v", gotSession, gotLeader)
	}

	time.Sleep(30 * time.Millisecond)
	if _, _, ok := cache.Get("tok"); ok {
		t.Error("expired entry should miss")
	}
}

func TestSessionCache_Invalidate(t *testing.T) {
	cache := NewSessionCache(time.Minute)
	cache.Set("tok", &domain.Session{UserID: "u1"}, &domain.Leader{ID: "u1"})

	cache.Invalidate("tok")

	if _, _, ok := cache.Get("tok"); ok {
		t.Error("invalidated entry should miss")
	}
}
