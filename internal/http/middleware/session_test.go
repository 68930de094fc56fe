package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumine/darshan-bookings/internal/platform/session"
	"github.com/lumine/darshan-bookings/pkg/auth"
)

const testSecret = "test-secret"

type mockResolver struct {
	user *session.User
	err  error
}

func (m *mockResolver) CurrentUser(ctx context.Context, userID int64) (*session.User, error) {
	return m.user, m.err
}

func protectedEcho(t *testing.T, resolver UserResolver) http.Handler {
	t.Helper()
	return RequireUser(resolver, testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			t.Error("handler reached without a user in context")
			return
		}
		w.Header().Set("X-User-Email", user.Email)
		w.Header().Set("X-Bearer", Bearer(r))
	}))
}

func TestRequireUserMissingToken(t *testing.T) {
	h := protectedEcho(t, &mockResolver{})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequireUserBadToken(t *testing.T) {
	h := protectedEcho(t, &mockResolver{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequireUserExpiredToken(t *testing.T) {
	token, err := auth.NewAccessToken(7, "asha@example.com", "pilgrim", testSecret, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	h := protectedEcho(t, &mockResolver{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequireUserResolvesSessionRecord(t *testing.T) {
	token, err := auth.NewAccessToken(7, "asha@example.com", "pilgrim", testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	resolver := &mockResolver{user: &session.User{ID: 7, Email: "stored@example.com", FullName: "Asha Patel"}}
	h := protectedEcho(t, resolver)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-User-Email"); got != "stored@example.com" {
		t.Errorf("session record should win over claims, got %q", got)
	}
	if got := rec.Header().Get("X-Bearer"); got != token {
		t.Errorf("bearer not forwarded, got %q", got)
	}
}

func TestRequireUserFallsBackToClaims(t *testing.T) {
	token, err := auth.NewAccessToken(7, "asha@example.com", "pilgrim", testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	h := protectedEcho(t, &mockResolver{err: session.ErrNotFound})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-User-Email"); got != "asha@example.com" {
		t.Errorf("claims fallback email = %q", got)
	}
}

func TestCurrentUserOutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if CurrentUser(req) != nil {
		t.Error("expected nil user without the middleware")
	}
	if Bearer(req) != "" {
		t.Error("expected empty bearer without the middleware")
	}
}
