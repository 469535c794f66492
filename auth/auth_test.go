package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sessionRequest(t *testing.T, employeeID uint) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	CreateSession(rec, employeeID)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	req := sessionRequest(t, 42)
	id, ok := ParseSession(req)
	if !ok || id != 42 {
		t.Fatalf("expected employee 42, got %d ok=%v", id, ok)
	}
}

func TestParseSessionRejectsTampering(t *testing.T) {
	tests := []string{"", "42", "42.bad", "43." + sign("42"), "0." + sign("0")}
	for _, v := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: v})
		if _, ok := ParseSession(req); ok {
			t.Errorf("cookie %q should be rejected", v)
		}
	}
}

func TestRequireAuth(t *testing.T) {
	t.Cleanup(func() { SetIdentityLoader(nil) })
	SetIdentityLoader(func(_ context.Context, id uint) (*Identity, error) {
		switch id {
		case 1:
			return &Identity{EmployeeID: 1, DisplayName: "Ana", Enabled: true}, nil
		case 2:
			return &Identity{EmployeeID: 2, Enabled: false}, nil
		}
		return nil, errors.New("not found")
	})
	var seen *Identity
	h := Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	t.Run("anonymous json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
	t.Run("anonymous html", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Fatalf("expected redirect to /login, got %d %s", rec.Code, rec.Header().Get("Location"))
		}
	})
	t.Run("enabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, sessionRequest(t, 1))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if seen == nil || seen.DisplayName != "Ana" {
			t.Fatalf("identity not attached: %+v", seen)
		}
	})
	for _, id := range []uint{2, 3} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, sessionRequest(t, id))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("employee %d: expected redirect, got %d", id, rec.Code)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("clave1234")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "clave1234" {
		t.Fatal("password stored in clear")
	}
	if !CheckPassword(hash, "clave1234") {
		t.Fatal("expected password to match")
	}
	if CheckPassword(hash, "otra1234") || CheckPassword("", "clave1234") {
		t.Fatal("unexpected match")
	}
}
