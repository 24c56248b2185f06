package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mfreitag/solarledger/internal/storage"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(storage.NewMemory())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alex", "hunter22", "editor")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.PasswordHash == "hunter22" {
		t.Fatal("password stored in the clear")
	}

	if _, err := svc.Register(ctx, "alex", "other", "viewer"); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate register: expected ErrUserExists, got %v", err)
	}

	got, err := svc.Authenticate(ctx, "alex", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated wrong user: %s", got.ID)
	}

	if _, err := svc.Authenticate(ctx, "alex", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestTokenLifecycle(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alex", "hunter22", "editor")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	tok, raw, err := svc.CreateToken(ctx, u.ID, "ci", "viewer", nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if raw == "" || tok.TokenHash == raw {
		t.Fatal("raw token must differ from stored hash")
	}

	got, err := svc.ValidateToken(ctx, raw)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got.ID != tok.ID || got.Role != "viewer" {
		t.Errorf("unexpected token: %+v", got)
	}

	if _, err := svc.ValidateToken(ctx, "bogus"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}

	past := time.Now().Add(-time.Hour)
	_, rawExpired, err := svc.CreateToken(ctx, u.ID, "old", "viewer", &past)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, rawExpired); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestEnforceRoles(t *testing.T) {
	svc := newService(t)

	cases := []struct {
		role, obj, act string
		want           bool
	}{
		{"admin", "projects", "write", true},
		{"admin", "users", "write", true},
		{"editor", "projects", "write", true},
		{"editor", "users", "write", false},
		{"viewer", "projects", "read", true},
		{"viewer", "projects", "write", false},
		{"viewer", "analyses", "read", true},
	}
	for _, tc := range cases {
		got, err := svc.Enforce(tc.role, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("Enforce(%s,%s,%s): %v", tc.role, tc.obj, tc.act, err)
		}
		if got != tc.want {
			t.Errorf("Enforce(%s,%s,%s) = %v, want %v", tc.role, tc.obj, tc.act, got, tc.want)
		}
	}
}

func TestMiddlewareAndPermissions(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, _ := svc.Register(ctx, "alex", "hunter22", "editor")
	_, raw, err := svc.CreateToken(ctx, u.ID, "api", "viewer", nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	var reached bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })

	// viewer token may read projects
	h := svc.Middleware(svc.RequirePermission("projects", "read", inner))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !reached || rec.Code != http.StatusOK {
		t.Fatalf("viewer read: code %d, reached %v", rec.Code, reached)
	}

	// viewer token may not write
	reached = false
	h = svc.Middleware(svc.RequirePermission("projects", "write", inner))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/projects", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if reached || rec.Code != http.StatusForbidden {
		t.Fatalf("viewer write: code %d, reached %v", rec.Code, reached)
	}

	// no token at all
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/projects", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous write: code %d", rec.Code)
	}
}

func TestParseExpiration(t *testing.T) {
	if exp, err := ParseExpiration("never"); err != nil || exp != nil {
		t.Errorf("never: %v, %v", exp, err)
	}
	if exp, err := ParseExpiration(""); err != nil || exp != nil {
		t.Errorf("empty: %v, %v", exp, err)
	}

	exp, err := ParseExpiration("30d")
	if err != nil {
		t.Fatalf("30d: %v", err)
	}
	want := time.Now().Add(30 * 24 * time.Hour)
	if exp.Sub(want) > time.Minute || want.Sub(*exp) > time.Minute {
		t.Errorf("30d: got %v", exp)
	}

	if _, err := ParseExpiration("24h"); err != nil {
		t.Errorf("24h: %v", err)
	}
	if _, err := ParseExpiration("2w"); err != nil {
		t.Errorf("2w: %v", err)
	}
	if _, err := ParseExpiration("01/01/2020"); err == nil {
		t.Error("past date should be rejected")
	}
	if _, err := ParseExpiration("soon"); err == nil {
		t.Error("garbage should be rejected")
	}
}
