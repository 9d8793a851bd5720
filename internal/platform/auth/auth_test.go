package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("a-test-secret-long-enough-for-hs256", time.Hour)

	userID := uuid.New()
	clinicID := uuid.New()
	token, err := issuer.Issue(userID, "health_worker", &clinicID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != userID.String() {
		t.Errorf("expected subject %s, got %s", userID, claims.Subject)
	}
	if claims.Role != "health_worker" {
		t.Errorf("expected role health_worker, got %s", claims.Role)
	}
	if claims.ClinicID == nil || *claims.ClinicID != clinicID {
		t.Errorf("expected clinic id %s, got %v", clinicID, claims.ClinicID)
	}
}

func TestTokenNilClinic(t *testing.T) {
	issuer := NewTokenIssuer("a-test-secret-long-enough-for-hs256", time.Hour)

	token, err := issuer.Issue(uuid.New(), "admin", nil)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.ClinicID != nil {
		t.Errorf("expected nil clinic id, got %v", claims.ClinicID)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("a-test-secret-long-enough-for-hs256", time.Hour)
	other := NewTokenIssuer("a-different-secret-also-long-enough", time.Hour)

	token, err := issuer.Issue(uuid.New(), "admin", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected verification with wrong secret to fail")
	}
}

func TestVerify_Expired(t *testing.T) {
	issuer := NewTokenIssuer("a-test-secret-long-enough-for-hs256", -time.Minute)

	token, err := issuer.Issue(uuid.New(), "admin", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestVerify_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("a-test-secret-long-enough-for-hs256", time.Hour)
	if _, err := issuer.Verify("not.a.token"); err == nil {
		t.Fatal("expected malformed token to fail verification")
	}
}

func TestJWTMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("a-test-secret-long-enough-for-hs256", time.Hour)
	userID := uuid.New()
	token, err := issuer.Issue(userID, "supervisor", nil)
	if err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	handler := JWTMiddleware(issuer)(func(c echo.Context) error {
		ctx := c.Request().Context()
		if got := UserIDFromContext(ctx); got != userID {
			t.Errorf("expected user id %s in context, got %s", userID, got)
		}
		if got := RoleFromContext(ctx); got != "supervisor" {
			t.Errorf("expected role supervisor in context, got %s", got)
		}
		return c.NoContent(http.StatusOK)
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid bearer token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"tampered token", "Bearer " + token + "x", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler(c)
			status := rec.Code
			if err != nil {
				he, ok := err.(*echo.HTTPError)
				if !ok {
					t.Fatalf("unexpected error type: %v", err)
				}
				status = he.Code
			}
			if status != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, status)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	tests := []struct {
		name       string
		role       string
		required   []string
		wantStatus int
	}{
		{"exact role passes", "supervisor", []string{"supervisor"}, http.StatusOK},
		{"admin passes any check", "admin", []string{"supervisor"}, http.StatusOK},
		{"one of several", "health_worker", []string{"health_worker", "supervisor"}, http.StatusOK},
		{"wrong role forbidden", "health_worker", []string{"supervisor"}, http.StatusForbidden},
		{"no role forbidden", "", []string{"supervisor"}, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.role != "" {
				ctx := req.Context()
				req = req.WithContext(contextWithRole(ctx, tc.role))
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := RequireRole(tc.required...)(ok)(c)
			status := rec.Code
			if err != nil {
				he, ok := err.(*echo.HTTPError)
				if !ok {
					t.Fatalf("unexpected error type: %v", err)
				}
				status = he.Code
			}
			if status != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, status)
			}
		})
	}
}

func contextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, UserRoleKey, role)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Demo123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "Demo123!" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "Demo123!") {
		t.Error("expected correct password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}
