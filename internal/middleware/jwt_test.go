package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, userID, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, c
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	token := signToken(t, testSecret, "user-1", "plug", time.Now().Add(time.Hour))

	rec, c := invoke(t, JWTMiddleware, "Bearer "+token)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got, _ := c.Get("user_id").(string); got != "user-1" {
		t.Errorf("user_id not set on context, got %q", got)
	}
	if got, _ := c.Get("role").(string); got != "plug" {
		t.Errorf("role not set on context, got %q", got)
	}
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	rec, _ := invoke(t, JWTMiddleware, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing header, got %d", rec.Code)
	}
}

func TestJWTMiddlewareExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	token := signToken(t, testSecret, "user-1", "member", time.Now().Add(-time.Hour))
	rec, _ := invoke(t, JWTMiddleware, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestJWTMiddlewareWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	token := signToken(t, "another-secret", "user-1", "member", time.Now().Add(time.Hour))
	rec, _ := invoke(t, JWTMiddleware, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong secret, got %d", rec.Code)
	}
}

func contextWithRole(role string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}
	return c, rec
}

func TestRequireRolesAllowsListedRole(t *testing.T) {
	c, rec := contextWithRole("plug")
	handler := RequireRoles("plug")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for allowed role, got %d", rec.Code)
	}
}

func TestRequireRolesRejectsOtherRole(t *testing.T) {
	c, rec := contextWithRole("member")
	handler := RequireRoles("plug")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for disallowed role, got %d", rec.Code)
	}
}

func TestAdminGuardRejectsNonAdmin(t *testing.T) {
	c, rec := contextWithRole("plug")
	handler := AdminGuard(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
}

func TestAdminGuardAllowsAdmin(t *testing.T) {
	c, rec := contextWithRole("admin")
	handler := AdminGuard(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}
