package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"presensi_backend/internal/config"
	"presensi_backend/internal/model"
	"presensi_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

func testRouter(cfg *config.Config, roles ...model.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(cfg)}
	if len(roles) > 0 {
		handlers = append(handlers, RoleMiddleware(roles...))
	}
	group := r.Group("/", handlers...)
	group.GET("/protected", func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"nama": claims.Nama})
	})
	return r
}

func tokenFor(t *testing.T, nama string, role model.UserRole) string {
	t.Helper()
	user := &model.User{Nama: nama, Role: role}
	user.ID = 3
	token, err := util.GenerateJWT(user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	r := testRouter(cfg)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid token", "Bearer " + tokenFor(t, "Budi", model.Pegawai), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.authHeader)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body: %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "a-different-secret"
	r := testRouter(cfg)

	w := doRequest(r, "Bearer "+tokenFor(t, "Budi", model.Pegawai))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("token signed with another secret must be rejected, got %d", w.Code)
	}
}

func TestRoleMiddleware(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	r := testRouter(cfg, model.Admin)

	w := doRequest(r, "Bearer "+tokenFor(t, "Budi", model.Pegawai))
	if w.Code != http.StatusForbidden {
		t.Errorf("non-admin must be forbidden, got %d", w.Code)
	}

	w = doRequest(r, "Bearer "+tokenFor(t, "Siti", model.Admin))
	if w.Code != http.StatusOK {
		t.Errorf("admin must pass, got %d (body: %s)", w.Code, w.Body.String())
	}
}
