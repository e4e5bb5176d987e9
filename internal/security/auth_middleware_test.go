package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newAuthRouter(am *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/guarded", am.RequireAuth(), func(c *gin.Context) {
		orgID, _ := GetOrgID(c)
		c.JSON(http.StatusOK, gin.H{"org_id": orgID})
	})
	return router
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	am := NewAuthMiddleware(NewJWTManager("test-secret", time.Hour))
	router := newAuthRouter(am)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	am := NewAuthMiddleware(NewJWTManager("test-secret", time.Hour))
	router := newAuthRouter(am)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthExposesOrgScope(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	am := NewAuthMiddleware(manager)
	router := newAuthRouter(am)

	token, err := manager.GenerateToken("user-1", "analyst", "org-42", []string{"member"})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := rec.Body.String(); body != `{"org_id":"org-42"}` {
		t.Errorf("unexpected body: %s", body)
	}
}
