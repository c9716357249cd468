package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"ekehi_backend/internal/service"

	"github.com/gin-gonic/gin"
)

func TestJWTMiddleware(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	service.InitJWT()

	r := gin.New()
	r.GET("/me", JWT(), func(c *gin.Context) {
		uid, _ := c.Get("user_id")
		c.JSON(200, gin.H{"user_id": uid})
	})

	// missing header
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no header = %d, want 401", w.Code)
	}

	// malformed token
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d, want 401", w.Code)
	}

	// valid token
	token, err := service.GenerateJWT("user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token = %d, want 200", w.Code)
	}
}

func TestGatewayKeyMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/callback", GatewayKey("secret-key"), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/callback", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no key = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/callback", nil)
	req.Header.Set("X-Gateway-Key", "wrong")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/callback", nil)
	req.Header.Set("X-Gateway-Key", "secret-key")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("correct key = %d, want 200", w.Code)
	}
}
