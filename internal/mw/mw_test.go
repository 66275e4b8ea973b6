package mw

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"medflow-backend/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestResponseCache(t *testing.T) {
	calls := 0
	rc := NewResponseCache(time.Minute)
	r := gin.New()
	r.Use(rc.Handler())
	r.GET("/palette", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/broken", func(c *gin.Context) {
		calls++
		c.Status(http.StatusInternalServerError)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/palette", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"calls":1}`, w.Body.String())
		assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
		if i == 0 {
			assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
		} else {
			assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		}
	}
	assert.Equal(t, 1, calls)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	}
	assert.Equal(t, 3, calls, "error responses are not cached")
}

func TestResponseCache_IgnoresQueryString(t *testing.T) {
	rc := NewResponseCache(time.Minute)
	r := gin.New()
	r.Use(rc.Handler())
	r.GET("/vapid", func(c *gin.Context) { c.String(http.StatusOK, "key") })

	for _, target := range []string{"/vapid", "/vapid?a=1", "/vapid?b=2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, "key", w.Body.String())
	}
	assert.Equal(t, 1, rc.Len())
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(1), 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes[i] = w.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "each client has its own bucket")
}

func TestIPRateLimiter_ReusesLimiter(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	a := l.GetLimiter("10.0.0.1")
	assert.Same(t, a, l.GetLimiter("10.0.0.1"))
	l.GetLimiter("10.0.0.2")
	assert.Equal(t, 2, l.Len())
}

type fixedRole model.Role

func (f fixedRole) Role() model.Role { return model.Role(f) }

func TestRequireRole(t *testing.T) {
	testCases := []struct {
		name     string
		active   model.Role
		allowed  []model.Role
		expected int
	}{
		{"Junior on resident route", model.RoleJunior, []model.Role{model.RoleJunior}, http.StatusOK},
		{"Senior on resident route", model.RoleSenior, []model.Role{model.RoleJunior}, http.StatusForbidden},
		{"Either role", model.RoleSenior, []model.Role{model.RoleJunior, model.RoleSenior}, http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/", RequireRole(fixedRole(tc.active), tc.allowed...), func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
			assert.Equal(t, tc.expected, w.Code)
		})
	}
}

func TestRequireRole_FormClientIsRedirected(t *testing.T) {
	r := gin.New()
	r.POST("/", RequireRole(fixedRole(model.RoleJunior), model.RoleSenior), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("text=late"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/?error="))
	assert.Contains(t, w.Header().Get("Location"), "JUNIOR")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Logger(slog.New(slog.NewTextHandler(&buf, nil))))
	r.GET("/api/state", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/state", nil))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "path=/api/state")
	assert.Contains(t, buf.String(), "status=418")
}
