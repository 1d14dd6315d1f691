package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func hit(router *gin.Engine, addr string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = addr
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(1, 2))

	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:12345"))
	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:12345"))
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "10.0.0.1:12345"))
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(1, 1))

	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.2:1"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.getLimiter("10.0.0.1")
	rl.getLimiter("10.0.0.2")
	rl.limiters["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)

	assert.Equal(t, 1, rl.Sweep())
	_, kept := rl.limiters["10.0.0.2"]
	assert.True(t, kept)
}
