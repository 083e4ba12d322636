package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(captured *string) *gin.Engine {
		router := gin.New()
		router.Use(CorrelationID())
		router.GET("/test", func(c *gin.Context) {
			*captured = GetCorrelationID(c)
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("GeneratesIDWhenMissing", func(t *testing.T) {
		var captured string
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		rr := httptest.NewRecorder()
		newRouter(&captured).ServeHTTP(rr, req)

		header := rr.Header().Get(CorrelationIDHeader)
		_, err := uuid.Parse(header)
		assert.NoError(t, err)
		assert.Equal(t, header, captured)
	})

	t.Run("KeepsCallerID", func(t *testing.T) {
		var captured string
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CorrelationIDHeader, "dashboard-42")
		rr := httptest.NewRecorder()
		newRouter(&captured).ServeHTTP(rr, req)

		assert.Equal(t, "dashboard-42", rr.Header().Get(CorrelationIDHeader))
		assert.Equal(t, "dashboard-42", captured)
	})

	t.Run("FallsBackToRequestID", func(t *testing.T) {
		var captured string
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "proxy-7")
		rr := httptest.NewRecorder()
		newRouter(&captured).ServeHTTP(rr, req)

		assert.Equal(t, "proxy-7", captured)
		assert.Equal(t, "proxy-7", rr.Header().Get(CorrelationIDHeader))
	})
}

func TestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var logBuffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuffer, nil))

	router := gin.New()
	router.Use(CorrelationID())
	router.Use(Logger(logger))
	router.GET("/organizations/:id/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/organizations/:id/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	router.GET("/organizations/:id/fail", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	cases := []struct {
		path  string
		level string
	}{
		{"/organizations/org-1/ok?from=2024-03-01", `"level":"INFO"`},
		{"/organizations/org-1/bad", `"level":"WARN"`},
		{"/organizations/org-1/fail", `"level":"ERROR"`},
	}

	for _, tc := range cases {
		logBuffer.Reset()
		req, _ := http.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set(CorrelationIDHeader, "corr-1")
		router.ServeHTTP(httptest.NewRecorder(), req)

		output := logBuffer.String()
		assert.Contains(t, output, tc.level, tc.path)
		assert.Contains(t, output, `"msg":"HTTP request"`)
		assert.Contains(t, output, `"correlation_id":"corr-1"`)
		assert.Contains(t, output, `"organization_id":"org-1"`)
		assert.Contains(t, output, `"path":"`+tc.path+`"`)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var logBuffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelError}))

	router := gin.New()
	router.Use(CorrelationID())
	router.Use(Recovery(logger))
	router.GET("/panic", func(c *gin.Context) { panic("snapshot exploded") })

	req, _ := http.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(CorrelationIDHeader, "corr-9")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	errorField, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", errorField["code"])
	assert.Equal(t, "corr-9", body["correlation_id"])

	output := logBuffer.String()
	assert.Contains(t, output, `"msg":"Panic recovered"`)
	assert.Contains(t, output, `"error":"snapshot exploded"`)
	assert.Contains(t, output, `"stack":`)
}
