package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brotliEngine(body string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 64, SkipPaths: []string{"/metrics"}}))
	handler := func(c *gin.Context) { c.String(http.StatusOK, body) }
	r.GET("/data", handler)
	r.GET("/metrics", handler)
	return r
}

func get(r *gin.Engine, path, acceptEncoding string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat("question text ", 50)
	rec := get(brotliEngine(body), "/data", "gzip, br;q=0.9")

	require.Equal(t, "br", rec.Header().Get("Content-Encoding"))
	decoded, err := io.ReadAll(brotli.NewReader(rec.Body))
	require.NoError(t, err)
	assert.Equal(t, body, string(decoded))
}

func TestBrotliPassesThrough(t *testing.T) {
	large := strings.Repeat("x", 500)

	tests := []struct {
		name, path, accept, body string
	}{
		{"small body", "/data", "br", "short"},
		{"client without br", "/data", "gzip", large},
		{"skipped path", "/metrics", "br", large},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(brotliEngine(tc.body), tc.path, tc.accept)
			assert.Empty(t, rec.Header().Get("Content-Encoding"))
			assert.Equal(t, tc.body, rec.Body.String())
		})
	}
}
