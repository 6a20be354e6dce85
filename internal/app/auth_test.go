package app

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestMetricsAuthMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		header  string
		want    int
	}{
		{"disabled passes through", false, "", http.StatusOK},
		{"valid credentials", true, basic("prometheus", "s3cret"), http.StatusOK},
		{"wrong username", true, basic("scraper", "s3cret"), http.StatusUnauthorized},
		{"wrong password", true, basic("prometheus", "nope"), http.StatusUnauthorized},
		{"no header", true, "", http.StatusUnauthorized},
		{"malformed", true, "Basic notbase64!!!", http.StatusUnauthorized},
		{"bearer token", true, "Bearer s3cret", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/metrics", metricsAuthMiddleware(tt.enabled, "prometheus", "s3cret"), func(c *gin.Context) {
				c.String(http.StatusOK, "metrics")
			})

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="metrics"`, w.Header().Get("WWW-Authenticate"))
			} else {
				assert.Equal(t, "metrics", w.Body.String())
			}
		})
	}
}
