// internal/middleware/auth_test.go
package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newGatedRouter(userType string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "someone")
		if userType != "" {
			c.Set("user_type", userType)
		}
		c.Next()
	})
	r.GET("/guarded", AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAdminRequired(t *testing.T) {
	assert.Equal(t, http.StatusOK, hit(newGatedRouter("admin"), "GET", "/guarded"))
	assert.Equal(t, http.StatusForbidden, hit(newGatedRouter("collector"), "GET", "/guarded"))
	assert.Equal(t, http.StatusForbidden, hit(newGatedRouter(""), "GET", "/guarded"))
}
