package middleware

import (
	"context"
	"net/http"
	"time"

	"license-api/internal/config"
	"license-api/internal/database"
	"license-api/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// UserAuthMiddleware resolves the caller's session token into a username.
// Session issuance lives in the auth collaborator, which stores
// auth_token:{token} -> username in Redis; this middleware only resolves.
func UserAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Auth-Token")
		if token == "" {
			token = c.Query("auth_token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, response.Error("AuthenticationRequired", "Missing auth token"))
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		username, err := database.GetRedis().Get(ctx, "auth_token:"+token).Result()
		if err != nil {
			if err == redis.Nil {
				c.JSON(http.StatusUnauthorized, response.Error("AuthenticationRequired", "Invalid or expired auth token"))
			} else {
				c.JSON(http.StatusInternalServerError, response.Error("InternalError", "internal error"))
			}
			c.Abort()
			return
		}

		c.Set("username", username)
		c.Next()
	}
}

// AdminAuthMiddleware validates the shared admin API key.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Admin-Key")
		if key == "" || config.AppConfig.AdminAPIKey == "" || key != config.AppConfig.AdminAPIKey {
			c.JSON(http.StatusUnauthorized, response.Error("AuthenticationRequired", "Invalid admin key"))
			c.Abort()
			return
		}

		c.Set("admin", true)
		c.Next()
	}
}

// Username returns the authenticated username from the context.
func Username(c *gin.Context) string {
	return c.GetString("username")
}
