package api

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer builds the router. The /api group is only mounted when an access key is set.
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(
		gin.LoggerWithConfig(gin.LoggerConfig{Formatter: accessLogLine, SkipPaths: []string{"/health"}}),
		gin.Recovery(),
		cors(),
	)

	r.GET("/clusters", handler.GetClusters)
	r.GET("/clusters.html", handler.GetClustersHTML)
	r.GET("/clusters.rss", handler.GetClustersRSS)
	r.GET("/health", handler.GetHealth)
	r.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if apiAccessKey == "" {
		slog.Info("API endpoints disabled, no access key configured")
		return r
	}

	api := r.Group("/api", requireKey(apiAccessKey))
	api.GET("/feeds", handler.APIListFeeds)
	api.GET("/feeds/:name/details", handler.APIGetFeedDetails)
	api.POST("/feeds/:name/reload", handler.APIReloadFeed)
	api.POST("/clusters/run", handler.APIRunClusters)
	slog.Info("API endpoints enabled with authentication")

	return r
}

func accessLogLine(p gin.LogFormatterParams) string {
	return fmt.Sprintf("%s - [%s] %q %d %s %q %s\n",
		p.ClientIP,
		p.TimeStamp.Format(time.RFC3339),
		p.Method+" "+p.Path+" "+p.Request.Proto,
		p.StatusCode,
		p.Latency,
		p.Request.UserAgent(),
		p.ErrorMessage,
	)
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestKey reads the key from X-API-Key, falling back to an Authorization bearer token
func requestKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return key
}

func requireKey(accessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := requestKey(c.Request)
		switch {
		case key == "":
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
		case subtle.ConstantTimeCompare([]byte(key), []byte(accessKey)) != 1:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
		default:
			c.Next()
		}
	}
}
