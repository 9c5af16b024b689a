package middleware

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID injects an X-Request-ID header into the request and response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

type accessEntry struct {
	RequestID string `json:"request_id"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Bytes     int    `json:"bytes"`
}

// Logger logs each HTTP request with method, path, status, and latency.
// Format "json" writes one JSON object per request; anything else writes the
// plain text line.
func Logger(format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		requestID, _ := c.Get("request_id")
		rid, _ := requestID.(string)

		if format == "json" {
			line, err := json.Marshal(accessEntry{
				RequestID: rid,
				Method:    c.Request.Method,
				Path:      c.Request.URL.Path,
				Status:    c.Writer.Status(),
				LatencyMS: latency.Milliseconds(),
				Bytes:     c.Writer.Size(),
			})
			if err == nil {
				log.Print(string(line))
				return
			}
		}

		log.Printf("[%s] %s %s %d %s",
			rid,
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			latency,
		)
	}
}

// Recovery recovers from panics and returns a 500 error.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
