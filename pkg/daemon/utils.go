package daemon

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ginLogger logs one line per request. Failed requests are logged with the
// errors handlers attached through c.AbortWithError.
func ginLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// handlers may rewrite the path
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":    c.Request.Method,
			"path":      path,
			"status":    status,
			"latencyMs": time.Since(start).Milliseconds(),
			"bytes":     max(c.Writer.Size(), 0),
		}
		if id := c.Param("id"); id != "" {
			fields["schedule"] = id
		}
		entry := logger.WithFields(fields)

		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		case path == "/events":
			entry.Debug("event stream closed")
		default:
			entry.Debug("request served")
		}
	}
}
