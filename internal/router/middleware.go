package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/storefront"
)

const (
	sessionCookieName = "sf_session"
	sessionKey        = "session"
)

type SessionCookie struct {
	Secure bool
	MaxAge time.Duration
}

// SessionMiddleware resolves the browser session from its cookie, issuing a new id when
// the cookie is missing or malformed.
func SessionMiddleware(registry *storefront.Registry, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookieName)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
		}

		// refresh the cookie on every request so it expires with the stored token
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookieName, id, int(cookie.MaxAge.Seconds()), "/", "", cookie.Secure, true)

		c.Set(sessionKey, registry.Get(id))
		c.Next()
	}
}

func currentSession(c *gin.Context) *storefront.Session {
	return c.MustGet(sessionKey).(*storefront.Session)
}

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if s, ok := c.Get(sessionKey); ok {
			fields = append(fields, zap.String("session", s.(*storefront.Session).ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
