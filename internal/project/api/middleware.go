package api

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sprintdeck/sprintdeck/internal/common/errors"
	"github.com/sprintdeck/sprintdeck/internal/common/logger"
	"github.com/sprintdeck/sprintdeck/internal/project/models"
	"github.com/sprintdeck/sprintdeck/internal/project/store"
)

const sessionKey = "session"

// ActorSession resolves the calling actor from the X-Actor-* headers and
// binds the request to that actor's store session, opening one on first use.
// Authentication itself happens upstream; the headers are trusted here.
func ActorSession(manager *store.Manager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader("X-Actor-ID")
		if actorID == "" {
			appErr := errors.Unauthorized("X-Actor-ID header is required")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		actor := models.Actor{
			ID:    actorID,
			Name:  c.GetHeader("X-Actor-Name"),
			Email: c.GetHeader("X-Actor-Email"),
		}

		session, err := manager.Open(actor)
		if err != nil {
			log.Error("failed to open session",
				zap.String("actor_id", actorID),
				zap.Error(err))
			appErr := errors.Wrap(err, "failed to open session")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequestLogger logs all incoming requests with detailed information.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		duration := time.Since(start)
		log.Info("Request completed",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("request_id", requestID),
		)
	}
}

// Recovery recovers from panics and logs them.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"code":    errors.ErrCodeInternalError,
						"message": "An internal server error occurred",
					},
				})
			}
		}()

		c.Next()
	}
}

// session pulls the store session the middleware bound to the request.
func session(c *gin.Context) (*store.Store, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := value.(*store.Store)
	return s, ok
}

// respondError writes an AppError with its mapped HTTP status, falling back
// to 500 for unknown error shapes.
func respondError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    errors.ErrCodeInternalError,
			"message": "An internal server error occurred",
		},
	})
}
