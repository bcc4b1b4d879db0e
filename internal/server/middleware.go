package server

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/koverhq/kover/internal/auditcontext"
	authdomain "github.com/koverhq/kover/internal/auth/domain"
)

const (
	headerRequestID = "X-Request-ID"

	contextUserKey     = "auth_user"
	contextTokenKey    = "auth_token"
	contextRawTokenKey = "auth_raw_token"
)

// RequestContext tags every request with an id and stashes the client
// address and user agent for audit writes further down the stack.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerRequestID, requestID)

		ctx := c.Request.Context()
		ctx = auditcontext.WithRequestID(ctx, requestID)
		ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = auditcontext.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, token, err := s.authsvc.Authenticate(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, authdomain.ErrAccountDeactivated) {
				AbortWithError(c, err)
				return
			}
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserKey, user)
		c.Set(contextTokenKey, token)
		c.Set(contextRawTokenKey, raw)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func currentUser(c *gin.Context) (*authdomain.User, bool) {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*authdomain.User)
	return user, ok
}

func currentRawToken(c *gin.Context) string {
	value, ok := c.Get(contextRawTokenKey)
	if !ok {
		return ""
	}
	raw, _ := value.(string)
	return raw
}
