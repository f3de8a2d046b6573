package v1

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDCtxKey = "request_id"
	subjectCtxKey   = "subject"
)

func (h *handlerImpl) HandleRequestID(c *gin.Context) {
	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set(requestIDCtxKey, requestID)
	c.Header(requestIDHeader, requestID)
	c.Next()
}

// HandleAuthMiddleware accepts a bearer token or the access token cookie.
// It lets every request through when auth is disabled.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	if !h.auth.Enabled() {
		c.Next()
		return
	}

	accessToken := bearerToken(c.GetHeader("Authorization"))
	if accessToken == "" {
		accessToken, _ = c.Cookie(accessTokenCookie)
	}
	if accessToken == "" {
		h.logger.Error().
			Str(requestIDCtxKey, c.GetString(requestIDCtxKey)).
			Msg("access token required")
		abort(c, newUnauthorizedError(errMissingToken.Error()))
		return
	}

	claims, err := h.auth.ParseJWTToken(accessToken)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(requestIDCtxKey, c.GetString(requestIDCtxKey)).
			Msg("failed to parse token")
		abort(c, newUnauthorizedError(err.Error()))
		return
	}

	c.Set(subjectCtxKey, claims.Subject)
	c.Next()
}

func bearerToken(header string) string {
	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
