package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ppetrack/internal/core/apperror"
)

// JobAuthConfig configures the shared-secret guard of the job endpoints.
type JobAuthConfig struct {
	// Secret is the raw shared secret. Accepted as X-Job-Token, as a raw
	// bearer token, or as the signing key of an HS256 bearer JWT.
	Secret string

	// SecretHash is an optional bcrypt hash accepted instead of the raw
	// secret, so the secret itself does not have to live in every caller's
	// environment.
	SecretHash string
}

// Enabled reports whether any credential is configured.
func (c JobAuthConfig) Enabled() bool {
	return c.Secret != "" || c.SecretHash != ""
}

// JobAuth guards the batch trigger endpoints. Requests without a valid
// credential are rejected with 401 before any work starts.
func JobAuth(cfg JobAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled() {
			// Refuse everything rather than run open: a missing secret is a
			// deployment mistake, not an invitation.
			abortUnauthorized(c, "job endpoints are not configured")
			return
		}

		token := c.GetHeader("X-Job-Token")
		if token == "" {
			auth := c.GetHeader("Authorization")
			if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
				token = strings.TrimSpace(after)
			}
		}
		if token == "" {
			abortUnauthorized(c, "missing job token")
			return
		}

		if !cfg.accepts(token) {
			abortUnauthorized(c, "invalid job token")
			return
		}

		c.Next()
	}
}

func (c JobAuthConfig) accepts(token string) bool {
	if c.Secret != "" {
		if subtle.ConstantTimeCompare([]byte(token), []byte(c.Secret)) == 1 {
			return true
		}
		if c.acceptsJWT(token) {
			return true
		}
	}
	if c.SecretHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(token)) == nil {
			return true
		}
	}
	return false
}

// acceptsJWT validates an HS256 token signed with the shared secret.
// Claims are not inspected beyond the standard time checks.
func (c JobAuthConfig) acceptsJWT(token string) bool {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(c.Secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	return err == nil && parsed.Valid
}

func abortUnauthorized(c *gin.Context, msg string) {
	appErr := apperror.NewUnauthorized(msg)
	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
