package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func jobAuthRouter(cfg JobAuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/job", JobAuth(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doJobRequest(r *gin.Engine, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/job", nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJobAuth_HeaderToken(t *testing.T) {
	r := jobAuthRouter(JobAuthConfig{Secret: "s3cret"})

	w := doJobRequest(r, func(req *http.Request) {
		req.Header.Set("X-Job-Token", "s3cret")
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJobRequest(r, func(req *http.Request) {
		req.Header.Set("X-Job-Token", "wrong")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJobRequest(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJobAuth_BearerRawSecret(t *testing.T) {
	r := jobAuthRouter(JobAuthConfig{Secret: "s3cret"})

	w := doJobRequest(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer s3cret")
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJobAuth_BearerJWT(t *testing.T) {
	r := jobAuthRouter(JobAuthConfig{Secret: "s3cret"})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "scheduler",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	w := doJobRequest(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+signed)
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Wrong signing key is rejected.
	badToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	badSigned, err := badToken.SignedString([]byte("other"))
	require.NoError(t, err)

	w = doJobRequest(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+badSigned)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJobAuth_ExpiredJWT(t *testing.T) {
	r := jobAuthRouter(JobAuthConfig{Secret: "s3cret"})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	w := doJobRequest(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+signed)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJobAuth_BcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	r := jobAuthRouter(JobAuthConfig{SecretHash: string(hash)})

	w := doJobRequest(r, func(req *http.Request) {
		req.Header.Set("X-Job-Token", "s3cret")
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJobRequest(r, func(req *http.Request) {
		req.Header.Set("X-Job-Token", "wrong")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJobAuth_Unconfigured(t *testing.T) {
	r := jobAuthRouter(JobAuthConfig{})

	w := doJobRequest(r, func(req *http.Request) {
		req.Header.Set("X-Job-Token", "anything")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
