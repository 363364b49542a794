package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"bee-social/internal/apperrors"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.RegisteredClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func validClaims(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    "https://id.bee.social",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlerMiddleware())
	r.Use(mw...)
	r.GET("/who", func(c *gin.Context) {
		ctxID, _ := UserIDFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"gin": c.GetString(UserIDKey), "ctx": ctxID})
	})
	return r
}

func doGet(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTVerifierAcceptsValidToken(t *testing.T) {
	v := NewJWTVerifier(testSecret, "https://id.bee.social")
	tok := signToken(t, validClaims("user-1"), jwt.SigningMethodHS256, []byte(testSecret))

	id, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestJWTVerifierRejects(t *testing.T) {
	v := NewJWTVerifier(testSecret, "https://id.bee.social")

	expired := validClaims("user-1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims("user-1")
	wrongIssuer.Issuer = "https://evil.example"

	cases := map[string]string{
		"wrong secret": signToken(t, validClaims("user-1"), jwt.SigningMethodHS256, []byte("other")),
		"expired":      signToken(t, expired, jwt.SigningMethodHS256, []byte(testSecret)),
		"wrong issuer": signToken(t, wrongIssuer, jwt.SigningMethodHS256, []byte(testSecret)),
		"no subject":   signToken(t, validClaims(""), jwt.SigningMethodHS256, []byte(testSecret)),
		"alg none":     signToken(t, validClaims("user-1"), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
		"garbage":      "not-a-jwt",
		"empty":        "",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tok)
			assert.Error(t, err)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")
	r := newTestRouter(AuthMiddleware(v))

	rec := doGet(r, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(apperrors.CodeUnauthorized), body["code"])

	rec = doGet(r, "Bearer junk")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	tok := signToken(t, validClaims("user-9"), jwt.SigningMethodHS256, []byte(testSecret))
	rec = doGet(r, "Bearer "+tok)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user-9", body["gin"])
	assert.Equal(t, "user-9", body["ctx"])
}

func TestOptionalAuthMiddleware(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")
	r := newTestRouter(OptionalAuthMiddleware(v))

	rec := doGet(r, "Bearer junk")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body["gin"])

	tok := signToken(t, validClaims("user-3"), jwt.SigningMethodHS256, []byte(testSecret))
	rec = doGet(r, "Bearer "+tok)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user-3", body["ctx"])
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlerMiddleware())
	r.GET("/missing", func(c *gin.Context) { _ = c.Error(apperrors.NotFound("post not found")) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("db exploded")) })
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	cases := []struct {
		path   string
		status int
		code   apperrors.Code
		msg    string
	}{
		{"/missing", http.StatusNotFound, apperrors.CodeNotFound, "post not found"},
		{"/boom", http.StatusInternalServerError, apperrors.CodeInternal, "internal server error"},
		{"/panic", http.StatusInternalServerError, apperrors.CodeInternal, "internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

		require.Equal(t, tc.status, rec.Code, tc.path)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, string(tc.code), body["code"])
		assert.Equal(t, tc.msg, body["error"])
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get("X-Request-Id")
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Every(time.Hour), 2)
	r := newTestRouter(RateLimitMiddleware(limiter))

	assert.Equal(t, http.StatusOK, doGet(r, "").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(r, "").Code)
}

func TestIPRateLimiterEvictsIdle(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1)
	limiter.GetLimiter("10.0.0.1")

	limiter.evict(time.Now().Add(time.Minute))
	assert.Len(t, limiter.ips, 1)

	limiter.evict(time.Now().Add(10 * time.Minute))
	assert.Empty(t, limiter.ips)
}
