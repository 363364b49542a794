package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"bee-social/internal/apperrors"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userID"

type userIDContextKey struct{}

// WithUserID attaches the authenticated user id to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey{}).(string)
	return id, ok && id != ""
}

// TokenVerifier resolves a session token to the user id it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// JWTVerifier checks HS256 session tokens issued by the identity provider.
// The subject claim carries the user id.
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.New("empty token")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortWith(c, apperrors.Unauthorized("missing authorization"))
			return
		}

		userID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			abortWith(c, apperrors.Unauthorized("invalid token").Wrap(err))
			return
		}

		setUser(c, userID)
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a valid token is present
// and treats everyone else as anonymous.
func OptionalAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if userID, err := verifier.Verify(c.Request.Context(), token); err == nil {
				setUser(c, userID)
			}
		}
		c.Next()
	}
}

func setUser(c *gin.Context, userID string) {
	c.Set(UserIDKey, userID)
	c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func abortWith(c *gin.Context, appErr *apperrors.AppError) {
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.Status, appErr)
}
