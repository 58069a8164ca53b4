package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "userID"

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
)

// Claims is the token payload. The user ID travels in the standard "sub"
// claim.
type Claims struct {
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 token signed with secret and returns the user
// ID it was issued for.
func ParseToken(secret []byte, raw string) (string, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !tok.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

// tokenFrom extracts the raw token from "Authorization: Bearer <t>" or, for
// browser WebSocket clients that cannot set headers, the "token" query
// parameter.
func tokenFrom(c *gin.Context) (string, error) {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
			return "", errMissingToken
		}
		return strings.TrimSpace(tok), nil
	}
	if q := strings.TrimSpace(c.Query("token")); q != "" {
		return q, nil
	}
	return "", errMissingToken
}

// Authenticate requires a valid token and stores its subject under "userID".
// Failures are answered with 401 unauthorized.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := tokenFrom(c)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		uid, err := ParseToken(secret, raw)
		if err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("token rejected")
			abortJSON(c, http.StatusUnauthorized, "unauthorized", errInvalidToken.Error())
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// UserIDFrom returns the authenticated user ID, or "" when none was set.
func UserIDFrom(c *gin.Context) string {
	return c.GetString(userIDKey)
}
