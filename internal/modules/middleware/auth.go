package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stickerpack-io/stickerpack/internal/modules/repo"
	"github.com/stickerpack-io/stickerpack/internal/modules/serializer"
)

// UserKey is the gin context key holding the authenticated *model.User.
const UserKey = "user"

// Auth resolves the caller from a bearer token and loads the account row,
// so privilege decisions are always server-verified. With required=false an
// absent token passes through as anonymous; a present-but-invalid token is
// rejected in both modes.
func Auth(users repo.UserRepo, secret string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr(""))
				return
			}
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("malformed authorization header"))
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("invalid token"))
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("invalid token"))
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("unknown account"))
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user from the context, or nil for
// anonymous callers.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, ok := v.(*model.User)
	if !ok {
		return nil
	}
	return user
}
