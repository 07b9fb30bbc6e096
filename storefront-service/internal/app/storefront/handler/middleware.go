package handler

import (
	"errors"
	"net/http"
	"strings"

	"promomarket/storefront-service/internal/app/storefront/entity"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID     = "user_id"
	ctxUserName   = "user_name"
	ctxUserAvatar = "user_avatar"
	ctxRoleName   = "role_name"
)

// JWTClaims - поля токена, выпущенного сервисом авторизации.
// Витрина токены не выпускает, только читает из них личность покупателя.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	RoleName string `json:"role_name"`
	jwt.RegisteredClaims
}

// AuthMiddleware проверяет JWT токен в запросах для Gin
type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

// Authenticate проверяет Bearer токен и кладет личность пользователя в контекст Gin
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(m.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok || claims.UserID == "" {
			abort(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserName, claims.Name)
		c.Set(ctxUserAvatar, claims.Avatar)
		c.Set(ctxRoleName, claims.RoleName)

		c.Next()
	}
}

// RequireRole пропускает только пользователей с указанной ролью
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRoleName) != role {
			abort(c, http.StatusForbidden, "Access forbidden")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, entity.ErrorResponse{Error: message})
}

// currentAuthor собирает снимок автора отзыва из контекста запроса
func currentAuthor(c *gin.Context) (entity.ReviewAuthor, bool) {
	userID := c.GetString(ctxUserID)
	if userID == "" {
		return entity.ReviewAuthor{}, false
	}
	return entity.ReviewAuthor{
		ID:     userID,
		Name:   c.GetString(ctxUserName),
		Avatar: c.GetString(ctxUserAvatar),
	}, true
}
