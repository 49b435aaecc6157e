package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"qwiktest/internal/config"
	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/response"
)

type Claims struct {
	UserID uint   `json:"userId"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// JWT authenticates the Bearer token and loads the user. It sets "userId",
// "role" and "user" on the context.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.GlobalConfig == nil {
			response.Error(c, apperr.Internal("auth is not configured", errors.New("config not loaded")))
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperr.Unauthorized("missing or expired token"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")) {
			response.Error(c, apperr.Unauthorized("malformed authorization header"))
			return
		}

		claims, err := parseToken(parts[1], config.GlobalConfig.JWT.Secret)
		if err != nil {
			response.Error(c, apperr.Unauthorized("invalid token"))
			return
		}

		// Soft-deleted users are filtered by the default scope.
		var user model.User
		if err := database.DB.First(&user, claims.UserID).Error; err != nil {
			response.Error(c, apperr.Unauthorized("user does not exist"))
			return
		}
		if !user.IsActive {
			response.Error(c, apperr.Forbidden("account is disabled"))
			return
		}

		c.Set("userId", user.ID)
		c.Set("role", user.Role)
		c.Set("user", &user)
		c.Next()
	}
}

func parseToken(tokenString string, secretKey string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GenerateToken signs a token for user that expires after jwt.expire_time
// seconds.
func GenerateToken(user *model.User) (string, time.Time, error) {
	if config.GlobalConfig == nil {
		return "", time.Time{}, errors.New("config not loaded")
	}
	jwtConfig := config.GlobalConfig.JWT

	now := time.Now()
	expireTime := now.Add(time.Duration(jwtConfig.ExpireTime) * time.Second)

	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expireTime.Unix(),
			IssuedAt:  now.Unix(),
			Subject:   fmt.Sprint(user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(jwtConfig.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenStr, expireTime, nil
}
