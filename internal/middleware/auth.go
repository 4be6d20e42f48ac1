// Package middleware содержит HTTP middleware интернет-магазина.
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmeshcher/storefront-system/internal/model"
)

type contextKey string

const userKey contextKey = "user"

const tokenTTL = 7 * 24 * time.Hour

// UserStore определяет доступ к учётным записям, необходимый middleware
// для разрешения токена в актуального пользователя.
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// AuthMiddleware выполняет проверку аутентификации по bearer-токену
// и авторизацию по ролям и правам.
type AuthMiddleware struct {
	secretKey []byte
	users     UserStore
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
func NewAuthMiddleware(secret string, users UserStore) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
		users:     users,
	}
}

type tokenClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// IssueToken подписывает токен с идентификатором пользователя и сроком действия 7 дней.
func (a *AuthMiddleware) IssueToken(userID int64) (string, error) {
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (a *AuthMiddleware) parseToken(tokenString string) (int64, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secretKey, nil
	})
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}
	return claims.UserID, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Authenticate проверяет bearer-токен, загружает актуальную запись
// пользователя и добавляет её в контекст запроса. Деактивированные учётные
// записи отклоняются даже с валидным токеном.
func (a *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "authorization token required")
			return
		}

		userID, err := a.parseToken(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := a.users.GetUserByID(r.Context(), userID)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if !user.IsActive {
			writeMessage(w, http.StatusUnauthorized, "account is deactivated")
			return
		}

		setActor(r.Context(), user)

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole пропускает запрос только для перечисленных ролей.
func (a *AuthMiddleware) RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "authorization required")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeMessage(w, http.StatusForbidden, "insufficient role")
		})
	}
}

// RequirePermission пропускает запрос только при наличии права.
// Роль admin неявно обладает всеми правами.
func (a *AuthMiddleware) RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "authorization required")
				return
			}

			if !user.HasPermission(perm) {
				writeMessage(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext извлекает пользователя из контекста запроса.
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
