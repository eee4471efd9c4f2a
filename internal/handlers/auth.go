package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/types"
)

// defaultTokenTTL is four weeks, matching the mobile app's session length.
const defaultTokenTTL = 672 * time.Hour

// RequireAuth constructs auth middleware for the routers. Tokens travel
// in the Authorization header.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return requireAuth([]byte(jwtSecret), false)
}

// RequireAuthWithQueryToken additionally accepts the access_token query
// parameter. Report links opened from a QR scan cannot set headers.
func RequireAuthWithQueryToken(jwtSecret string) func(http.Handler) http.Handler {
	return requireAuth([]byte(jwtSecret), true)
}

func requireAuth(secret []byte, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil && allowQuery {
				tokenString, err = queryToken(r)
			}
			if err != nil {
				writeError(w, http.StatusUnauthorized, "No autenticat.")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "No autenticat.")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireRoles loads the authenticated account and admits only the given
// roles. It must run after the auth middleware.
func requireRoles(userService *services.UserService, roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := subjectFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "No autenticat.")
				return
			}

			user, err := userService.Lookup(r.Context(), email)
			if err != nil {
				writeDomainError(w, err)
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "No tens permís per accedir a aquest recurs.")
		})
	}
}

func issueToken(email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

func queryToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if token == "" {
		return "", errors.New("missing authorization")
	}
	return token, nil
}
