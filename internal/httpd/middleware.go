package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/prepwise/study_server/internal/auth"
)

// RequestLogger attaches a request-scoped zerolog logger to the context and
// logs one line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := log.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
		ctx := l.WithContext(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
		l.Debug().Dur("elapsed", time.Since(start)).Msg("request-handled")
	})
}

// AuthRequired validates the bearer JWT and stores the user in the context.
func AuthRequired(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := authenticateJWT(r.Context(), r.Header, secretKey)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticateJWT(ctx context.Context, reqHeader http.Header, secretKey []byte) (context.Context, error) {
	authHeader := reqHeader.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("no auth method")
	}

	userToken := strings.TrimPrefix(authHeader, "Bearer ")
	token, err := jwt.Parse(userToken, func(token *jwt.Token) (interface{}, error) {
		// Ensure the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		log.Err(err).Msg("err-parsing-token")
		return nil, errors.New("could not parse token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("could not parse token claims")
	}

	// The subject is the auth provider's opaque user id.
	uid, ok := claims["sub"].(string)
	if !ok || uid == "" {
		return nil, errors.New("could not parse sub claim")
	}

	iss, ok := claims["iss"].(string)
	if !ok || (iss != "prepwise.app" && iss != "prepwise.localhost") {
		return nil, errors.New("unexpected iss claim")
	}

	usn, ok := claims["usn"].(string)
	if !ok || usn == "" {
		return nil, errors.New("unexpected usn claim")
	}

	return auth.StoreUserInContext(ctx, uid, usn), nil
}
