package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
)

type contextKey string

const actorContextKey contextKey = "actor"

// Claims are the token claims issued by the identity collaborator
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the Bearer token and stores the resulting actor
// in the request context. Tokens are HS256 signed with a shared secret; the
// scheduler role can never arrive from outside.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondUnauthorized(w, "authorization required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondUnauthorized(w, "invalid authorization header format")
				return
			}

			token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				respondUnauthorized(w, "invalid or expired token")
				return
			}

			claims, ok := token.Claims.(*Claims)
			if !ok {
				respondUnauthorized(w, "invalid token claims")
				return
			}

			actor, ok := actorFromClaims(claims)
			if !ok {
				respondUnauthorized(w, "invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromClaims(claims *Claims) (entities.Actor, bool) {
	if claims.UserID == "" {
		return entities.Actor{}, false
	}
	switch entities.Role(claims.Role) {
	case entities.RoleCustomer, entities.RoleTherapist, entities.RoleAdmin:
		return entities.Actor{ID: claims.UserID, Role: entities.Role(claims.Role)}, true
	}
	return entities.Actor{}, false
}

// ActorFromContext returns the authenticated actor stored by AuthMiddleware
func ActorFromContext(ctx context.Context) (entities.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(entities.Actor)
	return actor, ok
}

// WithActor returns a context carrying the given actor. Intended for tests
// and internal callers.
func WithActor(ctx context.Context, actor entities.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
