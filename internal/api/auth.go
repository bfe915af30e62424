package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = time.Hour

type contextKey string

const userContextKey contextKey = "user"

// UserClaims is the dashboard token payload: the dashboard's own user id plus
// the linked Discord account id.
type UserClaims struct {
	UserID    string `json:"userId"`
	DiscordID string `json:"discordId"`
	jwt.RegisteredClaims
}

func (s *Server) signToken(userID, discordID string) (string, error) {
	now := time.Now().UTC()
	claims := UserClaims{
		UserID:    userID,
		DiscordID: discordID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// requireAuth rejects requests without a valid bearer token and stashes the
// claims in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "Authorization header missing or invalid")
			return
		}

		token, err := jwt.ParseWithClaims(
			strings.TrimPrefix(header, "Bearer "),
			&UserClaims{},
			func(t *jwt.Token) (any, error) { return s.jwtSecret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		if err != nil || !token.Valid {
			s.log.Warn().Err(err).Msg("token verification failed")
			respondError(w, http.StatusForbidden, "Invalid or expired token")
			return
		}

		claims := token.Claims.(*UserClaims)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, claims)))
	})
}

// userFrom returns the authenticated claims; requireAuth guarantees presence
// on protected routes.
func userFrom(ctx context.Context) *UserClaims {
	claims, _ := ctx.Value(userContextKey).(*UserClaims)
	return claims
}
