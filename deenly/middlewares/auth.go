package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"deenly/deenly/config"
	"deenly/deenly/domain"
	"deenly/deenly/utils/logging"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const UserIDKey contextKey = "user_id"

const TokenTTL = 24 * time.Hour

// Authenticator verifies our own HS256 tokens and, when a JWKS URL is
// configured, RS256/ES256 tokens of the external auth provider.
type Authenticator struct {
	secret []byte
	jwks   keyfunc.Keyfunc
}

func NewAuthenticator(ctx context.Context, cfg config.Config) (*Authenticator, error) {
	a := &Authenticator{secret: []byte(cfg.JWTSecret)}
	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS client: %w", err)
		}
		a.jwks = jwks
		logging.AppLogger.Info("JWKS verification enabled", zap.String("jwks_url", cfg.JWKSURL))
	}
	return a, nil
}

// IssueToken signs a token for userID. Guest ids get a token too.
func (a *Authenticator) IssueToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) keyFor(token *jwt.Token) (interface{}, error) {
	switch token.Method.Alg() {
	case "HS256":
		return a.secret, nil
	case "RS256", "ES256":
		if a.jwks != nil {
			return a.jwks.Keyfunc(token)
		}
	}
	return nil, jwt.ErrSignatureInvalid
}

// ParseToken returns the user id carried by a valid token: the user_id
// claim of our tokens or the sub claim of external ones.
func (a *Authenticator) ParseToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, a.keyFor)
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", domain.ErrUnauthorized
}

func AuthMiddleware(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			parts := strings.Split(auth, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			userID, err := a.ParseToken(parts[1])
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}
