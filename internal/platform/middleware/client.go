package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultClientCookieTTL keeps the anonymous identity stable for a year, the
// longest retention the privacy policy allows for consent records.
const DefaultClientCookieTTL = 365 * 24 * time.Hour

type clientIDKey struct{}

// WithClientID stores the client identifier in the context. Exposed for
// handler tests that bypass the cookie middleware.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// GetClientID retrieves the client identifier from the context.
func GetClientID(ctx context.Context) string {
	if id, ok := ctx.Value(clientIDKey{}).(string); ok {
		return id
	}
	return ""
}

// ClientIdentityConfig configures the anonymous identity cookie.
type ClientIdentityConfig struct {
	CookieName string
	SigningKey []byte
	TTL        time.Duration
	Secure     bool
}

// ClientIdentity assigns every visitor a stable anonymous identifier carried
// in a signed first-party cookie. The identifier is a random UUID, never
// derived from personal data; signing only prevents clients from choosing
// arbitrary IDs. A missing or invalid cookie gets a fresh identity rather than
// an error, so the consent flow works on the very first request.
func ClientIdentity(cfg ClientIdentityConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "pf_client"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultClientCookieTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ""
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				clientID = parseClientToken(cookie.Value, cfg.SigningKey)
			}
			if clientID == "" {
				clientID = uuid.New().String()
				token, err := signClientToken(clientID, cfg.SigningKey, cfg.TTL)
				if err != nil {
					logger.ErrorContext(r.Context(), "failed to sign client identity cookie", "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), clientID)))
		})
	}
}

func signClientToken(clientID string, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// parseClientToken returns the subject of a valid token, or "" for anything
// expired, tampered with, or otherwise unusable.
func parseClientToken(raw string, key []byte) string {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return ""
	}
	return claims.Subject
}
