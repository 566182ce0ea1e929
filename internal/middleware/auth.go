// Package middleware contains HTTP middleware for the partner system.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/framenflow/partner-system/internal/model"
)

type contextKey string

const sessionKey contextKey = "session"

const (
	authCookieName = "auth_token"
	authCookieTTL  = 30 * 24 * time.Hour
)

// Session identifies the authenticated caller of a request.
type Session struct {
	UserID    string
	Role      model.Role
	PartnerID string // empty for admins
}

// AuthMiddleware authenticates requests by an HMAC-signed cookie.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware creates an AuthMiddleware with the given secret key.
// An empty secret is replaced with a random one, which invalidates all
// sessions on restart.
func NewAuthMiddleware(secret string) *AuthMiddleware {
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
	}
}

// Middleware verifies the auth cookie and puts the session into the request
// context.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(authCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		session, ok := a.parseCookie(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects authenticated requests whose session has a different
// role. It must run after Middleware.
func (a *AuthMiddleware) RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if session.Role != role {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetAuthCookie sets the auth cookie for the given session.
func (a *AuthMiddleware) SetAuthCookie(w http.ResponseWriter, session Session) {
	value := a.sign(encodeSession(session))

	cookie := &http.Cookie{
		Name:     authCookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(authCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func encodeSession(s Session) string {
	return strings.Join([]string{s.UserID, string(s.Role), s.PartnerID}, "|")
}

func decodeSession(payload string) (Session, bool) {
	parts := strings.Split(payload, "|")
	if len(parts) != 3 || parts[0] == "" {
		return Session{}, false
	}
	return Session{
		UserID:    parts[0],
		Role:      model.Role(parts[1]),
		PartnerID: parts[2],
	}, true
}

func (a *AuthMiddleware) sign(payload string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(payload))
	signature := mac.Sum(nil)
	return hex.EncodeToString([]byte(payload)) + "." + hex.EncodeToString(signature)
}

func (a *AuthMiddleware) parseCookie(cookieValue string) (Session, bool) {
	parts := strings.Split(cookieValue, ".")
	if len(parts) != 2 {
		return Session{}, false
	}

	raw, err := hex.DecodeString(parts[0])
	if err != nil {
		return Session{}, false
	}
	payload := string(raw)

	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(parts[1]), []byte(expected)) {
		return Session{}, false
	}

	return decodeSession(payload)
}

// GetSessionFromContext extracts the authenticated session from the request
// context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
