package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// KeyAuth guards the alert API with static keys. Public keys may read
// alerts and their price history; admin keys may also create, pause,
// and delete them. A tier with no keys configured is left open, which
// keeps local development friction-free.
type KeyAuth struct {
	Log    *zap.Logger
	Public []string
	Admin  []string
}

func NewKeyAuth(log *zap.Logger, public, admin []string) KeyAuth {
	if log == nil {
		log = zap.NewNop()
	}
	return KeyAuth{Log: log, Public: public, Admin: admin}
}

// requestKey pulls the caller's key from Authorization: Bearer <key>
// or the X-API-Key header.
func requestKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("bearer "):])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func matchKey(given string, set []string) bool {
	if given == "" {
		return false
	}
	for _, k := range set {
		if subtle.ConstantTimeCompare([]byte(k), []byte(given)) == 1 {
			return true
		}
	}
	return false
}

func (k KeyAuth) isAdmin(given string) bool { return matchKey(given, k.Admin) }

func (k KeyAuth) isReader(given string) bool {
	return matchKey(given, k.Public) || matchKey(given, k.Admin)
}

// RequireReader admits any configured key. With no keys configured at
// all, the check is skipped (dev mode).
func (k KeyAuth) RequireReader(next http.Handler) http.Handler {
	if len(k.Public) == 0 && len(k.Admin) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if k.isReader(requestKey(r)) {
			next.ServeHTTP(w, r)
			return
		}
		k.deny(w, r, http.StatusUnauthorized, "unauthorized")
	})
}

// RequireAdmin admits admin keys only. With no admin keys configured,
// mutations are open (dev mode); preflight warns about this.
func (k KeyAuth) RequireAdmin(next http.Handler) http.Handler {
	if len(k.Admin) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if k.isAdmin(requestKey(r)) {
			next.ServeHTTP(w, r)
			return
		}
		k.deny(w, r, http.StatusForbidden, "forbidden")
	})
}

func (k KeyAuth) deny(w http.ResponseWriter, r *http.Request, code int, msg string) {
	k.Log.Warn("api_key_rejected",
		zap.Int("status", code),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote", clientIP(r)),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
