package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

const (
	// actorHeader carries the id of the editor performing a write.
	actorHeader = "X-Actor-ID"
	// defaultActor is recorded when a write arrives without an actor header.
	defaultActor = "api"
	bearerScheme = "bearer"
)

// BearerAuthMiddleware guards editorial writes with static API keys.
// With no non-empty key configured the middleware is a pass-through (local development).
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	var digests [][sha256.Size]byte
	for _, k := range apiKeys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := bearerToken(r)
			if msg == "" && !knownKey(digests, token) {
				msg = "invalid api key"
			}
			if msg != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="knowledgehub"`)
				writeError(w, http.StatusUnauthorized, codeUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token, or returns a client-facing reason it could not.
func bearerToken(r *http.Request) (token, problem string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", "authorization header must use Bearer scheme"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "empty bearer token"
	}
	return token, ""
}

// knownKey compares fixed-size digests in constant time, checking every key.
func knownKey(digests [][sha256.Size]byte, token string) bool {
	sum := sha256.Sum256([]byte(token))
	match := 0
	for i := range digests {
		match |= subtle.ConstantTimeCompare(sum[:], digests[i][:])
	}
	return match == 1
}

// actorFrom returns the acting editor of a write request.
func actorFrom(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get(actorHeader)); a != "" {
		return a
	}
	return defaultActor
}
