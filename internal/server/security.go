// security.go - Security headers, CSRF tokens and request body limits
package server

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling file parts to temporary files.
const multipartMemory = 8 << 20

// securityHeadersMiddleware adds security headers to all responses
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "same-origin")

		// Pages carry no scripts; inline styles live in the layout.
		csp := "default-src 'self'; " +
			"script-src 'none'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
		w.Header().Set("Content-Security-Policy", csp)
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		next.ServeHTTP(w, r)
	})
}

// csrfToken represents a CSRF token with expiration
type csrfToken struct {
	token     string
	expiresAt time.Time
}

// CSRFProtection issues one token per session and checks it on every
// state-changing request.
type CSRFProtection struct {
	mu     sync.Mutex
	tokens map[string]csrfToken // sessionID -> token
	ttl    time.Duration
}

// NewCSRFProtection creates a new CSRF protection instance
func NewCSRFProtection(ttl time.Duration) *CSRFProtection {
	return &CSRFProtection{
		tokens: make(map[string]csrfToken),
		ttl:    ttl,
	}
}

func (c *CSRFProtection) generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GetToken retrieves or creates a CSRF token for the session
func (c *CSRFProtection) GetToken(sessionID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if t, ok := c.tokens[sessionID]; ok && now.Before(t.expiresAt) {
		return t.token, nil
	}

	// Expired tokens are swept whenever a new one is issued.
	for id, t := range c.tokens {
		if !now.Before(t.expiresAt) {
			delete(c.tokens, id)
		}
	}

	token, err := c.generateToken()
	if err != nil {
		return "", err
	}
	c.tokens[sessionID] = csrfToken{token: token, expiresAt: now.Add(c.ttl)}
	return token, nil
}

// ValidateToken checks if the provided token matches the session's CSRF token
func (c *CSRFProtection) ValidateToken(sessionID, token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tokens[sessionID]
	if !ok || time.Now().After(t.expiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(t.token)) == 1
}

// InvalidateToken removes a CSRF token (e.g., on logout)
func (c *CSRFProtection) InvalidateToken(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, sessionID)
}

// CSRFMiddleware validates the token of POST requests. It must run after
// requireSession. The form is parsed here, so handlers find r.PostForm and
// r.MultipartForm ready.
func (c *CSRFProtection) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		sess, ok := sessionFromContext(r.Context())
		if !ok {
			http.Error(w, "CSRF token validation failed", http.StatusForbidden)
			return
		}

		if err := parseForm(r); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		// The server only cleans up forms parsed on the request it created,
		// and this is a copy made by requireSession.
		if r.MultipartForm != nil {
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}

		token := r.Header.Get("X-CSRF-Token")
		if token == "" {
			token = r.PostForm.Get("csrf_token")
		}
		if token == "" || !c.ValidateToken(sess.ID, token) {
			http.Error(w, "CSRF token validation failed", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

// maxBodyMiddleware caps request bodies at limit bytes. Zero disables it.
func maxBodyMiddleware(limit int64, next http.Handler) http.Handler {
	if limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}
