// auth.go - Signed session cookies and the admin login gate.
//
// The cookie carries an HMAC-signed reference to a server-side session, so
// logout revokes a session even if the cookie is replayed.
package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthConfig holds the single admin credential pair and cookie settings.
type AuthConfig struct {
	AdminUser     string
	AdminPass     string
	SessionSecret string
	SessionTTL    time.Duration
	CookieName    string
}

type sessionPayload struct {
	Sid string `json:"sid"`
	Sub string `json:"sub"`
	Exp int64  `json:"exp"`
}

func (a AuthConfig) cookieName() string {
	if a.CookieName == "" {
		return "pr_session"
	}
	return a.CookieName
}

func (a AuthConfig) ttl() time.Duration {
	if a.SessionTTL <= 0 {
		return 12 * time.Hour
	}
	return a.SessionTTL
}

func (a AuthConfig) secretBytes() []byte {
	return []byte(a.SessionSecret)
}

// checkCredentials compares against the configured pair. AdminPass may be a
// bcrypt hash; a plain password is compared as a digest in constant time.
func (a AuthConfig) checkCredentials(username, password string) bool {
	if a.AdminUser == "" || a.AdminPass == "" {
		return false
	}
	uOK := username == a.AdminUser
	var pOK bool
	if isBcryptHash(a.AdminPass) {
		pOK = bcrypt.CompareHashAndPassword([]byte(a.AdminPass), []byte(password)) == nil
	} else {
		pwHash := sha256.Sum256([]byte(password))
		adminHash := sha256.Sum256([]byte(a.AdminPass))
		pOK = hmac.Equal(pwHash[:], adminHash[:])
	}
	return uOK && pOK
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$"))
}

func signPayload(secret []byte, msg string) string {
	m := hmac.New(sha256.New, secret)
	_, _ = m.Write([]byte(msg))
	return hex.EncodeToString(m.Sum(nil))
}

// seal encodes v as "payload.signature".
func seal(secret []byte, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(b)
	return payload + "." + signPayload(secret, payload), nil
}

// unseal verifies a value produced by seal and decodes it into v.
func unseal(secret []byte, tok string, v any) error {
	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		return errors.New("invalid token format")
	}
	want := signPayload(secret, parts[0])
	if !hmac.Equal([]byte(parts[1]), []byte(want)) {
		return errors.New("invalid signature")
	}
	b, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// makeToken returns the cookie value for sess.
func (a AuthConfig) makeToken(sess Session) (string, error) {
	return seal(a.secretBytes(), sessionPayload{Sid: sess.ID, Sub: sess.Subject, Exp: sess.Expires.Unix()})
}

func (a AuthConfig) verifyToken(tok string) (sessionPayload, error) {
	var p sessionPayload
	if err := unseal(a.secretBytes(), tok, &p); err != nil {
		return sessionPayload{}, err
	}
	if p.Exp <= time.Now().Unix() {
		return sessionPayload{}, errors.New("expired")
	}
	if p.Sid == "" {
		return sessionPayload{}, errors.New("missing session id")
	}
	return p, nil
}

// isSecure reports whether the request reached us over TLS, directly or
// through a proxy.
func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login.html", http.StatusOK, &pageData{Title: "Login"})
}

// login checks the submitted pair. On success a session is created and the
// signed cookie issued; on failure the login page is shown again with 401.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	if !s.auth.checkCredentials(username, password) {
		s.metrics.RecordLogin(false)
		Warn("login failed", requestFields(r, map[string]interface{}{"username": username}))
		s.render(w, r, "login.html", http.StatusUnauthorized,
			&pageData{Title: "Login", Username: username},
			Flash{Category: "danger", Message: "Invalid credentials."})
		return
	}

	sess, err := s.sessions.Create(username)
	if err != nil {
		Error("session create failed", requestFields(r, nil), err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	tok, err := s.auth.makeToken(sess)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.auth.cookieName(),
		Value:    tok,
		Path:     "/",
		Expires:  sess.Expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   isSecure(r),
	})
	s.metrics.RecordLogin(true)
	Info("login", requestFields(r, map[string]interface{}{"subject": username}))
	s.redirect(w, r, "/", Flash{Category: "success", Message: "Logged in successfully."})
}

// logout destroys the session named by the cookie, if any, and clears the
// cookie. It never fails.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.auth.cookieName()); err == nil {
		if p, err := s.auth.verifyToken(c.Value); err == nil {
			s.sessions.Destroy(p.Sid)
			s.csrf.InvalidateToken(p.Sid)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.auth.cookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   isSecure(r),
	})
	s.redirect(w, r, "/login", Flash{Category: "info", Message: "Logged out."})
}

// currentSession resolves the cookie to a live server-side session.
func (s *Server) currentSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(s.auth.cookieName())
	if err != nil {
		return Session{}, false
	}
	p, err := s.auth.verifyToken(c.Value)
	if err != nil {
		return Session{}, false
	}
	sess, ok := s.sessions.Get(p.Sid)
	if !ok || sess.Subject != p.Sub {
		return Session{}, false
	}
	return sess, true
}

// requireSession sends visitors without a live session to the login page
// and puts the session into the request context for everyone else.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.currentSession(r)
		if !ok {
			s.redirect(w, r, "/login", Flash{Category: "warning", Message: "Please login to continue."})
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}
