package server

import (
	"net/http"
	"time"
)

const flashCookieName = "pr_flash"

// Flash is a one-shot message shown on the next rendered page. Category is
// one of success, info, warning or danger.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// setFlashes queues msgs, after any still pending from the request, for the
// next page render.
func (s *Server) setFlashes(w http.ResponseWriter, r *http.Request, msgs ...Flash) {
	if len(msgs) == 0 {
		return
	}
	pending := append(s.readFlashes(r), msgs...)
	val, err := seal(s.auth.secretBytes(), pending)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   isSecure(r),
	})
}

// popFlashes returns the pending messages and clears the cookie.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	msgs := s.readFlashes(r)
	if _, err := r.Cookie(flashCookieName); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   isSecure(r),
		})
	}
	return msgs
}

// readFlashes ignores missing or tampered cookies.
func (s *Server) readFlashes(r *http.Request) []Flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	var msgs []Flash
	if err := unseal(s.auth.secretBytes(), c.Value, &msgs); err != nil {
		return nil
	}
	return msgs
}

// redirect queues msgs and sends a 303 to target.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string, msgs ...Flash) {
	s.setFlashes(w, r, msgs...)
	http.Redirect(w, r, target, http.StatusSeeOther)
}
