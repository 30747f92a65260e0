package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testAuth() AuthConfig {
	return AuthConfig{
		AdminUser:     "admin",
		AdminPass:     "1234",
		SessionSecret: "test-secret-0123456789",
		SessionTTL:    time.Hour,
	}
}

func TestMakeVerifyToken(t *testing.T) {
	a := testAuth()
	sess := Session{ID: "sid-1", Subject: "admin", Expires: time.Now().Add(time.Hour)}

	tok, err := a.makeToken(sess)
	if err != nil {
		t.Fatalf("makeToken: %v", err)
	}
	p, err := a.verifyToken(tok)
	if err != nil {
		t.Fatalf("verifyToken: %v", err)
	}
	if p.Sid != "sid-1" || p.Sub != "admin" {
		t.Errorf("payload = %+v", p)
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	a := testAuth()
	valid, err := a.makeToken(Session{ID: "sid", Subject: "admin", Expires: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	expired, err := a.makeToken(Session{ID: "sid", Subject: "admin", Expires: time.Now().Add(-time.Minute)})
	if err != nil {
		t.Fatal(err)
	}
	noSid, err := a.makeToken(Session{Subject: "admin", Expires: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	other := a
	other.SessionSecret = "another-secret-987654321"

	tests := []struct {
		name string
		auth AuthConfig
		tok  string
	}{
		{"expired", a, expired},
		{"missing session id", a, noSid},
		{"tampered payload", a, "x" + valid},
		{"no signature", a, strings.Split(valid, ".")[0]},
		{"wrong secret", other, valid},
		{"garbage", a, "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.auth.verifyToken(tt.tok); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCheckCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	plain := testAuth()
	hashed := testAuth()
	hashed.AdminPass = string(hash)

	tests := []struct {
		name     string
		auth     AuthConfig
		user     string
		pass     string
		expected bool
	}{
		{"plain match", plain, "admin", "1234", true},
		{"plain wrong password", plain, "admin", "12345", false},
		{"wrong user", plain, "root", "1234", false},
		{"bcrypt match", hashed, "admin", "s3cret", true},
		{"bcrypt wrong password", hashed, "admin", "1234", false},
		{"hash is not the password", hashed, "admin", string(hash), false},
		{"unconfigured", AuthConfig{}, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.auth.checkCredentials(tt.user, tt.pass); got != tt.expected {
				t.Errorf("checkCredentials(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.expected)
			}
		})
	}
}

func TestAuthDefaults(t *testing.T) {
	var a AuthConfig
	if a.cookieName() != "pr_session" {
		t.Errorf("cookieName = %q", a.cookieName())
	}
	if a.ttl() != 12*time.Hour {
		t.Errorf("ttl = %v", a.ttl())
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(time.Hour)
	store.now = func() time.Time { return now }

	sess, err := store.Create("admin")
	if err != nil {
		t.Fatal(err)
	}
	if sess.ID == "" || !sess.Expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("session = %+v", sess)
	}
	if _, ok := store.Get(sess.ID); !ok {
		t.Fatal("fresh session not found")
	}
	if store.Active() != 1 {
		t.Errorf("Active = %d, want 1", store.Active())
	}

	other, err := store.Create("admin")
	if err != nil {
		t.Fatal(err)
	}
	if other.ID == sess.ID {
		t.Fatal("session ids repeat")
	}
	store.Destroy(other.ID)
	if _, ok := store.Get(other.ID); ok {
		t.Error("destroyed session still live")
	}

	now = now.Add(time.Hour)
	if _, ok := store.Get(sess.ID); ok {
		t.Error("expired session still live")
	}
	if store.Active() != 0 {
		t.Errorf("Active = %d, want 0", store.Active())
	}
}

func TestCSRFProtection(t *testing.T) {
	c := NewCSRFProtection(time.Hour)

	tok, err := c.GetToken("sid")
	if err != nil {
		t.Fatal(err)
	}
	again, err := c.GetToken("sid")
	if err != nil {
		t.Fatal(err)
	}
	if tok != again {
		t.Error("token changed within its lifetime")
	}
	if !c.ValidateToken("sid", tok) {
		t.Error("valid token rejected")
	}
	if c.ValidateToken("other", tok) {
		t.Error("token accepted for another session")
	}
	if c.ValidateToken("sid", tok+"x") {
		t.Error("altered token accepted")
	}

	c.InvalidateToken("sid")
	if c.ValidateToken("sid", tok) {
		t.Error("invalidated token accepted")
	}
}

func TestFlashRoundTrip(t *testing.T) {
	s := &Server{auth: testAuth()}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	s.redirect(rec, req, "/records",
		Flash{Category: "success", Message: "one"},
		Flash{Category: "warning", Message: "two"})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/records" {
		t.Errorf("Location = %q", loc)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != flashCookieName {
		t.Fatalf("cookies = %v", cookies)
	}

	next := httptest.NewRequest(http.MethodGet, "/records", nil)
	next.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	msgs := s.popFlashes(rec, next)
	if len(msgs) != 2 || msgs[0].Message != "one" || msgs[1].Category != "warning" {
		t.Errorf("flashes = %+v", msgs)
	}
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("flash cookie not cleared: %v", cleared)
	}
}

func TestFlashIgnoresTamperedCookie(t *testing.T) {
	s := &Server{auth: testAuth()}
	val, err := seal([]byte("someone-elses-secret"), []Flash{{Category: "danger", Message: "forged"}})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookieName, Value: val})
	if msgs := s.readFlashes(req); msgs != nil {
		t.Errorf("forged flashes accepted: %+v", msgs)
	}
}
