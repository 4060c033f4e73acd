package security

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}
		if len(token) != TokenBytes*2 {
			t.Fatalf("token length = %d, want %d", len(token), TokenBytes*2)
		}
		if seen[token] {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestHashToken(t *testing.T) {
	token, _ := GenerateToken()
	h1 := HashToken(token)
	if h1 == token {
		t.Fatal("hash must differ from token")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
	if HashToken(token) != h1 {
		t.Error("hash should be deterministic")
	}
	if HashString("abc") != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Error("HashString(abc) does not match the SHA-256 test vector")
	}
}

func TestHashPassword(t *testing.T) {
	password := "Typing#2024"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || hash == password {
		t.Fatal("HashPassword() returned an unusable hash")
	}

	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == hash2 {
		t.Error("HashPassword() should produce different hashes due to salt")
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "correct password", password: password, want: true},
		{name: "incorrect password", password: "wrongPassword", want: false},
		{name: "empty password", password: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)

	token, err := issuer.Issue(42, "typist")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	userID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if userID != 42 {
		t.Errorf("Verify() = %d, want 42", userID)
	}

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := NewTokenIssuer("other", time.Minute).Verify(token); err == nil {
			t.Error("expected error for wrong secret")
		}
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenIssuer("secret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		old, err := past.Issue(42, "typist")
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		if _, err := issuer.Verify(old); err == nil {
			t.Error("expected error for expired token")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := issuer.Verify("not.a.token"); err == nil {
			t.Error("expected error for malformed token")
		}
	})
}

func TestCSRFGenerator(t *testing.T) {
	g := NewCSRFGenerator("secret")

	token, err := g.GenerateToken("csrf-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if !g.ValidateToken("csrf-1", token) {
		t.Error("token should validate for its own id")
	}
	if g.ValidateToken("csrf-2", token) {
		t.Error("token should not validate for another id")
	}
	if g.ValidateToken("csrf-1", "") {
		t.Error("empty token should not validate")
	}
	if _, err := g.GenerateToken(""); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own bucket")
	}
	if removed := rl.Cleanup(); removed != 0 {
		t.Errorf("Cleanup() removed %d fresh visitors", removed)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "10.0.0.1:5555", want: "10.0.0.1"},
		{name: "untrusted forwarded ignored", headers: map[string]string{"X-Forwarded-For": "203.0.113.9"}, remote: "198.51.100.20:1", want: "198.51.100.20"},
		{name: "untrusted real ip ignored", headers: map[string]string{"X-Real-IP": "203.0.113.9"}, remote: "198.51.100.20:1", want: "198.51.100.20"},
		{name: "trusted proxy chain", trusted: []string{"10.0.0.0/8"}, headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"}, remote: "10.0.0.1:1", want: "203.0.113.9"},
		{name: "spoofed leftmost entry", trusted: []string{"10.0.0.1"}, headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.9"}, remote: "10.0.0.1:1", want: "203.0.113.9"},
		{name: "trusted real ip", trusted: []string{"10.0.0.1"}, headers: map[string]string{"X-Real-IP": "198.51.100.7"}, remote: "10.0.0.1:1", want: "198.51.100.7"},
		{name: "trusted without headers", trusted: []string{"10.0.0.1"}, remote: "10.0.0.1:1", want: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := SetTrustedProxies(tt.trusted); err != nil {
				t.Fatalf("SetTrustedProxies() error = %v", err)
			}
			t.Cleanup(func() { SetTrustedProxies(nil) })

			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetTrustedProxiesRejectsGarbage(t *testing.T) {
	t.Cleanup(func() { SetTrustedProxies(nil) })
	if err := SetTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Error("SetTrustedProxies() accepted an invalid entry")
	}
	if err := SetTrustedProxies([]string{"10.0.0.0/33"}); err == nil {
		t.Error("SetTrustedProxies() accepted an invalid prefix")
	}
}

func TestCookies(t *testing.T) {
	r := httptest.NewRequest("GET", "https://example.com/", nil)
	c := CreateSessionCookie(r, "guestId", "abc", "/", time.Hour)
	if !c.HttpOnly || !c.Secure || c.MaxAge != 3600 {
		t.Errorf("unexpected cookie flags: %+v", c)
	}
	d := CreateDeleteCookie(r, "guestId", "/")
	if d.MaxAge != -1 || d.Value != "" {
		t.Errorf("delete cookie should expire immediately: %+v", d)
	}
}
