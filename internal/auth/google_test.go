package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"
)

func newFakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GoogleProfile{ID: "g-42", Email: "erin@example.com", VerifiedEmail: true, Name: "Erin"})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestGoogleProviderExchange(t *testing.T) {
	ts := newFakeGoogle(t)

	provider := NewGoogleProvider(GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/auth/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  ts.URL + "/auth",
			TokenURL: ts.URL + "/token",
		},
		UserInfoURL: ts.URL + "/userinfo",
	})

	profile, err := provider.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if profile.ID != "g-42" || profile.Email != "erin@example.com" || profile.Name != "Erin" || !profile.VerifiedEmail {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if _, err := provider.Exchange(context.Background(), "bad-code"); err == nil {
		t.Fatalf("expected exchange error for bad code")
	}
}

func TestGoogleProviderAuthCodeURL(t *testing.T) {
	provider := NewGoogleProvider(GoogleConfig{
		ClientID:    "client",
		RedirectURL: "http://localhost/cb",
	})

	raw := provider.AuthCodeURL("state-1")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-1" || q.Get("client_id") != "client" || q.Get("redirect_uri") != "http://localhost/cb" {
		t.Fatalf("unexpected auth url: %s", raw)
	}
	if u.Host != "accounts.google.com" {
		t.Fatalf("expected google host, got %s", u.Host)
	}
}
