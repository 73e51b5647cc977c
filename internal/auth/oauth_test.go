package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"

	"tenco_back_end/internal/models"
)

func newTokenServer(t *testing.T, status int) (*httptest.Server, *map[string]string) {
	t.Helper()
	seen := map[string]string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		for _, k := range []string{"grant_type", "client_id", "redirect_uri", "code", "client_secret"} {
			seen[k] = r.FormValue(k)
		}

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		fmt.Fprint(w, `{"access_token":"tok-123","token_type":"bearer"}`)
	}))

	return srv, &seen
}

func testProvider(tokenURL, profileURL string) *OAuthProvider {
	return &OAuthProvider{
		Name: "kakao",
		Config: &oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "http://localhost:8080/api/auth/kakao/callback",
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		ProfileURL: profileURL,
	}
}

func TestExchangeCode(t *testing.T) {
	srv, seen := newTokenServer(t, http.StatusOK)
	defer srv.Close()

	p := testProvider(srv.URL, "")

	token, err := p.ExchangeCode(context.Background(), "auth-code-1")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if token.AccessToken != "tok-123" {
		t.Fatalf("jeton inattendu: %q", token.AccessToken)
	}

	// L'échange est form-encodé avec l'identité client complète
	want := map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     "client-id",
		"redirect_uri":  "http://localhost:8080/api/auth/kakao/callback",
		"code":          "auth-code-1",
		"client_secret": "client-secret",
	}
	for k, v := range want {
		if (*seen)[k] != v {
			t.Fatalf("champ %s: attendu %q, obtenu %q", k, v, (*seen)[k])
		}
	}
}

func TestExchangeCodeRejected(t *testing.T) {
	srv, _ := newTokenServer(t, http.StatusBadRequest)
	defer srv.Close()

	p := testProvider(srv.URL, "")

	_, err := p.ExchangeCode(context.Background(), "bad-code")
	if !errors.Is(err, models.ErrExternalService) {
		t.Fatalf("erreur service externe attendue, obtenu %v", err)
	}
}

func TestFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Fatalf("header Authorization inattendu: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":12345,"properties":{"nickname":"민수","profile_image":"https://img.kakao.com/p.jpg"}}`)
	}))
	defer srv.Close()

	p := testProvider("", srv.URL)

	profile, err := p.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "tok-123"})
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if profile.ID != 12345 || profile.Properties.Nickname != "민수" {
		t.Fatalf("profil inattendu: %+v", profile)
	}
	if profile.LocalUsername() != "민수_12345" {
		t.Fatalf("username dérivé inattendu: %q", profile.LocalUsername())
	}
}

func TestFetchProfileFailures(t *testing.T) {
	t.Run("profil incomplet", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":0,"properties":{"nickname":""}}`)
		}))
		defer srv.Close()

		p := testProvider("", srv.URL)
		if _, err := p.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "tok"}); !errors.Is(err, models.ErrExternalService) {
			t.Fatalf("profil incomplet: erreur attendue, obtenu %v", err)
		}
	})

	t.Run("jeton refusé", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		p := testProvider("", srv.URL)
		if _, err := p.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "expired"}); !errors.Is(err, models.ErrExternalService) {
			t.Fatalf("jeton refusé: erreur attendue, obtenu %v", err)
		}
	})
}
