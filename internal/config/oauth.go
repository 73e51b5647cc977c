package config

import (
	"os"

	"golang.org/x/oauth2"
)

// Endpoints OAuth Kakao
const (
	KakaoAuthURL    = "https://kauth.kakao.com/oauth/authorize"
	KakaoTokenURL   = "https://kauth.kakao.com/oauth/token"
	KakaoProfileURL = "https://kapi.kakao.com/v2/user/me"
)

// KakaoOAuthConfig construit la configuration OAuth2 Kakao depuis .env.
// L'échange de code envoie un POST form-encodé
// {grant_type, client_id, redirect_uri, code, client_secret}.
func KakaoOAuthConfig() *oauth2.Config {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &oauth2.Config{
		ClientID:     os.Getenv("KAKAO_CLIENT_ID"),
		ClientSecret: os.Getenv("KAKAO_CLIENT_SECRET"),
		RedirectURL:  baseURL + "/api/auth/kakao/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   KakaoAuthURL,
			TokenURL:  KakaoTokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
