package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"tenco_back_end/internal/models"
)

// OAuthProvider encapsule l'échange de code et la lecture du profil distant.
// ProfileURL et Client sont surchargeables pour pointer vers un serveur de
// test.
type OAuthProvider struct {
	Name       string
	Config     *oauth2.Config
	ProfileURL string
	Client     *http.Client
}

// KakaoProfile est la représentation du profil côté provider.
type KakaoProfile struct {
	ID         int64 `json:"id"`
	Properties struct {
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"properties"`
}

// LocalUsername dérive le nom d'utilisateur local déterministe :
// "<nickname>_<id distant>".
func (p KakaoProfile) LocalUsername() string {
	return fmt.Sprintf("%s_%d", p.Properties.Nickname, p.ID)
}

// GetAuthURL retourne l'URL de redirection vers la page d'autorisation.
func (p *OAuthProvider) GetAuthURL(state string) string {
	return p.Config.AuthCodeURL(state)
}

// ExchangeCode échange le code d'autorisation contre un jeton d'accès.
// Les détails du provider restent dans les logs, le caller ne voit qu'une
// erreur de service externe.
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if p.Client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.Client)
	}
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: échange de code %s refusé: %v", models.ErrExternalService, p.Name, err)
	}
	return token, nil
}

// FetchProfile lit le profil distant avec le jeton en Authorization Bearer.
// Un profil sans identifiant ou sans nickname échoue immédiatement : on ne
// crée jamais de compte partiellement renseigné.
func (p *OAuthProvider) FetchProfile(ctx context.Context, token *oauth2.Token) (KakaoProfile, error) {
	var profile KakaoProfile

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.ProfileURL, nil)
	if err != nil {
		return profile, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return profile, fmt.Errorf("%w: profil %s injoignable: %v", models.ErrExternalService, p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return profile, fmt.Errorf("%w: profil %s refusé (HTTP %d)", models.ErrExternalService, p.Name, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return profile, fmt.Errorf("%w: profil %s illisible: %v", models.ErrExternalService, p.Name, err)
	}

	if profile.ID == 0 || profile.Properties.Nickname == "" {
		return profile, fmt.Errorf("%w: profil %s incomplet", models.ErrExternalService, p.Name)
	}

	return profile, nil
}
