package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"tenco_back_end/internal/models"
	"tenco_back_end/internal/utils"
)

// UserStore est le contrat minimal de persistance dont le provisioning a
// besoin. L'implémentation ScyllaDB vit dans store.go, les tests injectent
// un store en mémoire.
type UserStore interface {
	// FindByUsername retourne models.ErrNotFound si le compte n'existe pas.
	FindByUsername(ctx context.Context, username string) (models.User, error)
	// CreateSocialUser retourne models.ErrConflict si le username est déjà pris.
	CreateSocialUser(ctx context.Context, user models.User) error
}

// ProvisionOrLink rattache un profil distant à un compte local, en le créant
// au premier passage. Idempotent : deux appels avec le même profil
// retournent le même compte et n'écrivent qu'une seule fois. rnd alimente
// le mot de passe de remplacement (crypto/rand en production, déterministe
// en test).
func ProvisionOrLink(ctx context.Context, store UserStore, rnd io.Reader, profile KakaoProfile) (models.User, error) {
	username := profile.LocalUsername()

	existing, err := store.FindByUsername(ctx, username)
	if err == nil {
		// Déjà rattaché : zéro écriture, compte retourné tel quel.
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.User{}, err
	}

	placeholder, err := randomPlaceholderSecret(rnd)
	if err != nil {
		return models.User{}, err
	}
	hashed, err := utils.HashPassword(placeholder)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now()
	newUser := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@kakao.com",
		Password:  hashed,
		Role:      models.RoleUser,
		Provider:  models.ProviderKakao,
		Points:    0,
		CreatedAt: &now,
	}
	if img := profile.Properties.ProfileImage; img != "" {
		// URL Kakao stockée telle quelle
		newUser.ProfileImage = img
	}

	if err := store.CreateSocialUser(ctx, newUser); err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Course avec un autre login du même profil : l'autre a gagné
			// l'insertion, on relit son résultat.
			return store.FindByUsername(ctx, username)
		}
		return models.User{}, err
	}

	log.Printf("🆕 Utilisateur Kakao créé : %s", username)
	return newUser, nil
}

// randomPlaceholderSecret génère le secret de remplacement des comptes
// sociaux. Jamais stocké en clair.
func randomPlaceholderSecret(rnd io.Reader) (string, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	b := make([]byte, 32)
	if _, err := io.ReadFull(rnd, b); err != nil {
		return "", fmt.Errorf("génération du secret impossible: %v", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
