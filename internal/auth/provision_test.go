package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"tenco_back_end/internal/models"
	"tenco_back_end/internal/utils"
)

// memUserStore est le store en mémoire des tests de provisioning.
type memUserStore struct {
	mu      sync.Mutex
	users   map[string]models.User // username → user
	creates int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]models.User{}}
}

func (s *memUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return models.User{}, fmt.Errorf("%w: username %s", models.ErrNotFound, username)
	}
	return u, nil
}

func (s *memUserStore) CreateSocialUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return fmt.Errorf("%w: username %s déjà enregistré", models.ErrConflict, user.Username)
	}
	s.users[user.Username] = user
	s.creates++
	return nil
}

func kakaoProfile(id int64, nickname, image string) KakaoProfile {
	var p KakaoProfile
	p.ID = id
	p.Properties.Nickname = nickname
	p.Properties.ProfileImage = image
	return p
}

func testRand() *bytes.Reader {
	return bytes.NewReader(bytes.Repeat([]byte{0x42}, 64))
}

func TestProvisionOrLinkCreatesAccount(t *testing.T) {
	store := newMemUserStore()
	profile := kakaoProfile(12345, "민수", "https://img.kakao.com/p.jpg")

	user, err := ProvisionOrLink(context.Background(), store, testRand(), profile)
	if err != nil {
		t.Fatalf("ProvisionOrLink: %v", err)
	}

	if user.Username != "민수_12345" {
		t.Fatalf("username attendu 민수_12345, obtenu %q", user.Username)
	}
	if user.Email != "민수_12345@kakao.com" {
		t.Fatalf("email synthétisé inattendu: %q", user.Email)
	}
	if user.Provider != models.ProviderKakao {
		t.Fatalf("provider attendu kakao, obtenu %q", user.Provider)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("rôle attendu user, obtenu %q", user.Role)
	}
	if user.Points != 0 {
		t.Fatalf("solde initial attendu 0, obtenu %d", user.Points)
	}
	if user.ProfileImage != "https://img.kakao.com/p.jpg" {
		t.Fatalf("image de profil non copiée: %q", user.ProfileImage)
	}

	// Le secret de remplacement est haché avant stockage, jamais en clair
	stored := store.users[user.Username]
	if !utils.IsArgon2Hash(stored.Password) {
		t.Fatalf("le mot de passe stocké doit être un hash argon2id, obtenu %q", stored.Password)
	}
}

func TestProvisionOrLinkIsIdempotent(t *testing.T) {
	store := newMemUserStore()
	profile := kakaoProfile(12345, "민수", "")

	first, err := ProvisionOrLink(context.Background(), store, testRand(), profile)
	if err != nil {
		t.Fatalf("premier appel: %v", err)
	}

	second, err := ProvisionOrLink(context.Background(), store, testRand(), profile)
	if err != nil {
		t.Fatalf("second appel: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("les deux appels doivent retourner le même compte: %s / %s", first.ID, second.ID)
	}
	if store.creates != 1 {
		t.Fatalf("une seule écriture attendue, obtenu %d", store.creates)
	}
}

func TestProvisionOrLinkExistingAccountUnchanged(t *testing.T) {
	store := newMemUserStore()
	existing := models.User{
		ID:       "user-1",
		Username: "민수_12345",
		Email:    "민수_12345@kakao.com",
		Password: "$argon2id$existant",
		Role:     models.RoleUser,
		Provider: models.ProviderKakao,
		Points:   7000,
	}
	store.users[existing.Username] = existing

	got, err := ProvisionOrLink(context.Background(), store, testRand(), kakaoProfile(12345, "민수", "https://img.kakao.com/new.jpg"))
	if err != nil {
		t.Fatalf("ProvisionOrLink: %v", err)
	}

	if got.ID != existing.ID || got.Points != 7000 {
		t.Fatalf("le compte existant doit être retourné tel quel: %+v", got)
	}
	if got.ProfileImage != "" {
		t.Fatal("aucune mise à jour ne doit être appliquée sur un compte déjà rattaché")
	}
	if store.creates != 0 {
		t.Fatalf("zéro écriture attendue, obtenu %d", store.creates)
	}
}

func TestProvisionOrLinkWithoutProfileImage(t *testing.T) {
	store := newMemUserStore()

	user, err := ProvisionOrLink(context.Background(), store, testRand(), kakaoProfile(777, "영희", ""))
	if err != nil {
		t.Fatalf("ProvisionOrLink: %v", err)
	}
	if user.ProfileImage != "" {
		t.Fatalf("image vide attendue, obtenu %q", user.ProfileImage)
	}
}

// raceStore simule la course entre deux logins du même profil : la première
// insertion est volée par un concurrent.
type raceStore struct {
	*memUserStore
	winner models.User
	raced  bool
}

func (s *raceStore) CreateSocialUser(ctx context.Context, user models.User) error {
	if !s.raced {
		s.raced = true
		s.memUserStore.users[s.winner.Username] = s.winner
		return fmt.Errorf("%w: username %s déjà enregistré", models.ErrConflict, user.Username)
	}
	return s.memUserStore.CreateSocialUser(ctx, user)
}

func TestProvisionOrLinkLosingRaceReturnsWinner(t *testing.T) {
	winner := models.User{
		ID:       "winner-id",
		Username: "민수_12345",
		Provider: models.ProviderKakao,
		Role:     models.RoleUser,
	}
	store := &raceStore{memUserStore: newMemUserStore(), winner: winner}

	got, err := ProvisionOrLink(context.Background(), store, testRand(), kakaoProfile(12345, "민수", ""))
	if err != nil {
		t.Fatalf("ProvisionOrLink: %v", err)
	}
	if got.ID != "winner-id" {
		t.Fatalf("le perdant de la course doit relire le compte gagnant, obtenu %s", got.ID)
	}
	if !errors.Is(func() error { _, err := store.FindByUsername(context.Background(), "inconnu"); return err }(), models.ErrNotFound) {
		t.Fatal("sanity check du store en mémoire")
	}
}
