package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tenco_back_end/internal/models"
)

func TestApplyCharge(t *testing.T) {
	tests := []struct {
		name    string
		points  int64
		amount  int64
		want    int64
		wantErr error
	}{
		{"recharge simple", 0, 10000, 10000, nil},
		{"recharge cumulée", 2500, 500, 3000, nil},
		{"montant nul", 100, 0, 0, models.ErrValidation},
		{"montant négatif", 100, -50, 0, models.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyCharge(tt.points, tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("erreur attendue %v, obtenu %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("applyCharge: %v", err)
			}
			if got != tt.want {
				t.Fatalf("solde attendu %d, obtenu %d", tt.want, got)
			}
		})
	}
}

func TestApplyReversal(t *testing.T) {
	tests := []struct {
		name    string
		points  int64
		amount  int64
		want    int64
		wantErr error
	}{
		{"reprise intégrale", 10000, 10000, 0, nil},
		{"reprise partielle du solde", 15000, 10000, 5000, nil},
		{"montant nul", 100, 0, 0, models.ErrValidation},
		{"montant négatif", 100, -1, 0, models.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyReversal(tt.points, tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("erreur attendue %v, obtenu %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("applyReversal: %v", err)
			}
			if got != tt.want {
				t.Fatalf("solde attendu %d, obtenu %d", tt.want, got)
			}
		})
	}
}

// Un solde qui passerait en négatif est une faute d'intégrité, jamais un
// clamp silencieux à zéro.
func TestApplyReversalIntegrityFault(t *testing.T) {
	got, err := applyReversal(5000, 10000)
	if !errors.Is(err, models.ErrIntegrity) {
		t.Fatalf("faute d'intégrité attendue, obtenu %v", err)
	}
	if got != 5000 {
		t.Fatalf("le solde ne doit pas être modifié, obtenu %d", got)
	}
}

// Le solde ne devient jamais négatif, quelle que soit la séquence
// recharge/reprise.
func TestChargeReversalSequences(t *testing.T) {
	type op struct {
		charge bool
		amount int64
	}
	seq := []op{
		{true, 10000},
		{false, 4000},
		{true, 500},
		{false, 6500},
	}

	points := int64(0)
	for i, o := range seq {
		var err error
		if o.charge {
			points, err = applyCharge(points, o.amount)
		} else {
			points, err = applyReversal(points, o.amount)
		}
		if err != nil {
			t.Fatalf("étape %d: %v", i, err)
		}
		if points < 0 {
			t.Fatalf("étape %d: solde négatif %d", i, points)
		}
	}
	if points != 0 {
		t.Fatalf("solde final attendu 0, obtenu %d", points)
	}
}

// memBalanceStore est le store en mémoire des tests de la boucle CAS.
// conflicts force autant d'échecs CAS qu'indiqué, en bougeant le solde
// comme le ferait un écrivain concurrent.
type memBalanceStore struct {
	points    int64
	conflicts int
	loads     int
	casCalls  int
}

func (s *memBalanceStore) loadUser(_ context.Context, userID string) (models.User, error) {
	if userID == "inconnu" {
		return models.User{}, fmt.Errorf("%w: utilisateur %s", models.ErrNotFound, userID)
	}
	s.loads++
	return models.User{ID: userID, Username: "민수_12345", Points: s.points}, nil
}

func (s *memBalanceStore) casPoints(_ context.Context, _ string, oldPoints, newPoints int64) (bool, error) {
	s.casCalls++
	if s.conflicts > 0 {
		s.conflicts--
		s.points += 100 // un écrivain concurrent est passé entre lecture et CAS
		return false, nil
	}
	if oldPoints != s.points {
		return false, nil
	}
	s.points = newPoints
	return true, nil
}

// Deux recharges concurrentes ne perdent jamais de mise à jour : le perdant
// du CAS relit le solde et réapplique son incrément sur la nouvelle valeur.
func TestMutateRetriesOnCASConflict(t *testing.T) {
	store := &memBalanceStore{points: 1000, conflicts: 2}

	user, err := mutate(context.Background(), store, "user-1", 500, applyCharge)
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	// 1000 + 2×100 (écrivains concurrents) + 500 (notre recharge)
	if user.Points != 1700 {
		t.Fatalf("solde attendu 1700, obtenu %d", user.Points)
	}
	if store.points != 1700 {
		t.Fatalf("solde stocké attendu 1700, obtenu %d", store.points)
	}
	if store.casCalls != 3 || store.loads != 3 {
		t.Fatalf("3 lectures et 3 CAS attendus, obtenu %d/%d", store.loads, store.casCalls)
	}
}

func TestMutateGivesUpAfterMaxRetries(t *testing.T) {
	store := &memBalanceStore{points: 1000, conflicts: maxCASRetries + 1}

	if _, err := mutate(context.Background(), store, "user-1", 500, applyCharge); err == nil {
		t.Fatal("l'épuisement des tentatives doit remonter une erreur")
	}
	if store.casCalls != maxCASRetries {
		t.Fatalf("%d CAS attendus, obtenu %d", maxCASRetries, store.casCalls)
	}
}

func TestMutateUnknownUser(t *testing.T) {
	store := &memBalanceStore{}

	_, err := mutate(context.Background(), store, "inconnu", 500, applyCharge)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("utilisateur absent: NotFound attendu, obtenu %v", err)
	}
	if store.casCalls != 0 {
		t.Fatal("aucun CAS ne doit être tenté sans utilisateur")
	}
}

// Une reprise qui rendrait le solde négatif avorte avant toute écriture.
func TestMutateReversalIntegrityFaultWritesNothing(t *testing.T) {
	store := &memBalanceStore{points: 5000}

	_, err := mutate(context.Background(), store, "user-1", 10000, applyReversal)
	if !errors.Is(err, models.ErrIntegrity) {
		t.Fatalf("faute d'intégrité attendue, obtenu %v", err)
	}
	if store.casCalls != 0 || store.points != 5000 {
		t.Fatalf("le solde stocké ne doit pas bouger: cas=%d, points=%d", store.casCalls, store.points)
	}
}
