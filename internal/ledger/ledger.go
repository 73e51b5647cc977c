// Package ledger gère le solde de points des utilisateurs. Les mutations
// sont des read-modify-write conditionnels (LWT) : deux recharges
// concurrentes sur le même utilisateur ne perdent jamais de mise à jour.
package ledger

import (
	"context"
	"fmt"
	"log"

	"github.com/gocql/gocql"

	"tenco_back_end/internal/database"
	"tenco_back_end/internal/models"
)

// Nombre de tentatives CAS avant d'abandonner sous forte contention.
const maxCASRetries = 5

// balanceStore abstrait les deux requêtes de la boucle CAS. L'implémentation
// ScyllaDB vit ci-dessous, les tests injectent un store en mémoire.
type balanceStore interface {
	loadUser(ctx context.Context, userID string) (models.User, error)
	// casPoints applique newPoints seulement si le solde stocké vaut encore
	// oldPoints ; retourne false si un écrivain concurrent est passé avant.
	casPoints(ctx context.Context, userID string, oldPoints, newPoints int64) (bool, error)
}

type scyllaBalanceStore struct{}

func (scyllaBalanceStore) loadUser(ctx context.Context, userID string) (models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = session.Query(`
		SELECT user_id, username, email, role, provider, points, profile_image
		FROM users WHERE user_id = ?
	`, userID).WithContext(ctx).Scan(
		&user.ID, &user.Username, &user.Email, &user.Role,
		&user.Provider, &user.Points, &user.ProfileImage)
	if err == gocql.ErrNotFound {
		return models.User{}, fmt.Errorf("%w: utilisateur %s", models.ErrNotFound, userID)
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (scyllaBalanceStore) casPoints(ctx context.Context, userID string, oldPoints, newPoints int64) (bool, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return false, err
	}

	var prevPoints int64
	return session.Query(`
		UPDATE users SET points = ? WHERE user_id = ? IF points = ?
	`, newPoints, userID, oldPoints).WithContext(ctx).ScanCAS(&prevPoints)
}

// applyCharge calcule le nouveau solde après recharge. Pur, sans effet de
// bord, pour rester testable sans base.
func applyCharge(points, amount int64) (int64, error) {
	if amount <= 0 {
		return points, fmt.Errorf("%w: le montant doit être strictement positif", models.ErrValidation)
	}
	return points + amount, nil
}

// applyReversal calcule le nouveau solde après reprise des points crédités.
// Un solde qui passerait en négatif est une faute d'intégrité : on ne
// tronque jamais à zéro.
func applyReversal(points, amount int64) (int64, error) {
	if amount <= 0 {
		return points, fmt.Errorf("%w: le montant doit être strictement positif", models.ErrValidation)
	}
	if points < amount {
		return points, fmt.Errorf("%w: reprise de %d points sur un solde de %d",
			models.ErrIntegrity, amount, points)
	}
	return points - amount, nil
}

// Charge crédite amount points à l'utilisateur et retourne son état à jour.
func Charge(ctx context.Context, userID string, amount int64) (models.User, error) {
	return mutate(ctx, scyllaBalanceStore{}, userID, amount, applyCharge)
}

// Reverse reprend amount points (annulation suite à un remboursement
// approuvé). Le montant repris doit être exactement le montant crédité à
// l'origine pour ce paiement.
func Reverse(ctx context.Context, userID string, amount int64) (models.User, error) {
	return mutate(ctx, scyllaBalanceStore{}, userID, amount, applyReversal)
}

func mutate(ctx context.Context, store balanceStore, userID string, amount int64, apply func(int64, int64) (int64, error)) (models.User, error) {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		user, err := store.loadUser(ctx, userID)
		if err != nil {
			return models.User{}, err
		}

		newPoints, err := apply(user.Points, amount)
		if err != nil {
			return models.User{}, err
		}

		applied, err := store.casPoints(ctx, userID, user.Points, newPoints)
		if err != nil {
			return models.User{}, err
		}
		if applied {
			user.Points = newPoints
			return user, nil
		}
		log.Printf("⚠️ Conflit CAS sur le solde de %s (tentative %d), relecture", userID, attempt+1)
	}

	return models.User{}, fmt.Errorf("échec de la mise à jour du solde de %s après %d tentatives", userID, maxCASRetries)
}
