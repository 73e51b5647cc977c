package authz

import "tenco_back_end/internal/models"

// IsOwnerOrAdmin est le prédicat d'autorisation unique utilisé avant toute
// mutation. Propriétaire = égalité stricte des identifiants, le rôle admin
// court-circuite la vérification de propriété.
func IsOwnerOrAdmin(actorID, ownerID, actorRole string) bool {
	if actorRole == models.RoleAdmin {
		return true
	}
	return actorID != "" && actorID == ownerID
}

// IsAdmin vérifie le rôle seul, pour les transitions réservées aux admins
// (approbation / rejet de remboursement).
func IsAdmin(actorRole string) bool {
	return actorRole == models.RoleAdmin
}
