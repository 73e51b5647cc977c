package models

import "errors"

// Erreurs métier partagées entre les packages. Les handlers les mappent
// vers les codes HTTP : 400, 404, 403, 409, 502, 500.
var (
	ErrValidation      = errors.New("données invalides")
	ErrNotFound        = errors.New("ressource introuvable")
	ErrForbidden       = errors.New("accès refusé")
	ErrConflict        = errors.New("conflit avec une ressource existante")
	ErrExternalService = errors.New("erreur du service externe")

	// ErrIntegrity signale la violation d'un invariant qui ne doit jamais
	// se produire (ex: solde de points négatif). Jamais corrigé en silence.
	ErrIntegrity = errors.New("violation d'intégrité des données")
)
