// Package workflow porte la machine à états des demandes de remboursement.
// Fonctions pures sur des valeurs RefundRequest : aucune dépendance vers la
// persistance, la couche handlers applique le résultat avec des écritures LWT.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"tenco_back_end/internal/models"
)

// NewRefundRequest construit une demande en statut pending. Échoue si le
// paiement n'est pas en statut paid, ou si le motif est vide / trop long.
func NewRefundRequest(payment models.Payment, userID, reason string, now time.Time) (models.RefundRequest, error) {
	if payment.Status != models.PaymentStatusPaid {
		return models.RefundRequest{}, fmt.Errorf("%w: le paiement %s n'est pas remboursable (statut %s)",
			models.ErrValidation, payment.MerchantUID, payment.Status)
	}
	if err := validateReason(reason); err != nil {
		return models.RefundRequest{}, err
	}

	return models.RefundRequest{
		ID:        gocql.TimeUUID(),
		PaymentID: payment.ID,
		UserID:    userID,
		Reason:    reason,
		Status:    models.RefundStatusPending,
		CreatedAt: now,
	}, nil
}

// ApproveRefund fait passer la demande de pending à approved. Les états
// terminaux ne sont jamais re-transitionnés, même avec des paramètres
// identiques.
func ApproveRefund(r models.RefundRequest, now time.Time) (models.RefundRequest, error) {
	if !IsPending(r) {
		return r, fmt.Errorf("%w: la demande %s a déjà été traitée (statut %s)",
			models.ErrConflict, r.ID, r.Status)
	}
	r.Status = models.RefundStatusApproved
	r.UpdatedAt = &now
	return r, nil
}

// RejectRefund fait passer la demande de pending à rejected et conserve le
// motif de rejet de l'administrateur. Le paiement associé reste en paid.
func RejectRefund(r models.RefundRequest, rejectReason string, now time.Time) (models.RefundRequest, error) {
	if !IsPending(r) {
		return r, fmt.Errorf("%w: la demande %s a déjà été traitée (statut %s)",
			models.ErrConflict, r.ID, r.Status)
	}
	if err := validateReason(rejectReason); err != nil {
		return r, err
	}
	r.Status = models.RefundStatusRejected
	r.RejectReason = rejectReason
	r.UpdatedAt = &now
	return r, nil
}

// IsPending indique si la demande attend une décision.
func IsPending(r models.RefundRequest) bool {
	return r.Status == models.RefundStatusPending
}

// IsApproved indique si la demande a été approuvée.
func IsApproved(r models.RefundRequest) bool {
	return r.Status == models.RefundStatusApproved
}

// IsRejected indique si la demande a été rejetée.
func IsRejected(r models.RefundRequest) bool {
	return r.Status == models.RefundStatusRejected
}

func validateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: le motif est obligatoire", models.ErrValidation)
	}
	if len([]rune(reason)) > models.RefundReasonMaxLen {
		return fmt.Errorf("%w: le motif dépasse %d caractères", models.ErrValidation, models.RefundReasonMaxLen)
	}
	return nil
}
