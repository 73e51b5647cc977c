package payement

import (
	"context"
	"fmt"
	"log"

	"github.com/gocql/gocql"

	"tenco_back_end/internal/models"
)

// refundStore abstrait les écritures de création d'une demande de
// remboursement. L'implémentation ScyllaDB vit ci-dessous, les tests
// injectent un store en mémoire.
type refundStore interface {
	// claimPayment réserve le paiement via LWT : false si une demande existe déjà.
	claimPayment(ctx context.Context, paymentID, refundID gocql.UUID) (bool, error)
	insertRefund(ctx context.Context, r models.RefundRequest) error
	releasePayment(ctx context.Context, paymentID gocql.UUID) error
}

type scyllaRefundStore struct {
	session *gocql.Session
}

func (s scyllaRefundStore) claimPayment(ctx context.Context, paymentID, refundID gocql.UUID) (bool, error) {
	return s.session.Query(`
		INSERT INTO refunds_by_payment (payment_id, refund_id) VALUES (?, ?) IF NOT EXISTS
	`, paymentID, refundID).WithContext(ctx).MapScanCAS(map[string]interface{}{})
}

func (s scyllaRefundStore) insertRefund(ctx context.Context, r models.RefundRequest) error {
	return s.session.Query(`
		INSERT INTO refunds (refund_id, payment_id, user_id, reason, reject_reason, status, stripe_refund_id, created_at)
		VALUES (?, ?, ?, ?, '', ?, '', ?)
	`, r.ID, r.PaymentID, r.UserID, r.Reason, r.Status, r.CreatedAt).WithContext(ctx).Exec()
}

func (s scyllaRefundStore) releasePayment(ctx context.Context, paymentID gocql.UUID) error {
	return s.session.Query(`
		DELETE FROM refunds_by_payment WHERE payment_id = ?
	`, paymentID).WithContext(ctx).Exec()
}

// storeRefundRequest persiste une demande pending. La réservation LWT
// garantit une seule demande par paiement ; si l'insertion de la ligne
// échoue ensuite, la réservation est libérée — sinon le paiement resterait
// bloqué en 409 sans aucune demande qu'un admin puisse traiter.
func storeRefundRequest(ctx context.Context, store refundStore, r models.RefundRequest) error {
	applied, err := store.claimPayment(ctx, r.PaymentID, r.ID)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: une demande existe déjà pour le paiement %s", models.ErrConflict, r.PaymentID)
	}

	if err := store.insertRefund(ctx, r); err != nil {
		if relErr := store.releasePayment(ctx, r.PaymentID); relErr != nil {
			log.Printf("⚠️ Réservation de remboursement non libérée pour %s: %v", r.PaymentID, relErr)
		}
		return err
	}
	return nil
}
