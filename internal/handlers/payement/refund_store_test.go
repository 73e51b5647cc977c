package payement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gocql/gocql"

	"tenco_back_end/internal/models"
)

// memRefundStore est le store en mémoire des tests de création de demande.
type memRefundStore struct {
	claims    map[gocql.UUID]gocql.UUID // payment_id → refund_id
	rows      map[gocql.UUID]models.RefundRequest
	insertErr error
	releases  int
}

func newMemRefundStore() *memRefundStore {
	return &memRefundStore{
		claims: map[gocql.UUID]gocql.UUID{},
		rows:   map[gocql.UUID]models.RefundRequest{},
	}
}

func (s *memRefundStore) claimPayment(_ context.Context, paymentID, refundID gocql.UUID) (bool, error) {
	if _, ok := s.claims[paymentID]; ok {
		return false, nil
	}
	s.claims[paymentID] = refundID
	return true, nil
}

func (s *memRefundStore) insertRefund(_ context.Context, r models.RefundRequest) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.rows[r.ID] = r
	return nil
}

func (s *memRefundStore) releasePayment(_ context.Context, paymentID gocql.UUID) error {
	s.releases++
	delete(s.claims, paymentID)
	return nil
}

func pendingRefund(t *testing.T) models.RefundRequest {
	t.Helper()
	return models.RefundRequest{
		ID:        gocql.TimeUUID(),
		PaymentID: gocql.TimeUUID(),
		UserID:    "user-1",
		Reason:    "잘못 주문",
		Status:    models.RefundStatusPending,
		CreatedAt: time.Now(),
	}
}

func TestStoreRefundRequest(t *testing.T) {
	store := newMemRefundStore()
	r := pendingRefund(t)

	if err := storeRefundRequest(context.Background(), store, r); err != nil {
		t.Fatalf("storeRefundRequest: %v", err)
	}
	if store.claims[r.PaymentID] != r.ID {
		t.Fatal("la réservation du paiement doit pointer vers la demande")
	}
	if _, ok := store.rows[r.ID]; !ok {
		t.Fatal("la ligne de demande doit être insérée")
	}
}

func TestStoreRefundRequestDuplicate(t *testing.T) {
	store := newMemRefundStore()
	first := pendingRefund(t)
	if err := storeRefundRequest(context.Background(), store, first); err != nil {
		t.Fatalf("première demande: %v", err)
	}

	second := pendingRefund(t)
	second.PaymentID = first.PaymentID
	err := storeRefundRequest(context.Background(), store, second)
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("conflit attendu sur le même paiement, obtenu %v", err)
	}
	if len(store.rows) != 1 {
		t.Fatalf("une seule ligne attendue, obtenu %d", len(store.rows))
	}
}

// Une insertion qui échoue après la réservation LWT doit libérer la
// réservation : sinon le paiement resterait bloqué en conflit permanent
// sans aucune demande à traiter.
func TestStoreRefundRequestReleasesClaimOnInsertFailure(t *testing.T) {
	store := newMemRefundStore()
	store.insertErr = fmt.Errorf("écriture refusée")

	r := pendingRefund(t)
	if err := storeRefundRequest(context.Background(), store, r); err == nil {
		t.Fatal("l'échec d'insertion doit remonter")
	}
	if store.releases != 1 {
		t.Fatalf("une libération attendue, obtenu %d", store.releases)
	}
	if _, ok := store.claims[r.PaymentID]; ok {
		t.Fatal("la réservation doit être libérée après l'échec")
	}

	// Une nouvelle tentative sur le même paiement repart de zéro
	store.insertErr = nil
	retry := pendingRefund(t)
	retry.PaymentID = r.PaymentID
	if err := storeRefundRequest(context.Background(), store, retry); err != nil {
		t.Fatalf("la nouvelle tentative doit réussir: %v", err)
	}
}
