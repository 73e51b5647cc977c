package payement

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"tenco_back_end/internal/authz"
	"tenco_back_end/internal/cache"
	"tenco_back_end/internal/database"
	"tenco_back_end/internal/ledger"
	"tenco_back_end/internal/models"
)

// loadPayment lit une ligne de paiement par identifiant.
func loadPayment(ctx context.Context, session *gocql.Session, paymentID gocql.UUID) (models.Payment, error) {
	p := models.Payment{ID: paymentID}
	err := session.Query(`
		SELECT user_id, merchant_uid, imp_uid, amount, status, paid_at, created_at
		FROM payments WHERE payment_id = ?
	`, paymentID).WithContext(ctx).Scan(
		&p.UserID, &p.MerchantUID, &p.ImpUID, &p.Amount, &p.Status, &p.PaidAt, &p.CreatedAt)
	return p, err
}

// ConfirmPayment capture un paiement : le montant local doit être égal au
// montant rapporté par la passerelle et le paiement doit y être réellement
// encaissé. La transition ready → paid est conditionnelle — aucun état
// partiel en cas de course ou de montant divergent.
func ConfirmPayment(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("role")

	paymentUUID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID paiement invalide"})
		return
	}

	var req struct {
		ImpUID string `json:"imp_uid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	payment, err := loadPayment(ctx, session, gocql.UUID(paymentUUID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Paiement introuvable"})
		return
	}

	if !authz.IsOwnerOrAdmin(userID, payment.UserID, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Ce paiement ne vous appartient pas"})
		return
	}

	if payment.Status != models.PaymentStatusReady {
		c.JSON(http.StatusConflict, gin.H{"error": "Ce paiement a déjà été traité"})
		return
	}

	// Vérification côté passerelle : montant et statut
	intent, err := paymentintent.Get(req.ImpUID, nil)
	if err != nil {
		log.Printf("❌ Erreur Stripe paymentintent.Get(%s): %v", req.ImpUID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Erreur du service externe, réessayez plus tard"})
		return
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le paiement n'a pas été encaissé par la passerelle"})
		return
	}

	if intent.Amount != payment.Amount {
		log.Printf("⚠️ Montant divergent pour %s : local %d, passerelle %d",
			payment.MerchantUID, payment.Amount, intent.Amount)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le montant vérifié ne correspond pas au paiement"})
		return
	}

	now := time.Now()
	applied, err := session.Query(`
		UPDATE payments SET status = ?, imp_uid = ?, paid_at = ? WHERE payment_id = ? IF status = ?
	`, models.PaymentStatusPaid, req.ImpUID, now, payment.ID, models.PaymentStatusReady).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "Ce paiement a déjà été traité"})
		return
	}

	// Créditer les points du montant payé
	user, err := ledger.Charge(ctx, payment.UserID, payment.Amount)
	if err != nil {
		log.Printf("❌ DÉFAUT — paiement %s capturé mais points non crédités: %v", payment.MerchantUID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}
	cache.InvalidateUserCache(payment.UserID)

	log.Printf("💳 Paiement %s capturé (%d), %d points crédités à %s",
		payment.MerchantUID, payment.Amount, payment.Amount, user.Username)

	c.JSON(http.StatusOK, gin.H{
		"message":      "Paiement confirmé",
		"merchant_uid": payment.MerchantUID,
		"status":       models.PaymentStatusPaid,
		"points":       user.Points,
	})
}

// GetUserPayments liste les paiements du demandeur
func GetUserPayments(c *gin.Context) {
	userID := c.GetString("user_id")

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`
		SELECT payment_id, merchant_uid, imp_uid, amount, status, paid_at, created_at
		FROM payments WHERE user_id = ? ALLOW FILTERING
	`, userID).Iter()

	var payments []models.Payment
	var p models.Payment

	for iter.Scan(&p.ID, &p.MerchantUID, &p.ImpUID, &p.Amount, &p.Status, &p.PaidAt, &p.CreatedAt) {
		p.UserID = userID
		payments = append(payments, p)
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture paiements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments, "count": len(payments)})
}
