package payement

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/refund"

	"tenco_back_end/internal/authz"
	"tenco_back_end/internal/cache"
	"tenco_back_end/internal/database"
	"tenco_back_end/internal/ledger"
	"tenco_back_end/internal/models"
	"tenco_back_end/internal/utils"
	"tenco_back_end/internal/workflow"
)

// loadRefund lit une demande de remboursement par identifiant.
func loadRefund(ctx context.Context, session *gocql.Session, refundID gocql.UUID) (models.RefundRequest, error) {
	r := models.RefundRequest{ID: refundID}
	err := session.Query(`
		SELECT payment_id, user_id, reason, reject_reason, status, stripe_refund_id, created_at, updated_at
		FROM refunds WHERE refund_id = ?
	`, refundID).WithContext(ctx).Scan(
		&r.PaymentID, &r.UserID, &r.Reason, &r.RejectReason, &r.Status,
		&r.StripeRefundID, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// RequestRefund permet au propriétaire d'un paiement encaissé de demander
// un remboursement. Une seule demande par paiement.
func RequestRefund(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("role")

	paymentUUID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID paiement invalide"})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
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

	newRefund, err := workflow.NewRefundRequest(payment, payment.UserID, req.Reason, time.Now())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := storeRefundRequest(ctx, scyllaRefundStore{session: session}, newRefund); err != nil {
		if errors.Is(err, models.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Une demande de remboursement existe déjà pour ce paiement"})
			return
		}
		log.Printf("❌ Erreur création demande remboursement: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création demande"})
		return
	}

	log.Printf("💰 Demande de remboursement créée: %s pour paiement %s", newRefund.ID, payment.MerchantUID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Demande de remboursement créée",
		"refund":  newRefund,
	})
}

// ProcessRefund applique la décision d'un administrateur (approve ou
// reject). La transition LWT pending → terminal est le point de commit : si
// deux décisions se disputent la même demande, une seule gagne, l'autre
// constate l'état terminal et échoue.
func ProcessRefund(c *gin.Context) {
	adminID := c.GetString("user_id")
	role := c.GetString("role")

	// Garde d'autorisation avant toute mutation, en plus du middleware
	if !authz.IsAdmin(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
		return
	}

	refundUUID, err := uuid.Parse(c.Param("refundId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID remboursement invalide"})
		return
	}

	var req struct {
		Action       string `json:"action" binding:"required"` // approve, reject
		RejectReason string `json:"reject_reason" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if req.Action != "approve" && req.Action != "reject" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action invalide (approve ou reject)"})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	current, err := loadRefund(ctx, session, gocql.UUID(refundUUID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande de remboursement introuvable"})
		return
	}

	if req.Action == "reject" {
		rejectRefund(c, ctx, session, current, req.RejectReason, adminID)
		return
	}

	approveRefund(c, ctx, session, current, adminID)
}

func rejectRefund(c *gin.Context, ctx context.Context, session *gocql.Session, current models.RefundRequest, rejectReason, adminID string) {
	decided, err := workflow.RejectRefund(current, rejectReason, time.Now())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	applied, err := session.Query(`
		UPDATE refunds SET status = ?, reject_reason = ?, updated_at = ? WHERE refund_id = ? IF status = ?
	`, decided.Status, decided.RejectReason, decided.UpdatedAt, decided.ID, models.RefundStatusPending).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette demande a déjà été traitée"})
		return
	}

	log.Printf("❌ Remboursement rejeté: %s par %s (%s)", decided.ID, adminID, decided.RejectReason)
	utils.LogAction(c, "refund_reject", "refund", decided.ID.String(), current.Status, decided.Status)
	notifyRefundDecision(decided, 0)

	// Le paiement reste en statut paid
	c.JSON(http.StatusOK, gin.H{
		"message": "Demande de remboursement rejetée",
		"refund":  decided,
	})
}

func approveRefund(c *gin.Context, ctx context.Context, session *gocql.Session, current models.RefundRequest, adminID string) {
	decided, err := workflow.ApproveRefund(current, time.Now())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	payment, err := loadPayment(ctx, session, current.PaymentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération paiement"})
		return
	}

	// Point de commit : un seul approbateur gagne la transition
	applied, err := session.Query(`
		UPDATE refunds SET status = ?, updated_at = ? WHERE refund_id = ? IF status = ?
	`, decided.Status, decided.UpdatedAt, decided.ID, models.RefundStatusPending).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette demande a déjà été traitée"})
		return
	}

	// Transition du paiement : paid → refunded
	applied, err = session.Query(`
		UPDATE payments SET status = ? WHERE payment_id = ? IF status = ?
	`, models.PaymentStatusRefunded, payment.ID, models.PaymentStatusPaid).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil || !applied {
		log.Printf("❌ DÉFAUT — remboursement %s approuvé mais paiement %s non basculé: %v",
			decided.ID, payment.MerchantUID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	// Reprise intégrale des points crédités pour ce paiement
	if _, err := ledger.Reverse(ctx, payment.UserID, payment.Amount); err != nil {
		if errors.Is(err, models.ErrIntegrity) {
			log.Printf("❌ DÉFAUT — reprise de points impossible pour %s: %v", payment.UserID, err)
		} else {
			log.Printf("❌ Erreur reprise de points pour %s: %v", payment.UserID, err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}
	cache.InvalidateUserCache(payment.UserID)

	// Remboursement côté passerelle
	if payment.ImpUID != "" {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(payment.ImpUID),
			Amount:        stripe.Int64(payment.Amount),
			Reason:        stripe.String("requested_by_customer"),
		}
		stripeRefund, err := refund.New(params)
		if err != nil {
			log.Printf("❌ Erreur Stripe refund: %v", err)
		} else {
			decided.StripeRefundID = stripeRefund.ID
			if err := session.Query(`
				UPDATE refunds SET stripe_refund_id = ? WHERE refund_id = ?
			`, stripeRefund.ID, decided.ID).WithContext(ctx).Exec(); err != nil {
				log.Printf("⚠️ Erreur mise à jour stripe_refund_id: %v", err)
			}
		}
	}

	log.Printf("✅ Remboursement approuvé: %s par %s (paiement %s, %d points repris)",
		decided.ID, adminID, payment.MerchantUID, payment.Amount)
	utils.LogAction(c, "refund_approve", "refund", decided.ID.String(), current.Status, decided.Status)
	notifyRefundDecision(decided, payment.Amount)

	c.JSON(http.StatusOK, gin.H{
		"message": "Remboursement approuvé",
		"refund":  decided,
		"amount":  payment.Amount,
	})
}

// notifyRefundDecision envoie l'e-mail de décision en arrière-plan.
func notifyRefundDecision(decided models.RefundRequest, amount int64) {
	go func() {
		requester, err := cache.GetUserFromCache(decided.UserID)
		if err != nil {
			log.Printf("⚠️ E-mail de décision non envoyé, demandeur introuvable: %v", err)
			return
		}
		if err := utils.SendRefundDecisionEmail(requester.Email, decided, amount); err != nil {
			log.Printf("⚠️ Erreur envoi e-mail de décision: %v", err)
		}
	}()
}

// GetUserRefunds récupère les demandes de remboursement de l'utilisateur
func GetUserRefunds(c *gin.Context) {
	userID := c.GetString("user_id")

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`
		SELECT refund_id, payment_id, reason, reject_reason, status, stripe_refund_id, created_at, updated_at
		FROM refunds WHERE user_id = ? ALLOW FILTERING
	`, userID).Iter()

	var refunds []models.RefundRequest
	var r models.RefundRequest

	for iter.Scan(&r.ID, &r.PaymentID, &r.Reason, &r.RejectReason, &r.Status, &r.StripeRefundID, &r.CreatedAt, &r.UpdatedAt) {
		r.UserID = userID
		refunds = append(refunds, r)
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture remboursements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"refunds": refunds, "count": len(refunds)})
}

// GetAllRefunds récupère toutes les demandes de remboursement (admin)
func GetAllRefunds(c *gin.Context) {
	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`
		SELECT refund_id, payment_id, user_id, reason, reject_reason, status, stripe_refund_id, created_at, updated_at
		FROM refunds
	`).Iter()

	var refunds []models.RefundRequest
	var r models.RefundRequest

	for iter.Scan(&r.ID, &r.PaymentID, &r.UserID, &r.Reason, &r.RejectReason, &r.Status, &r.StripeRefundID, &r.CreatedAt, &r.UpdatedAt) {
		refunds = append(refunds, r)
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture remboursements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"refunds": refunds, "count": len(refunds)})
}
