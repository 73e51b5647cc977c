package payement

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"tenco_back_end/internal/database"
	"tenco_back_end/internal/models"
	"tenco_back_end/internal/utils"
)

// Checkout ouvre une tentative de paiement : ligne en statut ready avec une
// référence marchande unique. Le montant est immuable une fois inséré.
func Checkout(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	var req struct {
		Amount int64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant invalide", "details": err.Error()})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	paymentID := gocql.TimeUUID()
	now := time.Now()

	// La référence marchande est unique par tentative : insertion LWT dans la
	// table de correspondance, nouvelle référence en cas de collision.
	var merchantUID string
	for attempt := 0; attempt < 3; attempt++ {
		merchantUID, err = utils.NewMerchantUID(nil, now)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération référence"})
			return
		}

		applied, err := session.Query(`
			INSERT INTO payments_by_merchant_uid (merchant_uid, payment_id) VALUES (?, ?) IF NOT EXISTS
		`, merchantUID, paymentID).WithContext(ctx).MapScanCAS(map[string]interface{}{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création paiement"})
			return
		}
		if applied {
			break
		}
		merchantUID = ""
	}
	if merchantUID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération référence"})
		return
	}

	err = session.Query(`
		INSERT INTO payments (payment_id, user_id, merchant_uid, imp_uid, amount, status, created_at)
		VALUES (?, ?, ?, '', ?, ?, ?)
	`, paymentID, userID, merchantUID, req.Amount, models.PaymentStatusReady, now).
		WithContext(ctx).Exec()
	if err != nil {
		log.Printf("❌ Erreur création paiement: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création paiement"})
		return
	}

	log.Printf("🧾 Paiement %s créé (%s, %d)", paymentID, merchantUID, req.Amount)

	c.JSON(http.StatusCreated, gin.H{
		"payment": models.Payment{
			ID:          paymentID,
			UserID:      userID,
			MerchantUID: merchantUID,
			Amount:      req.Amount,
			Status:      models.PaymentStatusReady,
			CreatedAt:   now,
		},
	})
}
