package user

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"tenco_back_end/internal/authz"
	"tenco_back_end/internal/cache"
	"tenco_back_end/internal/ledger"
	"tenco_back_end/internal/utils"
)

// ChargePoints crédite le solde de points. Le propriétaire recharge son
// propre compte, un admin peut recharger n'importe quel compte.
func ChargePoints(c *gin.Context) {
	targetID := c.Param("userId")
	actorID := c.GetString("user_id")
	role := c.GetString("role")

	var req struct {
		Amount int64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant invalide"})
		return
	}

	if !authz.IsOwnerOrAdmin(actorID, targetID, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Vous ne pouvez pas recharger ce compte"})
		return
	}

	user, err := ledger.Charge(c.Request.Context(), targetID, req.Amount)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	cache.InvalidateUserCache(targetID)
	log.Printf("💰 Recharge de %d points pour %s (solde: %d)", req.Amount, user.Username, user.Points)

	c.JSON(http.StatusOK, gin.H{
		"message": "Points crédités",
		"user_id": user.ID,
		"points":  user.Points,
	})
}
