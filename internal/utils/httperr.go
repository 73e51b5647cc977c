package utils

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"tenco_back_end/internal/models"
)

// RespondError mappe les erreurs métier vers les codes HTTP. Les erreurs de
// service externe et les fautes d'intégrité ne laissent filtrer aucun détail
// interne vers le client.
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrExternalService):
		log.Printf("❌ Erreur service externe: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Erreur du service externe, réessayez plus tard"})
	case errors.Is(err, models.ErrIntegrity):
		// Faute d'intégrité : défaut à corriger, jamais masqué
		log.Printf("❌ DÉFAUT — violation d'intégrité: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	default:
		log.Printf("❌ Erreur interne: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}
