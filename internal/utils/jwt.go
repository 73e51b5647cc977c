package utils

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tenco_back_end/internal/models"
)

func GenerateJWT(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	// Lu à chaque émission pour rester cohérent avec la vérification, qui
	// lit la même variable après le chargement du .env.
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
