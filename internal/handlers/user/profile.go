package user

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tenco_back_end/internal/authz"
	"tenco_back_end/internal/cache"
	"tenco_back_end/internal/database"
	"tenco_back_end/internal/services"
	"tenco_back_end/internal/utils"
)

// MyPage retourne le profil demandé. Lecture réservée au propriétaire ou à
// un admin — 403 sur un profil existant qui ne vous appartient pas.
func MyPage(c *gin.Context) {
	targetID := c.Param("userId")
	actorID := c.GetString("user_id")
	role := c.GetString("role")

	user, err := cache.GetUserFromCache(targetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	if !authz.IsOwnerOrAdmin(actorID, user.ID, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Vous n'avez pas accès à ce profil"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile modifie le mot de passe et, en option, l'image de profil.
// L'ancienne image est supprimée du bucket après remplacement.
func UpdateProfile(c *gin.Context) {
	targetID := c.Param("userId")
	actorID := c.GetString("user_id")
	role := c.GetString("role")

	user, err := cache.GetUserFromCache(targetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	if !authz.IsOwnerOrAdmin(actorID, user.ID, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Vous n'avez pas le droit de modifier ce profil"})
		return
	}

	password := c.PostForm("password")
	if password == "" || len(password) < 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mot de passe invalide (4 caractères minimum)"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	newImage := user.ProfileImage
	if file, err := c.FormFile("profile_image"); err == nil {
		if !services.IsImageFile(file) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Seules les images sont acceptées"})
			return
		}

		saved, err := services.SaveProfileImage(ctx, user.ID, file)
		if err != nil {
			log.Printf("❌ Erreur upload image de profil: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement de l'image"})
			return
		}

		if user.ProfileImage != "" {
			if err := services.DeleteProfileImage(ctx, user.ProfileImage); err != nil {
				log.Printf("⚠️ Ancienne image non supprimée: %v", err)
			}
		}
		newImage = saved
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	err = session.Query(`
		UPDATE users SET password = ?, profile_image = ? WHERE user_id = ?
	`, hashedPassword, newImage, user.ID).WithContext(ctx).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
		return
	}

	cache.InvalidateUserCache(user.ID)
	user.ProfileImage = newImage

	c.JSON(http.StatusOK, gin.H{"message": "Profil mis à jour", "user": user})
}

// DeleteProfileImage supprime l'image de profil (objet + référence en base).
func DeleteProfileImage(c *gin.Context) {
	targetID := c.Param("userId")
	actorID := c.GetString("user_id")
	role := c.GetString("role")

	user, err := cache.GetUserFromCache(targetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	if !authz.IsOwnerOrAdmin(actorID, user.ID, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Vous n'avez pas le droit de modifier ce profil"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if user.ProfileImage != "" {
		if err := services.DeleteProfileImage(ctx, user.ProfileImage); err != nil {
			log.Printf("⚠️ Image de profil non supprimée du bucket: %v", err)
		}
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	err = session.Query("UPDATE users SET profile_image = '' WHERE user_id = ?", user.ID).
		WithContext(ctx).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
		return
	}

	cache.InvalidateUserCache(user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Image de profil supprimée"})
}
