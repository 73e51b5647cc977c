package cache

import (
	"context"
	"encoding/json"
	"time"

	"tenco_back_end/internal/database"
	"tenco_back_end/internal/models"
)

const (
	UserCacheTTL = 5 * time.Minute
)

// GetUserFromCache récupère un utilisateur depuis Redis ou ScyllaDB
func GetUserFromCache(userID string) (*models.User, error) {
	ctx := context.Background()
	key := "user:" + userID

	// 1. Essayer le cache Redis
	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var user models.User
		if json.Unmarshal([]byte(data), &user) == nil {
			return &user, nil
		}
	}

	// 2. Récupérer de ScyllaDB
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	user := models.User{ID: userID}
	err = session.Query(`SELECT username, email, role, provider, points, profile_image
		FROM users WHERE user_id = ?`, userID).Scan(
		&user.Username, &user.Email, &user.Role, &user.Provider, &user.Points, &user.ProfileImage)
	if err != nil {
		return nil, err
	}

	// 3. Mettre en cache
	if userJSON, err := json.Marshal(user); err == nil {
		database.Redis.Set(ctx, key, userJSON, UserCacheTTL)
	}

	return &user, nil
}

// InvalidateUserCache supprime l'entrée cache d'un utilisateur après une
// mutation (recharge de points, remboursement, mise à jour de profil).
func InvalidateUserCache(userID string) {
	ctx := context.Background()
	database.Redis.Del(ctx, "user:"+userID)
}
