package auth

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"

	"tenco_back_end/internal/database"
	"tenco_back_end/internal/models"
)

// ScyllaUserStore implémente UserStore sur le keyspace users. L'unicité du
// username repose sur une insertion LWT dans la table de correspondance
// users_by_username.
type ScyllaUserStore struct{}

func (ScyllaUserStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return models.User{}, err
	}

	var userID string
	err = session.Query("SELECT user_id FROM users_by_username WHERE username = ?", username).
		WithContext(ctx).Scan(&userID)
	if err == gocql.ErrNotFound {
		return models.User{}, fmt.Errorf("%w: username %s", models.ErrNotFound, username)
	}
	if err != nil {
		return models.User{}, err
	}

	user := models.User{ID: userID}
	err = session.Query(`
		SELECT username, email, role, provider, points, profile_image
		FROM users WHERE user_id = ?
	`, userID).WithContext(ctx).Scan(
		&user.Username, &user.Email, &user.Role, &user.Provider, &user.Points, &user.ProfileImage)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (ScyllaUserStore) CreateSocialUser(ctx context.Context, user models.User) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}

	// LWT : un seul gagnant possible sur le même username.
	applied, err := session.Query(`
		INSERT INTO users_by_username (username, user_id) VALUES (?, ?) IF NOT EXISTS
	`, user.Username, user.ID).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: username %s déjà enregistré", models.ErrConflict, user.Username)
	}

	return session.Query(`
		INSERT INTO users (user_id, username, email, password, role, provider, points, profile_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Username, user.Email, user.Password, user.Role, user.Provider,
		user.Points, user.ProfileImage, user.CreatedAt).WithContext(ctx).Exec()
}
