package models

import "time"

// Rôles utilisateur
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Providers d'authentification
const (
	ProviderLocal = "local"
	ProviderKakao = "kakao"
)

type User struct {
	ID           string     `json:"user_id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Password     string     `json:"-"`
	Role         string     `json:"role,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	Points       int64      `json:"points"`
	ProfileImage string     `json:"profile_image,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// IsAdmin indique si l'utilisateur a le rôle administrateur
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
