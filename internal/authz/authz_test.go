package authz

import (
	"testing"

	"tenco_back_end/internal/models"
)

func TestIsOwnerOrAdmin(t *testing.T) {
	tests := []struct {
		name    string
		actorID string
		ownerID string
		role    string
		want    bool
	}{
		{"propriétaire exact", "user-1", "user-1", models.RoleUser, true},
		{"autre utilisateur", "user-1", "user-2", models.RoleUser, false},
		{"admin sur ressource étrangère", "admin-1", "user-2", models.RoleAdmin, true},
		{"préfixe ne suffit pas", "user-1", "user-12", models.RoleUser, false},
		{"identifiants vides", "", "", models.RoleUser, false},
		{"rôle inconnu", "user-1", "user-2", "superuser", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOwnerOrAdmin(tt.actorID, tt.ownerID, tt.role); got != tt.want {
				t.Fatalf("IsOwnerOrAdmin(%q, %q, %q) = %v, attendu %v",
					tt.actorID, tt.ownerID, tt.role, got, tt.want)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	if !IsAdmin(models.RoleAdmin) {
		t.Fatal("le rôle admin doit passer")
	}
	if IsAdmin(models.RoleUser) || IsAdmin("") || IsAdmin("ADMIN") {
		t.Fatal("seul le rôle admin exact doit passer")
	}
}
