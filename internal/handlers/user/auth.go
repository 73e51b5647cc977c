package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/kakao"

	"tenco_back_end/internal/auth"
	"tenco_back_end/internal/config"
	"tenco_back_end/internal/database"
	"tenco_back_end/internal/models"
	"tenco_back_end/internal/utils"
)

// ================== AUTH LOCALE ==================

func Register(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required,min=2,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=4"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	id := uuid.NewString()

	// Unicité du username via LWT
	applied, err := session.Query(`
		INSERT INTO users_by_username (username, user_id) VALUES (?, ?) IF NOT EXISTS
	`, input.Username, id).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "Ce nom d'utilisateur existe déjà"})
		return
	}

	// Unicité de l'email via LWT — on libère le username réservé si conflit
	applied, err = session.Query(`
		INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS
	`, input.Email, id).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil || !applied {
		session.Query("DELETE FROM users_by_username WHERE username = ?", input.Username).Exec()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
		return
	}

	now := time.Now()
	user := models.User{
		ID:        id,
		Username:  input.Username,
		Email:     input.Email,
		Password:  hashedPassword,
		Role:      models.RoleUser,
		Provider:  models.ProviderLocal,
		Points:    0,
		CreatedAt: &now,
	}

	err = session.Query(`
		INSERT INTO users (user_id, username, email, password, role, provider, points, profile_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Username, user.Email, user.Password, user.Role, user.Provider,
		user.Points, user.ProfileImage, now).WithContext(ctx).Exec()
	if err != nil {
		log.Printf("❌ Erreur insertion utilisateur: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	token, _ := utils.GenerateJWT(user)
	c.JSON(http.StatusCreated, gin.H{
		"token":    token,
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
}

func Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Un compte inconnu est une erreur explicite, jamais un null silencieux.
	user, err := auth.ScyllaUserStore{}.FindByUsername(ctx, input.Username)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom d'utilisateur ou mot de passe incorrect"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var storedHash string
	if err := session.Query("SELECT password FROM users WHERE user_id = ?", user.ID).
		WithContext(ctx).Scan(&storedHash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, storedHash)
	if err != nil || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom d'utilisateur ou mot de passe incorrect"})
		return
	}

	token, _ := utils.GenerateJWT(user)
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
		"points":   user.Points,
	})
}

// ================== AUTH SOCIALE (KAKAO) ==================

// KakaoBroker construit le provider OAuth utilisé par le callback.
func KakaoBroker() *auth.OAuthProvider {
	return &auth.OAuthProvider{
		Name:       "kakao",
		Config:     config.KakaoOAuthConfig(),
		ProfileURL: config.KakaoProfileURL,
	}
}

func BeginKakaoAuth(c *gin.Context) {
	cfg := config.KakaoOAuthConfig()

	goth.UseProviders(kakao.New(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL))

	redirectURL := c.Query("redirect_url")
	ctx := context.Background()
	state := utils.GenerateRandomState()
	if redirectURL != "" {
		_ = database.RedisClient.Set(ctx, "oauth_redirect:"+state, redirectURL, 10*time.Minute).Err()
	}

	q := c.Request.URL.Query()
	q.Set("provider", "kakao")
	q.Set("state", state)
	c.Request.URL.RawQuery = q.Encode()
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func KakaoCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètres OAuth invalides"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	broker := KakaoBroker()

	token, err := broker.ExchangeCode(ctx, code)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	profile, err := broker.FetchProfile(ctx, token)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	user, err := auth.ProvisionOrLink(ctx, auth.ScyllaUserStore{}, nil, profile)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	jwtToken, _ := utils.GenerateJWT(user)
	log.Printf("✅ Connexion Kakao réussie : %s", user.Username)

	redirectURI, _ := database.RedisClient.Get(ctx, "oauth_redirect:"+state).Result()
	_, _ = database.RedisClient.Del(ctx, "oauth_redirect:"+state).Result()

	if redirectURI != "" {
		c.Redirect(http.StatusFound, fmt.Sprintf("%s?token=%s", redirectURI, jwtToken))
		return
	}

	frontend := os.Getenv("FRONTEND_URL")
	if frontend != "" {
		c.Redirect(http.StatusFound, fmt.Sprintf("%s?token=%s", frontend, jwtToken))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    jwtToken,
		"user_id":  user.ID,
		"username": user.Username,
		"provider": user.Provider,
	})
}
