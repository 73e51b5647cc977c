package routes

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tenco_back_end/internal/handlers/payement"
	"tenco_back_end/internal/handlers/user"
	"tenco_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	corsConfig := cors.DefaultConfig()
	if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		corsConfig.AllowOrigins = []string{frontend}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	api := r.Group("/api")

	// --- Authentification ---
	api.POST("/auth/register", middleware.RegisterRateLimit(), user.Register)
	api.POST("/auth/login", middleware.LoginRateLimit(), user.Login)
	api.GET("/auth/kakao", user.BeginKakaoAuth)
	api.GET("/auth/kakao/callback", user.KakaoCallback)

	// --- Routes authentifiées ---
	authed := api.Group("")
	authed.Use(middleware.AuthRequired())

	// Profils
	authed.GET("/users/:userId", user.MyPage)
	authed.PUT("/users/:userId/profile", user.UpdateProfile)
	authed.DELETE("/users/:userId/profile-image", user.DeleteProfileImage)
	authed.POST("/users/:userId/points", user.ChargePoints)

	// Paiements
	authed.POST("/payments/checkout", payement.Checkout)
	authed.POST("/payments/:paymentId/confirm", payement.ConfirmPayment)
	authed.GET("/payments", payement.GetUserPayments)

	// Remboursements
	authed.POST("/payments/:paymentId/refund", payement.RequestRefund)
	authed.GET("/refunds", payement.GetUserRefunds)

	// --- Administration ---
	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin)
	admin.GET("/refunds", payement.GetAllRefunds)
	admin.POST("/refunds/:refundId/process", payement.ProcessRefund)
}
