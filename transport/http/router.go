package http

import (
	"github.com/gin-gonic/gin"
	"github.com/layer-3/pear/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, walletService *service.AgentWalletService, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Create handlers
	handlers := NewAuthHandlers(authService, walletService, opts)

	// Reachability probe target
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.GET("/eip712-message", handlers.Challenge)
		auth.POST("/login", handlers.Login)
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
	}

	// Protected routes
	agent := router.Group("/agentWallet")
	agent.Use(AuthMiddleware(authService))
	{
		agent.GET("", handlers.GetAgentWallet)
		agent.POST("", handlers.CreateAgentWallet)
	}

	return router
}
