package routes

import (
	"time"

	"amora/config"
	"amora/handlers"
	"amora/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit, cfg.RateWindow))

	// Public routes (no auth required)
	router.POST("/api/signup", handlers.Signup)
	router.POST("/api/login", handlers.Login)
	router.POST("/api/contact", handlers.SubmitContact)
	router.GET("/api/vapid-public-key", handlers.GetVapidPublicKey)

	// Social login
	router.GET("/api/google/auth-url", handlers.GetGoogleAuthURL)
	router.GET("/api/google/callback", handlers.GoogleOAuthCallback)
	router.GET("/api/facebook/auth-url", handlers.GetFacebookAuthURL)
	router.GET("/api/facebook/callback", handlers.FacebookOAuthCallback)

	// Payment gateway webhook (authenticated by signature, not JWT)
	router.POST("/api/stripe/webhook", handlers.StripeWebhook)

	// Protected routes group
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	// Profile
	protected.GET("/me", handlers.GetMyProfile)
	protected.PUT("/me", handlers.UpdateMyProfile)
	protected.DELETE("/me", handlers.DeleteAccount)
	protected.POST("/logout", handlers.Logout)
	protected.GET("/user/:id", handlers.GetUser)
	protected.GET("/members", handlers.GetMembers)

	// Friends
	protected.GET("/friends", handlers.GetFriends)
	protected.GET("/friends/requests", handlers.GetFriendRequests)
	protected.POST("/friends/request", handlers.SendFriendRequest)
	protected.POST("/friends/accept", handlers.AcceptFriendRequest)
	protected.POST("/friends/reject", handlers.RejectFriendRequest)
	protected.POST("/friends/remove", handlers.UnfriendUser)

	// Chats
	protected.GET("/chats", handlers.GetChatList)
	protected.POST("/chats", handlers.CreateChat)
	protected.GET("/chats/:id", handlers.GetChat)
	protected.DELETE("/chats/:id", handlers.DeleteChat)
	protected.POST("/chats/:id/read", handlers.MarkChatRead)

	// Messages
	protected.POST("/message", handlers.SendMessage)
	protected.GET("/messages/:chatId", handlers.GetMessages)

	// Smiles
	protected.GET("/smiles", handlers.GetSmiles)
	protected.POST("/smile", handlers.SendSmile)
	protected.DELETE("/smile", handlers.WithdrawSmile)

	// Posts
	protected.POST("/post", handlers.CreatePost)
	protected.GET("/feed", handlers.GetFeed)
	protected.GET("/my/posts", handlers.GetMyPosts)
	protected.POST("/post/:id/like", handlers.LikePost)
	protected.POST("/post/:id/comment", handlers.CommentPost)
	protected.DELETE("/post/:id", handlers.DeletePost)

	// Wallet
	protected.GET("/wallet", handlers.GetWallet)
	protected.POST("/wallet/topup", handlers.CreateTopUp)

	// Photo upload
	protected.POST("/upload-photo", handlers.UploadPhoto)

	// Push subscriptions
	protected.POST("/subscribe", handlers.SubscribePush)

	// Contact-form review
	protected.GET("/admin/messages", handlers.ListContactMessages)

	router.NoRoute(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.JSON(404, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
