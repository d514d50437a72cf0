package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amora/config"
	"amora/database"
	"amora/handlers"
	"amora/middleware"
	"amora/routes"
	"amora/websocket"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	log.Println("Starting Amora server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// ===== CONNECT TO MONGODB WITH RETRY =====
	log.Println("Connecting to MongoDB...")

	var dbErr error
	for i := 1; i <= 3; i++ {
		if err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDB); err != nil {
			dbErr = err
			log.Printf("MongoDB connection attempt %d failed: %v", i, err)
			time.Sleep(2 * time.Second)
			continue
		}
		dbErr = nil
		break
	}
	if dbErr != nil {
		log.Fatal("Failed to connect to MongoDB: ", dbErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureIndexes(ctx); err != nil {
		log.Printf("Failed to create indexes: %v", err)
	}
	cancel()

	// ===== GIN MODE =====
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
		log.Println("Running in RELEASE mode")
	} else {
		gin.SetMode(gin.DebugMode)
		log.Println("Running in DEBUG mode")
	}

	handlers.Configure(cfg)
	handlers.InitOAuth()

	// ===== WEB PUSH =====
	vapidPublic, vapidPrivate := cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey
	if vapidPublic == "" || vapidPrivate == "" {
		vapidPrivate, vapidPublic, err = webpush.GenerateVAPIDKeys()
		if err != nil {
			log.Printf("Failed to generate VAPID keys: %v", err)
		} else {
			log.Println("Generated ephemeral VAPID keys - set VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY to keep subscriptions across restarts")
		}
	}
	handlers.SetVAPIDKeys(vapidPublic, vapidPrivate)

	// ===== ROUTER =====
	router := routes.SetupRouter(cfg)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "Amora running",
			"service": "healthy",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// ===== WEBSOCKET =====
	wsManager := websocket.NewManager()
	wsManager.Presence = func(userID string, online bool) {
		id, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		database.Users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"online": online}})
		wsManager.Broadcast("presence", gin.H{"userId": userID, "online": online})
	}
	go wsManager.Start()

	handlers.SetWebSocketManager(wsManager)

	wsHandler := websocket.WebSocketHandler(wsManager, func(token string) (string, error) {
		return middleware.ParseToken(token, cfg.JWTSecret)
	})
	router.GET("/ws", func(c *gin.Context) {
		wsHandler(c.Writer, c.Request)
	})

	log.Println("WebSocket endpoint: /ws")

	// ===== SERVER CONFIG =====
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("Forced shutdown: ", err)
	}

	if err := database.DisconnectMongo(); err != nil {
		log.Println("MongoDB disconnect error: ", err)
	}

	log.Println("Server stopped gracefully")
}
