package handlers

import (
	"net/http"

	"amora/config"
	"amora/models"
	"amora/websocket"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var cfg *config.Config
var wsManager *websocket.Manager

// Configure hands the loaded configuration to the handler package.
func Configure(c *config.Config) {
	cfg = c
}

// SetWebSocketManager sets the global WebSocket manager
func SetWebSocketManager(manager *websocket.Manager) {
	wsManager = manager
}

// requireUserID pulls the authenticated user id set by the JWT middleware.
// Writes the 401 itself so callers can just return on !ok.
func requireUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return userID, true
}

// publicProfile is the view of a user shown to other members.
func publicProfile(id primitive.ObjectID, fullname, image, city, country, age, gender, about string, online bool) map[string]interface{} {
	if image == "" {
		image = models.DefaultImage
	}
	return map[string]interface{}{
		"id":       id.Hex(),
		"fullname": fullname,
		"image":    image,
		"city":     city,
		"country":  country,
		"age":      age,
		"gender":   gender,
		"about":    about,
		"online":   online,
	}
}
