package handlers

import (
	"context"
	"net/http"
	"time"

	"amora/database"
	"amora/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetMembers lists other members for browsing, optionally filtered by
// gender, city or country, newest first.
func GetMembers(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"_id": bson.M{"$ne": userID}}
	if gender := c.Query("gender"); gender != "" {
		filter["gender"] = gender
	}
	if city := c.Query("city"); city != "" {
		filter["city"] = city
	}
	if country := c.Query("country"); country != "" {
		filter["country"] = country
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(100)
	cursor, err := database.Users.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode members"})
		return
	}

	response := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		response = append(response, publicProfile(u.ID, u.Fullname, u.Image, u.City, u.Country, u.Age, u.Gender, u.About, u.Online))
	}

	c.JSON(http.StatusOK, response)
}
