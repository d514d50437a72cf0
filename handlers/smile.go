package handlers

import (
	"context"
	"net/http"
	"time"

	"amora/database"
	"amora/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SmileRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// SendSmile drops a single interest signal on another member. One smile
// per sender/receiver pair; a second attempt is a conflict.
func SendSmile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SmileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receiverID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}
	if receiverID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot smile at yourself"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := database.Users.CountDocuments(ctx, bson.M{"_id": receiverID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	smile := models.Smile{
		ID:         primitive.NewObjectID(),
		Sender:     userID,
		Receiver:   receiverID,
		SenderSent: true,
		Date:       time.Now().Unix(),
	}

	if _, err := database.Smiles.InsertOne(ctx, smile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Smile already sent"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send smile"})
		return
	}

	var sender models.User
	database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&sender)
	notifyUser(receiverID, "new_smile", gin.H{"from": userID.Hex()}, "Someone smiled at you", sender.Fullname+" sent you a smile")

	c.JSON(http.StatusCreated, gin.H{"message": "Smile sent"})
}

// GetSmiles lists smiles I have received, newest first. The first view
// acknowledges them: receiverReceived flips true.
func GetSmiles(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := database.Smiles.Find(ctx, bson.M{"receiver": userID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch smiles"})
		return
	}
	defer cursor.Close(ctx)

	var smiles []models.Smile
	if err := cursor.All(ctx, &smiles); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode smiles"})
		return
	}

	var senderIDs []primitive.ObjectID
	for _, s := range smiles {
		senderIDs = append(senderIDs, s.Sender)
	}

	senderMap := make(map[primitive.ObjectID]models.User)
	if len(senderIDs) > 0 {
		userCursor, err := database.Users.Find(ctx, bson.M{"_id": bson.M{"$in": senderIDs}})
		if err == nil {
			var users []models.User
			if err := userCursor.All(ctx, &users); err == nil {
				for _, u := range users {
					senderMap[u.ID] = u
				}
			}
		}
	}

	response := make([]map[string]interface{}, 0, len(smiles))
	for _, s := range smiles {
		item := map[string]interface{}{
			"id":           s.ID.Hex(),
			"date":         s.Date,
			"acknowledged": s.ReceiverReceived,
		}
		if u, exists := senderMap[s.Sender]; exists {
			item["sender"] = publicProfile(u.ID, u.Fullname, u.Image, u.City, u.Country, u.Age, u.Gender, u.About, u.Online)
		} else {
			item["sender"] = map[string]interface{}{"id": s.Sender.Hex(), "fullname": "Unknown User", "image": models.DefaultImage}
		}
		response = append(response, item)
	}

	// Viewing acknowledges.
	database.Smiles.UpdateMany(ctx,
		bson.M{"receiver": userID, "receiverReceived": false},
		bson.M{"$set": bson.M{"receiverReceived": true}},
	)

	c.JSON(http.StatusOK, response)
}

// WithdrawSmile deletes my outstanding smile to the given user outright.
func WithdrawSmile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	// Accept the target from query or body, like RemoveFavorite upstream.
	target := c.Query("userId")
	if target == "" {
		var req SmileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}
		target = req.UserID
	}

	receiverID, err := primitive.ObjectIDFromHex(target)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Smiles.DeleteOne(ctx, bson.M{"sender": userID, "receiver": receiverID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to withdraw smile"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Smile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Smile withdrawn"})
}
