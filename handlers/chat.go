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

// CreateChat finds or creates the single thread for me and the given user.
// Threads are keyed by the canonical unordered pair, so starting a chat
// from either side lands on the same document.
func CreateChat(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	partnerID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant ID"})
		return
	}
	if partnerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot chat with yourself"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var partner models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": partnerID}).Decode(&partner)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	pairKey := models.PairKey(userID, partnerID)

	var existing models.Chat
	err = database.Chats.FindOne(ctx, bson.M{"pairKey": pairKey}).Decode(&existing)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"id": existing.ID.Hex()})
		return
	}
	if err != mongo.ErrNoDocuments {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	newChat := models.Chat{
		ID:            primitive.NewObjectID(),
		PairKey:       pairKey,
		Participants:  models.SortedPair(userID, partnerID),
		LastMessageAt: time.Now().Unix(),
		Reads: map[string]bool{
			userID.Hex():    true,
			partnerID.Hex(): false,
		},
		CreatedAt: time.Now().Unix(),
	}

	if _, err := database.Chats.InsertOne(ctx, newChat); err != nil {
		// The unique pairKey index may have lost a race with the partner
		// opening the same thread; re-read instead of failing.
		if mongo.IsDuplicateKeyError(err) {
			if err := database.Chats.FindOne(ctx, bson.M{"pairKey": pairKey}).Decode(&existing); err == nil {
				c.JSON(http.StatusOK, gin.H{"id": existing.ID.Hex()})
				return
			}
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create chat"})
		return
	}

	if wsManager != nil {
		wsManager.SendToUser(partnerID.Hex(), "chat_created", gin.H{
			"id": newChat.ID.Hex(),
			"partner": gin.H{
				"id":       userID.Hex(),
				"fullname": partner.Fullname,
			},
		})
	}

	c.JSON(http.StatusCreated, gin.H{"id": newChat.ID.Hex()})
}

func GetChatList(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "lastMessageAt", Value: -1}})
	cursor, err := database.Chats.Find(ctx, bson.M{"participants": userID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chats"})
		return
	}
	defer cursor.Close(ctx)

	var chats []models.Chat
	if err := cursor.All(ctx, &chats); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode chats"})
		return
	}

	// Load every partner in one query.
	var partnerIDs []primitive.ObjectID
	for _, ch := range chats {
		if p := ch.Partner(userID); p != primitive.NilObjectID {
			partnerIDs = append(partnerIDs, p)
		}
	}

	partnerMap := make(map[primitive.ObjectID]models.User)
	if len(partnerIDs) > 0 {
		userCursor, err := database.Users.Find(ctx, bson.M{"_id": bson.M{"$in": partnerIDs}})
		if err == nil {
			var users []models.User
			if err := userCursor.All(ctx, &users); err == nil {
				for _, u := range users {
					partnerMap[u.ID] = u
				}
			}
		}
	}

	response := make([]map[string]interface{}, 0, len(chats))
	for _, ch := range chats {
		partnerID := ch.Partner(userID)
		partner := map[string]interface{}{
			"id":       partnerID.Hex(),
			"fullname": "Unknown User",
			"image":    models.DefaultImage,
			"online":   false,
		}
		if u, exists := partnerMap[partnerID]; exists {
			partner = publicProfile(u.ID, u.Fullname, u.Image, u.City, u.Country, u.Age, u.Gender, u.About, u.Online)
		}

		response = append(response, map[string]interface{}{
			"id":            ch.ID.Hex(),
			"lastMessage":   ch.LastMessage,
			"lastMessageAt": ch.LastMessageAt,
			"unread":        !ch.Reads[userID.Hex()],
			"partner":       partner,
		})
	}

	c.JSON(http.StatusOK, response)
}

func GetChat(c *gin.Context) {
	chatID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var chat models.Chat
	err = database.Chats.FindOne(ctx, bson.M{"_id": chatID, "participants": userID}).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found or access denied"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chat"})
		return
	}

	partnerID := chat.Partner(userID)
	partner := map[string]interface{}{
		"id":       partnerID.Hex(),
		"fullname": "Unknown User",
		"image":    models.DefaultImage,
		"online":   false,
	}
	var partnerUser models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": partnerID}).Decode(&partnerUser); err == nil {
		partner = publicProfile(partnerUser.ID, partnerUser.Fullname, partnerUser.Image, partnerUser.City, partnerUser.Country, partnerUser.Age, partnerUser.Gender, partnerUser.About, partnerUser.Online)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            chat.ID.Hex(),
		"lastMessage":   chat.LastMessage,
		"lastMessageAt": chat.LastMessageAt,
		"unread":        !chat.Reads[userID.Hex()],
		"partner":       partner,
	})
}

// DeleteChat removes a thread and its messages. Participant only.
func DeleteChat(c *gin.Context) {
	chatID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Chats.DeleteOne(ctx, bson.M{"_id": chatID, "participants": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete chat"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found or access denied"})
		return
	}

	database.Messages.DeleteMany(ctx, bson.M{"chatId": chatID})

	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted"})
}
