package handlers

import (
	"context"
	"log"
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

const messageCost = 1

// SendMessage appends a message to a thread, paying one wallet credit.
// Debit and insert form a compensating pair: the credit is charged first
// and refunded if the insert fails, so a stored message is always a paid
// message. The balance may go negative; sending is never blocked on funds.
func SendMessage(c *gin.Context) {
	var req struct {
		ChatID  string `json:"chatId" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	chatID, err := primitive.ObjectIDFromHex(req.ChatID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Verify user is in the chat
	var chat models.Chat
	err = database.Chats.FindOne(ctx, bson.M{"_id": chatID, "participants": userID}).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to chat"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify chat access"})
		return
	}

	balance, err := debitWallet(ctx, userID, messageCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to charge wallet"})
		return
	}

	message := models.Message{
		ID:        primitive.NewObjectID(),
		ChatID:    chatID,
		SenderID:  userID,
		Content:   req.Content,
		IsRead:    false,
		CreatedAt: time.Now().Unix(),
	}

	if _, err := database.Messages.InsertOne(ctx, message); err != nil {
		log.Printf("SendMessage insert error: %v", err)
		// Refund the debit so the failed send is not charged.
		if _, cerr := creditWallet(ctx, userID, messageCost); cerr != nil {
			log.Printf("SendMessage refund error: %v", cerr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	partnerID := chat.Partner(userID)

	// Read by me, unread by the partner.
	_, err = database.Chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{
			"lastMessage":               req.Content,
			"lastMessageAt":             message.CreatedAt,
			"reads." + userID.Hex():    true,
			"reads." + partnerID.Hex(): false,
		}},
	)
	if err != nil {
		log.Printf("Update chat lastMessage error: %v", err)
		// Not critical - message was already saved
	}

	if wsManager != nil {
		wsManager.SendToUser(partnerID.Hex(), "new_message", gin.H{
			"id":        message.ID.Hex(),
			"chatId":    chatID.Hex(),
			"senderId":  userID.Hex(),
			"content":   message.Content,
			"createdAt": message.CreatedAt,
		})
	}

	go func() {
		var sender models.User
		database.Users.FindOne(context.Background(), bson.M{"_id": userID}).Decode(&sender)
		notifyUser(partnerID, "new_message", nil, sender.Fullname+" sent a message", req.Content)
	}()

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent",
		"id":      message.ID.Hex(),
		"wallet":  balance,
	})
}

// markPartnerRead mirrors the read-on-view update in a slice that was
// fetched before the update ran, so the viewer never sees the partner's
// just-read messages rendered as unread.
func markPartnerRead(messages []models.Message, viewer primitive.ObjectID) {
	for i := range messages {
		if messages[i].SenderID != viewer {
			messages[i].IsRead = true
		}
	}
}

// GetMessages returns a thread's messages oldest first. Opening a thread
// counts as reading it: my read marker flips true and the partner's
// messages are marked read.
func GetMessages(c *gin.Context) {
	chatID, err := primitive.ObjectIDFromHex(c.Param("chatId"))
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
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to chat"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify chat access"})
		return
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := database.Messages.Find(ctx, bson.M{"chatId": chatID}, findOptions)
	if err != nil {
		log.Printf("GetMessages find error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		log.Printf("GetMessages decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode messages"})
		return
	}

	database.Messages.UpdateMany(ctx,
		bson.M{"chatId": chatID, "senderId": bson.M{"$ne": userID}, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	database.Chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"reads." + userID.Hex(): true}},
	)

	if messages == nil {
		messages = []models.Message{}
	}
	markPartnerRead(messages, userID)

	c.JSON(http.StatusOK, messages)
}

// MarkChatRead flips my read marker without fetching messages.
func MarkChatRead(c *gin.Context) {
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

	count, err := database.Chats.CountDocuments(ctx, bson.M{"_id": chatID, "participants": userID})
	if err != nil || count == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to chat"})
		return
	}

	result, err := database.Messages.UpdateMany(ctx,
		bson.M{"chatId": chatID, "senderId": bson.M{"$ne": userID}, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		log.Printf("MarkChatRead error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark as read"})
		return
	}

	database.Chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"reads." + userID.Hex(): true}},
	)

	if wsManager != nil {
		wsManager.SendToUser(c.GetString("userId"), "message_read", gin.H{
			"chatId":       chatID.Hex(),
			"updatedCount": result.ModifiedCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Marked as read",
		"updatedCount": result.ModifiedCount,
	})
}
