package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"amora/database"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PushSubscription stores one browser's push endpoint for a user.
type PushSubscription struct {
	ID     primitive.ObjectID   `bson:"_id,omitempty"`
	UserID primitive.ObjectID   `bson:"userId"`
	Sub    webpush.Subscription `bson:"sub"`
}

var vapidPublicKey string
var vapidPrivateKey string

// SetVAPIDKeys hands the web-push keypair to the handler package. Called
// from main after config load (keys are generated there when unset).
func SetVAPIDKeys(publicKey, privateKey string) {
	vapidPublicKey = publicKey
	vapidPrivateKey = privateKey
}

func GetVapidPublicKey(c *gin.Context) {
	if vapidPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": vapidPublicKey})
}

// SubscribePush upserts the caller's push subscription.
func SubscribePush(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var sub webpush.Subscription
	if err := c.ShouldBindJSON(&sub); err != nil || sub.Endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	_, err := database.PushSubs.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"sub": sub}},
		opts,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Subscribed"})
}

// notifyUser fans a notification out to a user: a websocket event when a
// payload is given, and a web push when the user has a subscription. Push
// delivery runs inline; callers on the hot path wrap this in a goroutine.
func notifyUser(userID primitive.ObjectID, event string, payload gin.H, title, body string) {
	if wsManager != nil && payload != nil {
		wsManager.SendToUser(userID.Hex(), event, payload)
	}

	if vapidPrivateKey == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var sub PushSubscription
	err := database.PushSubs.FindOne(ctx, bson.M{"userId": userID}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return
	}
	if err != nil {
		log.Printf("Failed to find push subscription: %v", err)
		return
	}

	payloadBytes, err := json.Marshal(map[string]string{
		"title": title,
		"body":  body,
	})
	if err != nil {
		return
	}

	resp, err := webpush.SendNotification(payloadBytes, &sub.Sub, &webpush.Options{
		Subscriber:      cfg.PushSubscriber,
		VAPIDPublicKey:  vapidPublicKey,
		VAPIDPrivateKey: vapidPrivateKey,
		TTL:             30,
	})
	if err != nil {
		log.Printf("Failed to send push: %v", err)
		return
	}
	resp.Body.Close()

	// Endpoints answering 404/410 are gone; drop the subscription.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		database.PushSubs.DeleteOne(ctx, bson.M{"userId": userID})
	}
}
