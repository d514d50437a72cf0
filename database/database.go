package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client
var Users *mongo.Collection
var Chats *mongo.Collection
var Messages *mongo.Collection
var Smiles *mongo.Collection
var Posts *mongo.Collection
var Contacts *mongo.Collection
var PushSubs *mongo.Collection
var WebhookEvents *mongo.Collection

func ConnectMongo(uri, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	Client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}

	// Ping MongoDB
	if err := Client.Ping(ctx, nil); err != nil {
		return err
	}

	db := Client.Database(name)
	Users = db.Collection("users")
	Chats = db.Collection("chats")
	Messages = db.Collection("messages")
	Smiles = db.Collection("smiles")
	Posts = db.Collection("posts")
	Contacts = db.Collection("contacts")
	PushSubs = db.Collection("push_subscriptions")
	WebhookEvents = db.Collection("webhook_events")

	log.Println("Connected to MongoDB successfully")
	return nil
}

// EnsureIndexes creates the uniqueness constraints the handlers rely on:
// one account per email, one chat thread per pair of users, one smile per
// ordered sender/receiver pair, one processing of each payment webhook
// event.
func EnsureIndexes(ctx context.Context) error {
	_, err := Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		// Social-only accounts may have no email; only non-empty values
		// participate in the uniqueness constraint.
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"email": bson.M{"$gt": ""}}),
	})
	if err != nil {
		return err
	}

	_, err = Chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pairKey", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = Smiles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sender", Value: 1}, {Key: "receiver", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = Messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chatId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = WebhookEvents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "eventId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	// Stripe retries deliveries for days, not months; dedup records expire.
	_, err = WebhookEvents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "receivedAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(30 * 24 * 3600),
	})
	return err
}

func DisconnectMongo() error {
	if Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
