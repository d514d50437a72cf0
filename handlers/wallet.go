package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"amora/database"
	"amora/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fixed top-up tiers: charge amount in minor currency units mapped to the
// message credits granted once the charge succeeds.
var walletTiers = map[int64]int{
	1000: 20,
	2000: 50,
	3000: 100,
	4000: 200,
}

// walletCreditForAmount returns the credit for a charge amount, and
// whether the amount is one of the fixed tiers.
func walletCreditForAmount(amount int64) (int, bool) {
	credit, ok := walletTiers[amount]
	return credit, ok
}

// debitWallet takes credits off a user's balance atomically and returns
// the new balance. No floor: the balance is allowed to go negative.
func debitWallet(ctx context.Context, userID primitive.ObjectID, amount int) (int, error) {
	return adjustWallet(ctx, userID, -amount)
}

// creditWallet adds credits to a user's balance atomically and returns
// the new balance.
func creditWallet(ctx context.Context, userID primitive.ObjectID, amount int) (int, error) {
	return adjustWallet(ctx, userID, amount)
}

func adjustWallet(ctx context.Context, userID primitive.ObjectID, delta int) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := database.Users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"wallet": delta}},
		opts,
	).Decode(&user)
	if err != nil {
		return 0, err
	}
	return user.Wallet, nil
}

// GetWallet returns the balance and the available top-up tiers.
func GetWallet(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	tiers := make([]gin.H, 0, len(walletTiers))
	for _, amount := range []int64{1000, 2000, 3000, 4000} {
		tiers = append(tiers, gin.H{"amount": amount, "credits": walletTiers[amount]})
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet": user.Wallet,
		"tiers":  tiers,
	})
}

// CreateTopUp starts a card charge for one of the fixed tiers: makes sure
// the user has a Stripe customer, then creates a PaymentIntent carrying
// the user id and credit amount in its metadata. The wallet is only
// credited when the webhook confirms the payment.
func CreateTopUp(c *gin.Context) {
	var req struct {
		Amount int64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	credits, ok := walletCreditForAmount(req.Amount)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported top-up amount"})
		return
	}

	userID, authed := requireUserID(c)
	if !authed {
		return
	}

	if cfg.StripeSecretKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments not configured"})
		return
	}
	stripe.Key = cfg.StripeSecretKey

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	customerID := user.StripeCustomerID
	if customerID == "" {
		custParams := &stripe.CustomerParams{
			Email: stripe.String(user.Email),
			Name:  stripe.String(user.Fullname),
		}
		custParams.AddMetadata("userId", userID.Hex())

		cust, err := customer.New(custParams)
		if err != nil {
			log.Printf("Stripe customer creation failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create payment customer"})
			return
		}
		customerID = cust.ID

		database.Users.UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{"$set": bson.M{"stripeCustomerId": customerID}},
		)
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		Customer: stripe.String(customerID),
	}
	piParams.AddMetadata("userId", userID.Hex())
	piParams.AddMetadata("credits", strconv.Itoa(credits))
	piParams.SetIdempotencyKey(uuid.NewString())

	pi, err := paymentintent.New(piParams)
	if err != nil {
		log.Printf("Stripe payment intent creation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to start payment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"paymentIntentId": pi.ID,
		"clientSecret":    pi.ClientSecret,
		"amount":          req.Amount,
		"credits":         credits,
	})
}

// recordWebhookEvent claims a gateway event id for processing. Stripe
// delivers webhooks at least once; the unique index on eventId makes a
// redelivery report first=false so the event is only acted on one time.
func recordWebhookEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	_, err := database.WebhookEvents.InsertOne(ctx, bson.M{
		"eventId":    eventID,
		"type":       eventType,
		"receivedAt": time.Now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// StripeWebhook verifies the gateway signature and credits the wallet on
// payment_intent.succeeded. The credit amount comes from the charge tier,
// not from the intent metadata, so a tampered metadata value cannot grant
// more credits than the charge paid for. Each event id is processed once;
// redeliveries are acknowledged without crediting again.
func StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), cfg.StripeWebhookSecret)
	if err != nil {
		log.Printf("Stripe webhook signature verification failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	if event.Type != "payment_intent.succeeded" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Printf("Stripe webhook decode failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	credits, ok := walletCreditForAmount(pi.Amount)
	if !ok {
		log.Printf("Stripe webhook: unknown top-up amount %d on %s", pi.Amount, pi.ID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	userID, err := primitive.ObjectIDFromHex(pi.Metadata["userId"])
	if err != nil {
		log.Printf("Stripe webhook: missing user id on %s", pi.ID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first, err := recordWebhookEvent(ctx, event.ID, string(event.Type))
	if err != nil {
		log.Printf("Stripe webhook: dedup record failed for %s: %v", event.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return
	}
	if !first {
		log.Printf("Stripe webhook: duplicate delivery of %s ignored", event.ID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	balance, err := creditWallet(ctx, userID, credits)
	if err != nil {
		log.Printf("Stripe webhook: wallet credit failed for %s: %v", userID.Hex(), err)
		// Release the claim so the gateway's retry can credit.
		database.WebhookEvents.DeleteOne(ctx, bson.M{"eventId": event.ID})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to credit wallet"})
		return
	}

	log.Printf("Wallet credited: user=%s credits=%d balance=%d", userID.Hex(), credits, balance)

	if wsManager != nil {
		wsManager.SendToUser(userID.Hex(), "wallet_credited", gin.H{
			"credits": credits,
			"wallet":  balance,
		})
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
