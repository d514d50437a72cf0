package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"amora/config"
	"amora/database"
	"amora/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const webhookTestSecret = "whsec_test_secret"

// stripeSignature builds the header the gateway sends: an HMAC-SHA256 of
// "<timestamp>.<payload>" keyed with the endpoint secret.
func stripeSignature(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(payload []byte, signature string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/stripe/webhook", StripeWebhook)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	router.ServeHTTP(w, req)
	return w
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	Configure(&config.Config{StripeWebhookSecret: webhookTestSecret})

	payload := []byte(`{"id":"evt_bad","type":"payment_intent.succeeded"}`)
	w := postWebhook(payload, "t=1,v1=deadbeef")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid signature")
}

func TestStripeWebhookAcknowledgesOtherEventTypes(t *testing.T) {
	Configure(&config.Config{StripeWebhookSecret: webhookTestSecret})

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_created","api_version":%q,"type":"payment_intent.created","data":{"object":{}}}`,
		stripe.APIVersion))
	w := postWebhook(payload, stripeSignature(payload, webhookTestSecret, time.Now()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "received")
}

func TestStripeWebhookIgnoresUnknownTopUpAmount(t *testing.T) {
	Configure(&config.Config{StripeWebhookSecret: webhookTestSecret})

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_odd","api_version":%q,"type":"payment_intent.succeeded","data":{"object":{"id":"pi_odd","amount":1234}}}`,
		stripe.APIVersion))
	w := postWebhook(payload, stripeSignature(payload, webhookTestSecret, time.Now()))

	assert.Equal(t, http.StatusOK, w.Code)
}

// Needs a running MongoDB; skipped otherwise. The gateway delivers
// webhooks at least once, so a redelivered success event must not credit
// the wallet a second time.
func TestStripeWebhookCreditsOnceAcrossRedeliveries(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	Configure(&config.Config{StripeWebhookSecret: webhookTestSecret})

	require.NoError(t, database.ConnectMongo(uri, "amora_webhook_test"))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		database.Client.Database("amora_webhook_test").Drop(ctx)
		database.DisconnectMongo()
	})

	ctx := context.Background()
	require.NoError(t, database.EnsureIndexes(ctx))

	userID := primitive.NewObjectID()
	_, err := database.Users.InsertOne(ctx, models.User{
		ID:     userID,
		Email:  "payer@example.com",
		Wallet: models.DefaultWallet,
	})
	require.NoError(t, err)

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_once","api_version":%q,"type":"payment_intent.succeeded","data":{"object":{"id":"pi_once","amount":1000,"metadata":{"userId":%q}}}}`,
		stripe.APIVersion, userID.Hex()))

	for i := 0; i < 2; i++ {
		w := postWebhook(payload, stripeSignature(payload, webhookTestSecret, time.Now()))
		require.Equal(t, http.StatusOK, w.Code, "delivery %d", i+1)
	}

	var user models.User
	require.NoError(t, database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user))
	assert.Equal(t, models.DefaultWallet+20, user.Wallet)
}
