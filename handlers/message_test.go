package handlers

import (
	"testing"

	"amora/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMarkPartnerReadFlipsOnlyPartnerMessages(t *testing.T) {
	me := primitive.NewObjectID()
	partner := primitive.NewObjectID()

	messages := []models.Message{
		{SenderID: partner, Content: "hey", IsRead: false},
		{SenderID: me, Content: "hi", IsRead: false},
		{SenderID: partner, Content: "how are you", IsRead: true},
	}

	markPartnerRead(messages, me)

	// Opening the thread reads the partner's messages, so the rendered
	// payload must agree with the read-on-view update.
	assert.True(t, messages[0].IsRead)
	assert.True(t, messages[2].IsRead)
	// My own message stays whatever the partner's viewing made it.
	assert.False(t, messages[1].IsRead)
}

func TestMarkPartnerReadHandlesEmptySlice(t *testing.T) {
	assert.NotPanics(t, func() {
		markPartnerRead([]models.Message{}, primitive.NewObjectID())
	})
}
