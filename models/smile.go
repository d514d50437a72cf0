package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Smile is a one-way interest signal. Its existence means the interest is
// outstanding; ReceiverReceived flips on the receiver's first view and
// withdrawal deletes the document outright.
type Smile struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sender           primitive.ObjectID `bson:"sender" json:"sender"`
	Receiver         primitive.ObjectID `bson:"receiver" json:"receiver"`
	SenderSent       bool               `bson:"senderSent" json:"senderSent"`
	ReceiverReceived bool               `bson:"receiverReceived" json:"receiverReceived"`
	Date             int64              `bson:"date" json:"date"`
}
