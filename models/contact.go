package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ContactMessage is an append-only contact-form submission. Reference is a
// short id handed back to the sender for follow-up.
type ContactMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reference string             `bson:"reference" json:"reference"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Body      string             `bson:"body" json:"body"`
	Date      int64              `bson:"date" json:"date"`
}
