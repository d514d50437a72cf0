package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Chat is one conversation thread. Threads are keyed by the canonical
// unordered pair of participants, so exactly one document ever exists for
// two users no matter who opened the conversation. Reads maps participant
// id (hex) to whether that participant has seen the latest message.
type Chat struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	PairKey       string               `bson:"pairKey" json:"-"`
	Participants  []primitive.ObjectID `bson:"participants" json:"participants"`
	LastMessage   string               `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	LastMessageAt int64                `bson:"lastMessageAt" json:"lastMessageAt"`
	Reads         map[string]bool      `bson:"reads" json:"reads"`
	CreatedAt     int64                `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// PairKey builds the canonical thread key for two users: the lower hex id
// first, joined with a colon. PairKey(a, b) == PairKey(b, a).
func PairKey(a, b primitive.ObjectID) string {
	ah, bh := a.Hex(), b.Hex()
	if ah < bh {
		return ah + ":" + bh
	}
	return bh + ":" + ah
}

// SortedPair returns the two ids in pair-key order.
func SortedPair(a, b primitive.ObjectID) []primitive.ObjectID {
	if a.Hex() < b.Hex() {
		return []primitive.ObjectID{a, b}
	}
	return []primitive.ObjectID{b, a}
}

// Partner returns the other participant of a two-user thread.
func (c *Chat) Partner(me primitive.ObjectID) primitive.ObjectID {
	for _, p := range c.Participants {
		if p != me {
			return p
		}
	}
	return primitive.NilObjectID
}
