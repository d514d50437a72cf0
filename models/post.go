package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	PostPublic  = "public"
	PostPrivate = "private"
	PostFriends = "friends"
)

type PostLike struct {
	User primitive.ObjectID `bson:"user" json:"user"`
	Date int64              `bson:"date" json:"date"`
}

type PostComment struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User primitive.ObjectID `bson:"user" json:"user"`
	Body string             `bson:"body" json:"body"`
	Date int64              `bson:"date" json:"date"`
}

type Post struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User          primitive.ObjectID `bson:"user" json:"user"`
	Title         string             `bson:"title" json:"title"`
	Body          string             `bson:"body" json:"body"`
	Status        string             `bson:"status" json:"status"`
	Icon          string             `bson:"icon" json:"icon"`
	Image         string             `bson:"image,omitempty" json:"image,omitempty"`
	AllowComments bool               `bson:"allowComments" json:"allowComments"`
	Likes         []PostLike         `bson:"likes" json:"likes"`
	Comments      []PostComment      `bson:"comments" json:"comments"`
	Date          int64              `bson:"date" json:"date"`
}

// IconForStatus maps a visibility setting to its Font Awesome icon.
func IconForStatus(status string) string {
	switch status {
	case PostFriends:
		return "fa fa-group"
	case PostPrivate:
		return "fa fa-key"
	default:
		return "fa fa-globe"
	}
}
