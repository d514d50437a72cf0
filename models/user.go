package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	// DefaultImage is the placeholder avatar for accounts without an upload.
	DefaultImage = "/img/user.png"
	// DefaultAbout seeds the bio of a fresh profile.
	DefaultAbout = "Actively seeking for relationship"
	// DefaultWallet is the number of free message credits on signup.
	DefaultWallet = 3
)

type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
)

// FriendEntry is one row of a user's friend ledger. A pending entry on B's
// list means A has asked B; acceptance flips the status and mirrors an
// accepted entry onto A's list so the relationship is symmetric.
type FriendEntry struct {
	Friend primitive.ObjectID `bson:"friend" json:"friend"`
	Status FriendStatus       `bson:"status" json:"status"`
	Date   int64              `bson:"date" json:"date"`
}

type User struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Email        string  `bson:"email" json:"email"`
	PasswordHash *string `bson:"password,omitempty" json:"-"`
	FacebookID   *string `bson:"facebook,omitempty" json:"-"`
	GoogleID     *string `bson:"google,omitempty" json:"-"`

	Firstname string `bson:"firstname" json:"firstname"`
	Lastname  string `bson:"lastname" json:"lastname"`
	Fullname  string `bson:"fullname" json:"fullname"`
	Image     string `bson:"image" json:"image"`
	City      string `bson:"city" json:"city"`
	Country   string `bson:"country" json:"country"`
	Age       string `bson:"age" json:"age"`
	Gender    string `bson:"gender" json:"gender"`
	About     string `bson:"about" json:"about"`

	Online bool `bson:"online" json:"online"`
	Wallet int  `bson:"wallet" json:"-"`

	StripeCustomerID string `bson:"stripeCustomerId,omitempty" json:"-"`

	Date    int64         `bson:"date" json:"date"`
	Friends []FriendEntry `bson:"friends" json:"-"`
}

// FriendIDs returns the ids of entries matching the given status.
func (u *User) FriendIDs(status FriendStatus) []primitive.ObjectID {
	var ids []primitive.ObjectID
	for _, f := range u.Friends {
		if f.Status == status {
			ids = append(ids, f.Friend)
		}
	}
	return ids
}

// HasFriendEntry reports whether id already appears on the ledger,
// regardless of status.
func (u *User) HasFriendEntry(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f.Friend == id {
			return true
		}
	}
	return false
}
