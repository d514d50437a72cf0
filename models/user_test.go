package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFriendIDsFiltersByStatus(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	u := User{Friends: []FriendEntry{
		{Friend: a, Status: FriendAccepted},
		{Friend: b, Status: FriendPending},
		{Friend: c, Status: FriendAccepted},
	}}

	assert.Equal(t, []primitive.ObjectID{a, c}, u.FriendIDs(FriendAccepted))
	assert.Equal(t, []primitive.ObjectID{b}, u.FriendIDs(FriendPending))

	empty := User{}
	assert.Nil(t, empty.FriendIDs(FriendAccepted))
}

func TestHasFriendEntry(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	u := User{Friends: []FriendEntry{{Friend: a, Status: FriendPending}}}

	assert.True(t, u.HasFriendEntry(a))
	assert.False(t, u.HasFriendEntry(b))
}
