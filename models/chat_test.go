package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	require.Equal(t, PairKey(a, b), PairKey(b, a))
}

func TestPairKeySortsLowerIDFirst(t *testing.T) {
	a, err := primitive.ObjectIDFromHex("000000000000000000000001")
	require.NoError(t, err)
	b, err := primitive.ObjectIDFromHex("000000000000000000000002")
	require.NoError(t, err)

	assert.Equal(t, a.Hex()+":"+b.Hex(), PairKey(a, b))
	assert.Equal(t, a.Hex()+":"+b.Hex(), PairKey(b, a))
}

func TestPairKeyDistinctPairsDiffer(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	assert.NotEqual(t, PairKey(a, b), PairKey(a, c))
}

func TestSortedPair(t *testing.T) {
	a, _ := primitive.ObjectIDFromHex("000000000000000000000001")
	b, _ := primitive.ObjectIDFromHex("000000000000000000000002")

	assert.Equal(t, []primitive.ObjectID{a, b}, SortedPair(a, b))
	assert.Equal(t, []primitive.ObjectID{a, b}, SortedPair(b, a))
}

func TestChatPartner(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	chat := Chat{Participants: SortedPair(a, b)}

	assert.Equal(t, b, chat.Partner(a))
	assert.Equal(t, a, chat.Partner(b))

	empty := Chat{}
	assert.Equal(t, primitive.NilObjectID, empty.Partner(a))
}
