package handlers

import (
	"context"
	"net/http"
	"time"

	"amora/database"
	"amora/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type FriendRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// SendFriendRequest appends exactly one pending entry to the target's
// friend ledger.
func SendFriendRequest(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}
	if targetID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot add yourself as friend"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var target models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": targetID}).Decode(&target)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if target.HasFriendEntry(userID) {
		c.JSON(http.StatusConflict, gin.H{"error": "Friend request already sent"})
		return
	}

	// Guard against a crossing request from the other side.
	var me models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&me); err == nil && me.HasFriendEntry(targetID) {
		c.JSON(http.StatusConflict, gin.H{"error": "Friend request already pending"})
		return
	}

	entry := models.FriendEntry{
		Friend: userID,
		Status: models.FriendPending,
		Date:   time.Now().Unix(),
	}

	_, err = database.Users.UpdateOne(ctx,
		bson.M{"_id": targetID, "friends.friend": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"friends": entry}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send friend request"})
		return
	}

	notifyUser(targetID, "friend_request", gin.H{"from": userID.Hex()}, "New friend request", me.Fullname+" wants to be your friend")

	c.JSON(http.StatusCreated, gin.H{"message": "Friend request sent"})
}

// AcceptFriendRequest flips the requester's entry on my ledger from
// pending to accepted, matching strictly by id, then mirrors an accepted
// entry onto the requester's ledger so the relationship is symmetric.
func AcceptFriendRequest(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requesterID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": userID, "friends": bson.M{"$elemMatch": bson.M{
			"friend": requesterID,
			"status": models.FriendPending,
		}}},
		bson.M{"$set": bson.M{"friends.$.status": models.FriendAccepted}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept friend request"})
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending request from this user"})
		return
	}

	// Mirror side: update an existing entry or add one.
	now := time.Now().Unix()
	res, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": requesterID, "friends.friend": userID},
		bson.M{"$set": bson.M{"friends.$.status": models.FriendAccepted}},
	)
	if err == nil && res.MatchedCount == 0 {
		_, err = database.Users.UpdateOne(ctx,
			bson.M{"_id": requesterID},
			bson.M{"$push": bson.M{"friends": models.FriendEntry{
				Friend: userID,
				Status: models.FriendAccepted,
				Date:   now,
			}}},
		)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept friend request"})
		return
	}

	notifyUser(requesterID, "friend_accepted", gin.H{"by": userID.Hex()}, "Friend request accepted", "Your friend request was accepted")

	c.JSON(http.StatusOK, gin.H{"message": "Friend request accepted"})
}

// RejectFriendRequest removes the matched pending entry, never anything
// else.
func RejectFriendRequest(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requesterID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"friends": bson.M{
			"friend": requesterID,
			"status": models.FriendPending,
		}}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject friend request"})
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending request from this user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend request rejected"})
}

// UnfriendUser drops an accepted relationship from both ledgers.
func UnfriendUser(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	friendID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"friends": bson.M{"friend": friendID}}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfriend"})
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not in your friend list"})
		return
	}

	database.Users.UpdateOne(ctx,
		bson.M{"_id": friendID},
		bson.M{"$pull": bson.M{"friends": bson.M{"friend": userID}}},
	)

	c.JSON(http.StatusOK, gin.H{"message": "Unfriended"})
}

func GetFriends(c *gin.Context) {
	listFriendEntries(c, models.FriendAccepted)
}

func GetFriendRequests(c *gin.Context) {
	listFriendEntries(c, models.FriendPending)
}

func listFriendEntries(c *gin.Context, status models.FriendStatus) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var me models.User
	err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&me)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	ids := me.FriendIDs(status)
	if len(ids) == 0 {
		c.JSON(http.StatusOK, []map[string]interface{}{})
		return
	}

	cursor, err := database.Users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode users"})
		return
	}

	userMap := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}

	response := make([]map[string]interface{}, 0, len(me.Friends))
	for _, entry := range me.Friends {
		if entry.Status != status {
			continue
		}
		item := map[string]interface{}{
			"status": entry.Status,
			"date":   entry.Date,
		}
		if u, exists := userMap[entry.Friend]; exists {
			item["user"] = publicProfile(u.ID, u.Fullname, u.Image, u.City, u.Country, u.Age, u.Gender, u.About, u.Online)
		} else {
			item["user"] = map[string]interface{}{"id": entry.Friend.Hex(), "fullname": "Unknown User", "image": models.DefaultImage}
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, response)
}
