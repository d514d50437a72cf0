package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"amora/database"
	"amora/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CreatePostRequest struct {
	Title         string `json:"title" binding:"required"`
	Body          string `json:"body" binding:"required"`
	Status        string `json:"status" binding:"required,oneof=public private friends"`
	Image         string `json:"image"`
	AllowComments *bool  `json:"allowComments"`
}

func CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	allowComments := true
	if req.AllowComments != nil {
		allowComments = *req.AllowComments
	}

	post := models.Post{
		ID:            primitive.NewObjectID(),
		User:          userID,
		Title:         req.Title,
		Body:          req.Body,
		Status:        req.Status,
		Icon:          models.IconForStatus(req.Status),
		Image:         req.Image,
		AllowComments: allowComments,
		Likes:         []models.PostLike{},
		Comments:      []models.PostComment{},
		Date:          time.Now().Unix(),
	}

	if _, err := database.Posts.InsertOne(ctx, post); err != nil {
		log.Printf("CreatePost error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"postId":  post.ID.Hex(),
	})
}

// GetFeed returns the visibility-scoped wall: my own posts, everyone's
// public posts, and friends-only posts from members whose friendship with
// me is accepted.
func GetFeed(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var me models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&me); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch current user"})
		return
	}

	friendIDs := me.FriendIDs(models.FriendAccepted)

	visibility := []bson.M{
		{"user": userID},
		{"status": models.PostPublic},
	}
	if len(friendIDs) > 0 {
		visibility = append(visibility, bson.M{
			"status": models.PostFriends,
			"user":   bson.M{"$in": friendIDs},
		})
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(100)
	cursor, err := database.Posts.Find(ctx, bson.M{"$or": visibility}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode posts"})
		return
	}

	c.JSON(http.StatusOK, decoratePosts(ctx, posts, userID))
}

func GetMyPosts(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := database.Posts.Find(ctx, bson.M{"user": userID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode posts"})
		return
	}

	c.JSON(http.StatusOK, decoratePosts(ctx, posts, userID))
}

// decoratePosts attaches author profiles and a likedByMe flag.
func decoratePosts(ctx context.Context, posts []models.Post, viewer primitive.ObjectID) []map[string]interface{} {
	var authorIDs []primitive.ObjectID
	seen := make(map[primitive.ObjectID]bool)
	for _, p := range posts {
		if !seen[p.User] {
			seen[p.User] = true
			authorIDs = append(authorIDs, p.User)
		}
	}

	authorMap := make(map[primitive.ObjectID]models.User)
	if len(authorIDs) > 0 {
		cursor, err := database.Users.Find(ctx, bson.M{"_id": bson.M{"$in": authorIDs}})
		if err == nil {
			var users []models.User
			if err := cursor.All(ctx, &users); err == nil {
				for _, u := range users {
					authorMap[u.ID] = u
				}
			}
		}
	}

	result := make([]map[string]interface{}, 0, len(posts))
	for _, p := range posts {
		likedByMe := false
		for _, like := range p.Likes {
			if like.User == viewer {
				likedByMe = true
				break
			}
		}

		author := map[string]interface{}{"id": p.User.Hex(), "fullname": "Unknown User", "image": models.DefaultImage}
		if u, exists := authorMap[p.User]; exists {
			author = publicProfile(u.ID, u.Fullname, u.Image, u.City, u.Country, u.Age, u.Gender, u.About, u.Online)
		}

		result = append(result, map[string]interface{}{
			"id":            p.ID.Hex(),
			"title":         p.Title,
			"body":          p.Body,
			"status":        p.Status,
			"icon":          p.Icon,
			"image":         p.Image,
			"allowComments": p.AllowComments,
			"likes":         len(p.Likes),
			"likedByMe":     likedByMe,
			"comments":      p.Comments,
			"date":          p.Date,
			"user":          author,
		})
	}
	return result
}

// LikePost toggles my like. Both directions are single atomic array
// updates, so concurrent likes cannot lose each other.
func LikePost(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Try to unlike first; if nothing matched, this is a like.
	result, err := database.Posts.UpdateOne(ctx,
		bson.M{"_id": postID, "likes.user": userID},
		bson.M{"$pull": bson.M{"likes": bson.M{"user": userID}}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}
	if result.ModifiedCount > 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Post unliked", "liked": false})
		return
	}

	like := models.PostLike{User: userID, Date: time.Now().Unix()}
	result, err = database.Posts.UpdateOne(ctx,
		bson.M{"_id": postID, "likes.user": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"likes": like}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post liked", "liked": true})
}

type CommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// CommentPost appends a comment unless the author disabled commenting.
func CommentPost(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var post models.Post
	err = database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !post.AllowComments {
		c.JSON(http.StatusForbidden, gin.H{"error": "Comments are disabled on this post"})
		return
	}

	comment := models.PostComment{
		ID:   primitive.NewObjectID(),
		User: userID,
		Body: req.Body,
		Date: time.Now().Unix(),
	}

	if _, err := database.Posts.UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": comment}},
	); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	if post.User != userID {
		notifyUser(post.User, "new_comment", gin.H{"postId": postID.Hex()}, "New comment", "Someone commented on your post")
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Comment added", "commentId": comment.ID.Hex()})
}

// DeletePost removes a post. Owner only.
func DeletePost(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Posts.DeleteOne(ctx, bson.M{"_id": postID, "user": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found or access denied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}
