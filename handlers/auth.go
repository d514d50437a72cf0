package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"amora/database"
	"amora/middleware"
	"amora/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type SignupRequest struct {
	Firstname string `json:"firstname" binding:"required"`
	Lastname  string `json:"lastname" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Password2 string `json:"password2" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// signupConflict reports whether an insert failure means another signup
// with the same email won the unique index race.
func signupConflict(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Password) < 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 5 characters"})
		return
	}
	if req.Password != req.Password2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Check if email already exists
	var existingUser models.User
	err := database.Users.FindOne(ctx, bson.M{"email": email}).Decode(&existingUser)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}
	if err != mongo.ErrNoDocuments {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	hashed := string(hashedPassword)

	user := models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		PasswordHash: &hashed,
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		Fullname:     req.Firstname + " " + req.Lastname,
		Image:        models.DefaultImage,
		About:        models.DefaultAbout,
		Wallet:       models.DefaultWallet,
		Online:       true,
		Date:         time.Now().Unix(),
		Friends:      []models.FriendEntry{},
	}

	if _, err := database.Users.InsertOne(ctx, user); err != nil {
		// Two signups can race past the pre-check; the unique email index
		// decides the winner.
		if signupConflict(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	tokenString, err := middleware.IssueToken(user.ID.Hex(), cfg.JWTSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"token":   tokenString,
		"userId":  user.ID.Hex(),
	})
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Social-only accounts have no local password
	if user.PasswordHash == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	database.Users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"online": true}})

	tokenString, err := middleware.IssueToken(user.ID.Hex(), cfg.JWTSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   tokenString,
		"userId":  user.ID.Hex(),
		"message": "Login successful",
	})
}

func Logout(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database.Users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"online": false}})

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// DeleteAccount removes the user and everything hanging off it: chat
// threads and their messages, posts, smiles in either direction, and
// friend-ledger entries on other users.
func DeleteAccount(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := database.Users.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// Collect the user's threads so their messages can go too.
	cursor, err := database.Chats.Find(ctx, bson.M{"participants": userID})
	if err == nil {
		var chats []models.Chat
		if err := cursor.All(ctx, &chats); err == nil {
			var chatIDs []primitive.ObjectID
			for _, ch := range chats {
				chatIDs = append(chatIDs, ch.ID)
			}
			if len(chatIDs) > 0 {
				database.Messages.DeleteMany(ctx, bson.M{"chatId": bson.M{"$in": chatIDs}})
			}
		}
	}

	database.Chats.DeleteMany(ctx, bson.M{"participants": userID})
	database.Posts.DeleteMany(ctx, bson.M{"user": userID})
	database.Smiles.DeleteMany(ctx, bson.M{"$or": []bson.M{{"sender": userID}, {"receiver": userID}}})
	database.PushSubs.DeleteMany(ctx, bson.M{"userId": userID})
	database.Users.UpdateMany(ctx,
		bson.M{"friends.friend": userID},
		bson.M{"$pull": bson.M{"friends": bson.M{"friend": userID}}},
	)

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
