package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"amora/database"
	"amora/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ProfileUpdate struct {
	Firstname string `json:"firstname" form:"firstname"`
	Lastname  string `json:"lastname" form:"lastname"`
	City      string `json:"city" form:"city"`
	Country   string `json:"country" form:"country"`
	Age       string `json:"age" form:"age"`
	Gender    string `json:"gender" form:"gender"`
	About     string `json:"about" form:"about"`
}

func GetMyProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if user.Image == "" {
		user.Image = models.DefaultImage
	}

	pending := 0
	for _, f := range user.Friends {
		if f.Status == models.FriendPending {
			pending++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              user.ID.Hex(),
		"email":           user.Email,
		"firstname":       user.Firstname,
		"lastname":        user.Lastname,
		"fullname":        user.Fullname,
		"image":           user.Image,
		"city":            user.City,
		"country":         user.Country,
		"age":             user.Age,
		"gender":          user.Gender,
		"about":           user.About,
		"online":          user.Online,
		"wallet":          user.Wallet,
		"date":            user.Date,
		"friends":         len(user.FriendIDs(models.FriendAccepted)),
		"pendingRequests": pending,
	})
}

func GetUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, publicProfile(user.ID, user.Fullname, user.Image, user.City, user.Country, user.Age, user.Gender, user.About, user.Online))
}

func UpdateMyProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var data ProfileUpdate

	if c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
			return
		}
	} else {
		if err := c.Request.ParseMultipartForm(10 << 20); err != nil && err != http.ErrNotMultipart {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
			return
		}
		if err := c.ShouldBind(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
			return
		}
	}

	set := bson.M{}
	if data.Firstname != "" {
		set["firstname"] = data.Firstname
	}
	if data.Lastname != "" {
		set["lastname"] = data.Lastname
	}
	if data.City != "" {
		set["city"] = data.City
	}
	if data.Country != "" {
		set["country"] = data.Country
	}
	if data.Age != "" {
		set["age"] = data.Age
	}
	if data.Gender != "" {
		set["gender"] = data.Gender
	}
	if data.About != "" {
		set["about"] = data.About
	}

	// Keep fullname consistent with the name parts.
	if data.Firstname != "" || data.Lastname != "" {
		var current models.User
		if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&current); err == nil {
			first, last := current.Firstname, current.Lastname
			if data.Firstname != "" {
				first = data.Firstname
			}
			if data.Lastname != "" {
				last = data.Lastname
			}
			set["fullname"] = first + " " + last
		}
	}

	avatarFile, _, err := c.Request.FormFile("image")
	if err == nil {
		defer avatarFile.Close()

		cld, err := cloudinary.NewFromURL(cfg.CloudinaryURL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Cloudinary configuration error"})
			return
		}

		uploadParams := uploader.UploadParams{
			Folder:         "amora/avatars",
			PublicID:       userID.Hex(),
			Transformation: "c_limit,w_400,h_400,q_auto",
		}

		uploadResult, err := cld.Upload.Upload(ctx, avatarFile, uploadParams)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
			return
		}

		set["image"] = uploadResult.SecureURL
	}

	if len(set) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No changes to update"})
		return
	}

	result, err := database.Users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		log.Printf("UpdateMyProfile error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// UploadPhoto pushes a standalone image (post attachments) to Cloudinary
// and returns the hosted URL.
func UploadPhoto(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
		return
	}

	photoFile, _, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo file provided"})
		return
	}
	defer photoFile.Close()

	cld, err := cloudinary.NewFromURL(cfg.CloudinaryURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cloudinary configuration error"})
		return
	}

	uploadParams := uploader.UploadParams{
		Folder:         "amora/photos",
		PublicID:       userID.Hex() + "_" + time.Now().Format("20060102150405"),
		Transformation: "c_limit,w_800,h_800,q_auto",
	}

	uploadResult, err := cld.Upload.Upload(ctx, photoFile, uploadParams)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": uploadResult.SecureURL})
}
