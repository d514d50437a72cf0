package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"amora/database"
	"amora/middleware"
	"amora/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

var (
	googleOAuthConfig   *oauth2.Config
	facebookOAuthConfig *oauth2.Config
)

// InitOAuth builds the provider configs. Providers without credentials are
// left nil and their routes answer 503.
func InitOAuth() {
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		googleOAuthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthRedirectBase + "/api/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
		log.Println("Google OAuth configured")
	} else {
		log.Println("Google OAuth not configured - set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}

	if cfg.FacebookClientID != "" && cfg.FacebookClientSecret != "" {
		facebookOAuthConfig = &oauth2.Config{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			RedirectURL:  cfg.OAuthRedirectBase + "/api/facebook/callback",
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		}
		log.Println("Facebook OAuth configured")
	} else {
		log.Println("Facebook OAuth not configured - set FACEBOOK_CLIENT_ID and FACEBOOK_CLIENT_SECRET")
	}
}

type googleUserInfo struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

type facebookUserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func GetGoogleAuthURL(c *gin.Context) {
	if googleOAuthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}
	url := googleOAuthConfig.AuthCodeURL("state", oauth2.AccessTypeOnline)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func GetFacebookAuthURL(c *gin.Context) {
	if facebookOAuthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Facebook OAuth not configured"})
		return
	}
	url := facebookOAuthConfig.AuthCodeURL("state", oauth2.AccessTypeOnline)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func GoogleOAuthCallback(c *gin.Context) {
	if googleOAuthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code missing"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	token, err := googleOAuthConfig.Exchange(ctx, code)
	if err != nil {
		log.Printf("Google token exchange failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token exchange failed"})
		return
	}

	client := googleOAuthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user info"})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read user info"})
		return
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil || info.ID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode user info"})
		return
	}

	socialLogin(c, "google", info.ID, info.Email, info.GivenName, info.FamilyName, info.Picture)
}

func FacebookOAuthCallback(c *gin.Context) {
	if facebookOAuthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Facebook OAuth not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code missing"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	token, err := facebookOAuthConfig.Exchange(ctx, code)
	if err != nil {
		log.Printf("Facebook token exchange failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token exchange failed"})
		return
	}

	client := facebookOAuthConfig.Client(ctx, token)
	resp, err := client.Get("https://graph.facebook.com/me?fields=id,email,first_name,last_name")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user info"})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read user info"})
		return
	}

	var info facebookUserInfo
	if err := json.Unmarshal(body, &info); err != nil || info.ID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode user info"})
		return
	}

	socialLogin(c, "facebook", info.ID, info.Email, info.FirstName, info.LastName, "")
}

// socialLogin finds the account for a provider identity, creating it on
// first login, then answers with a session token like Login does.
func socialLogin(c *gin.Context, provider, providerID, email, firstname, lastname, picture string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{provider: providerID}).Decode(&user)
	if err == mongo.ErrNoDocuments && email != "" {
		// Link the provider to an existing local account with the same email.
		err = database.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
		if err == nil {
			_, err = database.Users.UpdateOne(ctx,
				bson.M{"_id": user.ID},
				bson.M{"$set": bson.M{provider: providerID, "online": true}},
			)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
				return
			}
		}
	}

	if err == mongo.ErrNoDocuments {
		image := models.DefaultImage
		if picture != "" {
			image = picture
		}
		user = models.User{
			ID:        primitive.NewObjectID(),
			Email:     email,
			Firstname: firstname,
			Lastname:  lastname,
			Fullname:  firstname + " " + lastname,
			Image:     image,
			About:     models.DefaultAbout,
			Wallet:    models.DefaultWallet,
			Online:    true,
			Date:      time.Now().Unix(),
			Friends:   []models.FriendEntry{},
		}
		switch provider {
		case "google":
			user.GoogleID = &providerID
		case "facebook":
			user.FacebookID = &providerID
		}
		if _, err := database.Users.InsertOne(ctx, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	} else {
		database.Users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"online": true}})
	}

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
