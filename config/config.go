package config

import (
	"log"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port    string `env:"PORT,default=8080"`
	GinMode string `env:"GIN_MODE,default=debug"`

	MongoURI string `env:"MONGODB_URI,default=mongodb://127.0.0.1:27017"`
	MongoDB  string `env:"MONGODB_NAME,default=amora"`

	JWTSecret string `env:"JWT_SECRET,required"`

	GoogleClientID       string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"GOOGLE_CLIENT_SECRET"`
	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`
	// Base URL the OAuth providers redirect back to.
	OAuthRedirectBase string `env:"OAUTH_REDIRECT_BASE,default=http://localhost:8080"`

	CloudinaryURL string `env:"CLOUDINARY_URL"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	PushSubscriber  string `env:"PUSH_SUBSCRIBER,default=mailto:support@amora.app"`

	// Email allowed to read contact-form submissions.
	AdminEmail string `env:"ADMIN_EMAIL"`

	// Per-IP request budget for the HTTP API.
	RateLimit  int           `env:"RATE_LIMIT,default=60"`
	RateWindow time.Duration `env:"RATE_WINDOW,default=1m"`

	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS,default=http://localhost:8080;http://127.0.0.1:8080;http://localhost:3000"`
}

// Load reads .env (if present) and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
