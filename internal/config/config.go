package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the API and worker read from the environment.
type Config struct {
	Port      string
	RunLocal  bool
	AWSRegion string

	// DynamoDB table names
	UsersTable        string
	ProductsTable     string
	OrdersTable       string
	CartsTable        string
	ReviewsTable      string
	WishlistsTable    string
	ContactsTable     string
	AppointmentsTable string
	CheckoutTable     string

	OrdersQueueURL string
	RedisAddr      string
	RedisPassword  string

	JWTSecret string

	RazorpayKeyID     string
	RazorpayKeySecret string

	SendGridAPIKey string
	EmailSender    string

	MetricsNamespace string
	CartSaveDebounce time.Duration
	CheckoutTTL      time.Duration
}

// Load reads configuration from the environment, loading a .env file first
// when one is present (local development).
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	return Config{
		Port:      getEnv("PORT", "8080"),
		RunLocal:  os.Getenv("RUN_LOCAL") == "true",
		AWSRegion: getEnv("AWS_REGION", "ap-south-1"),

		UsersTable:        getEnv("USERS_TABLE", "users"),
		ProductsTable:     getEnv("PRODUCTS_TABLE", "products"),
		OrdersTable:       getEnv("ORDERS_TABLE", "orders"),
		CartsTable:        getEnv("CARTS_TABLE", "carts"),
		ReviewsTable:      getEnv("REVIEWS_TABLE", "reviews"),
		WishlistsTable:    getEnv("WISHLISTS_TABLE", "wishlists"),
		ContactsTable:     getEnv("CONTACTS_TABLE", "contacts"),
		AppointmentsTable: getEnv("APPOINTMENTS_TABLE", "appointments"),
		CheckoutTable:     getEnv("CHECKOUT_SESSIONS_TABLE", "checkout_sessions"),

		OrdersQueueURL: os.Getenv("ORDERS_QUEUE_URL"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		EmailSender:    getEnv("EMAIL_SENDER", "orders@mauli-interior.in"),

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "Storefront"),
		CartSaveDebounce: getDuration("CART_SAVE_DEBOUNCE_MS", 500) * time.Millisecond,
		CheckoutTTL:      getDuration("CHECKOUT_TTL_MINUTES", 60) * time.Minute,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback int64) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(fallback)
}
