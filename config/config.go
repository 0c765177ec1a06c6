package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	Port       string
	Env        string

	AlipayAppID      string
	AlipayPrivateKey string
	AlipayPublicKey  string
	AlipayNotifyURL  string
	AlipayProduction bool
	AlipayTimeout    time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Running without a .env file is fine in containerized deploys.
		log.Printf("No .env file loaded: %v", err)
	}

	config := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		Port:       os.Getenv("PORT"),
		Env:        os.Getenv("ENV"),

		AlipayAppID:      os.Getenv("ALIPAY_APP_ID"),
		AlipayPrivateKey: os.Getenv("ALIPAY_PRIVATE_KEY"),
		AlipayPublicKey:  os.Getenv("ALIPAY_PUBLIC_KEY"),
		AlipayNotifyURL:  os.Getenv("ALIPAY_NOTIFY_URL"),
		AlipayProduction: os.Getenv("ALIPAY_PRODUCTION") == "true",
		AlipayTimeout:    5 * time.Second,

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     587,
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
	}

	if ms, err := strconv.Atoi(os.Getenv("ALIPAY_TIMEOUT_MS")); err == nil && ms > 0 {
		config.AlipayTimeout = time.Duration(ms) * time.Millisecond
	}
	if port, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && port > 0 {
		config.SMTPPort = port
	}
	if config.Port == "" {
		config.Port = "8080"
	}

	return config, nil
}
