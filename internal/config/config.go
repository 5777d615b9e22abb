package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env      string
	HTTPPort string

	RedisAddr    string
	QueueBackend string

	JWTIssuer     string
	JWTSigningKey string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	GeminiAPIKey string
	GeminiModel  string
	AISkip       bool

	WahaURL     string
	WahaAPIKey  string
	WahaSession string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	// Kiosk capture loop timings.
	CameraSnapshotURL string
	ScanInterval      time.Duration
	RetryDelay        time.Duration
	ResetDelay        time.Duration
	BannerTTL         time.Duration

	Capacity        int
	RateLimitPerMin int
}

// Load returns application config populated from environment variables with
// sensible defaults. A .env file is honored when present.
func Load() App {
	godotenv.Load()

	return App{
		Env:           getEnv("APP_ENV", "dev"),
		HTTPPort:      getEnv("HTTP_PORT", "8081"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		QueueBackend:  getEnv("QUEUE_BACKEND", "redis"),
		JWTIssuer:     getEnv("JWT_ISSUER", "gymtrack"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:     durationEnv("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    durationEnv("REFRESH_TTL", 24*time.Hour),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		AISkip:        boolEnv("AI_SKIP", true),
		WahaURL:       getEnv("WAHA_URL", "http://localhost:3000"),
		WahaAPIKey:    getEnv("WAHA_API_KEY", ""),
		WahaSession:   getEnv("WAHA_SESSION", "default"),

		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "gymtrack/members"),

		CameraSnapshotURL: getEnv("CAMERA_SNAPSHOT_URL", ""),
		ScanInterval:      durationEnv("KIOSK_SCAN_INTERVAL", 5*time.Second),
		RetryDelay:        durationEnv("KIOSK_RETRY_DELAY", 2*time.Second),
		ResetDelay:        durationEnv("KIOSK_RESET_DELAY", 4*time.Second),
		BannerTTL:         durationEnv("ALERT_BANNER_TTL", 5*time.Second),

		Capacity:        intEnv("FACILITY_CAPACITY", 50),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
