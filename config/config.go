package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values. Secrets have no
// in-code defaults and must come from the config file or the environment.
type AppConfig struct {
	AppPort   string
	JWTSecret string
	BaseURL   string // public base URL used in activation links

	// Gin framework configuration
	GinMode string
	GinPath string

	// Database
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Redis for caching/ephemeral state
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	// SMTP for account activation and contact mail
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool
	ContactEmail string // recipient of the public contact form

	// OAuth providers
	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectBase  string

	// Logging
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	// Uploads
	MediaRoot string

	// Registration security. Captcha enablement is an explicit setting so
	// tests and local runs can switch it off without code changes.
	RegisterCaptchaEnabled        bool
	RegisterMaxPerIPPerDay        int
	RegisterAttemptCooldownSec    int
	RegisterTempBanMinutes        int
	RegisterFailedMaxPerIPPerHour int

	RateLimitPerMinute int
	AllowedOrigins     []string
}

var cfg AppConfig
var loaded bool

// Load reads the configuration once during boot. Precedence:
// config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Fatalf("invalid config file: %v", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in the config file or environment")
	}
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// SetForTesting replaces the cached configuration. Test helper only.
func SetForTesting(c AppConfig) {
	cfg = c
	loaded = true
}

type fileConfig struct {
	App struct {
		Port               string   `json:"Port"`
		JWTSecret          string   `json:"JWTSecret"`
		BaseURL            string   `json:"BaseURL"`
		RateLimitPerMinute int      `json:"RateLimitPerMinute"`
		AllowedOrigins     []string `json:"AllowedOrigins"`
		MediaRoot          string   `json:"MediaRoot"`
	} `json:"app"`
	Gin struct {
		Mode    string `json:"Mode"`
		LogPath string `json:"LogPath"`
	} `json:"gin"`
	Database struct {
		URI      string `json:"URI"`
		Host     string `json:"Host"`
		Port     string `json:"Port"`
		User     string `json:"User"`
		Password string `json:"Password"`
		Name     string `json:"Name"`
	} `json:"database"`
	Redis struct {
		Host     string `json:"Host"`
		Port     int    `json:"Port"`
		DB       int    `json:"DB"`
		Password string `json:"Password"`
	} `json:"redis"`
	SMTP struct {
		Host     string `json:"Host"`
		Port     int    `json:"Port"`
		Username string `json:"Username"`
		Password string `json:"Password"`
		From     string `json:"From"`
		FromName string `json:"FromName"`
		TLS      bool   `json:"TLS"`
		Contact  string `json:"Contact"`
	} `json:"smtp"`
	OAuth struct {
		GitHubClientID     string `json:"GitHubClientID"`
		GitHubClientSecret string `json:"GitHubClientSecret"`
		GoogleClientID     string `json:"GoogleClientID"`
		GoogleClientSecret string `json:"GoogleClientSecret"`
		RedirectBase       string `json:"RedirectBase"`
	} `json:"oauth"`
	Log struct {
		Level      string `json:"Level"`
		Path       string `json:"Path"`
		MaxSizeMB  int    `json:"MaxSizeMB"`
		MaxBackups int    `json:"MaxBackups"`
		MaxAgeDays int    `json:"MaxAgeDays"`
		Compress   bool   `json:"Compress"`
	} `json:"log"`
	Register struct {
		CaptchaEnabled        bool `json:"CaptchaEnabled"`
		MaxPerIPPerDay        int  `json:"MaxPerIPPerDay"`
		AttemptCooldownSec    int  `json:"AttemptCooldownSec"`
		TempBanMinutes        int  `json:"TempBanMinutes"`
		FailedMaxPerIPPerHour int  `json:"FailedMaxPerIPPerHour"`
	} `json:"register"`
}

// loadJSONConfig reads the grouped JSON file into cfg when present. A missing
// file is fine; invalid JSON is not.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var raw fileConfig
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	out.AppPort = raw.App.Port
	out.JWTSecret = raw.App.JWTSecret
	out.BaseURL = raw.App.BaseURL
	out.RateLimitPerMinute = raw.App.RateLimitPerMinute
	out.AllowedOrigins = raw.App.AllowedOrigins
	out.MediaRoot = raw.App.MediaRoot
	out.GinMode = raw.Gin.Mode
	out.GinPath = raw.Gin.LogPath
	out.DatabaseURI = raw.Database.URI
	out.DBHost = raw.Database.Host
	out.DBPort = raw.Database.Port
	out.DBUser = raw.Database.User
	out.DBPassword = raw.Database.Password
	out.DBName = raw.Database.Name
	out.RedisHost = raw.Redis.Host
	out.RedisPort = raw.Redis.Port
	out.RedisDB = raw.Redis.DB
	out.RedisPassword = raw.Redis.Password
	out.SMTPHost = raw.SMTP.Host
	out.SMTPPort = raw.SMTP.Port
	out.SMTPUsername = raw.SMTP.Username
	out.SMTPPassword = raw.SMTP.Password
	out.SMTPFrom = raw.SMTP.From
	out.SMTPFromName = raw.SMTP.FromName
	out.SMTPTLS = raw.SMTP.TLS
	out.ContactEmail = raw.SMTP.Contact
	out.GitHubClientID = raw.OAuth.GitHubClientID
	out.GitHubClientSecret = raw.OAuth.GitHubClientSecret
	out.GoogleClientID = raw.OAuth.GoogleClientID
	out.GoogleClientSecret = raw.OAuth.GoogleClientSecret
	out.OAuthRedirectBase = raw.OAuth.RedirectBase
	out.LogLevel = raw.Log.Level
	out.LogPath = raw.Log.Path
	out.LogMaxSizeMB = raw.Log.MaxSizeMB
	out.LogMaxBackups = raw.Log.MaxBackups
	out.LogMaxAgeDays = raw.Log.MaxAgeDays
	out.LogCompress = raw.Log.Compress
	out.RegisterCaptchaEnabled = raw.Register.CaptchaEnabled
	out.RegisterMaxPerIPPerDay = raw.Register.MaxPerIPPerDay
	out.RegisterAttemptCooldownSec = raw.Register.AttemptCooldownSec
	out.RegisterTempBanMinutes = raw.Register.TempBanMinutes
	out.RegisterFailedMaxPerIPPerHour = raw.Register.FailedMaxPerIPPerHour
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:" + c.AppPort
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/gin.log"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "platforum"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.MediaRoot == "" {
		c.MediaRoot = "mediafiles"
	}
	if c.OAuthRedirectBase == "" {
		c.OAuthRedirectBase = c.BaseURL
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.RegisterMaxPerIPPerDay == 0 {
		c.RegisterMaxPerIPPerDay = 5
	}
	if c.RegisterAttemptCooldownSec == 0 {
		c.RegisterAttemptCooldownSec = 10
	}
	if c.RegisterTempBanMinutes == 0 {
		c.RegisterTempBanMinutes = 60
	}
	if c.RegisterFailedMaxPerIPPerHour == 0 {
		c.RegisterFailedMaxPerIPPerHour = 20
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				log.Fatalf("invalid integer value for %s: %v", key, err)
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true"
		}
	}

	setString("APP_PORT", &c.AppPort)
	setString("JWT_SECRET", &c.JWTSecret)
	setString("BASE_URL", &c.BaseURL)
	setString("GIN_MODE", &c.GinMode)
	setString("GIN_LOG_PATH", &c.GinPath)
	setString("DATABASE_URI", &c.DatabaseURI)
	setString("DB_HOST", &c.DBHost)
	setString("DB_PORT", &c.DBPort)
	setString("DB_USER", &c.DBUser)
	setString("DB_PASSWORD", &c.DBPassword)
	setString("DB_NAME", &c.DBName)
	setString("REDIS_HOST", &c.RedisHost)
	setInt("REDIS_PORT", &c.RedisPort)
	setInt("REDIS_DB", &c.RedisDB)
	setString("REDIS_PASSWORD", &c.RedisPassword)
	setString("SMTP_HOST", &c.SMTPHost)
	setInt("SMTP_PORT", &c.SMTPPort)
	setString("SMTP_USERNAME", &c.SMTPUsername)
	setString("SMTP_PASSWORD", &c.SMTPPassword)
	setString("SMTP_FROM", &c.SMTPFrom)
	setString("SMTP_FROM_NAME", &c.SMTPFromName)
	setBool("SMTP_TLS", &c.SMTPTLS)
	setString("CONTACT_EMAIL", &c.ContactEmail)
	setString("GITHUB_CLIENT_ID", &c.GitHubClientID)
	setString("GITHUB_CLIENT_SECRET", &c.GitHubClientSecret)
	setString("GOOGLE_CLIENT_ID", &c.GoogleClientID)
	setString("GOOGLE_CLIENT_SECRET", &c.GoogleClientSecret)
	setString("OAUTH_REDIRECT_BASE_URL", &c.OAuthRedirectBase)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_PATH", &c.LogPath)
	setInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	setInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	setInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	setBool("LOG_COMPRESS", &c.LogCompress)
	setString("MEDIA_ROOT", &c.MediaRoot)
	setBool("REGISTER_CAPTCHA_ENABLED", &c.RegisterCaptchaEnabled)
	setInt("REGISTER_MAX_PER_IP_PER_DAY", &c.RegisterMaxPerIPPerDay)
	setInt("REGISTER_ATTEMPT_COOLDOWN_SEC", &c.RegisterAttemptCooldownSec)
	setInt("REGISTER_TEMP_BAN_MINUTES", &c.RegisterTempBanMinutes)
	setInt("REGISTER_FAILED_MAX_PER_IP_PER_HOUR", &c.RegisterFailedMaxPerIPPerHour)
	setInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
