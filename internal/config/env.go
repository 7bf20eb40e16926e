package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreMySQL = "mysql"
	StoreMongo = "mongo"
	StoreFile  = "file"

	MailLog   = "log"
	MailSMTP  = "smtp"
	MailGmail = "gmail"

	NotifyAsync = "async"
	NotifySync  = "sync"
)

type Env struct {
	AppAddr  string `validate:"required"`
	GinMode  string `validate:"omitempty,oneof=debug release test"`
	Debug    bool
	LogLevel string `validate:"omitempty,oneof=debug info warn error"`

	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`

	StoreBackend  string        `validate:"required,oneof=mysql mongo file"`
	StoreTimeout  time.Duration `validate:"gt=0"`
	MySQLDSN      string        `validate:"required_if=StoreBackend mysql"`
	MongoURI      string        `validate:"required_if=StoreBackend mongo"`
	MongoDB       string        `validate:"required_if=StoreBackend mongo"`
	MongoUser     string
	MongoPassword string
	BookingsDir   string `validate:"required_if=StoreBackend file"`

	UploadsDir     string `validate:"required"`
	UploadPrefix   string `validate:"required,alphanum"`
	MaxUploadBytes int64  `validate:"gt=0"`
	CatalogFile    string

	MailBackend       string `validate:"required,oneof=log smtp gmail"`
	MailFrom          string `validate:"required,email"`
	OperatorEmail     string `validate:"required,email"`
	SMTPHost          string `validate:"required_if=MailBackend smtp"`
	SMTPPort          int    `validate:"omitempty,min=1,max=65535"`
	SMTPUsername      string
	SMTPPassword      string
	GmailClientID     string `validate:"required_if=MailBackend gmail"`
	GmailClientSecret string `validate:"required_if=MailBackend gmail"`
	GmailRefreshToken string `validate:"required_if=MailBackend gmail"`

	NotifyMode    string        `validate:"required,oneof=async sync"`
	NotifyTimeout time.Duration `validate:"gt=0"`

	CORSAllowedOrigins []string
}

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	env := Env{
		AppAddr:  getEnv("APP_ADDR", ":8080"),
		GinMode:  getEnv("GIN_MODE", ""),
		Debug:    getEnvAsBool("APP_DEBUG", false),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 20*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 20*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", StoreFile)),
		StoreTimeout:  getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
		MySQLDSN:      getEnv("MYSQL_DSN", ""),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "gozonaBooking"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),
		BookingsDir:   getEnv("BOOKINGS_DIR", "./data/bookings"),

		UploadsDir:     getEnv("UPLOADS_DIR", "./uploads"),
		UploadPrefix:   getEnv("UPLOAD_PREFIX", "ktp"),
		MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 5<<20),
		CatalogFile:    getEnv("CATALOG_FILE", ""),

		MailBackend:       strings.ToLower(getEnv("MAIL_BACKEND", MailLog)),
		MailFrom:          getEnv("MAIL_FROM", "booking@gozona.id"),
		OperatorEmail:     getEnv("OPERATOR_EMAIL", "admin@gozona.id"),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          int(getEnvAsInt64("SMTP_PORT", 587)),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		NotifyMode:    strings.ToLower(getEnv("NOTIFY_MODE", NotifyAsync)),
		NotifyTimeout: getEnvAsDuration("NOTIFY_TIMEOUT", 15*time.Second),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS",
			"http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173")),
	}

	if err := env.Validate(); err != nil {
		return Env{}, err
	}
	return env, nil
}

// Validate checks the struct tags above.
func (e Env) Validate() error {
	if err := validator.New().Struct(e); err != nil {
		return fmt.Errorf("config tidak valid: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("15s") or plain seconds ("15").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(raw string) []string {
	out := []string{}
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
