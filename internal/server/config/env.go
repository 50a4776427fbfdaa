package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "GOPHDRIVE_"

// parseEnv loads dotenv (if the file exists; variables already present in the
// process environment win) and overlays every GOPHDRIVE_* variable that is set.
//
// Durations use time.ParseDuration syntax, CORS origins are comma separated.
func parseEnv(config *Config, dotenv string) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	envString("HTTP_ADDR", &config.HTTPAddr)
	envString("GRPC_ADDR", &config.GRPCAddr)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("SESSION_VALIDITY", &config.SessionValidity)
	envDuration("PASSCODE_VALIDITY", &config.PasscodeValidity)
	envInt("MAX_PASSCODE_ATTEMPTS", &config.MaxPasscodeAttempts)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envString("PUBLIC_ENDPOINT", &config.PublicEndpoint)
	envString("PROJECT_ID", &config.ProjectID)
	envString("PLACEHOLDER_AVATAR_URL", &config.PlaceholderAvatarURL)
	envString("SMTP_ADDR", &config.SMTPAddr)
	envString("SMTP_USER", &config.SMTPUser)
	envString("SMTP_PASSWORD", &config.SMTPPassword)
	envString("SMTP_FROM", &config.SMTPFrom)
	envInt64("MAX_UPLOAD_SIZE", &config.MaxUploadSize)
	envInt("UPLOAD_ATTEMPTS", &config.UploadAttempts)
	envInt("COOKIE_ATTEMPTS", &config.CookieAttempts)
	envDuration("RETRY_DELAY", &config.RetryDelay)
	envString("LOG_LEVEL", &config.LogLevel)

	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok {
		config.CORSOrigins = splitList(v)
	}
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, key, err))
		}
		*dst = n
	}
}

func envInt64(key string, dst *int64) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, key, err))
		}
		*dst = n
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, key, err))
		}
		*dst = d
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
