package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophdrive/internal/flagx"
	"github.com/dmitrijs2005/gophdrive/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// both "1m" strings and integer nanoseconds. Zero values are treated as unset.
type JsonConfig struct {
	HTTPAddr             string         `json:"http_addr"`
	GRPCAddr             string         `json:"grpc_addr"`
	DatabaseDSN          string         `json:"database_dsn"`
	SecretKey            string         `json:"secret_key"`
	SessionValidity      timex.Duration `json:"session_validity"`
	PasscodeValidity     timex.Duration `json:"passcode_validity"`
	MaxPasscodeAttempts  int            `json:"max_passcode_attempts"`
	S3RootUser           string         `json:"s3_root_user"`
	S3RootPassword       string         `json:"s3_root_password"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
	PublicEndpoint       string         `json:"public_endpoint"`
	ProjectID            string         `json:"project_id"`
	PlaceholderAvatarURL string         `json:"placeholder_avatar_url"`
	SMTPAddr             string         `json:"smtp_addr"`
	SMTPUser             string         `json:"smtp_user"`
	SMTPPassword         string         `json:"smtp_password"`
	SMTPFrom             string         `json:"smtp_from"`
	MaxUploadSize        int64          `json:"max_upload_size"`
	UploadAttempts       int            `json:"upload_attempts"`
	CookieAttempts       int            `json:"cookie_attempts"`
	RetryDelay           timex.Duration `json:"retry_delay"`
	CORSOrigins          []string       `json:"cors_origins"`
	LogLevel             string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config, if any, and copies every set
// field into config. It panics if the file cannot be read or parsed.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.PublicEndpoint, c.PublicEndpoint)
	setString(&config.ProjectID, c.ProjectID)
	setString(&config.PlaceholderAvatarURL, c.PlaceholderAvatarURL)
	setString(&config.SMTPAddr, c.SMTPAddr)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.LogLevel, c.LogLevel)

	if c.SessionValidity.Duration > 0 {
		config.SessionValidity = c.SessionValidity.Duration
	}
	if c.PasscodeValidity.Duration > 0 {
		config.PasscodeValidity = c.PasscodeValidity.Duration
	}
	if c.RetryDelay.Duration > 0 {
		config.RetryDelay = c.RetryDelay.Duration
	}
	if c.MaxPasscodeAttempts > 0 {
		config.MaxPasscodeAttempts = c.MaxPasscodeAttempts
	}
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	if c.UploadAttempts > 0 {
		config.UploadAttempts = c.UploadAttempts
	}
	if c.CookieAttempts > 0 {
		config.CookieAttempts = c.CookieAttempts
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
