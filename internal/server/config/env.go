package config

import (
	"github.com/spf13/viper"
)

// envBindings maps config keys to environment variables. When several names
// are listed the first one that is set wins. Only bound names are read.
var envBindings = map[string][]string{
	"database_dsn":     {"DATABASE_DSN"},
	"mirror_path":      {"MIRROR_PATH"},
	"secret_key":       {"SECRET_KEY"},
	"public_base_url":  {"PUBLIC_BASE_URL"},
	"smtp_host":        {"SMTP_HOST"},
	"smtp_port":        {"SMTP_PORT"},
	"smtp_user":        {"GMAIL_USER", "SMTP_USER"},
	"smtp_password":    {"GMAIL_APP_PASSWORD", "SMTP_PASSWORD"},
	"s3_bucket":        {"S3_BUCKET"},
	"s3_region":        {"S3_REGION"},
	"s3_base_endpoint": {"S3_BASE_ENDPOINT"},
	"s3_root_user":     {"S3_ROOT_USER"},
	"s3_root_password": {"S3_ROOT_PASSWORD"},
	"log_level":        {"LOG_LEVEL"},
	"log_format":       {"LOG_FORMAT"},
}

// parseEnv overlays values taken from the process environment.
func parseEnv(config *Config) {
	v := viper.New()
	for key, names := range envBindings {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
	applyEnv(v, config)
}

func applyEnv(v *viper.Viper, config *Config) {
	setString(&config.DatabaseDSN, v.GetString("database_dsn"))
	setString(&config.MirrorPath, v.GetString("mirror_path"))
	setString(&config.SecretKey, v.GetString("secret_key"))
	setString(&config.PublicBaseURL, v.GetString("public_base_url"))
	setString(&config.SMTPHost, v.GetString("smtp_host"))
	setString(&config.SMTPUser, v.GetString("smtp_user"))
	setString(&config.SMTPPassword, v.GetString("smtp_password"))
	setString(&config.S3Bucket, v.GetString("s3_bucket"))
	setString(&config.S3Region, v.GetString("s3_region"))
	setString(&config.S3BaseEndpoint, v.GetString("s3_base_endpoint"))
	setString(&config.S3RootUser, v.GetString("s3_root_user"))
	setString(&config.S3RootPassword, v.GetString("s3_root_password"))
	setString(&config.LogLevel, v.GetString("log_level"))
	setString(&config.LogFormat, v.GetString("log_format"))

	if port := v.GetInt("smtp_port"); port != 0 {
		config.SMTPPort = port
	}
}
