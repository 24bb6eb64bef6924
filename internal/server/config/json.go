package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/maillist/internal/flagx"
	"github.com/dmitrijs2005/maillist/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration file. Interval
// fields use timex.Duration so both "10m" and integer nanoseconds parse.
type JsonConfig struct {
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	DatabaseDSN           string         `json:"database_dsn"`
	MirrorPath            string         `json:"mirror_path"`
	SecretKey             string         `json:"secret_key"`
	CodeTTL               timex.Duration `json:"code_ttl"`
	UnsubscribeTokenTTL   timex.Duration `json:"unsubscribe_token_ttl"`
	PublicBaseURL         string         `json:"public_base_url"`
	SMTPHost              string         `json:"smtp_host"`
	SMTPPort              int            `json:"smtp_port"`
	SMTPUser              string         `json:"smtp_user"`
	SMTPPassword          string         `json:"smtp_password"`
	MirrorRebuildInterval timex.Duration `json:"mirror_rebuild_interval"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	LogLevel              string         `json:"log_level"`
	LogFormat             string         `json:"log_format"`
}

// parseJson loads configuration values from the file named by -c/-config.
// Only fields present (non-zero) in the file overwrite the current values.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MirrorPath, c.MirrorPath)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	if c.CodeTTL.Duration != 0 {
		config.CodeTTL = c.CodeTTL.Duration
	}
	if c.UnsubscribeTokenTTL.Duration != 0 {
		config.UnsubscribeTokenTTL = c.UnsubscribeTokenTTL.Duration
	}
	if c.MirrorRebuildInterval.Duration != 0 {
		config.MirrorRebuildInterval = c.MirrorRebuildInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
