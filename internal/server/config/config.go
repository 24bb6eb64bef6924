// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment and command-line flags.
package config

import "time"

// Config holds runtime settings for the maillist server.
//
// Fields:
//   - EndpointAddrGRPC / EndpointAddrHTTP: bind addresses for the gRPC API and
//     the ops HTTP surface (health, metrics, one-click unsubscribe).
//   - DatabaseDSN: SQLite path/URI or a postgres:// DSN.
//   - MirrorPath: location of the CSV mirror.
//   - SecretKey: HMAC secret for unsubscribe tokens (HS256).
//   - CodeTTL: lifetime of a verification code.
//   - UnsubscribeTokenTTL: lifetime of the link embedded in the email.
//   - PublicBaseURL: externally reachable HTTP base; empty disables links.
//   - SMTP*: notifier transport and credentials.
//   - MirrorRebuildInterval: period of the background reconciler, 0 = off.
//   - S3*: mirror snapshot publishing; empty bucket disables it.
type Config struct {
	EndpointAddrGRPC      string
	EndpointAddrHTTP      string
	DatabaseDSN           string
	MirrorPath            string
	SecretKey             string
	CodeTTL               time.Duration
	UnsubscribeTokenTTL   time.Duration
	PublicBaseURL         string
	SMTPHost              string
	SMTPPort              int
	SMTPUser              string
	SMTPPassword          string
	MirrorRebuildInterval time.Duration
	S3Bucket              string
	S3Region              string
	S3BaseEndpoint        string
	S3RootUser            string
	S3RootPassword        string
	LogLevel              string
	LogFormat             string
}

// LoadDefaults populates Config with development defaults. SMTP credentials
// have no default; the server refuses to start without them.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = "emails.db"
	c.MirrorPath = "emails.csv"
	c.CodeTTL = 10 * time.Minute
	c.UnsubscribeTokenTTL = 30 * 24 * time.Hour
	c.SMTPHost = "smtp.gmail.com"
	c.SMTPPort = 465
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
