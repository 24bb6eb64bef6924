package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/maillist/internal/flagx"
)

// Flags lists the value flags owned by this package.
var Flags = []string{"-a", "-w", "-d", "-m", "-s", "-t", "-u", "-i", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-w string   HTTP bind address (e.g., ":8080")
//	-d string   database DSN (SQLite path or postgres:// URL)
//	-m string   CSV mirror path
//	-s string   unsubscribe token secret
//	-t int      verification code lifetime, minutes
//	-u string   public base URL for unsubscribe links
//	-i int      mirror rebuild interval, minutes (0 disables)
//	-l string   log level
//
// Duration flags are accepted as integers in minutes and then converted
// to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], Flags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MirrorPath, "m", config.MirrorPath, "CSV mirror path")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	codeTTL := fs.Int("t", int(config.CodeTTL.Minutes()), "verification code lifetime (in minutes)")

	fs.StringVar(&config.PublicBaseURL, "u", config.PublicBaseURL, "public base URL")

	rebuildInterval := fs.Int("i", int(config.MirrorRebuildInterval.Minutes()), "mirror rebuild interval (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.CodeTTL = time.Duration(*codeTTL) * time.Minute
	config.MirrorRebuildInterval = time.Duration(*rebuildInterval) * time.Minute
}
