package common

import "time"

// TimeLayout is the textual timestamp layout stored in the SQLite database and
// the CSV mirror: UTC, microsecond precision, no zone designator.
const TimeLayout = "2006-01-02T15:04:05.000000"

// DefaultCodeTTL is how long an issued verification code stays valid.
const DefaultCodeTTL = 10 * time.Minute

// RequestIDKey is the log attribute carrying the per-call identifier.
const RequestIDKey = "request_id"

// RequestIDHeader carries the request identifier in gRPC metadata and HTTP
// headers.
const RequestIDHeader = "x-request-id"
