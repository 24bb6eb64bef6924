// Package mirror maintains emails.csv, a best-effort copy of the subscriber
// list kept for spreadsheet users. The database stays authoritative; this
// file can always be rebuilt from it.
package mirror

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/maillist/internal/filex"
	"github.com/dmitrijs2005/maillist/internal/logging"
	"github.com/dmitrijs2005/maillist/internal/timex"
)

var header = []string{"time", "email", "send"}

const (
	yes = "Yes"
	no  = "No"
)

// Record is one mirror row.
type Record struct {
	Time  string
	Email string
	Send  bool
}

// CSVStore serializes every read-modify-write of the file through a mutex
// and replaces the file atomically.
type CSVStore struct {
	path   string
	mu     sync.Mutex
	logger logging.Logger
}

func NewCSVStore(path string, logger logging.Logger) *CSVStore {
	return &CSVStore{
		path:   path,
		logger: logger.With("module", "mirror", "path", path),
	}
}

func (s *CSVStore) Path() string { return s.path }

// EnsureHeader creates the file with a header when it is missing or empty,
// and rewrites a missing or malformed header in place, keeping every prior
// row that has at least an email column.
func (s *CSVStore) EnsureHeader(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.loadHealed(ctx)
	return err
}

// UpsertOnSignup appends a row for email, or rewrites the send column of the
// rows already present for it.
func (s *CSVStore) UpsertOnSignup(ctx context.Context, at time.Time, email string, send bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.read()
	if err != nil {
		return err
	}
	rows, changed := heal(raw)
	if changed && len(raw) > 0 {
		s.logger.Warn(ctx, "mirror header repaired", "kept_rows", len(rows)-1)
	}

	if !setSend(rows, email, send) {
		rows = append(rows, []string{timex.FormatISO(at), email, sendValue(send)})
	}
	return s.write(rows)
}

// SetSend rewrites the send column of every row whose email matches. Nothing
// is written when the file is missing or holds no such row.
func (s *CSVStore) SetSend(ctx context.Context, email string, send bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.read()
	if err != nil {
		return err
	}
	if !containsEmail(raw, email) {
		return nil
	}

	rows, _ := heal(raw)
	setSend(rows, email, send)
	return s.write(rows)
}

// Rebuild replaces the whole file with records.
func (s *CSVStore) Rebuild(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for _, r := range records {
		rows = append(rows, []string{r.Time, r.Email, sendValue(r.Send)})
	}
	return s.write(rows)
}

// Records returns the parsed rows without modifying the file.
func (s *CSVStore) Records(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.read()
	if err != nil {
		return nil, err
	}
	rows, _ := heal(raw)

	out := make([]Record, 0, len(rows)-1)
	for _, r := range rows[1:] {
		out = append(out, Record{Time: r[0], Email: r[1], Send: parseSend(r[2])})
	}
	return out, nil
}

// Snapshot returns the current file content.
func (s *CSVStore) Snapshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read mirror: %w", err)
	}
	return b, nil
}

// loadHealed reads the file and persists a repaired header if needed.
func (s *CSVStore) loadHealed(ctx context.Context) ([][]string, error) {
	raw, err := s.read()
	if err != nil {
		return nil, err
	}
	rows, changed := heal(raw)
	if changed {
		s.logger.Warn(ctx, "mirror header repaired", "kept_rows", len(rows)-1)
		if err := s.write(rows); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// read returns all parseable records; nil when the file does not exist.
func (s *CSVStore) read() ([][]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read mirror: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("parse mirror: %w", err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func (s *CSVStore) write(rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("encode mirror: %w", err)
	}
	if err := filex.WriteFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	return nil
}

// heal returns rows with a canonical header and three fields per data row.
// changed reports whether anything differs from the input.
func heal(raw [][]string) (rows [][]string, changed bool) {
	if len(raw) == 0 {
		return [][]string{header}, true
	}

	data := raw
	if isHeader(raw[0]) {
		data = raw[1:]
		changed = !isCanonicalHeader(raw[0])
	} else {
		changed = true
	}

	rows = make([][]string, 0, len(data)+1)
	rows = append(rows, header)
	for _, r := range data {
		switch {
		case len(r) < 2:
			changed = true
		case len(r) == 2:
			rows = append(rows, []string{r[0], r[1], yes})
			changed = true
		case len(r) > 3:
			rows = append(rows, r[:3])
			changed = true
		default:
			rows = append(rows, r)
		}
	}
	return rows, changed
}

func isHeader(r []string) bool {
	return len(r) >= 2 && strings.EqualFold(strings.TrimSpace(r[0]), "time") &&
		strings.EqualFold(strings.TrimSpace(r[1]), "email")
}

func isCanonicalHeader(r []string) bool {
	return len(r) == 3 && r[0] == header[0] && r[1] == header[1] && r[2] == header[2]
}

func containsEmail(raw [][]string, email string) bool {
	for i, r := range raw {
		if i == 0 && isHeader(r) {
			continue
		}
		if len(r) >= 2 && sameEmail(r[1], email) {
			return true
		}
	}
	return false
}

// setSend updates every data row of email and reports whether any matched.
func setSend(rows [][]string, email string, send bool) bool {
	found := false
	for _, r := range rows[1:] {
		if sameEmail(r[1], email) {
			r[2] = sendValue(send)
			found = true
		}
	}
	return found
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func sendValue(send bool) string {
	if send {
		return yes
	}
	return no
}

func parseSend(v string) bool {
	v = strings.TrimSpace(v)
	return strings.EqualFold(v, yes) || v == "1" || strings.EqualFold(v, "true")
}
