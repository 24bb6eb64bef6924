package mirror

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/maillist/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*CSVStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emails.csv")
	return NewCSVStore(path, logging.Discard()), path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestEnsureHeader_CreatesMissingFile(t *testing.T) {
	s, path := newStore(t)

	require.NoError(t, s.EnsureHeader(context.Background()))
	assert.Equal(t, "time,email,send\n", readFile(t, path))
}

func TestEnsureHeader_EmptyFile(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	require.NoError(t, s.EnsureHeader(context.Background()))
	assert.Equal(t, "time,email,send\n", readFile(t, path))
}

func TestEnsureHeader_RepairsMissingSendColumn(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte(
		"time,email\n"+
			"2023-01-01T00:00:00,a@b.co\n"+
			"2023-01-02T00:00:00,c@d.co,No\n"+
			"orphan\n"), 0o644))

	require.NoError(t, s.EnsureHeader(context.Background()))
	assert.Equal(t,
		"time,email,send\n"+
			"2023-01-01T00:00:00,a@b.co,Yes\n"+
			"2023-01-02T00:00:00,c@d.co,No\n",
		readFile(t, path))
}

func TestEnsureHeader_NoHeaderKeepsRows(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte("2023-01-01T00:00:00,a@b.co,No\n"), 0o644))

	require.NoError(t, s.EnsureHeader(context.Background()))
	assert.Equal(t, "time,email,send\n2023-01-01T00:00:00,a@b.co,No\n", readFile(t, path))
}

func TestEnsureHeader_HealthyFileIsUntouched(t *testing.T) {
	s, path := newStore(t)
	content := "time,email,send\n2023-01-01T00:00:00,a@b.co,Yes\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	require.NoError(t, s.EnsureHeader(context.Background()))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.WithinDuration(t, old, fi.ModTime(), time.Second, "file must not be rewritten")
	assert.Equal(t, content, readFile(t, path))
}

func TestUpsertOnSignup_AppendsThenUpdatesInPlace(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertOnSignup(ctx, t0, "a@b.co", true))
	require.NoError(t, s.UpsertOnSignup(ctx, t0, "c@d.co", true))
	require.NoError(t, s.SetSend(ctx, "A@B.CO", false))
	require.NoError(t, s.UpsertOnSignup(ctx, t0.Add(time.Hour), "a@b.co", true))

	assert.Equal(t,
		"time,email,send\n"+
			"2024-06-01T12:00:00.000000,a@b.co,Yes\n"+
			"2024-06-01T12:00:00.000000,c@d.co,Yes\n",
		readFile(t, path), "one logical entry per email")
}

func TestUpsertOnSignup_HealsDuplicateRows(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte(
		"time,email,send\n"+
			"t1,a@b.co,No\n"+
			"t2,A@b.co,No\n"), 0o644))

	require.NoError(t, s.UpsertOnSignup(context.Background(), t0, "a@b.co", true))
	assert.Equal(t, "time,email,send\nt1,a@b.co,Yes\nt2,A@b.co,Yes\n", readFile(t, path))
}

func TestSetSend_MissingFileIsNoop(t *testing.T) {
	s, path := newStore(t)

	require.NoError(t, s.SetSend(context.Background(), "a@b.co", false))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "SetSend must not create the file")
}

func TestSetSend_AbsentEmailIsNoop(t *testing.T) {
	s, path := newStore(t)
	// malformed header on purpose: a no-op must not even repair it
	content := "email\nt1,a@b.co\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.NoError(t, s.SetSend(context.Background(), "ghost@example.com", false))
	assert.Equal(t, content, readFile(t, path))
}

func TestSetSend_UpdatesEveryMatch(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte(
		"time,email,send\nt1,a@b.co,Yes\nt2,x@y.co,Yes\nt3,A@B.co,Yes\n"), 0o644))

	require.NoError(t, s.SetSend(context.Background(), "a@b.co", false))
	assert.Equal(t, "time,email,send\nt1,a@b.co,No\nt2,x@y.co,Yes\nt3,A@B.co,No\n", readFile(t, path))
}

func TestRebuildAndRecords(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(path, []byte("garbage,\"unterminated\n"), 0o644))

	records := []Record{
		{Time: "2024-06-01T12:00:00.000000", Email: "a@b.co", Send: true},
		{Time: "", Email: "c@d.co", Send: false},
	}
	require.NoError(t, s.Rebuild(ctx, records))
	assert.Equal(t, "time,email,send\n2024-06-01T12:00:00.000000,a@b.co,Yes\n,c@d.co,No\n", readFile(t, path))

	got, err := s.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, readFile(t, path), string(snap))
}

func TestRecords_MissingFile(t *testing.T) {
	s, _ := newStore(t)
	got, err := s.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCanceledContext(t *testing.T) {
	s, path := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.UpsertOnSignup(ctx, t0, "a@b.co", true), context.Canceled)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestConcurrentUpsertsAreSerialized(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	emails := []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io", "f@x.io", "g@x.io", "h@x.io"}
	var wg sync.WaitGroup
	for _, e := range emails {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			assert.NoError(t, s.UpsertOnSignup(ctx, t0, email, true))
		}(e)
	}
	wg.Wait()

	got, err := s.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(emails), "no update may be lost")
}

func TestParseSend(t *testing.T) {
	for _, v := range []string{"Yes", "yes", " YES ", "1", "true"} {
		assert.True(t, parseSend(v), v)
	}
	for _, v := range []string{"No", "", "0", "false", "maybe"} {
		assert.False(t, parseSend(v), v)
	}
}
