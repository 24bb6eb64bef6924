package verifycode

import (
	"bytes"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestGenerate_SixDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Regexp(t, sixDigits, code)
	}
}

func TestGenerate_ZeroPadded(t *testing.T) {
	orig := randReader
	t.Cleanup(func() { randReader = orig })

	// rand.Int reads enough bytes for the bound; all zeroes yields 0.
	randReader = bytes.NewReader(make([]byte, 64))

	code, err := Generate()
	require.NoError(t, err)
	assert.Equal(t, "000000", code)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerate_ReaderError(t *testing.T) {
	orig := randReader
	t.Cleanup(func() { randReader = orig })
	randReader = failingReader{}

	_, err := Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestDigest_KnownVector(t *testing.T) {
	assert.Equal(t,
		"8d969eef6ecad3c29a3a629280e686cf0c3f5d5a86aff3ca12020c923adc6c92",
		Digest("123456"))
	assert.Len(t, Digest("000000"), 64)
}

func TestMatches(t *testing.T) {
	d := Digest("042042")

	assert.True(t, Matches(d, "042042"))
	assert.False(t, Matches(d, "42042"))
	assert.False(t, Matches(d, "042043"))
	assert.False(t, Matches("", "042042"))
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "8d969eef...", Fingerprint(Digest("123456")))
	assert.Equal(t, "", Fingerprint(""))
	assert.Equal(t, "abc", Fingerprint("abc"))
}
