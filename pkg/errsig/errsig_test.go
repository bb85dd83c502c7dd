package errsig_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tracelight/tracelight/pkg/errsig"
)

func TestDerive_Deterministic(t *testing.T) {
	a := errsig.Derive("error", "app.checkout.process", "checkout.py", "process", "boom")
	b := errsig.Derive("error", "app.checkout.process", "checkout.py", "process", "boom")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded sha256
}

func TestDerive_VolatileTokensDoNotSplitGroups(t *testing.T) {
	a := errsig.Derive("error", "", "", "",
		"segfault at 0xDEADBEEF in request 123")
	b := errsig.Derive("error", "", "", "",
		"segfault at 0x00ff1234 in request 456")
	assert.Equal(t, a, b)
}

func TestDerive_CulpritWinsOverMessage(t *testing.T) {
	a := errsig.Derive("error", "app.checkout", "", "", "first message")
	b := errsig.Derive("error", "app.checkout", "", "", "totally different message")
	assert.Equal(t, a, b)
}

func TestDerive_FallsBackToFileAndFunction(t *testing.T) {
	a := errsig.Derive("error", "", "checkout.py", "process", "msg one")
	b := errsig.Derive("error", "", "checkout.py", "process", "msg two")
	c := errsig.Derive("error", "", "billing.py", "charge", "msg one")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestDerive_ErrorTypeCaseInsensitive(t *testing.T) {
	a := errsig.Derive("Error", "app.checkout", "", "", "")
	b := errsig.Derive("error", "app.checkout", "", "", "")
	assert.Equal(t, a, b)
}

func TestDerive_DifferentTypesDiffer(t *testing.T) {
	a := errsig.Derive("error", "app.checkout", "", "", "")
	b := errsig.Derive("exception", "app.checkout", "", "", "")
	assert.NotEqual(t, a, b)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"hex address", "panic at 0xDEADBEEF", "panic at 0xaddr"},
		{"uuid", "user 9f1c2b3a-4d5e-6f70-8192-a3b4c5d6e7f8 missing", "user uuid missing"},
		{"bare numbers", "attempt 17 of 30", "attempt n of n"},
		{"whitespace collapse", "  too \t many\n spaces  ", "too many spaces"},
		{"lowercased", "NullPointerException", "nullpointerexception"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errsig.Normalize(tt.in))
		})
	}
}

func TestNormalize_TruncatesWithoutSplittingRunes(t *testing.T) {
	long := strings.Repeat("é", 400) // 800 bytes of 2-byte runes
	got := errsig.Normalize(long)
	assert.LessOrEqual(t, len(got), 500)
	assert.True(t, strings.HasSuffix(got, "é"))
}
