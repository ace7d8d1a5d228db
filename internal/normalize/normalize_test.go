package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	t.Parallel()

	n := NewNormalizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "APPLE", "apple"},
		{"strips punctuation", "Apple, Inc.", "apple"},
		{"strips trailing suffix", "Apple Inc", "apple"},
		{"suffix case insensitive", "APPLE INC", "apple"},
		{"multiple trailing suffixes", "Acme Co Ltd", "acme"},
		{"suffix token mid-name kept", "Corp Solutions", "corp solutions"},
		{"collapses whitespace", "  Big   Blue   ", "big blue"},
		{"keeps digits", "3Par Storage", "3par storage"},
		{"ampersand becomes separator", "Johnson & Johnson", "johnson johnson"},
		{"empty", "", ""},
		{"only punctuation", "---", ""},
		{"applied materials", "Applied Materials, Inc.", "applied materials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, n.Name(tt.in))
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	t.Parallel()

	n := NewNormalizer()
	inputs := []string{
		"Apple Inc.",
		"APPLIED MATERIALS, INC.",
		"  Weird---Name  LLC ",
		"already normalized",
	}
	for _, in := range inputs {
		once := n.Name(in)
		assert.Equal(t, once, n.Name(once), "normalize must be idempotent for %q", in)
	}
}

func TestNameCaseAndPunctuationInsensitive(t *testing.T) {
	t.Parallel()

	n := NewNormalizer()
	assert.Equal(t, n.Name("Apple Inc."), n.Name("APPLE INC"))
	assert.Equal(t, n.Name("Acme-Widgets Corp."), n.Name("acme widgets corporation"))
}

func TestNameCustomSuffixes(t *testing.T) {
	t.Parallel()

	n := NewNormalizerWithSuffixes([]string{"holdings"})
	assert.Equal(t, "apple inc", n.Name("Apple Inc Holdings"))
	assert.Equal(t, "acme llc", n.Name("Acme LLC"))
}
