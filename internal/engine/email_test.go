package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.com", "jane.doe+crisp@acme.co.uk", "x@y.z"}
	invalid := []string{"", "not-an-email", "a@b", "@b.com", "a@.com ", "a b@c.com", "a@@b.com", "a@b.com extra"}

	for _, s := range valid {
		assert.True(t, ValidEmail(s), s)
	}
	for _, s := range invalid {
		assert.False(t, ValidEmail(s), s)
	}
}

func TestExtractEmail(t *testing.T) {
	tests := map[string]string{
		"I need help, my email is a@b.com":  "a@b.com",
		"reach me at (jane@acme.io).":       "jane@acme.io",
		"first a@b.com then c@d.com":        "a@b.com",
		"no address here":                   "",
		"almost@there":                      "",
		"<bob@example.com>, thanks":         "bob@example.com",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractEmail(in), in)
	}
}
