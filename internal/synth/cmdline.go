package synth

import "strings"

// cmdline accumulates shell words separated by single spaces
type cmdline struct {
	words []string
}

// raw appends words as they are. Used for fixed driver flags and the
// user's verbatim Flags and LinkerFlags.
func (c *cmdline) raw(words ...string) {
	for _, w := range words {
		if w != "" {
			c.words = append(c.words, w)
		}
	}
}

// arg appends words quoted for the shell when needed
func (c *cmdline) arg(words ...string) {
	for _, w := range words {
		c.words = append(c.words, Quote(w))
	}
}

func (c *cmdline) String() string {
	return strings.Join(c.words, " ")
}

// Quote wraps s in double quotes when it is empty or contains whitespace or
// a double quote. Anything else, including wildcards, is left alone so the
// shell can still expand it.
func Quote(s string) string {
	if s == "" {
		return `""`
	}
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
