// Package redact masks secrets in log output.
package redact

import (
	"regexp"
	"strings"
)

// Placeholder replaces every redacted secret.
const Placeholder = "***"

// minSecretLen is the shortest literal worth redacting; shorter values
// would mask ordinary words.
const minSecretLen = 4

var (
	bearerPattern   = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]{8,}`)
	userinfoPattern = regexp.MustCompile(`(://[^/\s:@]+:)[^/\s@]+@`)
	tokenPatterns   = []*regexp.Regexp{
		regexp.MustCompile(`(ghp_|gho_|ghs_|github_pat_)[A-Za-z0-9_]{20,}`),
		regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
		regexp.MustCompile(`xox[bp]-[0-9]+-[A-Za-z0-9-]+`),
	}
)

// Redactor masks known secret values and common credential shapes
// (bearer tokens, URL passwords, well-known token formats). It is
// immutable and safe for concurrent use.
type Redactor struct {
	literals []string
}

// New creates a redactor for the given literal secrets. Values shorter
// than four bytes are ignored.
func New(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		if len(s) >= minSecretLen {
			r.literals = append(r.literals, s)
		}
	}
	return r
}

// String returns s with every secret masked.
func (r *Redactor) String(s string) string {
	if s == "" {
		return s
	}
	for _, lit := range r.literals {
		s = strings.ReplaceAll(s, lit, Placeholder)
	}
	s = bearerPattern.ReplaceAllString(s, "${1}"+Placeholder)
	s = userinfoPattern.ReplaceAllString(s, "${1}"+Placeholder+"@")
	for _, p := range tokenPatterns {
		s = p.ReplaceAllString(s, Placeholder)
	}
	return s
}
