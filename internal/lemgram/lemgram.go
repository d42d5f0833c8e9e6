// Package lemgram normalizes SALDO lemgram identifiers. A lemgram is a
// disambiguated lemma identifier of the form <lemma>..<pos>.<sense>, e.g.
// "djur..nn.1". Corpus exports wrap lemgrams in pipe delimiters and decorate
// compound heads with numeric suffixes ("|förslag_2 |förslag_2..nn.1|..."),
// so every identifier entering the pipeline passes through Normalize first.
package lemgram

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// dashReplacer unifies unicode dash variants to a plain hyphen.
var dashReplacer = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
)

var (
	// canonical matches a well-formed lemgram: <lemma>..<pos>.<sense>.
	canonical = regexp.MustCompile(`^[^|]+\.\.[a-zA-Z]+\.[0-9]+$`)
	// compoundInfix matches numeric compound-disambiguation suffixes stuck
	// between the lemma and its POS/sense tail ("förslag_2..nn.1"). Suffixes
	// can stack ("a_2_3..nn.1"), so the whole run is consumed at once.
	compoundInfix = regexp.MustCompile(`(_[0-9]+)+\.\.`)
	// compoundTail matches the same suffix run on a bare lemma ("förslag_2").
	compoundTail = regexp.MustCompile(`(_[0-9]+)+$`)
)

// Normalize derives a canonical identifier from a raw, possibly pipe-wrapped
// and compound-decorated key. It is total (never fails; input that matches
// no canonical pattern comes back best-effort cleaned) and idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = dashReplacer.Replace(s)

	if strings.Contains(s, "|") {
		var parts []string
		for _, p := range strings.Split(s, "|") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			return ""
		}
		// The rightmost well-formed segment is the canonical compound head.
		s = parts[len(parts)-1]
		for i := len(parts) - 1; i >= 0; i-- {
			if isCanonical(parts[i]) {
				s = parts[i]
				break
			}
		}
	}

	s = compoundInfix.ReplaceAllString(s, "..")
	s = compoundTail.ReplaceAllString(s, "")
	return s
}

// Base returns the bare lemma string of an identifier, stripped of any
// POS/sense suffix: Base("djur..nn.1") == "djur".
func Base(id string) string {
	if i := strings.Index(id, ".."); i >= 0 {
		return id[:i]
	}
	return id
}

// isCanonical reports whether id matches the <lemma>..<pos>.<sense> pattern.
func isCanonical(id string) bool {
	return canonical.MatchString(id)
}
