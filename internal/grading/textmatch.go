package grading

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// bracketReplacer maps the bracket styles seen in printed workbooks onto ASCII
// parentheses. Full-width forms are already folded by width.Fold before it runs.
var bracketReplacer = strings.NewReplacer(
	"[", "(", "]", ")",
	"{", "(", "}", ")",
	"〔", "(", "〕", ")",
	"【", "(", "】", ")",
	"〈", "(", "〉", ")",
	"《", "(", "》", ")",
	"「", "(", "」", ")",
)

// Sentence-terminal marks after width folding ("．" and "｡" fold onto these).
var terminalMarks = []string{".", "。"}

// Copula suffixes a child (or the model) appends to an answer: "40です".
var politeSuffixes = []string{"です", "である"}

// NormalizeProblemNumber reduces a problem identifier to its comparable form:
// no whitespace, half-width, lower-case, ASCII parentheses. Circled and
// parenthesized digits (①, ⑴) become "(1)". The result is stable under a
// second application.
func NormalizeProblemNumber(s string) string {
	s = width.Fold.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case r >= '①' && r <= '⑳':
			b.WriteString("(" + strconv.Itoa(int(r-'①')+1) + ")")
		case r >= '⑴' && r <= '⒇':
			b.WriteString("(" + strconv.Itoa(int(r-'⑴')+1) + ")")
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return bracketReplacer.Replace(b.String())
}

// NormalizeAnswer applies the answer-string normalization: trim, fold
// full-width letters and digits, drop all whitespace, strip trailing
// terminal punctuation and copula suffixes, lower-case.
func NormalizeAnswer(s string) string {
	s = strings.TrimSpace(s)
	s = width.Fold.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = trimTrailing(s)
	return strings.ToLower(s)
}

// trimTrailing strips one terminal mark and one copula per round until
// neither applies, so "40です。" and "40。" both end as "40".
func trimTrailing(s string) string {
	for {
		t := trimOneSuffix(s, terminalMarks)
		t = trimOneSuffix(t, politeSuffixes)
		if t == s {
			return s
		}
		s = t
	}
}

func trimOneSuffix(s string, suffixes []string) string {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return strings.TrimSuffix(s, suf)
		}
	}
	return s
}
