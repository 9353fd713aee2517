// Package validate holds the pure form checks used before any request is sent.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"
)

// SignupSymbols is the punctuation set a signup password must draw from.
const SignupSymbols = "!@#$%^&*"

const (
	minPasswordLen = 6
	minUsernameLen = 3
)

// nonSpace is any rune outside the ECMAScript whitespace set (ASCII space
// and \t\n\v\f\r, NBSP, BOM and every Unicode separator).
const nonSpace = `[^\s\x0B\p{Z}\x{FEFF}]+`

var reEmail = regexp.MustCompile(nonSpace + `@` + nonSpace + `\.` + nonSpace)

// Email reports whether s contains a local@domain.tld shape.
func Email(s string) bool { return reEmail.MatchString(s) }

// isSpace matches the same set as nonSpace excludes.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\uFEFF':
		return true
	}
	return unicode.In(r, unicode.Z)
}

func trim(s string) string { return strings.TrimFunc(s, isSpace) }

// units returns the length of s in UTF-16 code units.
func units(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// LoginPassword only enforces the minimum length.
func LoginPassword(s string) bool {
	return units(trim(s)) >= minPasswordLen
}

// SignupPassword requires length >= 6, an ASCII uppercase letter, a digit and
// one of SignupSymbols. Length counts UTF-16 code units, so a character
// outside the BMP counts twice. Line terminators are rejected.
func SignupPassword(s string) bool {
	var upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029':
			return false
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(SignupSymbols, r):
			symbol = true
		}
	}
	return units(s) >= minPasswordLen && upper && digit && symbol
}

// Required reports whether s has non-space content.
func Required(s string) bool { return trim(s) != "" }

// Username requires at least three non-space-padded characters.
func Username(s string) bool {
	return units(trim(s)) >= minUsernameLen
}

// Nickname is required only when the user opted to share one.
func Nickname(usesNickname bool, nickname string) bool {
	return !usesNickname || Required(nickname)
}
