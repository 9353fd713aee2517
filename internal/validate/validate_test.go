package validate

import (
	"strings"
	"testing"
)

func TestEmail(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"a@b.co", "john.doe@school.edu", "x@y.z", " a@b.c "} {
		if !Email(s) {
			t.Fatalf("expected valid: %q", s)
		}
	}
	for _, s := range []string{"", "plain", "a@b", "@b.c", "a@.c", "a@b.", "a b@c d.e", "a@ b.c"} {
		if Email(s) {
			t.Fatalf("expected invalid: %q", s)
		}
	}
}

func TestEmail_UnicodeWhitespace(t *testing.T) {
	t.Parallel()
	for _, s := range []string{
		"a\u00a0@b.c",
		"\u00a0@\u00a0.\u00a0",
		"a@b.\u3000",
		"a@\u2028.c",
		"\ufeff@b.c",
		"a\v@b.c",
	} {
		if Email(s) {
			t.Fatalf("expected invalid: %q", s)
		}
	}
	if !Email("\u00a0a@b.co\u3000") || !Email("ü@bü.de") {
		t.Fatalf("surrounding spaces and non-ASCII letters are allowed")
	}
}

func TestSignupPassword(t *testing.T) {
	t.Parallel()
	if !SignupPassword("Abcdef1!") {
		t.Fatalf("Abcdef1! must pass")
	}
	if !SignupPassword("Abc123!") {
		t.Fatalf("Abc123! must pass")
	}
	for _, s := range []string{
		"abcdef1!", // no uppercase
		"Abcdefg!", // no digit
		"Abcdef12", // no symbol
		"Ab1!",     // short
		"A1!bc",    // 5 chars
		"Abc1!\nx", // line terminator
		"Abcde1?",  // symbol outside the set
	} {
		if SignupPassword(s) {
			t.Fatalf("expected reject: %q", s)
		}
	}
	// length is measured in UTF-16 code units
	if !SignupPassword("A1!\U0001F600\U0001F600") {
		t.Fatalf("two astral characters count as four units")
	}
	if SignupPassword("A1!\u00e9\u00e9") {
		t.Fatalf("five BMP characters must fail")
	}
	for n := 0; n < 6; n++ {
		if SignupPassword(strings.Repeat("A", n)) {
			t.Fatalf("length %d must fail", n)
		}
	}
}

func TestLoginPassword_NoComplexity(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"abcdef", "123456", "      abcdef", "пароль"} {
		if !LoginPassword(s) {
			t.Fatalf("expected login accept: %q", s)
		}
	}
	for _, s := range []string{"", "abc", "  abc  ", "abcde"} {
		if LoginPassword(s) {
			t.Fatalf("expected login reject: %q", s)
		}
	}
}

func TestRequired_Username_Nickname(t *testing.T) {
	t.Parallel()
	if Required("") || Required("   ") || !Required(" x ") {
		t.Fatalf("Required mismatch")
	}
	if Username("ab") || Username("  ab  ") || !Username("abc") {
		t.Fatalf("Username mismatch")
	}
	if Required("\u00a0\u3000\ufeff") || Username("\u00a0ab\u3000") || !Username("a\U0001F600") {
		t.Fatalf("Unicode trim/length mismatch")
	}
	if !Nickname(false, "") || !Nickname(false, "stale") {
		t.Fatalf("nickname not required when unused")
	}
	if Nickname(true, "") || Nickname(true, "  ") || !Nickname(true, "Bob") {
		t.Fatalf("nickname required when used")
	}
}
