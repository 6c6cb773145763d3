package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	NameMinLength     = 2
	NameMaxLength     = 155
	EmailMaxLength    = 254
	FullNameMinLength = 3
	FullNameMaxLength = 255
)

var (
	// Word and space classes are spelled out so they match beyond ASCII.
	whitespaceRun  = regexp.MustCompile(`[\s\p{Z}]+`)
	emailPattern   = regexp.MustCompile(`^([\p{L}\p{M}\p{N}\p{Pc}.\-]+)@([\p{L}\p{M}\p{N}\p{Pc}\-]+)((\.[\p{L}\p{M}\p{N}\p{Pc}]{2,3})+)$`)
	fullNameFormat = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿ]+(?:[ '\-][A-Za-zÀ-ÖØ-öø-ÿ]+)*$`)
)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Name is a workspace display name.
type Name struct{ value string }

// ParseName collapses whitespace first and only then checks for emptiness,
// so input made of whitespace alone is rejected.
func ParseName(raw string) (Name, error) {
	v := collapseWhitespace(raw)
	if v == "" {
		return Name{}, violation("name is required")
	}
	if n := utf8.RuneCountInString(v); n < NameMinLength || n > NameMaxLength {
		return Name{}, violation("name must be between %d and %d characters", NameMinLength, NameMaxLength)
	}
	return Name{value: v}, nil
}

// MustParseName panics on invalid input. Fixtures only.
func MustParseName(raw string) Name {
	n, err := ParseName(raw)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Name) String() string { return n.value }
func (n Name) IsZero() bool   { return n.value == "" }

// Email is a normalised (trimmed, lower-cased) email address.
type Email struct{ value string }

func ParseEmail(raw string) (Email, error) {
	if strings.TrimSpace(raw) == "" {
		return Email{}, violation("email is required")
	}
	v := strings.ToLower(strings.TrimSpace(raw))
	if len(v) > EmailMaxLength {
		return Email{}, violation("email must be at most %d characters", EmailMaxLength)
	}
	if !emailPattern.MatchString(v) {
		return Email{}, violation("email is not a valid address")
	}
	return Email{value: v}, nil
}

// MustParseEmail panics on invalid input. Fixtures only.
func MustParseEmail(raw string) Email {
	e, err := ParseEmail(raw)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Email) String() string { return e.value }
func (e Email) IsZero() bool   { return e.value == "" }

// FullName is a person's name: letters (accented Latin included) separated by
// single spaces, hyphens or apostrophes.
type FullName struct{ value string }

func ParseFullName(raw string) (FullName, error) {
	if strings.TrimSpace(raw) == "" {
		return FullName{}, violation("full name is required")
	}
	v := collapseWhitespace(raw)
	if !fullNameFormat.MatchString(v) {
		return FullName{}, violation("full name may only contain letters, spaces, hyphens and apostrophes")
	}
	if n := utf8.RuneCountInString(v); n < FullNameMinLength || n > FullNameMaxLength {
		return FullName{}, violation("full name must be between %d and %d characters", FullNameMinLength, FullNameMaxLength)
	}
	return FullName{value: v}, nil
}

// MustParseFullName panics on invalid input. Fixtures only.
func MustParseFullName(raw string) FullName {
	f, err := ParseFullName(raw)
	if err != nil {
		panic(err)
	}
	return f
}

func (f FullName) String() string { return f.value }
func (f FullName) IsZero() bool   { return f.value == "" }
