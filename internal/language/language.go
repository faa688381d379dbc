// Package language defines the fixed set of languages a call can be conducted
// in, detects the caller's language from a transcript, and classifies the
// caller's intent.
package language

import "strings"

// Language is a BCP-47 style regional language tag such as "hi-IN".
type Language string

const (
	English   Language = "en-IN"
	Hindi     Language = "hi-IN"
	Tamil     Language = "ta-IN"
	Telugu    Language = "te-IN"
	Kannada   Language = "kn-IN"
	Malayalam Language = "ml-IN"
	Gujarati  Language = "gu-IN"
	Marathi   Language = "mr-IN"
	Bengali   Language = "bn-IN"
	Odia      Language = "od-IN"
	Punjabi   Language = "pa-IN"
)

// Default is used whenever a language is unknown or unsupported.
const Default = English

var supported = []Language{English, Hindi, Tamil, Telugu, Kannada, Malayalam, Gujarati, Marathi, Bengali, Odia, Punjabi}

// Supported returns every supported language in a stable order.
func Supported() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// Parse maps a language code onto a supported Language. Matching is
// case-insensitive and accepts bare prefixes ("hi") and underscores.
func Parse(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "_", "-")))
	if code == "" {
		return "", false
	}
	// "or" is the ISO code, Sarvam uses "od".
	if code == "or" || code == "or-in" {
		return Odia, true
	}
	for _, l := range supported {
		if strings.ToLower(string(l)) == code || l.Prefix() == code {
			return l, true
		}
	}
	return "", false
}

// Lookup is the total form of Parse: unsupported codes map to Default.
func Lookup(code string) Language {
	if l, ok := Parse(code); ok {
		return l
	}
	return Default
}

// Code returns the tag as sent to the speech services.
func (l Language) Code() string { return string(l) }

// Prefix returns the two letter language part of the tag.
func (l Language) Prefix() string {
	s := strings.ToLower(string(l))
	if i := strings.IndexByte(s, '-'); i >= 0 {
		return s[:i]
	}
	return s
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	for _, s := range supported {
		if s == l {
			return true
		}
	}
	return false
}

func (l Language) String() string { return string(l) }
