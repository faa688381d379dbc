package language

import "unicode"

type detector struct {
	lang   Language
	script *unicode.RangeTable
}

// detectionOrder is significant: scripts shared between languages resolve
// to the earlier entry, and a keyword hit for an earlier language beats a
// script hit for a later one. Marathi has no entry: it is written in
// Devanagari and resolves to Hindi.
var detectionOrder = []detector{
	{Hindi, unicode.Devanagari},
	{Tamil, unicode.Tamil},
	{Telugu, unicode.Telugu},
	{Kannada, unicode.Kannada},
	{Malayalam, unicode.Malayalam},
	{Bengali, unicode.Bengali},
	{Gujarati, unicode.Gujarati},
	{Punjabi, unicode.Gurmukhi},
	{Odia, unicode.Oriya},
}

// Detect picks the caller's language from a transcript. Each language in
// priority order passes if the transcript mentions one of its keywords or
// contains a character of its script. Nothing matching yields Default.
func Detect(transcript string) Language {
	return DefaultLexicon.Detect(transcript)
}

// Detect is Detect against a custom lexicon.
func (lx Lexicon) Detect(transcript string) Language {
	if transcript == "" {
		return Default
	}
	for _, d := range detectionOrder {
		if lx.Mentions(transcript, d.lang) || hasScript(transcript, d.script) {
			return d.lang
		}
	}
	return Default
}

func hasScript(s string, table *unicode.RangeTable) bool {
	for _, r := range s {
		if unicode.Is(table, r) {
			return true
		}
	}
	return false
}
