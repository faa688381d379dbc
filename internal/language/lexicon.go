package language

import (
	"strings"
	"unicode"
)

// Keywords lists the phrases that signal each intent in one language.
type Keywords struct {
	AgentTransfer []string
	Affirmative   []string
	Negative      []string
	// Greetings only help language detection.
	Greetings []string
}

// Lexicon maps a two letter language prefix to its keywords.
type Lexicon map[string]Keywords

// DefaultLexicon is the keyword table used for intent fallback and language
// detection.
var DefaultLexicon = Lexicon{
	"en": {
		AgentTransfer: []string{"agent", "live agent", "speak to someone", "transfer", "help desk", "human"},
		Affirmative:   []string{"yes", "okay", "ok", "sure", "alright", "go ahead", "continue", "yeah", "yup", "of course", "please do", "you may", "proceed"},
		Negative:      []string{"no", "not now", "later", "don't want", "dont want", "maybe later", "not interested", "nope", "nah"},
		Greetings:     []string{"hello", "hi"},
	},
	"hi": {
		AgentTransfer: []string{"एजेंट", "किसी से बात"},
		Affirmative:   []string{"हाँ", "हां", "हॉं", "बिलकुल", "बिल्कुल", "ठीक है", "ज़रूर", "जरूर", "haan", "haa", "theek hai", "bilkul", "zaroor"},
		Negative:      []string{"नहीं", "नही", "बाद में", "अभी नहीं", "nahi", "nahin", "baad mein"},
		Greetings:     []string{"नमस्ते", "कैसे", "आप", "namaste"},
	},
	"ta": {
		AgentTransfer: []string{"ஏஜென்ட்", "முகவர்"},
		Affirmative:   []string{"ஆம்", "ஆமாம்", "சரி", "தயார்", "பேசுங்கள்", "இயலும்", "தொடங்கு", "ஆம் சரி", "வாங்க", "நிச்சயம்"},
		Negative:      []string{"இல்லை", "வேண்டாம்", "இப்போது இல்லை", "பின்னர்", "இல்ல"},
		Greetings:     []string{"வணக்கம்", "எப்படி"},
	},
	"te": {
		AgentTransfer: []string{"ఏజెంట్"},
		Affirmative:   []string{"అవును", "సరే", "చెప్పు", "తప్పకుండా", "అలాగే", "తయారు", "ఓకే"},
		Negative:      []string{"కాదు", "వద్దు", "ఇప్పుడవసరం లేదు", "తరువాత"},
		Greetings:     []string{"హాయ్", "ఎలా", "నమస్కారం"},
	},
	"kn": {
		AgentTransfer: []string{"ಏಜೆಂಟ್"},
		Affirmative:   []string{"ಹೌದು", "ಸರಿ", "ಹೇಳಿ", "ತಯಾರು", "ನಿಶ್ಚಿತವಾಗಿ", "ಬನ್ನಿ", "ಓಕೆ"},
		Negative:      []string{"ಇಲ್ಲ", "ಬೇಡ", "ಇಲ್ಲವೇ", "ನಂತರ", "ಇದೀಗ ಬೇಡ"},
		Greetings:     []string{"ಹೆಲೋ", "ಹೆಗಿದೆ", "ನಮಸ್ಕಾರ"},
	},
	"ml": {
		AgentTransfer: []string{"ഏജന്റ്"},
		Affirmative:   []string{"ശരി", "അതെ", "തുടങ്ങി", "നിശ്ചയം", "തയ്യാര്", "ആണേ", "ഓക്കേ"},
		Negative:      []string{"ഇല്ല", "വേണ്ട", "ഇപ്പോൾ ഇല്ല", "പിന്നീട്"},
		Greetings:     []string{"നമസ്കാരം"},
	},
}

// Match runs the keyword fallback: agent-transfer phrases first, then
// affirmative, then negative. The first match wins; no match is unclear.
// English keywords are also tried for other languages since callers often
// answer in English.
func (lx Lexicon) Match(transcript string, lang Language) Intent {
	text := Normalize(transcript)
	if text == "" {
		return IntentUnclear
	}
	tokens := strings.Fields(text)
	prefixes := []string{lang.Prefix()}
	if lang.Prefix() != Default.Prefix() {
		prefixes = append(prefixes, Default.Prefix())
	}
	for _, prefix := range prefixes {
		kw, ok := lx[prefix]
		if !ok {
			continue
		}
		switch {
		case containsAny(text, tokens, kw.AgentTransfer):
			return IntentAgentTransfer
		case containsAny(text, tokens, kw.Affirmative):
			return IntentAffirmative
		case containsAny(text, tokens, kw.Negative):
			return IntentNegative
		}
	}
	return IntentUnclear
}

// Mentions reports whether any keyword of the given language appears in
// the transcript.
func (lx Lexicon) Mentions(transcript string, lang Language) bool {
	kw, ok := lx[lang.Prefix()]
	if !ok {
		return false
	}
	text := Normalize(transcript)
	if text == "" {
		return false
	}
	tokens := strings.Fields(text)
	return containsAny(text, tokens, kw.AgentTransfer) ||
		containsAny(text, tokens, kw.Affirmative) ||
		containsAny(text, tokens, kw.Negative) ||
		containsAny(text, tokens, kw.Greetings)
}

// Normalize lowercases the transcript, replaces punctuation with spaces and
// collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			if r == '\'' || r == '’' {
				return '\''
			}
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// containsAny matches Latin phrases as whole token sequences so "no" does not
// match "know". Indic phrases are matched as substrings because inflected
// forms attach suffixes to the keyword.
func containsAny(text string, tokens []string, phrases []string) bool {
	for _, p := range phrases {
		p = Normalize(p)
		if p == "" {
			continue
		}
		if isASCII(p) {
			if hasTokenSequence(tokens, strings.Fields(p)) {
				return true
			}
			continue
		}
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func hasTokenSequence(tokens, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(seq) <= len(tokens); i++ {
		for j, s := range seq {
			if tokens[i+j] != s {
				continue outer
			}
		}
		return true
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
