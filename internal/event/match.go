package event

import (
	"strings"
	"unicode/utf8"
)

// particles are the syllables that may follow a one-syllable keyword.
const particles = "이가을를은는의에과와도로으만"

// shortWordLen is the longest ASCII keyword that must match a whole word.
const shortWordLen = 4

// ContainsKeyword reports whether kw occurs in text. Both are expected to be
// lower-cased already. Short ASCII keywords ("test", "mri", "er") only match
// whole words, optionally with a plural "s", so "latest" is not a test. A
// single Hangul syllable ("암") must end its word or be followed by a
// particle, so "암시" does not match but "위암 의증" and "위암으로" do.
// Longer keywords match as plain substrings.
func ContainsKeyword(text, kw string) bool {
	if kw == "" {
		return false
	}
	switch {
	case isASCIIWord(kw) && len(kw) <= shortWordLen:
		return indexEach(text, kw, func(pos int) bool {
			if pos > 0 && isWordByte(text[pos-1]) {
				return false
			}
			end := pos + len(kw)
			if end < len(text) && text[end] == 's' {
				end++
			}
			return end >= len(text) || !isWordByte(text[end])
		})
	case utf8.RuneCountInString(kw) == 1 && isHangulSyllable(firstRune(kw)):
		return indexEach(text, kw, func(pos int) bool {
			next, _ := utf8.DecodeRuneInString(text[pos+len(kw):])
			return !isHangulSyllable(next) || strings.ContainsRune(particles, next)
		})
	}
	return strings.Contains(text, kw)
}

// ContainsAnyKeyword reports whether any of keywords occurs in text.
func ContainsAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if ContainsKeyword(text, kw) {
			return true
		}
	}
	return false
}

// indexEach calls accept for every occurrence of kw until one is accepted.
func indexEach(text, kw string, accept func(pos int) bool) bool {
	for off := 0; off < len(text); {
		i := strings.Index(text[off:], kw)
		if i < 0 {
			return false
		}
		if accept(off + i) {
			return true
		}
		off += i + len(kw)
	}
	return false
}

func isASCIIWord(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isHangulSyllable(r rune) bool {
	return r >= 0xAC00 && r <= 0xD7A3
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
