package textproc

import "github.com/yourorg/chunkmill/internal/types"

// Class is the category of one decoded character. Values 0..5 are vowel buckets and
// index directly into types.Counts.Vowels.
type Class int8

const (
	ClassOther     Class = -1
	ClassA         Class = 0
	ClassE         Class = 1
	ClassI         Class = 2
	ClassO         Class = 3
	ClassU         Class = 4
	ClassY         Class = 5
	ClassSeparator Class = 6
)

// IsVowel reports whether c is one of the six vowel buckets.
func (c Class) IsVowel() bool { return c >= ClassA && c < types.NumVowels }

// Classify maps a code point to its class. Matching is case-insensitive and covers the
// Latin-1 accented forms of each vowel.
func Classify(r rune) Class {
	switch r {
	case 'A', 'a',
		'À', 'Á', 'Â', 'Ã', 'Ä', 'Å', 'Æ',
		'à', 'á', 'â', 'ã', 'ä', 'å', 'æ':
		return ClassA
	case 'E', 'e',
		'È', 'É', 'Ê', 'Ë',
		'è', 'é', 'ê', 'ë':
		return ClassE
	case 'I', 'i',
		'Ì', 'Í', 'Î', 'Ï',
		'ì', 'í', 'î', 'ï':
		return ClassI
	case 'O', 'o',
		'Ò', 'Ó', 'Ô', 'Õ', 'Ö', 'Ø',
		'ò', 'ó', 'ô', 'õ', 'ö', 'ø':
		return ClassO
	case 'U', 'u',
		'Ù', 'Ú', 'Û', 'Ü',
		'ù', 'ú', 'û', 'ü':
		return ClassU
	case 'Y', 'y',
		'Ý', 'ý', 'ÿ':
		return ClassY
	case ' ', '\t', '\n', '\r',
		'"', '-', '_', '[', ']', '(', ')',
		',', '.', ':', ';', '?', '!',
		'«', '»', '¨',
		'–', // en dash
		'—', // em dash
		'…', // ellipsis
		'“', '”',
		'\'', '`', '‘', '’':
		return ClassSeparator
	}
	return ClassOther
}

// IsApostrophe reports whether r is an apostrophe-like separator. These never close a word.
func IsApostrophe(r rune) bool {
	switch r {
	case '\'', '`', '‘', '’':
		return true
	}
	return false
}

// ClosesWord reports whether r ends the current word.
func ClosesWord(r rune) bool {
	return Classify(r) == ClassSeparator && !IsApostrophe(r)
}
