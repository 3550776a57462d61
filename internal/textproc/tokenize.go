package textproc

import (
	"unicode/utf8"

	"github.com/yourorg/chunkmill/internal/types"
)

// Tokenize counts the words in data and, per vowel, the words containing that vowel.
// A vowel repeated inside one word counts once. Apostrophes do not end a word, and a
// word still open at the end of data is counted.
func Tokenize(data []byte) types.Counts {
	var (
		c      types.Counts
		seen   [types.NumVowels]bool
		inWord bool
	)
	for i := 0; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		i += w

		cl := Classify(r)
		switch {
		case cl.IsVowel():
			inWord = true
			if !seen[cl] {
				seen[cl] = true
				c.Vowels[cl]++
			}
		case cl == ClassSeparator:
			if IsApostrophe(r) {
				continue
			}
			if inWord {
				c.Words++
				seen = [types.NumVowels]bool{}
				inWord = false
			}
		default:
			inWord = true
		}
	}
	if inWord {
		c.Words++
	}
	return c
}
