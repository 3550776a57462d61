package textproc

import (
	"strings"
	"testing"

	"github.com/yourorg/chunkmill/internal/types"
)

func TestTokenizeScenario(t *testing.T) {
	got := Tokenize([]byte("Uma casa amarela.\n"))
	want := types.Counts{Words: 3, Vowels: [types.NumVowels]uint64{3, 1, 0, 0, 1, 0}}
	if got != want {
		t.Fatalf("Tokenize=%+v; want %+v", got, want)
	}
}

func TestTokenizeRepeatedVowelCountsOnce(t *testing.T) {
	got := Tokenize([]byte("banana"))
	if got.Words != 1 || got.Vowels[ClassA] != 1 {
		t.Fatalf("banana: %+v", got)
	}
	got = Tokenize([]byte("Àááa ÊeÉ"))
	if got.Words != 2 || got.Vowels[ClassA] != 1 || got.Vowels[ClassE] != 1 {
		t.Fatalf("accented repeats: %+v", got)
	}
}

func TestTokenizeApostropheKeepsWord(t *testing.T) {
	cases := map[string]uint64{
		"d'água":          1,
		"rock’n’roll now": 2,
		"' ` ‘ ’":         0,
		"  ,,  ..  ":      0,
		"a-b_c":           3,
		"fim":             1,
		"x\ty\nz\r\nw":    4,
	}
	for in, want := range cases {
		if got := Tokenize([]byte(in)).Words; got != want {
			t.Fatalf("Tokenize(%q).Words=%d; want %d", in, got, want)
		}
	}
	// the a of "d'água" and the a of "água" belong to one word
	if got := Tokenize([]byte("d'água")); got.Vowels[ClassA] != 1 {
		t.Fatalf("d'água: %+v", got)
	}
}

func TestTokenizeChunkingIsTransparent(t *testing.T) {
	data := []byte(strings.Repeat(corpus+" ", 11))
	whole := Tokenize(data)
	if whole.Words == 0 {
		t.Fatalf("corpus produced no words")
	}
	for limit := 1; limit <= 8192; limit *= 2 {
		var sum types.Counts
		for _, c := range segmentAll(t, data, limit) {
			sum.Add(Tokenize(c.Data))
		}
		if sum != whole {
			t.Fatalf("limit %d: chunked %+v != whole %+v", limit, sum, whole)
		}
	}
}
