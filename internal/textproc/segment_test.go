package textproc

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

const corpus = "Uma casa amarela.\nO João disse: «não há pão!» — e saiu…\n" +
	"A d'água é fria; o avô’s barco (velho) navega [devagar]? Sim.\n" +
	"Ação, coração, informação e paralelepípedo-lá\tfim"

func segmentAll(t *testing.T, data []byte, limit int) []Chunk {
	t.Helper()
	s, err := NewSegmenter(limit)
	if err != nil {
		t.Fatalf("NewSegmenter(%d): %v", limit, err)
	}
	r := bytes.NewReader(data)
	var out []Chunk
	for i := 0; ; i++ {
		if i > len(data)+2 {
			t.Fatalf("limit %d: segmenter did not terminate", limit)
		}
		c, err := s.Next(0, r)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, c)
		if c.EOF {
			return out
		}
	}
}

func TestNewSegmenterRejectsBadLimits(t *testing.T) {
	for _, n := range []int{0, -4, 3, 4095, 6000} {
		if _, err := NewSegmenter(n); !errors.Is(err, ErrChunkLimit) {
			t.Fatalf("NewSegmenter(%d) err=%v; want ErrChunkLimit", n, err)
		}
	}
	for _, n := range []int{1, 2, 4096, 8192} {
		if _, err := NewSegmenter(n); err != nil {
			t.Fatalf("NewSegmenter(%d): %v", n, err)
		}
	}
}

func TestSegmenterRoundTrip(t *testing.T) {
	data := []byte(strings.Repeat(corpus+"\n", 7))
	for limit := 1; limit <= 8192; limit *= 2 {
		var got []byte
		for _, c := range segmentAll(t, data, limit) {
			got = append(got, c.Data...)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("limit %d: concatenated chunks differ from input", limit)
		}
	}
}

func TestSegmenterBoundaries(t *testing.T) {
	data := []byte(strings.Repeat(corpus+" ", 5))
	for limit := 1; limit <= 256; limit *= 2 {
		chunks := segmentAll(t, data, limit)
		for i, c := range chunks {
			if !utf8.Valid(c.Data) {
				t.Fatalf("limit %d chunk %d: split inside a UTF-8 sequence: %q", limit, i, c.Data)
			}
			if c.EOF {
				if i != len(chunks)-1 {
					t.Fatalf("limit %d: EOF chunk %d is not last", limit, i)
				}
				continue
			}
			last, _ := utf8.DecodeLastRune(c.Data)
			if !ClosesWord(last) {
				t.Fatalf("limit %d chunk %d ends inside a word: %q", limit, i, c.Data)
			}
			if len(c.Data) > limit {
				// only allowed when no word boundary fits in the limit
				if cut, _ := lastBoundary(c.Data[:limit], 0); cut != 0 {
					t.Fatalf("limit %d chunk %d is oversized (%d) though a boundary fits", limit, i, len(c.Data))
				}
			}
		}
	}
}

func TestSegmenterWordLongerThanLimit(t *testing.T) {
	data := []byte("abcdefghij klm nop")
	chunks := segmentAll(t, data, 4)
	want := []string{"abcdefghij ", "klm ", "nop"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks; want %d", len(chunks), len(want))
	}
	for i, w := range want {
		if string(chunks[i].Data) != w {
			t.Fatalf("chunk %d = %q; want %q", i, chunks[i].Data, w)
		}
	}
	if !chunks[2].EOF || chunks[0].EOF || chunks[1].EOF {
		t.Fatalf("EOF flag only expected on the last chunk")
	}
}

func TestSegmenterEmptyAndExactFit(t *testing.T) {
	chunks := segmentAll(t, nil, 4)
	if len(chunks) != 1 || !chunks[0].EOF || len(chunks[0].Data) != 0 {
		t.Fatalf("empty input: %+v", chunks)
	}
	// input exactly one limit long, ending on a separator
	chunks = segmentAll(t, []byte("ab. "), 4)
	if len(chunks) != 2 || string(chunks[0].Data) != "ab. " || !chunks[1].EOF || len(chunks[1].Data) != 0 {
		t.Fatalf("exact fit: %+v", chunks)
	}
}

func TestSegmenterMultibyteAtLimit(t *testing.T) {
	// "é" straddles the 4-byte limit; it must move whole into the next chunk
	data := []byte("oi é bom")
	chunks := segmentAll(t, data, 4)
	if string(chunks[0].Data) != "oi " {
		t.Fatalf("first chunk %q; want %q", chunks[0].Data, "oi ")
	}
}
