package textproc

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrChunkLimit is returned for a chunk limit that is not a positive power of two.
var ErrChunkLimit = errors.New("chunk limit must be a positive power of two")

// Chunk is a boundary-corrected slice of one file's bytes.
type Chunk struct {
	File int
	Seq  int // position of the chunk within its file, from 0
	Data []byte
	EOF  bool // the chunk reaches the end of the file
}

// Segmenter cuts a byte source into chunks of at most Limit bytes that never end inside a
// UTF-8 sequence or a word. A word longer than the limit is delivered whole in one
// oversized chunk.
type Segmenter struct {
	limit int
}

func NewSegmenter(limit int) (*Segmenter, error) {
	if limit <= 0 || limit&(limit-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrChunkLimit, limit)
	}
	return &Segmenter{limit: limit}, nil
}

func (s *Segmenter) Limit() int { return s.limit }

// Next reads the next chunk from src, which must be positioned at the first unread byte.
// Bytes read past the last word boundary are returned to src by seeking backwards.
func (s *Segmenter) Next(file int, src io.ReadSeeker) (Chunk, error) {
	buf := make([]byte, 0, s.limit)
	block := make([]byte, s.limit)
	scanned := 0
	for {
		n, err := io.ReadFull(src, block)
		buf = append(buf, block[:n]...)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Chunk{File: file, Data: buf, EOF: true}, nil
		}
		if err != nil {
			return Chunk{}, err
		}

		cut, stop := lastBoundary(buf, scanned)
		scanned = stop
		if cut == 0 {
			// no word boundary yet: the word continues past the limit
			continue
		}
		if rest := len(buf) - cut; rest > 0 {
			if _, err := src.Seek(int64(-rest), io.SeekCurrent); err != nil {
				return Chunk{}, fmt.Errorf("push back %d bytes: %w", rest, err)
			}
		}
		return Chunk{File: file, Data: buf[:cut]}, nil
	}
}

// lastBoundary scans buf from the character-aligned offset from and returns the offset just
// past the last word-closing separator (0 if none) along with the offset where scanning
// stopped, which is the start of a trailing incomplete UTF-8 sequence or len(buf).
func lastBoundary(buf []byte, from int) (cut, stop int) {
	i := from
	for i < len(buf) {
		if !utf8.FullRune(buf[i:]) {
			break
		}
		r, w := utf8.DecodeRune(buf[i:])
		i += w
		if ClosesWord(r) {
			cut = i
		}
	}
	return cut, i
}
